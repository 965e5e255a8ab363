package main

import (
	"github.com/campuslink/campuslink/internal/server"
)

func main() {
	s := server.New()

	s.RegisterRoutes()

	s.Start(s.Cfg.Addr)
}
