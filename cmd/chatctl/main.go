package main

import "github.com/campuslink/campuslink/cmd/chatctl/cmd"

func main() {
	cmd.Execute()
}
