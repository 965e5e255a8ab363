package server

import (
	"net/http"

	"github.com/campuslink/campuslink/internal/chat"
	"github.com/campuslink/campuslink/internal/database"
	"github.com/campuslink/campuslink/internal/handlers"
	appmiddleware "github.com/campuslink/campuslink/internal/middleware"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	s.E.Use(middleware.Recover())
	s.E.Use(middleware.RequestID())
	s.E.Use(appmiddleware.Logger)
	s.E.Use(echoprometheus.NewMiddleware("campuslink"))

	authHandler := handlers.NewAuthHandler(s.userStore, s.codec, s.bus, s.Cfg.TokenTTL)
	userHandler := handlers.NewUserHandler(s.userStore, s.roomStore)
	orgHandler := handlers.NewOrganizationHandler(database.NewOrganizationStore(s.DB), s.files)
	groupHandler := handlers.NewGroupHandler(database.NewGroupStore(s.DB))
	resourceHandler := handlers.NewResourceHandler(database.NewResourceStore(s.DB), s.files)
	chatHandler := chat.NewHandler(chat.SessionDeps{
		Registry:   s.registry,
		Resolver:   s.resolver,
		Rooms:      s.roomStore,
		Classifier: s.classifier,
		Publisher:  s.bus,
	})
	requireAuth := appmiddleware.Auth(s.resolver)
	rateLimiter := appmiddleware.RateLimiter()

	api := s.E.Group("/api")

	api.POST("/auth/register", authHandler.Register, rateLimiter)
	api.POST("/auth/login", authHandler.Login, rateLimiter)
	api.GET("/auth/me", authHandler.Me, requireAuth)
	api.GET("/auth/verify-email/:token", authHandler.VerifyEmail)

	users := api.Group("/users", requireAuth)
	users.PATCH("", userHandler.Patch)
	users.POST("/emails", userHandler.AddEmail)
	users.DELETE("/emails/:index", userHandler.RemoveEmail)
	users.POST("/rooms/:id", userHandler.JoinRoom)
	users.GET("/rooms/:id/membership", userHandler.Membership)

	orgs := api.Group("/organizations", requireAuth)
	orgs.POST("", orgHandler.Create)
	orgs.GET("", orgHandler.List)
	orgs.GET("/:id", orgHandler.Get)
	orgs.POST("/:id/groups", groupHandler.Create)
	orgs.GET("/:id/groups", groupHandler.ListByOrganization)

	groups := api.Group("/groups", requireAuth)
	groups.GET("/:id", groupHandler.Get)
	groups.GET("/:id/subgroups", groupHandler.Subgroups)
	groups.GET("/:id/breadcrumbs", groupHandler.Breadcrumbs)
	groups.POST("/:id/resources", resourceHandler.Upload)
	groups.GET("/:id/resources", resourceHandler.List)
	groups.POST("/:id/resources/:rid/vote", resourceHandler.Vote)

	// Chat authenticates inside the websocket handshake, not at the HTTP
	// layer.
	s.E.GET("/ws/chat", chatHandler.Serve)

	s.E.Static("/uploads", s.Cfg.UploadDir)

	s.E.GET("/metrics", echoprometheus.NewHandler())
	s.E.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
