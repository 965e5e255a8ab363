// Package server wires the application together: configuration, database,
// stores, the event bus, the chat subsystem, and the HTTP surface.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/campuslink/campuslink/internal/chat"
	"github.com/campuslink/campuslink/internal/config"
	"github.com/campuslink/campuslink/internal/database"
	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/email"
	"github.com/campuslink/campuslink/internal/handlers"
	"github.com/campuslink/campuslink/internal/identity"
	"github.com/campuslink/campuslink/internal/logging"
	"github.com/campuslink/campuslink/internal/metrics"
	"github.com/campuslink/campuslink/internal/moderation"
	"github.com/campuslink/campuslink/internal/pubsub"
	"github.com/campuslink/campuslink/internal/storage"
	"github.com/campuslink/campuslink/internal/token"
	"github.com/labstack/echo/v4"
	"github.com/surrealdb/surrealdb.go"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E   *echo.Echo
	DB  *surrealdb.DB
	Cfg *config.Config

	bus       *pubsub.WatermillBridge
	userStore domain.UserRepository
	roomStore domain.RoomRepository
	resolver  *identity.Resolver
	codec     *token.Codec
	files     storage.Store

	registry   *chat.Registry
	classifier moderation.Classifier
}

// New creates a new Server instance.
func New() *Server {
	logging.New()
	cfg := config.New()

	db, err := database.NewDB(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	metrics.Init()

	codec := token.NewCodec(cfg.AuthSecret)
	userStore := database.NewUserStore(db)
	roomStore := database.NewRoomStore(db)
	resolver := identity.NewResolver(codec, userStore)
	files := storage.NewOSStore(cfg.UploadDir)

	emailer, err := email.NewEmailService(cfg)
	if err != nil {
		slog.Error("Failed to initialize email service", "error", err)
		os.Exit(1)
	}

	bus := pubsub.NewWatermillBridge()
	verifier := email.NewRegistrationSubscriber(emailer, codec, cfg.AppBaseURL)
	if err := verifier.Start(context.Background(), bus); err != nil {
		slog.Error("Failed to start registration subscriber", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = detailErrorHandler

	return &Server{
		E:          e,
		DB:         db,
		Cfg:        cfg,
		bus:        bus,
		userStore:  userStore,
		roomStore:  roomStore,
		resolver:   resolver,
		codec:      codec,
		files:      files,
		registry:   chat.NewRegistry(),
		classifier: newClassifier(cfg),
	}
}

// newClassifier builds the message screen: the tengo script when one is
// configured, the built-in word list otherwise.
func newClassifier(cfg *config.Config) moderation.Classifier {
	wordList := moderation.NewWordList()
	if cfg.ModerationScript == "" {
		return wordList
	}
	scripted, err := moderation.NewScriptClassifier(cfg.ModerationScript, wordList)
	if err != nil {
		slog.Error("Failed to load moderation script, using word list",
			"path", cfg.ModerationScript, "error", err)
		return wordList
	}
	return scripted
}

// detailErrorHandler renders echo.HTTPError values in the API's
// {"detail": ...} shape instead of echo's default {"message": ...}.
func detailErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := "Internal server error."
	if httpErr, ok := err.(*echo.HTTPError); ok {
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			detail = msg
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if err := c.JSON(code, handlers.ErrorResponse{Detail: detail}); err != nil {
		slog.Error("Failed to write error response", "error", err)
	}
}

// UserStore is a getter for the server's user store, useful for testing.
func (s *Server) UserStore() domain.UserRepository {
	return s.userStore
}

// Registry is a getter for the chat connection registry, useful for testing.
func (s *Server) Registry() *chat.Registry {
	return s.registry
}
