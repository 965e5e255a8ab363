package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/middleware"
	"github.com/campuslink/campuslink/internal/pubsub"
	"github.com/campuslink/campuslink/internal/token"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles registration, login, and email verification.
type AuthHandler struct {
	users     domain.UserRepository
	codec     *token.Codec
	publisher pubsub.Publisher
	tokenTTL  time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users domain.UserRepository, codec *token.Codec, publisher pubsub.Publisher, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		users:     users,
		codec:     codec,
		publisher: publisher,
		tokenTTL:  tokenTTL,
	}
}

// Register creates a new user account (POST /api/auth/register).
func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request format."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not create your account."})
	}

	user, err := h.users.Create(ctx, domain.NewUser{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailUserAlreadyExists})
		}
		logger.Error("Failed to create user", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not create your account."})
	}

	h.publishRegistered(c, user)

	return c.JSON(http.StatusCreated, user)
}

// publishRegistered fires the registration event that triggers the
// verification email. Failure to publish never fails the registration.
func (h *AuthHandler) publishRegistered(c echo.Context, user *domain.User) {
	if h.publisher == nil {
		return
	}
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	payload, err := json.Marshal(pubsub.UserRegistered{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.PrimaryEmail(),
	})
	if err != nil {
		logger.Error("Failed to marshal registration event", "error", err)
		return
	}
	if err := h.publisher.Publish(ctx, pubsub.Message{
		Topic:   pubsub.TopicUserRegistered,
		Payload: payload,
	}); err != nil {
		logger.Error("Failed to publish registration event", "user_id", user.ID, "error", err)
	}
}

// Login exchanges form credentials for a bearer token (POST /api/auth/login).
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request format."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
	}

	creds, err := h.users.Credentials(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: detailInvalidUsername})
		}
		logger.Error("Failed to load credentials", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Login failed."})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("Failed login attempt", "username", req.Username)
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: detailInvalidPassword})
	}

	tokenString, err := h.codec.Issue(creds.UserID, h.tokenTTL)
	if err != nil {
		logger.Error("Failed to issue token", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Login failed."})
	}

	return c.JSON(http.StatusOK, TokenResponse{AccessToken: tokenString, TokenType: "bearer"})
}

// Me returns the canonical user for the bearer token (GET /api/auth/me).
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// VerifyEmail consumes a verification link token and flips the address to
// verified (GET /api/auth/verify-email/:token).
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()

	address, err := h.codec.VerifyEmailToken(c.Param("token"))
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailInvalidToken})
	}

	if err := h.users.MarkEmailVerified(ctx, address); err != nil {
		if errors.Is(err, domain.ErrEmailNotFound) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailEmailDontExist})
		}
		middleware.FromContext(ctx).Error("Failed to mark email verified", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Verification failed."})
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Email verified."})
}
