package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/middleware"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles profile updates, email management, and room
// membership.
type UserHandler struct {
	users domain.UserRepository
	rooms domain.RoomRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users domain.UserRepository, rooms domain.RoomRepository) *UserHandler {
	return &UserHandler{users: users, rooms: rooms}
}

// Patch applies a partial profile update (PATCH /api/users).
func (h *UserHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)
	user := middleware.CurrentUser(c)

	var req PatchUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request format."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
	}

	patch := domain.UserPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("Failed to hash password", "error", err)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Update failed."})
		}
		hashed := string(hash)
		patch.PasswordHash = &hashed
	}

	if err := h.users.Update(ctx, user.Username, patch); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailUsernameAlreadyExists})
		}
		logger.Error("Failed to update user", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Update failed."})
	}

	// Re-read under the possibly renamed username.
	username := user.Username
	if patch.Username != nil {
		username = *patch.Username
	}
	updated, err := h.users.FindByUsername(ctx, username)
	if err != nil {
		logger.Error("Failed to reload updated user", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Update failed."})
	}

	return c.JSON(http.StatusOK, updated)
}

// AddEmail attaches a new unverified address (POST /api/users/emails).
func (h *UserHandler) AddEmail(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req AddEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request format."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
	}

	if err := h.users.AddEmail(ctx, user.Username, req.Email); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailEmailAlreadyExists})
		}
		middleware.FromContext(ctx).Error("Failed to add email", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not add the address."})
	}

	return c.JSON(http.StatusCreated, MessageResponse{Message: "Email added."})
}

// RemoveEmail deletes the address at the given position
// (DELETE /api/users/emails/:index).
func (h *UserHandler) RemoveEmail(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailEmailDontExist})
	}

	if err := h.users.RemoveEmail(ctx, user.Username, index); err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailNotFound):
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailEmailDontExist})
		case errors.Is(err, domain.ErrLastEmail):
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailDeleteAllEmails})
		default:
			middleware.FromContext(ctx).Error("Failed to remove email", "error", err)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not remove the address."})
		}
	}

	return c.NoContent(http.StatusNoContent)
}

// JoinRoom registers the user on an organization or group member list
// (POST /api/users/rooms/:id?kind=org|group).
func (h *UserHandler) JoinRoom(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	ref, err := roomRefFromRequest(c)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailRoomNotFound})
	}

	if err := h.rooms.AddMember(ctx, ref, user.Username); err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailRoomNotFound})
		case errors.Is(err, domain.ErrAlreadyJoined):
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailUserAlreadyJoined})
		default:
			middleware.FromContext(ctx).Error("Failed to join room", "room", ref.String(), "error", err)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not join."})
		}
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Joined."})
}

// Membership reports whether the user is on the room's member list
// (GET /api/users/rooms/:id/membership?kind=org|group).
func (h *UserHandler) Membership(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	ref, err := roomRefFromRequest(c)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailRoomNotFound})
	}

	joined, err := h.rooms.IsMember(ctx, ref, user.Username)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailRoomNotFound})
		}
		middleware.FromContext(ctx).Error("Failed to check membership", "room", ref.String(), "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not check membership."})
	}

	return c.JSON(http.StatusOK, MembershipResponse{Joined: joined})
}

// roomRefFromRequest builds the room address from the path id and the kind
// query parameter.
func roomRefFromRequest(c echo.Context) (domain.RoomRef, error) {
	kind, err := domain.ParseRoomKind(c.QueryParam("kind"))
	if err != nil {
		return domain.RoomRef{}, err
	}
	return domain.RoomRef{Kind: kind, ID: c.Param("id")}, nil
}
