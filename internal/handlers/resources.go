package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/middleware"
	"github.com/campuslink/campuslink/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ResourceHandler handles file-backed learning resources inside groups.
type ResourceHandler struct {
	resources domain.ResourceRepository
	files     storage.Store
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(resources domain.ResourceRepository, files storage.Store) *ResourceHandler {
	return &ResourceHandler{resources: resources, files: files}
}

// Upload stores the file and appends the resource to the group
// (POST /api/groups/:id/resources).
func (h *ResourceHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)
	user := middleware.CurrentUser(c)
	groupID := c.Param("id")

	var req UploadResourceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request format."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
	}

	src, err := req.File.Open()
	if err != nil {
		logger.Error("Failed to open uploaded resource", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not store the file."})
	}
	defer src.Close()

	ext := filepath.Ext(filepath.Base(req.File.Filename))
	path := filepath.Join("resources", filepath.Base(groupID), uuid.NewString()+ext)
	if _, err := h.files.Save(ctx, path, src); err != nil {
		logger.Error("Failed to save resource file", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not store the file."})
	}

	resource := domain.Resource{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		FileURL:     "/uploads/" + filepath.ToSlash(path),
		UploadedBy:  user.ID,
		Rating:      -1,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.resources.Add(ctx, groupID, resource); err != nil {
		// The group vanished between upload and append; drop the orphan.
		_ = h.files.Delete(ctx, path)
		if errors.Is(err, domain.ErrGroupNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Detail: detailGroupNotFound})
		}
		logger.Error("Failed to append resource", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not store the resource."})
	}

	return c.JSON(http.StatusCreated, resource)
}

// List returns the group's resources (GET /api/groups/:id/resources).
func (h *ResourceHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	resources, err := h.resources.List(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Detail: detailGroupNotFound})
		}
		middleware.FromContext(ctx).Error("Failed to list resources", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not list resources."})
	}

	return c.JSON(http.StatusOK, resources)
}

// Vote records the user's rating for a resource
// (POST /api/groups/:id/resources/:rid/vote).
func (h *ResourceHandler) Vote(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req VoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request format."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
	}

	resource, err := h.resources.Vote(ctx, c.Param("id"), c.Param("rid"), user.ID, *req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrGroupNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Detail: detailGroupNotFound})
		case errors.Is(err, domain.ErrResourceNotFound):
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailResourceNotFound})
		default:
			middleware.FromContext(ctx).Error("Failed to record vote", "error", err)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not record the vote."})
		}
	}

	return c.JSON(http.StatusOK, resource)
}
