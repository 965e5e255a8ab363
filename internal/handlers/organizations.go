package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/middleware"
	"github.com/campuslink/campuslink/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// defaultOrganizationPhoto is served when no photo is uploaded at creation.
const defaultOrganizationPhoto = "/static/default-organization.png"

// photoMimeTypes are the accepted organization photo content types.
var photoMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// OrganizationHandler handles organization creation and lookup.
type OrganizationHandler struct {
	orgs  domain.OrganizationRepository
	files storage.Store
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgs domain.OrganizationRepository, files storage.Store) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, files: files}
}

// Create registers a new organization from a multipart form
// (POST /api/organizations).
func (h *OrganizationHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var req CreateOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request format."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
	}

	photoURL := defaultOrganizationPhoto
	if req.Photo != nil {
		url, err := h.savePhoto(c, req)
		if err != nil {
			return err // already an echo.HTTPError with the right status
		}
		photoURL = url
	}

	org, err := h.orgs.Create(ctx, domain.NewOrganization{
		Name:        req.Name,
		EmailDomain: req.EmailDomain,
		Location:    req.Location,
		PhotoURL:    photoURL,
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrganizationExists) {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailOrganizationExists})
		}
		logger.Error("Failed to create organization", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not create the organization."})
	}

	return c.JSON(http.StatusCreated, org)
}

// savePhoto validates and stores the uploaded photo, returning its public
// URL.
func (h *OrganizationHandler) savePhoto(c echo.Context, req CreateOrganizationRequest) (string, error) {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	mimeType := req.Photo.Header.Get("Content-Type")
	if !photoMimeTypes[mimeType] {
		return "", echo.NewHTTPError(http.StatusUnsupportedMediaType, "Photo must be jpeg, png, or gif.")
	}

	src, err := req.Photo.Open()
	if err != nil {
		logger.Error("Failed to open uploaded photo", "error", err)
		return "", echo.NewHTTPError(http.StatusInternalServerError, "Could not store the photo.")
	}
	defer src.Close()

	ext := filepath.Ext(filepath.Base(req.Photo.Filename))
	path := filepath.Join("organizations", uuid.NewString()+ext)
	if _, err := h.files.Save(ctx, path, src); err != nil {
		logger.Error("Failed to save photo", "error", err)
		return "", echo.NewHTTPError(http.StatusInternalServerError, "Could not store the photo.")
	}

	return "/uploads/" + filepath.ToSlash(path), nil
}

// List returns all organizations (GET /api/organizations).
func (h *OrganizationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	orgs, err := h.orgs.List(ctx)
	if err != nil {
		middleware.FromContext(ctx).Error("Failed to list organizations", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not list organizations."})
	}

	return c.JSON(http.StatusOK, orgs)
}

// Get returns one organization (GET /api/organizations/:id).
func (h *OrganizationHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	org, err := h.orgs.FindByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Detail: detailOrganizationNotFound})
		}
		middleware.FromContext(ctx).Error("Failed to load organization", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not load the organization."})
	}

	return c.JSON(http.StatusOK, org)
}
