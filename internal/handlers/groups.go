package handlers

import (
	"errors"
	"net/http"

	"github.com/campuslink/campuslink/internal/domain"
	"github.com/campuslink/campuslink/internal/middleware"
	"github.com/labstack/echo/v4"
)

// GroupHandler handles the group tree under organizations.
type GroupHandler struct {
	groups domain.GroupRepository
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groups domain.GroupRepository) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// Create adds a group to an organization, optionally nested under a parent
// group (POST /api/organizations/:id/groups).
func (h *GroupHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	logger := middleware.FromContext(ctx)

	var req CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "Invalid request format."})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
	}

	group, err := h.groups.Create(ctx, domain.NewGroup{
		Title:          req.Title,
		OrganizationID: c.Param("id"),
		ParentGroupID:  req.ParentGroupID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOrganizationNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Detail: detailOrganizationNotFound})
		case errors.Is(err, domain.ErrGroupNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Detail: detailGroupNotFound})
		default:
			logger.Error("Failed to create group", "error", err)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not create the group."})
		}
	}

	return c.JSON(http.StatusCreated, group)
}

// ListByOrganization returns every group of one organization
// (GET /api/organizations/:id/groups).
func (h *GroupHandler) ListByOrganization(c echo.Context) error {
	ctx := c.Request().Context()

	groups, err := h.groups.ListByOrganization(ctx, c.Param("id"))
	if err != nil {
		middleware.FromContext(ctx).Error("Failed to list groups", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not list groups."})
	}

	return c.JSON(http.StatusOK, groups)
}

// Get returns one group (GET /api/groups/:id).
func (h *GroupHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	group, err := h.groups.FindByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Detail: detailGroupNotFound})
		}
		middleware.FromContext(ctx).Error("Failed to load group", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not load the group."})
	}

	return c.JSON(http.StatusOK, group)
}

// Subgroups returns the direct children of a group
// (GET /api/groups/:id/subgroups).
func (h *GroupHandler) Subgroups(c echo.Context) error {
	ctx := c.Request().Context()

	groups, err := h.groups.Subgroups(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Detail: detailGroupNotFound})
		}
		middleware.FromContext(ctx).Error("Failed to list subgroups", "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not list subgroups."})
	}

	return c.JSON(http.StatusOK, groups)
}

// Breadcrumbs walks the parent links from the group up to the root and
// returns the path in root-first order (GET /api/groups/:id/breadcrumbs).
func (h *GroupHandler) Breadcrumbs(c echo.Context) error {
	ctx := c.Request().Context()

	var path []domain.Group
	seen := make(map[string]bool)

	id := c.Param("id")
	for id != "" && !seen[id] {
		seen[id] = true
		group, err := h.groups.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrGroupNotFound) {
				// A broken parent link ends the walk; the starting
				// group itself must exist.
				if len(path) > 0 {
					break
				}
				return c.JSON(http.StatusNotFound, ErrorResponse{Detail: detailGroupNotFound})
			}
			middleware.FromContext(ctx).Error("Failed to walk breadcrumbs", "error", err)
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Could not build breadcrumbs."})
		}
		path = append(path, *group)
		id = group.ParentGroupID
	}

	// Reverse into root-first order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return c.JSON(http.StatusOK, path)
}
