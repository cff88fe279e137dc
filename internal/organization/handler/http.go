// Package handler exposes organization operations over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/peteywee/fresh-sub000/internal/organization"
	orgdomain "github.com/peteywee/fresh-sub000/internal/organization/domain"
	"github.com/peteywee/fresh-sub000/internal/platform/rbac"
	"github.com/peteywee/fresh-sub000/internal/session"
)

// Handler serves the organization routes.
type Handler struct {
	svc *organization.Service
}

// NewHandler returns an organization HTTP handler.
func NewHandler(svc *organization.Service) *Handler {
	return &Handler{svc: svc}
}

type createOrgRequest struct {
	Name string `json:"name"`
}

type orgResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerID     string    `json:"ownerId"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toOrgResponse(o *orgdomain.Org) orgResponse {
	return orgResponse{
		ID:          o.ID,
		Name:        o.Name,
		OwnerID:     o.OwnerID,
		MemberCount: o.MemberCount,
		CreatedAt:   o.CreatedAt,
	}
}

// Create handles POST /v1/orgs.
func (h *Handler) Create(c echo.Context) error {
	var req createOrgRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	org, err := h.svc.Create(c.Request().Context(), session.FromContext(c), req.Name)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toOrgResponse(org))
}

// Get handles GET /v1/orgs/:id.
func (h *Handler) Get(c echo.Context) error {
	org, err := h.svc.Get(c.Request().Context(), session.FromContext(c), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toOrgResponse(org))
}

func toHTTPError(err error) error {
	var guardErr *rbac.Error
	switch {
	case errors.As(err, &guardErr):
		return echo.NewHTTPError(guardErr.Status, guardErr.Message)
	case errors.Is(err, organization.ErrOrgNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	case errors.Is(err, organization.ErrNotOrgMember):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	case errors.Is(err, orgdomain.ErrInvalidOrg):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
