// Package handler exposes membership operations over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/peteywee/fresh-sub000/internal/membership"
	"github.com/peteywee/fresh-sub000/internal/membership/domain"
	"github.com/peteywee/fresh-sub000/internal/platform/rbac"
	"github.com/peteywee/fresh-sub000/internal/session"
)

// Handler serves the membership routes.
type Handler struct {
	svc *membership.Service
}

// NewHandler returns a membership HTTP handler.
func NewHandler(svc *membership.Service) *Handler {
	return &Handler{svc: svc}
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

type memberResponse struct {
	MemberKey   string    `json:"memberKey"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	JoinedAt    time.Time `json:"joinedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type listMembersResponse struct {
	Members []memberResponse `json:"members"`
}

func toMemberResponse(m *domain.Membership) memberResponse {
	return memberResponse{
		MemberKey:   m.MemberKey,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		Role:        string(m.Role),
		Status:      string(m.Status),
		JoinedAt:    m.JoinedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// List handles GET /v1/orgs/:id/members.
func (h *Handler) List(c echo.Context) error {
	members, err := h.svc.List(c.Request().Context(), session.FromContext(c), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	resp := listMembersResponse{Members: make([]memberResponse, 0, len(members))}
	for _, m := range members {
		resp.Members = append(resp.Members, toMemberResponse(m))
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateRole handles PATCH /v1/orgs/:id/members/:userID.
func (h *Handler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	updated, err := h.svc.UpdateRole(c.Request().Context(), session.FromContext(c), c.Param("id"), c.Param("userID"), domain.Role(req.Role))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toMemberResponse(updated))
}

// Remove handles DELETE /v1/orgs/:id/members/:userID.
func (h *Handler) Remove(c echo.Context) error {
	if err := h.svc.Remove(c.Request().Context(), session.FromContext(c), c.Param("id"), c.Param("userID")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func toHTTPError(err error) error {
	var guardErr *rbac.Error
	switch {
	case errors.As(err, &guardErr):
		return echo.NewHTTPError(guardErr.Status, guardErr.Message)
	case errors.Is(err, membership.ErrNotOrgMember):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	case errors.Is(err, membership.ErrMemberNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "membership not found")
	case errors.Is(err, membership.ErrLastOwner):
		return echo.NewHTTPError(http.StatusConflict, "organization must keep at least one owner")
	case errors.Is(err, membership.ErrInvalidRole):
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
