// Package handler exposes invite operations over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/peteywee/fresh-sub000/internal/invite"
	membershipdomain "github.com/peteywee/fresh-sub000/internal/membership/domain"
	"github.com/peteywee/fresh-sub000/internal/platform/rbac"
	"github.com/peteywee/fresh-sub000/internal/session"
)

// Handler serves the invite routes.
type Handler struct {
	svc *invite.Service
}

// NewHandler returns an invite HTTP handler.
func NewHandler(svc *invite.Service) *Handler {
	return &Handler{svc: svc}
}

type createInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	// TTL is an optional Go duration string (e.g. "72h"); empty means the
	// server default.
	TTL string `json:"ttl,omitempty"`
}

type inviteResponse struct {
	Token     string    `json:"token"`
	OrgID     string    `json:"orgId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type pendingInviteResponse struct {
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	InvitedAt time.Time `json:"invitedAt"`
}

type listInvitesResponse struct {
	Invites []pendingInviteResponse `json:"invites"`
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

type acceptInviteResponse struct {
	OrgID        string `json:"orgId"`
	Role         string `json:"role"`
	ClaimsSynced bool   `json:"claimsSynced"`
}

// Create handles POST /v1/orgs/:id/invites.
func (h *Handler) Create(c echo.Context) error {
	var req createInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	var ttl time.Duration
	if req.TTL != "" {
		parsed, err := time.ParseDuration(req.TTL)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid ttl")
		}
		ttl = parsed
	}
	token, payload, err := h.svc.Invite(c.Request().Context(), session.FromContext(c), c.Param("id"), req.Email, membershipdomain.Role(req.Role), ttl)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, inviteResponse{
		Token:     token,
		OrgID:     payload.OrgID,
		Email:     payload.Email,
		Role:      payload.Role,
		ExpiresAt: time.UnixMilli(payload.Exp).UTC(),
	})
}

// ListPending handles GET /v1/orgs/:id/invites.
func (h *Handler) ListPending(c echo.Context) error {
	pending, err := h.svc.ListPending(c.Request().Context(), session.FromContext(c), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	resp := listInvitesResponse{Invites: make([]pendingInviteResponse, 0, len(pending))}
	for _, m := range pending {
		resp.Invites = append(resp.Invites, pendingInviteResponse{
			Email:     m.Email,
			Role:      string(m.Role),
			InvitedAt: m.JoinedAt,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Revoke handles DELETE /v1/orgs/:id/invites/:email.
func (h *Handler) Revoke(c echo.Context) error {
	if err := h.svc.Revoke(c.Request().Context(), session.FromContext(c), c.Param("id"), c.Param("email")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Accept handles POST /v1/invites/accept. The caller must be authenticated;
// the token decides which org and role they join.
func (h *Handler) Accept(c echo.Context) error {
	sess := session.FromContext(c)
	if sess == nil || sess.UserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	var req acceptInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	result, err := h.svc.Accept(c.Request().Context(), req.Token, sess.UserID, sess.Email)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, acceptInviteResponse{
		OrgID:        result.OrgID,
		Role:         string(result.Role),
		ClaimsSynced: result.ClaimsSynced,
	})
}

func toHTTPError(err error) error {
	var guardErr *rbac.Error
	switch {
	case errors.As(err, &guardErr):
		return echo.NewHTTPError(guardErr.Status, guardErr.Message)
	case errors.Is(err, invite.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invite token")
	case errors.Is(err, invite.ErrEmailMismatch):
		return echo.NewHTTPError(http.StatusForbidden, "invite was issued for a different email")
	case errors.Is(err, invite.ErrInviteNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "invite not found")
	case errors.Is(err, invite.ErrOrgNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	case errors.Is(err, invite.ErrNotOrgMember):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	case errors.Is(err, invite.ErrPolicyDenied):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, invite.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
