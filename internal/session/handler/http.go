// Package handler exposes the session introspection route.
package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/peteywee/fresh-sub000/internal/session"
)

// Handler serves GET /v1/session.
type Handler struct{}

// NewHandler returns a session HTTP handler.
func NewHandler() *Handler {
	return &Handler{}
}

type sessionResponse struct {
	UserID             string    `json:"userId"`
	Email              string    `json:"email"`
	DisplayName        string    `json:"displayName,omitempty"`
	Role               string    `json:"role,omitempty"`
	OrgID              string    `json:"orgId,omitempty"`
	OrgName            string    `json:"orgName,omitempty"`
	OnboardingComplete bool      `json:"onboardingComplete"`
	ExpiresAt          time.Time `json:"expiresAt,omitempty"`
}

// Get returns the caller's decoded session, or 401 for an anonymous request.
// The response mirrors what the session middleware decoded; it never reveals
// why a bad credential failed.
func (h *Handler) Get(c echo.Context) error {
	sess := session.FromContext(c)
	if sess == nil || sess.UserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return c.JSON(http.StatusOK, sessionResponse{
		UserID:             sess.UserID,
		Email:              sess.Email,
		DisplayName:        sess.DisplayName,
		Role:               string(sess.Role),
		OrgID:              sess.OrgID,
		OrgName:            sess.OrgName,
		OnboardingComplete: sess.OnboardingComplete,
		ExpiresAt:          sess.ExpiresAt,
	})
}
