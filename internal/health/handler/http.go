// Package handler exposes the liveness route.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves GET /healthz.
type Handler struct {
	db Pinger
}

// NewHandler returns a health handler. db may be nil when the process runs
// without a database.
func NewHandler(db Pinger) *Handler {
	return &Handler{db: db}
}

type healthResponse struct {
	Status string `json:"status"`
}

// Get reports liveness. A reachable database is part of being healthy; the
// check is bounded so a hung database cannot hang the probe.
func (h *Handler) Get(c echo.Context) error {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "degraded"})
		}
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}
