// Package server assembles the HTTP server: middleware chain and routes.
package server

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	healthhandler "github.com/peteywee/fresh-sub000/internal/health/handler"
	invitehandler "github.com/peteywee/fresh-sub000/internal/invite/handler"
	membershiphandler "github.com/peteywee/fresh-sub000/internal/membership/handler"
	orghandler "github.com/peteywee/fresh-sub000/internal/organization/handler"
	"github.com/peteywee/fresh-sub000/internal/session"
	sessionhandler "github.com/peteywee/fresh-sub000/internal/session/handler"
)

// Options configures the middleware chain.
type Options struct {
	ServiceName   string
	SessionCookie string
	// RateLimitRPS enables per-IP rate limiting when > 0.
	RateLimitRPS float64
	// Tracing enables the otelecho middleware. The global tracer provider
	// must be installed first.
	Tracing bool
}

// Handlers groups the route handlers the server mounts.
type Handlers struct {
	Orgs        *orghandler.Handler
	Memberships *membershiphandler.Handler
	Invites     *invitehandler.Handler
	Sessions    *sessionhandler.Handler
	Health      *healthhandler.Handler
}

// New builds the Echo instance with the full middleware chain and all routes
// registered. The caller starts and stops it.
func New(opts Options, decoder *session.Decoder, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if opts.Tracing {
		e.Use(otelecho.Middleware(opts.ServiceName))
	}
	e.Use(echomiddleware.Recover())
	e.Use(securityHeaders())
	if opts.RateLimitRPS > 0 {
		e.Use(NewRateLimiter(opts.RateLimitRPS, int(opts.RateLimitRPS)*2).Middleware())
	}
	e.Use(requestLogger())
	e.Use(clientIP())
	e.Use(session.Middleware(decoder, opts.SessionCookie))

	e.GET("/healthz", h.Health.Get)
	e.GET("/v1/session", h.Sessions.Get)

	e.POST("/v1/orgs", h.Orgs.Create)
	e.GET("/v1/orgs/:id", h.Orgs.Get)

	e.GET("/v1/orgs/:id/members", h.Memberships.List)
	e.PATCH("/v1/orgs/:id/members/:userID", h.Memberships.UpdateRole)
	e.DELETE("/v1/orgs/:id/members/:userID", h.Memberships.Remove)

	e.POST("/v1/orgs/:id/invites", h.Invites.Create)
	e.GET("/v1/orgs/:id/invites", h.Invites.ListPending)
	e.DELETE("/v1/orgs/:id/invites/:email", h.Invites.Revoke)
	e.POST("/v1/invites/accept", h.Invites.Accept)

	return e
}

// requestLogger logs one line per request.
func requestLogger() echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("http: %s %s %d %dms error=%v", v.Method, v.URI, v.Status, v.Latency.Milliseconds(), v.Error)
			} else {
				log.Printf("http: %s %s %d %dms", v.Method, v.URI, v.Status, v.Latency.Milliseconds())
			}
			return nil
		},
	})
}

type ctxKey int

const clientIPKey ctxKey = 0

// clientIP stores the caller's IP in the request context so components that
// only see a context (the audit logger) can record it.
func clientIP() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := context.WithValue(req.Context(), clientIPKey, c.RealIP())
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// ClientIP returns the caller IP recorded by the clientIP middleware, or
// "unknown" outside an HTTP request.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}

// securityHeaders sets conservative response headers on every route.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			return next(c)
		}
	}
}
