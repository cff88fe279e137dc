// Package audit records privileged actions. Logging is best-effort and never
// blocks or fails the action being recorded.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/peteywee/fresh-sub000/internal/audit/domain"
	auditrepo "github.com/peteywee/fresh-sub000/internal/audit/repository"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
type AuditLogger interface {
	LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor
// for client IP. ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to write %s event for org %s: %v", action, orgID, err)
	}
}

// Nop is an AuditLogger that discards events. Useful in tests and tools.
type Nop struct{}

func (Nop) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {}

// Tee returns an AuditLogger that forwards each event to every logger in order.
func Tee(loggers ...AuditLogger) AuditLogger {
	return tee(loggers)
}

type tee []AuditLogger

func (t tee) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	for _, l := range t {
		l.LogEvent(ctx, orgID, userID, action, resource, metadata)
	}
}
