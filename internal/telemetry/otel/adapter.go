package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/peteywee/fresh-sub000/internal/audit"
)

// NewAuditEmitter returns an AuditLogger that mirrors audit events as OTel log
// records via the given LoggerProvider. If provider is nil, returns a no-op logger.
func NewAuditEmitter(provider *sdklog.LoggerProvider) audit.AuditLogger {
	if provider == nil {
		return audit.Nop{}
	}
	return &auditEmitter{logger: provider.Logger("freshsub.audit")}
}

type auditEmitter struct {
	logger otellog.Logger
}

// LogEvent converts the audit event to an OTel log record and emits it.
// Best-effort by construction; the batch processor drops on overflow.
func (e *auditEmitter) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	rec := otellog.Record{}
	rec.SetTimestamp(time.Now().UTC())
	rec.SetBody(otellog.StringValue(action))
	if orgID != "" {
		rec.AddAttributes(otellog.String("org_id", orgID))
	}
	if userID != "" {
		rec.AddAttributes(otellog.String("user_id", userID))
	}
	if resource != "" {
		rec.AddAttributes(otellog.String("resource", resource))
	}
	if metadata != "" {
		rec.AddAttributes(otellog.String("metadata", metadata))
	}
	e.logger.Emit(ctx, rec)
}
