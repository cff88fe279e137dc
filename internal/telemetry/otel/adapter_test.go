package otel

import (
	"context"
	"testing"

	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/peteywee/fresh-sub000/internal/audit"
)

func TestNewAuditEmitter_NilProvider(t *testing.T) {
	emitter := NewAuditEmitter(nil)
	if _, ok := emitter.(audit.Nop); !ok {
		t.Fatalf("nil provider should yield a no-op logger, got %T", emitter)
	}
	emitter.LogEvent(context.Background(), "org-1", "u1", "invite.create", "pending:a@example.com", "member")
}

func TestAuditEmitter_LogEvent(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	emitter := NewAuditEmitter(provider)
	// No processor registered; the record is built and dropped.
	emitter.LogEvent(context.Background(), "org-1", "u1", "member.remove", "u2", "")
	emitter.LogEvent(context.Background(), "", "", "org.create", "", "")
}
