package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "6262626262626262626262626262626262626262626262626262626262626262"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.SessionCookie != "__session" {
		t.Errorf("SessionCookie = %q", cfg.SessionCookie)
	}
	if cfg.InviteTTLDuration() != 168*time.Hour {
		t.Errorf("InviteTTLDuration = %v, want 168h", cfg.InviteTTLDuration())
	}
}

func TestLoad_SecretRequiredOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("INVITE_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when INVITE_SECRET unset in production")
	}
}

func TestLoad_SecretValidation(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	t.Setenv("INVITE_SECRET", "not-hex")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "hex") {
		t.Fatalf("err = %v, want hex error", err)
	}

	t.Setenv("INVITE_SECRET", "abcd")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Fatalf("err = %v, want length error", err)
	}

	t.Setenv("INVITE_SECRET", testSecret)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.InviteSecretBytes()) != 32 {
		t.Errorf("secret length = %d, want 32", len(cfg.InviteSecretBytes()))
	}
}

func TestInviteTTLDuration_InvalidFallsBack(t *testing.T) {
	cfg := &Config{InviteTTL: "bogus"}
	if cfg.InviteTTLDuration() != 168*time.Hour {
		t.Errorf("InviteTTLDuration = %v, want fallback 168h", cfg.InviteTTLDuration())
	}
}
