// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// SessionPublicKey is the identity platform's PEM-encoded public key (or a path to it);
	// session assertions are verified against it (RS256/ES256).
	SessionPublicKey string `mapstructure:"SESSION_PUBLIC_KEY"`
	// SessionIssuer is the expected iss claim on session assertions.
	SessionIssuer string `mapstructure:"SESSION_ISSUER"`
	// SessionAudience is the expected aud claim on session assertions.
	SessionAudience string `mapstructure:"SESSION_AUDIENCE"`
	// SessionCookie is the cookie name carrying the session assertion.
	SessionCookie string `mapstructure:"SESSION_COOKIE"`
	// IdentityAdminURL is the identity platform admin API base URL, used for custom-claim merges.
	IdentityAdminURL string `mapstructure:"IDENTITY_ADMIN_URL"`
	// IdentityAdminToken authenticates against the admin API.
	IdentityAdminToken string `mapstructure:"IDENTITY_ADMIN_TOKEN"`
	// InviteSecret is the hex-encoded HMAC secret for invite tokens (>= 32 bytes decoded).
	// There is no default: outside development the process refuses to start without it.
	InviteSecret string `mapstructure:"INVITE_SECRET"`
	// InviteTTL is the default invite lifetime (e.g. "168h").
	InviteTTL string `mapstructure:"INVITE_TTL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// OTLPEndpoint enables telemetry export when set (e.g. http://localhost:4317).
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// RateLimitRPS is the per-client request rate limit; 0 disables limiting.
	RateLimitRPS float64 `mapstructure:"RATE_LIMIT_RPS"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SESSION_ISSUER", "fresh-sub-auth")
	v.SetDefault("SESSION_AUDIENCE", "fresh-sub")
	v.SetDefault("SESSION_COOKIE", "__session")
	v.SetDefault("IDENTITY_ADMIN_URL", "")
	v.SetDefault("IDENTITY_ADMIN_TOKEN", "")
	v.SetDefault("INVITE_SECRET", "")
	v.SetDefault("INVITE_TTL", "168h") // 7d
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("RATE_LIMIT_RPS", 0.0)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.InviteSecret == "" && cfg.Env != "development" {
		return nil, errors.New("config: INVITE_SECRET must be set outside development")
	}
	if cfg.InviteSecret != "" {
		secret, err := hex.DecodeString(cfg.InviteSecret)
		if err != nil {
			return nil, errors.New("config: INVITE_SECRET must be hex-encoded")
		}
		if len(secret) < 32 {
			return nil, errors.New("config: INVITE_SECRET must decode to at least 32 bytes")
		}
	}

	return &cfg, nil
}

// InviteSecretBytes returns the decoded invite HMAC secret. Load validated it.
func (c *Config) InviteSecretBytes() []byte {
	secret, err := hex.DecodeString(c.InviteSecret)
	if err != nil {
		return nil
	}
	return secret
}

// InviteTTLDuration parses InviteTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) InviteTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.InviteTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}
