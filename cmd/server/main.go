package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peteywee/fresh-sub000/internal/audit"
	auditrepo "github.com/peteywee/fresh-sub000/internal/audit/repository"
	"github.com/peteywee/fresh-sub000/internal/config"
	"github.com/peteywee/fresh-sub000/internal/db"
	healthhandler "github.com/peteywee/fresh-sub000/internal/health/handler"
	"github.com/peteywee/fresh-sub000/internal/invite"
	invitehandler "github.com/peteywee/fresh-sub000/internal/invite/handler"
	"github.com/peteywee/fresh-sub000/internal/invite/policy"
	"github.com/peteywee/fresh-sub000/internal/membership"
	membershiphandler "github.com/peteywee/fresh-sub000/internal/membership/handler"
	membershiprepo "github.com/peteywee/fresh-sub000/internal/membership/repository"
	"github.com/peteywee/fresh-sub000/internal/organization"
	orghandler "github.com/peteywee/fresh-sub000/internal/organization/handler"
	orgrepo "github.com/peteywee/fresh-sub000/internal/organization/repository"
	"github.com/peteywee/fresh-sub000/internal/platform/identity"
	"github.com/peteywee/fresh-sub000/internal/security"
	"github.com/peteywee/fresh-sub000/internal/server"
	"github.com/peteywee/fresh-sub000/internal/session"
	sessionhandler "github.com/peteywee/fresh-sub000/internal/session/handler"
	"github.com/peteywee/fresh-sub000/internal/telemetry/otel"
)

const serviceName = "fresh-sub"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry: shutdown: %v", err)
		}
	}()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	pub, err := security.ParsePublicKey(cfg.SessionPublicKey)
	if err != nil {
		log.Fatalf("session public key: %v", err)
	}
	var admin *identity.AdminClient
	if cfg.IdentityAdminURL != "" {
		admin = identity.NewAdminClient(cfg.IdentityAdminURL, cfg.IdentityAdminToken, 5*time.Second)
	}
	provider := identity.NewPlatform(pub, cfg.SessionIssuer, cfg.SessionAudience, admin)

	codec, err := security.NewInviteCodec(inviteSecret(cfg))
	if err != nil {
		log.Fatalf("invite codec: %v", err)
	}

	memberships := membershiprepo.NewPostgresRepository(conn)
	orgs := orgrepo.NewPostgresRepository(conn)
	auditLogger := audit.Tee(
		audit.NewLogger(auditrepo.NewPostgresRepository(conn), server.ClientIP),
		otel.NewAuditEmitter(providers.LoggerProvider),
	)

	orgSvc := organization.NewService(orgs, memberships, provider, auditLogger)
	memberSvc := membership.NewService(memberships, orgs, auditLogger)
	inviteSvc := invite.NewService(codec, memberships, orgs, provider, &policy.OPAEvaluator{}, auditLogger, cfg.InviteTTLDuration())

	e := server.New(server.Options{
		ServiceName:   serviceName,
		SessionCookie: cfg.SessionCookie,
		RateLimitRPS:  cfg.RateLimitRPS,
		Tracing:       cfg.OTLPEndpoint != "",
	}, session.NewDecoder(provider), server.Handlers{
		Orgs:        orghandler.NewHandler(orgSvc),
		Memberships: membershiphandler.NewHandler(memberSvc),
		Invites:     invitehandler.NewHandler(inviteSvc),
		Sessions:    sessionhandler.NewHandler(),
		Health:      healthhandler.NewHandler(conn),
	})

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}

// inviteSecret returns the configured invite signing secret. In development
// with no secret configured, a random per-process secret is generated so the
// server still starts; tokens then die with the process.
func inviteSecret(cfg *config.Config) []byte {
	if secret := cfg.InviteSecretBytes(); len(secret) > 0 {
		return secret
	}
	ephemeral := make([]byte, 32)
	if _, err := rand.Read(ephemeral); err != nil {
		log.Fatalf("invite secret: %v", err)
	}
	log.Printf("INVITE_SECRET not set; using ephemeral development secret %s...", hex.EncodeToString(ephemeral[:4]))
	return ephemeral
}
