// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev org already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/peteywee/fresh-sub000/internal/config"
	"github.com/peteywee/fresh-sub000/internal/db"
	membershipdomain "github.com/peteywee/fresh-sub000/internal/membership/domain"
	membershiprepo "github.com/peteywee/fresh-sub000/internal/membership/repository"
	orgdomain "github.com/peteywee/fresh-sub000/internal/organization/domain"
	orgrepo "github.com/peteywee/fresh-sub000/internal/organization/repository"
)

const (
	devOrgID      = "dev-org-001"
	devOwnerID    = "dev-user-001"
	devOwnerEmail = "dev@example.com"
	inviteeEmail  = "invitee@example.com"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	orgs := orgrepo.NewPostgresRepository(conn)
	memberships := membershiprepo.NewPostgresRepository(conn)

	existing, err := orgs.GetByID(ctx, devOrgID)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev-org-001 exists). Skipping.")
		os.Exit(0)
	}

	now := time.Now().UTC()
	org := &orgdomain.Org{
		ID:          devOrgID,
		Name:        "Dev Organization",
		OwnerID:     devOwnerID,
		MemberCount: 1,
		CreatedAt:   now,
	}
	if err := orgs.Create(ctx, org); err != nil {
		log.Fatalf("seed org: %v", err)
	}

	owner := &membershipdomain.Membership{
		OrgID:       devOrgID,
		MemberKey:   devOwnerID,
		Email:       devOwnerEmail,
		DisplayName: "Dev User",
		Role:        membershipdomain.RoleOwner,
		Status:      membershipdomain.StatusActive,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	if err := memberships.Upsert(ctx, owner); err != nil {
		log.Fatalf("seed owner: %v", err)
	}

	pending := &membershipdomain.Membership{
		OrgID:     devOrgID,
		MemberKey: membershipdomain.PendingKey(inviteeEmail),
		Email:     inviteeEmail,
		Role:      membershipdomain.RoleMember,
		Status:    membershipdomain.StatusInvited,
		JoinedAt:  now,
		UpdatedAt: now,
	}
	if err := memberships.Upsert(ctx, pending); err != nil {
		log.Fatalf("seed invite: %v", err)
	}

	log.Printf("Seeded org %s with owner %s and pending invite for %s", devOrgID, devOwnerEmail, inviteeEmail)
}
