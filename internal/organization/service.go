// Package organization manages organization records.
package organization

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/peteywee/fresh-sub000/internal/audit"
	auditdomain "github.com/peteywee/fresh-sub000/internal/audit/domain"
	membershipdomain "github.com/peteywee/fresh-sub000/internal/membership/domain"
	membershiprepo "github.com/peteywee/fresh-sub000/internal/membership/repository"
	"github.com/peteywee/fresh-sub000/internal/organization/domain"
	"github.com/peteywee/fresh-sub000/internal/organization/repository"
	"github.com/peteywee/fresh-sub000/internal/platform/identity"
	"github.com/peteywee/fresh-sub000/internal/platform/rbac"
	sessiondomain "github.com/peteywee/fresh-sub000/internal/session/domain"
)

// Sentinel errors for the organization service; the handler maps them to HTTP statuses.
var (
	ErrOrgNotFound  = errors.New("organization not found")
	ErrNotOrgMember = errors.New("caller does not belong to this organization")
)

// Service manages organizations and the owner membership created with them.
type Service struct {
	orgs        repository.Repository
	memberships membershiprepo.Repository
	provider    identity.Provider
	audit       audit.AuditLogger
}

// NewService returns an organization Service with the given dependencies.
func NewService(orgs repository.Repository, memberships membershiprepo.Repository, provider identity.Provider, auditLogger audit.AuditLogger) *Service {
	return &Service{orgs: orgs, memberships: memberships, provider: provider, audit: auditLogger}
}

// Create creates an organization owned by the caller and writes the owner's
// active membership. Any authenticated user may create an org; the caller's
// custom claims are updated to point at it.
func (s *Service) Create(ctx context.Context, sess *sessiondomain.Session, name string) (*domain.Org, error) {
	if sess == nil || sess.UserID == "" {
		return nil, rbac.Require(sess, membershipdomain.RoleViewer)
	}
	org := &domain.Org{
		ID:          uuid.New().String(),
		Name:        name,
		OwnerID:     sess.UserID,
		MemberCount: 1,
		CreatedAt:   time.Now().UTC(),
	}
	if err := org.Validate(); err != nil {
		return nil, err
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, err
	}
	owner := &membershipdomain.Membership{
		OrgID:       org.ID,
		MemberKey:   sess.UserID,
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		Role:        membershipdomain.RoleOwner,
		Status:      membershipdomain.StatusActive,
		JoinedAt:    org.CreatedAt,
		UpdatedAt:   org.CreatedAt,
	}
	if err := s.memberships.Upsert(ctx, owner); err != nil {
		return nil, err
	}
	if err := s.provider.MergeCustomClaims(ctx, sess.UserID, map[string]any{
		"orgId": org.ID,
		"role":  string(membershipdomain.RoleOwner),
	}); err != nil {
		log.Printf("organization: claims merge failed for user %s: %v", sess.UserID, err)
	}
	s.audit.LogEvent(ctx, org.ID, sess.UserID, auditdomain.ActionOrgCreate, org.ID, name)
	return org, nil
}

// Get returns the organization for id. The caller must belong to it.
func (s *Service) Get(ctx context.Context, sess *sessiondomain.Session, id string) (*domain.Org, error) {
	if err := rbac.Require(sess, membershipdomain.RoleViewer); err != nil {
		return nil, err
	}
	if sess.OrgID != id {
		return nil, ErrNotOrgMember
	}
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrgNotFound
	}
	return org, nil
}
