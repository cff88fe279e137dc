// Package membership manages active organization memberships.
package membership

import (
	"context"
	"errors"
	"log"

	"github.com/peteywee/fresh-sub000/internal/audit"
	auditdomain "github.com/peteywee/fresh-sub000/internal/audit/domain"
	"github.com/peteywee/fresh-sub000/internal/membership/domain"
	"github.com/peteywee/fresh-sub000/internal/membership/repository"
	orgrepo "github.com/peteywee/fresh-sub000/internal/organization/repository"
	"github.com/peteywee/fresh-sub000/internal/platform/rbac"
	sessiondomain "github.com/peteywee/fresh-sub000/internal/session/domain"
)

// Sentinel errors for the membership service; the handler maps them to HTTP statuses.
var (
	ErrNotOrgMember   = errors.New("caller does not belong to this organization")
	ErrMemberNotFound = errors.New("membership not found")
	ErrLastOwner      = errors.New("organization must keep at least one owner")
	ErrInvalidRole    = errors.New("unknown role")
)

// Service manages active memberships for an organization.
type Service struct {
	memberships repository.Repository
	orgs        orgrepo.Repository
	audit       audit.AuditLogger
}

// NewService returns a membership Service with the given dependencies.
func NewService(memberships repository.Repository, orgs orgrepo.Repository, auditLogger audit.AuditLogger) *Service {
	return &Service{memberships: memberships, orgs: orgs, audit: auditLogger}
}

// List returns all memberships of orgID. Any member of the org may list.
func (s *Service) List(ctx context.Context, sess *sessiondomain.Session, orgID string) ([]*domain.Membership, error) {
	if err := rbac.Require(sess, domain.RoleViewer); err != nil {
		return nil, err
	}
	if sess.OrgID != orgID {
		return nil, ErrNotOrgMember
	}
	return s.memberships.ListByOrg(ctx, orgID)
}

// UpdateRole sets the role of an active member. Admin only. Demoting the last
// owner is refused so the org is never left without one.
func (s *Service) UpdateRole(ctx context.Context, sess *sessiondomain.Session, orgID, userID string, role domain.Role) (*domain.Membership, error) {
	if err := rbac.RequireWrite(sess); err != nil {
		return nil, err
	}
	if sess.OrgID != orgID {
		return nil, ErrNotOrgMember
	}
	if domain.Rank(role) == 0 {
		return nil, ErrInvalidRole
	}
	existing, err := s.memberships.GetByOrgAndKey(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.Status != domain.StatusActive {
		return nil, ErrMemberNotFound
	}
	if existing.Role == domain.RoleOwner && role != domain.RoleOwner {
		owners, err := s.memberships.CountByOrgAndRole(ctx, orgID, domain.RoleOwner)
		if err != nil {
			return nil, err
		}
		if owners <= 1 {
			return nil, ErrLastOwner
		}
	}
	updated, err := s.memberships.UpdateRole(ctx, orgID, userID, role)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMemberNotFound
	}
	s.audit.LogEvent(ctx, orgID, sess.UserID, auditdomain.ActionMemberRoleUpdate, userID, string(role))
	return updated, nil
}

// Remove deletes an active membership. Admin only. Removing the last owner is refused.
func (s *Service) Remove(ctx context.Context, sess *sessiondomain.Session, orgID, userID string) error {
	if err := rbac.RequireWrite(sess); err != nil {
		return err
	}
	if sess.OrgID != orgID {
		return ErrNotOrgMember
	}
	existing, err := s.memberships.GetByOrgAndKey(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if existing == nil || existing.Status != domain.StatusActive {
		return ErrMemberNotFound
	}
	if existing.Role == domain.RoleOwner {
		owners, err := s.memberships.CountByOrgAndRole(ctx, orgID, domain.RoleOwner)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}
	removed, err := s.memberships.Delete(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrMemberNotFound
	}
	if err := s.orgs.AdjustMemberCount(ctx, orgID, -1); err != nil {
		// Best-effort counter; the removal itself stands.
		log.Printf("membership: member count decrement failed for org %s: %v", orgID, err)
	}
	s.audit.LogEvent(ctx, orgID, sess.UserID, auditdomain.ActionMemberRemove, userID, "")
	return nil
}
