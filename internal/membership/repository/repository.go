package repository

import (
	"context"

	"github.com/peteywee/fresh-sub000/internal/membership/domain"
)

// Repository defines persistence for memberships.
type Repository interface {
	GetByOrgAndKey(ctx context.Context, orgID, memberKey string) (*domain.Membership, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
	ListPendingByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
	Upsert(ctx context.Context, m *domain.Membership) error
	Delete(ctx context.Context, orgID, memberKey string) (bool, error)
	UpdateRole(ctx context.Context, orgID, memberKey string, role domain.Role) (*domain.Membership, error)
	CountByOrgAndRole(ctx context.Context, orgID string, role domain.Role) (int64, error)
	// AcceptPending consumes the placeholder for email in one transaction:
	// the conditional placeholder delete is the commit point, and the active
	// membership keyed by userID is written in the same transaction. Returns
	// (nil, nil) when no placeholder exists (withdrawn or already consumed).
	AcceptPending(ctx context.Context, orgID, email, userID string, role domain.Role) (*domain.Membership, error)
}
