package repository

import (
	"context"

	"github.com/peteywee/fresh-sub000/internal/organization/domain"
)

// Repository defines persistence for organizations.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Org, error)
	Create(ctx context.Context, o *domain.Org) error
	Update(ctx context.Context, o *domain.Org) error
	// AdjustMemberCount bumps the best-effort member counter by delta.
	AdjustMemberCount(ctx context.Context, id string, delta int) error
}
