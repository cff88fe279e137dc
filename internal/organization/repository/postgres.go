package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/peteywee/fresh-sub000/internal/organization/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	var o domain.Org
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, owner_id, member_count, invite_policy, created_at FROM organizations WHERE id = $1",
		id).Scan(&o.ID, &o.Name, &o.OwnerID, &o.MemberCount, &o.InvitePolicy, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// Create persists the organization. The organization must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO organizations (id, name, owner_id, member_count, invite_policy, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		o.ID, o.Name, o.OwnerID, o.MemberCount, o.InvitePolicy, o.CreatedAt)
	return err
}

// Update updates the existing organization record. Returns an error if the update fails.
func (r *PostgresRepository) Update(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE organizations SET name = $2, owner_id = $3, invite_policy = $4 WHERE id = $1",
		o.ID, o.Name, o.OwnerID, o.InvitePolicy)
	return err
}

// AdjustMemberCount bumps member_count by delta, flooring at zero. Best-effort:
// the counter is advisory and not transactionally tied to membership writes.
func (r *PostgresRepository) AdjustMemberCount(ctx context.Context, id string, delta int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE organizations SET member_count = GREATEST(member_count + $2, 0) WHERE id = $1",
		id, delta)
	return err
}
