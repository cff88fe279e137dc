package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/peteywee/fresh-sub000/internal/membership/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const membershipColumns = "org_id, member_key, email, display_name, role, status, joined_at, updated_at"

// GetByOrgAndKey returns the membership for (orgID, memberKey), or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByOrgAndKey(ctx context.Context, orgID, memberKey string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE org_id = $1 AND member_key = $2",
		orgID, memberKey)
	return scanMembership(row)
}

// ListByOrg returns all memberships for the given org ordered by join time.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE org_id = $1 ORDER BY joined_at",
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

// ListPendingByOrg returns the placeholder (invited) memberships for the given org.
func (r *PostgresRepository) ListPendingByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE org_id = $1 AND status = $2 ORDER BY joined_at",
		orgID, string(domain.StatusInvited))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

// Upsert writes the membership, replacing any existing row for the same
// (org, member key). Used for placeholder creation and re-invites.
func (r *PostgresRepository) Upsert(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO memberships (org_id, member_key, email, display_name, role, status, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (org_id, member_key) DO UPDATE
		SET email = EXCLUDED.email, display_name = EXCLUDED.display_name,
		    role = EXCLUDED.role, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
		m.OrgID, m.MemberKey, m.Email, m.DisplayName, string(m.Role), string(m.Status), m.JoinedAt, m.UpdatedAt)
	return err
}

// Delete removes the membership for (orgID, memberKey). Returns whether a row existed.
func (r *PostgresRepository) Delete(ctx context.Context, orgID, memberKey string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM memberships WHERE org_id = $1 AND member_key = $2", orgID, memberKey)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateRole sets the role for (orgID, memberKey) and returns the updated
// membership, or nil if the membership does not exist.
func (r *PostgresRepository) UpdateRole(ctx context.Context, orgID, memberKey string, role domain.Role) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE memberships SET role = $3, updated_at = $4
		WHERE org_id = $1 AND member_key = $2
		RETURNING `+membershipColumns,
		orgID, memberKey, string(role), time.Now().UTC())
	return scanMembership(row)
}

// CountByOrgAndRole returns the number of active memberships in orgID holding role.
func (r *PostgresRepository) CountByOrgAndRole(ctx context.Context, orgID string, role domain.Role) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memberships WHERE org_id = $1 AND role = $2 AND status = $3",
		orgID, string(role), string(domain.StatusActive)).Scan(&n)
	return n, err
}

// AcceptPending consumes the placeholder for email and writes the active
// membership keyed by userID in one transaction. The conditional placeholder
// delete is the commit point: if another acceptance already consumed it, the
// transaction sees no row and (nil, nil) is returned without any write.
func (r *PostgresRepository) AcceptPending(ctx context.Context, orgID, email, userID string, role domain.Role) (*domain.Membership, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	pendingKey := domain.PendingKey(email)
	row := tx.QueryRowContext(ctx, `
		DELETE FROM memberships WHERE org_id = $1 AND member_key = $2
		RETURNING `+membershipColumns,
		orgID, pendingKey)
	placeholder, err := scanMembership(row)
	if err != nil {
		return nil, err
	}
	if placeholder == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	active := &domain.Membership{
		OrgID:       orgID,
		MemberKey:   userID,
		Email:       placeholder.Email,
		DisplayName: placeholder.DisplayName,
		// The token is authoritative for role at acceptance time, not the placeholder.
		Role:      role,
		Status:    domain.StatusActive,
		JoinedAt:  placeholder.JoinedAt,
		UpdatedAt: now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO memberships (org_id, member_key, email, display_name, role, status, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (org_id, member_key) DO UPDATE
		SET email = EXCLUDED.email, display_name = EXCLUDED.display_name,
		    role = EXCLUDED.role, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`,
		active.OrgID, active.MemberKey, active.Email, active.DisplayName,
		string(active.Role), string(active.Status), active.JoinedAt, active.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return active, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (*domain.Membership, error) {
	var m domain.Membership
	var role, status string
	err := row.Scan(&m.OrgID, &m.MemberKey, &m.Email, &m.DisplayName, &role, &status, &m.JoinedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Role = domain.Role(role)
	m.Status = domain.Status(status)
	return &m, nil
}

func collectMemberships(rows *sql.Rows) ([]*domain.Membership, error) {
	var out []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
