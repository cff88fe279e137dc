package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOrg marks validation failures on organization writes.
var ErrInvalidOrg = errors.New("invalid organization")

// Org represents an organization/tenant.
type Org struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	// MemberCount is best-effort; it is bumped alongside membership writes
	// and is not transactionally maintained.
	MemberCount int
	// InvitePolicy is an optional per-org Rego override for invite rules.
	// Empty means the built-in default policy applies.
	InvitePolicy string
}

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidOrg)
	}
	if o.OwnerID == "" {
		return fmt.Errorf("%w: owner id is required", ErrInvalidOrg)
	}
	return nil
}
