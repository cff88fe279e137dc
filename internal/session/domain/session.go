package domain

import (
	"time"

	membershipdomain "github.com/peteywee/fresh-sub000/internal/membership/domain"
)

// Session is the per-request view of the caller's authenticated identity and
// organizational context. It is rebuilt from the session assertion on every
// request, never persisted, and never mutated after construction.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
	// Role is the caller's org role claim. Empty means no privileges.
	Role  membershipdomain.Role
	OrgID string
	OrgName string
	OnboardingComplete bool
	// IssuedAt and ExpiresAt are informational; expiry is enforced by the
	// identity platform when the assertion is verified.
	IssuedAt  time.Time
	ExpiresAt time.Time
}
