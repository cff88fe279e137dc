package domain

import (
	"strings"
	"time"
)

// Membership links a member to an organization with a role. MemberKey is the
// user ID for an active membership, or PendingKey(email) for an invited member
// who has not registered yet. At most one membership exists per (org, key).
type Membership struct {
	OrgID       string
	MemberKey   string
	Email       string
	DisplayName string
	Role        Role
	Status      Status
	JoinedAt    time.Time
	UpdatedAt   time.Time
}

// Status is the lifecycle state of a membership.
type Status string

const (
	// StatusActive indicates the membership belongs to a registered user.
	StatusActive Status = "active"
	// StatusInvited indicates a placeholder created by an invite, keyed by email.
	StatusInvited Status = "invited"
)

const pendingPrefix = "pending:"

// PendingKey returns the member key for an invited-but-unregistered email.
// The email is lower-cased so the key is deterministic per invitee.
func PendingKey(email string) string {
	return pendingPrefix + strings.ToLower(strings.TrimSpace(email))
}

// IsPendingKey reports whether key is a placeholder member key.
func IsPendingKey(key string) bool {
	return strings.HasPrefix(key, pendingPrefix)
}
