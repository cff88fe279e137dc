package domain

import "time"

// AuditLog is one recorded privileged action in an organization.
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Actions recorded by this service.
const (
	ActionOrgCreate        = "org.create"
	ActionInviteCreate     = "invite.create"
	ActionInviteRevoke     = "invite.revoke"
	ActionInviteAccept     = "invite.accept"
	ActionMemberRoleUpdate = "member.role_update"
	ActionMemberRemove     = "member.remove"
)
