// Package invite implements organization invites: minting invite tokens for
// not-yet-registered emails and upgrading the resulting placeholder
// memberships into real accounts.
package invite

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/peteywee/fresh-sub000/internal/audit"
	auditdomain "github.com/peteywee/fresh-sub000/internal/audit/domain"
	"github.com/peteywee/fresh-sub000/internal/invite/policy"
	membershipdomain "github.com/peteywee/fresh-sub000/internal/membership/domain"
	orgdomain "github.com/peteywee/fresh-sub000/internal/organization/domain"
	"github.com/peteywee/fresh-sub000/internal/platform/identity"
	"github.com/peteywee/fresh-sub000/internal/platform/rbac"
	"github.com/peteywee/fresh-sub000/internal/security"
	sessiondomain "github.com/peteywee/fresh-sub000/internal/session/domain"
)

// Sentinel errors for the invite service; the handler maps them to HTTP statuses.
var (
	ErrInvalidToken   = errors.New("invalid invite token")
	ErrEmailMismatch  = errors.New("invite was issued for a different email")
	ErrInviteNotFound = errors.New("invite not found")
	ErrOrgNotFound    = errors.New("organization not found")
	ErrNotOrgMember   = errors.New("caller does not belong to this organization")
	ErrPolicyDenied   = errors.New("invite denied by organization policy")
	ErrInvalidInput   = errors.New("invalid invite input")
)

// MembershipRepo is the minimal membership repository needed by the invite service.
type MembershipRepo interface {
	GetByOrgAndKey(ctx context.Context, orgID, memberKey string) (*membershipdomain.Membership, error)
	ListPendingByOrg(ctx context.Context, orgID string) ([]*membershipdomain.Membership, error)
	Upsert(ctx context.Context, m *membershipdomain.Membership) error
	Delete(ctx context.Context, orgID, memberKey string) (bool, error)
	AcceptPending(ctx context.Context, orgID, email, userID string, role membershipdomain.Role) (*membershipdomain.Membership, error)
}

// OrgRepo is the minimal organization repository needed by the invite service.
type OrgRepo interface {
	GetByID(ctx context.Context, id string) (*orgdomain.Org, error)
	AdjustMemberCount(ctx context.Context, id string, delta int) error
}

// AcceptResult is the outcome of a successful invite acceptance.
type AcceptResult struct {
	OrgID string
	Role  membershipdomain.Role
	// ClaimsSynced is false when the membership was committed but the
	// custom-claims merge at the identity platform failed. The membership
	// stands; the caller's next session refresh (or a retry of the merge)
	// brings the claims up to date.
	ClaimsSynced bool
}

// Service orchestrates invite creation, revocation, and acceptance.
type Service struct {
	codec       *security.InviteCodec
	memberships MembershipRepo
	orgs        OrgRepo
	provider    identity.Provider
	policy      policy.Evaluator
	audit       audit.AuditLogger
	defaultTTL  time.Duration
}

// NewService returns an invite Service with the given dependencies.
// defaultTTL applies when a create request does not name a TTL.
func NewService(
	codec *security.InviteCodec,
	memberships MembershipRepo,
	orgs OrgRepo,
	provider identity.Provider,
	policyEval policy.Evaluator,
	auditLogger audit.AuditLogger,
	defaultTTL time.Duration,
) *Service {
	if defaultTTL <= 0 {
		defaultTTL = 7 * 24 * time.Hour
	}
	return &Service{
		codec:       codec,
		memberships: memberships,
		orgs:        orgs,
		provider:    provider,
		policy:      policyEval,
		audit:       auditLogger,
		defaultTTL:  defaultTTL,
	}
}

// Invite mints an invite token for email to join orgID at role, after the
// admin guard and the org's invite policy both pass, and records the
// placeholder membership the token will later consume.
func (s *Service) Invite(ctx context.Context, sess *sessiondomain.Session, orgID, email string, role membershipdomain.Role, ttl time.Duration) (string, *security.InvitePayload, error) {
	if err := rbac.RequireWrite(sess); err != nil {
		return "", nil, err
	}
	if sess.OrgID != orgID {
		return "", nil, ErrNotOrgMember
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", nil, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if membershipdomain.Rank(role) == 0 {
		return "", nil, fmt.Errorf("%w: role", ErrInvalidInput)
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return "", nil, err
	}
	if org == nil {
		return "", nil, ErrOrgNotFound
	}

	decision, err := s.policy.EvaluateInvite(ctx, org.InvitePolicy, sess.Role, role)
	if err != nil {
		return "", nil, err
	}
	if !decision.Allow {
		return "", nil, fmt.Errorf("%w: %s", ErrPolicyDenied, decision.Reason)
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := time.Now().UTC()
	placeholder := &membershipdomain.Membership{
		OrgID:     orgID,
		MemberKey: membershipdomain.PendingKey(email),
		Email:     email,
		Role:      role,
		Status:    membershipdomain.StatusInvited,
		JoinedAt:  now,
		UpdatedAt: now,
	}
	if err := s.memberships.Upsert(ctx, placeholder); err != nil {
		return "", nil, err
	}

	token, payload, err := s.codec.Generate(orgID, email, string(role), ttl)
	if err != nil {
		return "", nil, err
	}
	s.audit.LogEvent(ctx, orgID, sess.UserID, auditdomain.ActionInviteCreate, placeholder.MemberKey, string(role))
	return token, payload, nil
}

// ListPending returns the org's outstanding invites. Admin only.
func (s *Service) ListPending(ctx context.Context, sess *sessiondomain.Session, orgID string) ([]*membershipdomain.Membership, error) {
	if err := rbac.RequireWrite(sess); err != nil {
		return nil, err
	}
	if sess.OrgID != orgID {
		return nil, ErrNotOrgMember
	}
	return s.memberships.ListPendingByOrg(ctx, orgID)
}

// Revoke withdraws the outstanding invite for email. Tokens already minted
// for it become useless: acceptance fails once the placeholder is gone.
func (s *Service) Revoke(ctx context.Context, sess *sessiondomain.Session, orgID, email string) error {
	if err := rbac.RequireWrite(sess); err != nil {
		return err
	}
	if sess.OrgID != orgID {
		return ErrNotOrgMember
	}
	key := membershipdomain.PendingKey(email)
	existing, err := s.memberships.GetByOrgAndKey(ctx, orgID, key)
	if err != nil {
		return err
	}
	if existing == nil || existing.Status != membershipdomain.StatusInvited {
		return ErrInviteNotFound
	}
	if _, err := s.memberships.Delete(ctx, orgID, key); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, orgID, sess.UserID, auditdomain.ActionInviteRevoke, key, "")
	return nil
}

// Accept redeems token for the authenticated caller. The token must verify,
// must be bound to the caller's email (case-insensitive), and its placeholder
// must still exist. On success the placeholder is gone, an active membership
// keyed by callerUserID exists, and {orgId, role} is merged into the caller's
// custom claims at the identity platform.
func (s *Service) Accept(ctx context.Context, token, callerUserID, callerEmail string) (*AcceptResult, error) {
	payload := s.codec.Verify(token)
	if payload == nil {
		return nil, ErrInvalidToken
	}
	role := membershipdomain.ParseRole(payload.Role)
	if role == "" {
		return nil, ErrInvalidToken
	}
	if payload.Email != strings.ToLower(strings.TrimSpace(callerEmail)) {
		return nil, ErrEmailMismatch
	}

	active, err := s.memberships.AcceptPending(ctx, payload.OrgID, payload.Email, callerUserID, role)
	if err != nil {
		return nil, err
	}
	if active == nil {
		// Valid token, but the invite was withdrawn or already consumed.
		return nil, ErrInviteNotFound
	}

	if err := s.orgs.AdjustMemberCount(ctx, payload.OrgID, 1); err != nil {
		log.Printf("invite: member count bump failed for org %s: %v", payload.OrgID, err)
	}

	result := &AcceptResult{OrgID: payload.OrgID, Role: role, ClaimsSynced: true}
	err = s.provider.MergeCustomClaims(ctx, callerUserID, map[string]any{
		"orgId": payload.OrgID,
		"role":  string(role),
	})
	if err != nil {
		// The membership is already committed; claims catch up on retry.
		log.Printf("invite: claims merge failed for user %s: %v", callerUserID, err)
		result.ClaimsSynced = false
	}

	s.audit.LogEvent(ctx, payload.OrgID, callerUserID, auditdomain.ActionInviteAccept, membershipdomain.PendingKey(payload.Email), string(role))
	return result, nil
}
