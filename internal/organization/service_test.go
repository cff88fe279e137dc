package organization

import (
	"context"
	"errors"
	"testing"

	"github.com/peteywee/fresh-sub000/internal/audit"
	membershipdomain "github.com/peteywee/fresh-sub000/internal/membership/domain"
	"github.com/peteywee/fresh-sub000/internal/organization/domain"
	"github.com/peteywee/fresh-sub000/internal/platform/identity"
	"github.com/peteywee/fresh-sub000/internal/platform/rbac"
	sessiondomain "github.com/peteywee/fresh-sub000/internal/session/domain"
)

type fakeOrgRepo struct {
	orgs map[string]*domain.Org
}

func newFakeOrgRepo() *fakeOrgRepo { return &fakeOrgRepo{orgs: make(map[string]*domain.Org)} }

func (f *fakeOrgRepo) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	return f.orgs[id], nil
}
func (f *fakeOrgRepo) Create(ctx context.Context, o *domain.Org) error {
	f.orgs[o.ID] = o
	return nil
}
func (f *fakeOrgRepo) Update(ctx context.Context, o *domain.Org) error {
	f.orgs[o.ID] = o
	return nil
}
func (f *fakeOrgRepo) AdjustMemberCount(ctx context.Context, id string, delta int) error {
	if o, ok := f.orgs[id]; ok {
		o.MemberCount += delta
	}
	return nil
}

type fakeMembershipRepo struct {
	byKey map[string]*membershipdomain.Membership
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{byKey: make(map[string]*membershipdomain.Membership)}
}

func (f *fakeMembershipRepo) GetByOrgAndKey(ctx context.Context, orgID, memberKey string) (*membershipdomain.Membership, error) {
	return f.byKey[orgID+":"+memberKey], nil
}
func (f *fakeMembershipRepo) ListByOrg(ctx context.Context, orgID string) ([]*membershipdomain.Membership, error) {
	return nil, nil
}
func (f *fakeMembershipRepo) ListPendingByOrg(ctx context.Context, orgID string) ([]*membershipdomain.Membership, error) {
	return nil, nil
}
func (f *fakeMembershipRepo) Upsert(ctx context.Context, m *membershipdomain.Membership) error {
	f.byKey[m.OrgID+":"+m.MemberKey] = m
	return nil
}
func (f *fakeMembershipRepo) Delete(ctx context.Context, orgID, memberKey string) (bool, error) {
	return false, nil
}
func (f *fakeMembershipRepo) UpdateRole(ctx context.Context, orgID, memberKey string, role membershipdomain.Role) (*membershipdomain.Membership, error) {
	return nil, nil
}
func (f *fakeMembershipRepo) CountByOrgAndRole(ctx context.Context, orgID string, role membershipdomain.Role) (int64, error) {
	return 0, nil
}
func (f *fakeMembershipRepo) AcceptPending(ctx context.Context, orgID, email, userID string, role membershipdomain.Role) (*membershipdomain.Membership, error) {
	return nil, nil
}

type fakeProvider struct {
	merged map[string]map[string]any
}

func (f *fakeProvider) VerifySessionAssertion(ctx context.Context, credential string) (*identity.Claims, error) {
	return nil, identity.ErrInvalidAssertion
}
func (f *fakeProvider) MergeCustomClaims(ctx context.Context, userID string, claims map[string]any) error {
	if f.merged == nil {
		f.merged = make(map[string]map[string]any)
	}
	f.merged[userID] = claims
	return nil
}

func TestCreate_OwnerMembershipAndClaims(t *testing.T) {
	orgs := newFakeOrgRepo()
	memberships := newFakeMembershipRepo()
	provider := &fakeProvider{}
	svc := NewService(orgs, memberships, provider, audit.Nop{})

	sess := &sessiondomain.Session{UserID: "u1", Email: "a@b.c", DisplayName: "A"}
	org, err := svc.Create(context.Background(), sess, "Acme")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if org.OwnerID != "u1" || org.Name != "Acme" || org.MemberCount != 1 {
		t.Errorf("org = %+v", org)
	}
	owner, _ := memberships.GetByOrgAndKey(context.Background(), org.ID, "u1")
	if owner == nil || owner.Role != membershipdomain.RoleOwner || owner.Status != membershipdomain.StatusActive {
		t.Errorf("owner membership = %+v", owner)
	}
	if provider.merged["u1"]["orgId"] != org.ID || provider.merged["u1"]["role"] != "owner" {
		t.Errorf("merged claims = %v", provider.merged["u1"])
	}
}

func TestCreate_RequiresAuthentication(t *testing.T) {
	svc := NewService(newFakeOrgRepo(), newFakeMembershipRepo(), &fakeProvider{}, audit.Nop{})
	_, err := svc.Create(context.Background(), nil, "Acme")
	var guardErr *rbac.Error
	if !errors.As(err, &guardErr) || guardErr.Status != 401 {
		t.Fatalf("err = %v, want 401 guard error", err)
	}
}

func TestCreate_EmptyName(t *testing.T) {
	svc := NewService(newFakeOrgRepo(), newFakeMembershipRepo(), &fakeProvider{}, audit.Nop{})
	sess := &sessiondomain.Session{UserID: "u1"}
	if _, err := svc.Create(context.Background(), sess, ""); err == nil {
		t.Fatal("expected validation error for empty name")
	}
}

func TestGet_MemberOnly(t *testing.T) {
	orgs := newFakeOrgRepo()
	orgs.orgs["org1"] = &domain.Org{ID: "org1", Name: "Acme", OwnerID: "u1"}
	svc := NewService(orgs, newFakeMembershipRepo(), &fakeProvider{}, audit.Nop{})

	member := &sessiondomain.Session{UserID: "u1", Role: membershipdomain.RoleViewer, OrgID: "org1"}
	if _, err := svc.Get(context.Background(), member, "org1"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	outsider := &sessiondomain.Session{UserID: "u2", Role: membershipdomain.RoleOwner, OrgID: "org2"}
	if _, err := svc.Get(context.Background(), outsider, "org1"); !errors.Is(err, ErrNotOrgMember) {
		t.Fatalf("err = %v, want ErrNotOrgMember", err)
	}
}
