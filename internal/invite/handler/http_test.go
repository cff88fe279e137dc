package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peteywee/fresh-sub000/internal/audit"
	"github.com/peteywee/fresh-sub000/internal/invite"
	"github.com/peteywee/fresh-sub000/internal/invite/policy"
	membershipdomain "github.com/peteywee/fresh-sub000/internal/membership/domain"
	orgdomain "github.com/peteywee/fresh-sub000/internal/organization/domain"
	"github.com/peteywee/fresh-sub000/internal/platform/identity"
	"github.com/peteywee/fresh-sub000/internal/security"
	"github.com/peteywee/fresh-sub000/internal/session"
)

type fakeMembershipRepo struct {
	members map[string]*membershipdomain.Membership
}

func (r *fakeMembershipRepo) key(orgID, memberKey string) string { return orgID + "/" + memberKey }

func (r *fakeMembershipRepo) GetByOrgAndKey(_ context.Context, orgID, memberKey string) (*membershipdomain.Membership, error) {
	return r.members[r.key(orgID, memberKey)], nil
}

func (r *fakeMembershipRepo) ListPendingByOrg(_ context.Context, orgID string) ([]*membershipdomain.Membership, error) {
	var out []*membershipdomain.Membership
	for _, m := range r.members {
		if m.OrgID == orgID && m.Status == membershipdomain.StatusInvited {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) Upsert(_ context.Context, m *membershipdomain.Membership) error {
	r.members[r.key(m.OrgID, m.MemberKey)] = m
	return nil
}

func (r *fakeMembershipRepo) Delete(_ context.Context, orgID, memberKey string) (bool, error) {
	k := r.key(orgID, memberKey)
	_, ok := r.members[k]
	delete(r.members, k)
	return ok, nil
}

func (r *fakeMembershipRepo) AcceptPending(_ context.Context, orgID, email, userID string, role membershipdomain.Role) (*membershipdomain.Membership, error) {
	pendingKey := r.key(orgID, membershipdomain.PendingKey(email))
	placeholder, ok := r.members[pendingKey]
	if !ok {
		return nil, nil
	}
	delete(r.members, pendingKey)
	active := &membershipdomain.Membership{
		OrgID:     orgID,
		MemberKey: userID,
		Email:     placeholder.Email,
		Role:      role,
		Status:    membershipdomain.StatusActive,
	}
	r.members[r.key(orgID, userID)] = active
	return active, nil
}

type fakeOrgRepo struct {
	orgs map[string]*orgdomain.Org
}

func (r *fakeOrgRepo) GetByID(_ context.Context, id string) (*orgdomain.Org, error) {
	return r.orgs[id], nil
}

func (r *fakeOrgRepo) AdjustMemberCount(_ context.Context, id string, delta int) error {
	if o, ok := r.orgs[id]; ok {
		o.MemberCount += delta
	}
	return nil
}

type staticProvider struct {
	claims map[string]*identity.Claims
	merged map[string]map[string]any
}

func (p *staticProvider) VerifySessionAssertion(_ context.Context, credential string) (*identity.Claims, error) {
	if c, ok := p.claims[credential]; ok {
		return c, nil
	}
	return nil, identity.ErrInvalidAssertion
}

func (p *staticProvider) MergeCustomClaims(_ context.Context, userID string, claims map[string]any) error {
	if p.merged == nil {
		p.merged = make(map[string]map[string]any)
	}
	p.merged[userID] = claims
	return nil
}

type fixture struct {
	e        *echo.Echo
	repo     *fakeMembershipRepo
	orgs     *fakeOrgRepo
	codec    *security.InviteCodec
	provider *staticProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	secret := bytes.Repeat([]byte{0x5a}, 32)
	codec, err := security.NewInviteCodec(secret)
	require.NoError(t, err)

	repo := &fakeMembershipRepo{members: make(map[string]*membershipdomain.Membership)}
	orgs := &fakeOrgRepo{orgs: map[string]*orgdomain.Org{
		"org1": {ID: "org1", Name: "Acme", OwnerID: "u1", MemberCount: 1},
	}}
	provider := &staticProvider{claims: map[string]*identity.Claims{
		"admin-token": {Subject: "u1", Email: "u1@example.com", Role: "admin", OrgID: "org1"},
		"alice-token": {Subject: "u42", Email: "alice@example.com"},
	}}
	svc := invite.NewService(codec, repo, orgs, provider, &policy.OPAEvaluator{}, audit.Nop{}, 0)
	h := NewHandler(svc)

	e := echo.New()
	e.Use(session.Middleware(session.NewDecoder(provider), "__session"))
	e.POST("/v1/orgs/:id/invites", h.Create)
	e.GET("/v1/orgs/:id/invites", h.ListPending)
	e.DELETE("/v1/orgs/:id/invites/:email", h.Revoke)
	e.POST("/v1/invites/accept", h.Accept)
	return &fixture{e: e, repo: repo, orgs: orgs, codec: codec, provider: provider}
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "__session", Value: token})
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestCreate_OK(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/v1/orgs/org1/invites", "admin-token", `{"email":"alice@example.com","role":"member"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "org1", body["orgId"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "member", body["role"])
	assert.Contains(t, f.repo.members, "org1/pending:alice@example.com")
}

func TestCreate_CustomTTL(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/v1/orgs/org1/invites", "admin-token", `{"email":"alice@example.com","role":"member","ttl":"1h"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ExpiresAt time.Time `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.WithinDuration(t, time.Now().Add(time.Hour), body.ExpiresAt, time.Minute)
}

func TestCreate_BadTTL(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/v1/orgs/org1/invites", "admin-token", `{"email":"alice@example.com","role":"member","ttl":"soon"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreate_Anonymous(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/v1/orgs/org1/invites", "", `{"email":"alice@example.com","role":"member"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreate_OwnerGrantDenied(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/v1/orgs/org1/invites", "admin-token", `{"email":"alice@example.com","role":"owner"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreate_BadEmail(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/v1/orgs/org1/invites", "admin-token", `{"email":"not-an-email","role":"member"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPending_OK(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/v1/orgs/org1/invites", "admin-token", `{"email":"alice@example.com","role":"member"}`)

	rec := f.do(http.MethodGet, "/v1/orgs/org1/invites", "admin-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Invites []map[string]any `json:"invites"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Invites, 1)
	assert.Equal(t, "alice@example.com", body.Invites[0]["email"])
}

func TestRevoke_OK(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodPost, "/v1/orgs/org1/invites", "admin-token", `{"email":"alice@example.com","role":"member"}`)

	rec := f.do(http.MethodDelete, "/v1/orgs/org1/invites/alice@example.com", "admin-token", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, f.repo.members, "org1/pending:alice@example.com")
}

func TestRevoke_Missing(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodDelete, "/v1/orgs/org1/invites/alice@example.com", "admin-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccept_OK(t *testing.T) {
	f := newFixture(t)
	createRec := f.do(http.MethodPost, "/v1/orgs/org1/invites", "admin-token", `{"email":"alice@example.com","role":"member"}`)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var created struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))

	rec := f.do(http.MethodPost, "/v1/invites/accept", "alice-token", fmt.Sprintf(`{"token":%q}`, created.Token))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "org1", body["orgId"])
	assert.Equal(t, "member", body["role"])
	assert.Equal(t, true, body["claimsSynced"])
	assert.Contains(t, f.repo.members, "org1/u42")
	assert.Equal(t, map[string]any{"orgId": "org1", "role": "member"}, f.provider.merged["u42"])
}

func TestAccept_Anonymous(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/v1/invites/accept", "", `{"token":"whatever"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccept_BadToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/v1/invites/accept", "alice-token", `{"token":"not.a.token"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccept_WrongEmail(t *testing.T) {
	f := newFixture(t)
	token, _, err := f.codec.Generate("org1", "someone-else@example.com", "member", time.Hour)
	require.NoError(t, err)
	f.repo.members["org1/pending:someone-else@example.com"] = &membershipdomain.Membership{
		OrgID: "org1", MemberKey: "pending:someone-else@example.com",
		Email: "someone-else@example.com", Role: membershipdomain.RoleMember,
		Status: membershipdomain.StatusInvited,
	}

	rec := f.do(http.MethodPost, "/v1/invites/accept", "alice-token", fmt.Sprintf(`{"token":%q}`, token))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAccept_RevokedInvite(t *testing.T) {
	f := newFixture(t)
	createRec := f.do(http.MethodPost, "/v1/orgs/org1/invites", "admin-token", `{"email":"alice@example.com","role":"member"}`)
	var created struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))
	f.do(http.MethodDelete, "/v1/orgs/org1/invites/alice@example.com", "admin-token", "")

	rec := f.do(http.MethodPost, "/v1/invites/accept", "alice-token", fmt.Sprintf(`{"token":%q}`, created.Token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
