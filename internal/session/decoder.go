// Package session decodes the opaque session credential into the per-request
// Session record.
package session

import (
	"context"

	membershipdomain "github.com/peteywee/fresh-sub000/internal/membership/domain"
	"github.com/peteywee/fresh-sub000/internal/platform/identity"
	"github.com/peteywee/fresh-sub000/internal/session/domain"
)

// Decoder turns an opaque session credential into a Session via the identity
// provider.
type Decoder struct {
	provider identity.Provider
}

// NewDecoder returns a Decoder backed by provider.
func NewDecoder(provider identity.Provider) *Decoder {
	return &Decoder{provider: provider}
}

// Decode returns the Session for credential, or nil for an anonymous request.
// A missing, expired, corrupted, or revoked credential all decode to nil; the
// caller cannot and must not distinguish "bad token" from "no token".
func (d *Decoder) Decode(ctx context.Context, credential string) *domain.Session {
	if credential == "" {
		return nil
	}
	claims, err := d.provider.VerifySessionAssertion(ctx, credential)
	if err != nil || claims == nil {
		return nil
	}
	return fromClaims(claims)
}

// fromClaims is the single, total projection from provider claims to the
// Session shape. Unknown role claims map to the empty (unprivileged) role
// rather than propagating an arbitrary string into rank checks.
func fromClaims(c *identity.Claims) *domain.Session {
	return &domain.Session{
		UserID:             c.Subject,
		Email:              c.Email,
		DisplayName:        c.DisplayName,
		Role:               membershipdomain.ParseRole(c.Role),
		OrgID:              c.OrgID,
		OrgName:            c.OrgName,
		OnboardingComplete: c.OnboardingComplete,
		IssuedAt:           c.IssuedAt,
		ExpiresAt:          c.ExpiresAt,
	}
}
