package identity

import (
	"context"
	"crypto"

	"github.com/golang-jwt/jwt/v5"
)

// assertionClaims is the JWT shape of a platform session assertion.
type assertionClaims struct {
	jwt.RegisteredClaims
	Email              string `json:"email"`
	Name               string `json:"name"`
	Role               string `json:"role"`
	OrgID              string `json:"orgId"`
	OrgName            string `json:"orgName"`
	OnboardingComplete bool   `json:"onboardingComplete"`
}

// Platform implements Provider against the managed identity platform:
// assertions are platform-signed JWTs verified locally with the platform's
// public key (RS256 or ES256); claim merges go through the platform admin API.
type Platform struct {
	publicKey crypto.PublicKey
	issuer    string
	audience  string
	admin     *AdminClient
}

// NewPlatform returns a Platform verifying assertions against publicKey with
// the given issuer and audience. admin may be nil when claim merges are not
// needed (e.g. read-only deployments); MergeCustomClaims then fails.
func NewPlatform(publicKey crypto.PublicKey, issuer, audience string, admin *AdminClient) *Platform {
	return &Platform{publicKey: publicKey, issuer: issuer, audience: audience, admin: admin}
}

// VerifySessionAssertion parses and validates the assertion JWT (signature,
// exp, iss, aud) and projects it into Claims. Returns ErrInvalidAssertion on
// any failure.
func (p *Platform) VerifySessionAssertion(ctx context.Context, credential string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(credential, &assertionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return p.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return p.publicKey, nil
		}
		return nil, ErrInvalidAssertion
	})
	if err != nil {
		return nil, ErrInvalidAssertion
	}
	claims, ok := token.Claims.(*assertionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidAssertion
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidAssertion
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidAssertion
	}
	if claims.Subject == "" {
		return nil, ErrInvalidAssertion
	}
	out := &Claims{
		Subject:            claims.Subject,
		Email:              claims.Email,
		DisplayName:        claims.Name,
		Role:               claims.Role,
		OrgID:              claims.OrgID,
		OrgName:            claims.OrgName,
		OnboardingComplete: claims.OnboardingComplete,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// MergeCustomClaims merges claims via the platform admin API.
func (p *Platform) MergeCustomClaims(ctx context.Context, userID string, claims map[string]any) error {
	if p.admin == nil {
		return ErrAdminUnavailable
	}
	return p.admin.MergeCustomClaims(ctx, userID, claims)
}
