// Package identity is the boundary to the external identity platform: it
// verifies session assertions and pushes custom-claim updates back to the
// platform. Nothing in this package stores user credentials.
package identity

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidAssertion is returned when a session assertion is malformed,
// expired, or fails signature or issuer/audience checks. All verification
// failures collapse to this single error.
var ErrInvalidAssertion = errors.New("invalid session assertion")

// Claims is the decoded claim set the identity platform attaches to a session
// assertion. Every field is either present or its zero value; there is no
// partially-decoded state.
type Claims struct {
	Subject            string
	Email              string
	DisplayName        string
	Role               string
	OrgID              string
	OrgName            string
	OnboardingComplete bool
	IssuedAt           time.Time
	ExpiresAt          time.Time
}

// Provider verifies session assertions and merges custom claims at the
// identity platform.
type Provider interface {
	// VerifySessionAssertion verifies credential and returns its claims, or
	// ErrInvalidAssertion on any verification failure.
	VerifySessionAssertion(ctx context.Context, credential string) (*Claims, error)
	// MergeCustomClaims merges claims into the user's custom-claim set at the
	// platform. The merge is additive; unrelated existing claims survive.
	MergeCustomClaims(ctx context.Context, userID string, claims map[string]any) error
}
