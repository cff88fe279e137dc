// Package rbac holds the pure role guard called before every privileged
// operation. Guards only look at the session; they never touch the store.
package rbac

import (
	"net/http"

	membershipdomain "github.com/peteywee/fresh-sub000/internal/membership/domain"
	sessiondomain "github.com/peteywee/fresh-sub000/internal/session/domain"
)

// Kind classifies a guard failure.
type Kind string

const (
	// KindUnauthenticated means no usable session was presented.
	KindUnauthenticated Kind = "unauthenticated"
	// KindForbidden means the session exists but its role rank is too low.
	KindForbidden Kind = "forbidden"
)

// Error is a guard failure shaped for the transport layer. Messages are terse
// and uniform so they never reveal why a credential was rejected.
type Error struct {
	Status  int
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	errUnauthenticated = &Error{Status: http.StatusUnauthorized, Kind: KindUnauthenticated, Message: "Unauthorized"}
	errForbidden       = &Error{Status: http.StatusForbidden, Kind: KindForbidden, Message: "Forbidden"}
)

// Require checks that sess is authenticated and holds at least the required
// role. Returns nil when the caller may proceed. Pure: same inputs, same
// answer, no side effects.
func Require(sess *sessiondomain.Session, required membershipdomain.Role) *Error {
	if sess == nil || sess.UserID == "" {
		return errUnauthenticated
	}
	if !membershipdomain.AtLeast(sess.Role, required) {
		return errForbidden
	}
	return nil
}

// RequireWrite is the guard for state-mutating operations: admin or above.
func RequireWrite(sess *sessiondomain.Session) *Error {
	return Require(sess, membershipdomain.RoleAdmin)
}
