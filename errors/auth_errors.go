// errors/auth_errors.go
package errors

import (
	"errors"
	"net/http"
)

var (
	ErrCredentialInvalid    = errors.New("credential invalid")
	ErrSubjectMissing       = errors.New("subject missing")
	ErrPrincipalNotFound    = errors.New("principal not found")
	ErrPrincipalInactive    = errors.New("principal inactive")
	ErrRoleDenied           = errors.New("role denied")
	ErrInvalidCredentials   = errors.New("incorrect username or password")
	ErrPrincipalConflict    = errors.New("principal conflict")
	ErrInvalidPrincipalData = errors.New("invalid principal data")
)

// Outcome is the failure class an identity check reports to the boundary.
type Outcome int

const (
	OutcomeUnauthorized Outcome = iota + 1
	OutcomeForbidden
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// AuthError is the value returned for every identity or authorization
// failure. Reason is safe to show to the caller.
type AuthError struct {
	Outcome Outcome
	Reason  string
	Err     error
}

func (e *AuthError) Error() string {
	if e == nil {
		return ""
	}
	return e.Outcome.String() + ": " + e.Reason
}

func (e *AuthError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusCode maps the outcome to its HTTP status.
func (e *AuthError) StatusCode() int {
	if e != nil && e.Outcome == OutcomeForbidden {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

func Unauthorized(reason string, err error) *AuthError {
	return &AuthError{Outcome: OutcomeUnauthorized, Reason: reason, Err: err}
}

func Forbidden(reason string, err error) *AuthError {
	return &AuthError{Outcome: OutcomeForbidden, Reason: reason, Err: err}
}

// AsAuthError reports whether err carries an AuthError.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
