package vault

import "fmt"

// Refresh failure reasons
const (
	// ReasonReauthRequired means the refresh token itself was rejected.
	// The connection needs a new operator-driven authorization.
	ReasonReauthRequired = "reauth_required"

	// ReasonTransient means the token endpoint could not be reached.
	// The same refresh may succeed on the next attempt.
	ReasonTransient = "transient"
)

// AuthError distinguishes "expired credential, needs re-authorization" from
// "transient network failure, retryable".
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth error (%s)", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NeedsReauth reports whether the credential is unrecoverable without a new
// authorization.
func (e *AuthError) NeedsReauth() bool {
	return e.Reason == ReasonReauthRequired
}
