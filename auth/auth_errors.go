package auth

import "errors"

var (
	// ErrEmailExists is returned by Register when an active account already
	// holds the (case-insensitively) same email.
	ErrEmailExists = errors.New("email already registered")
	// ErrAuthenticationFailed is returned by Login for an unknown email, an
	// inactive account, or a wrong password. The three cases are deliberately
	// indistinguishable so the endpoint leaks no email existence.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrInvalidRefreshToken is returned by Refresh for a bad signature,
	// malformed claims, or a user that no longer exists or is inactive.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrInvalidToken is returned by VerifyAccess for any unusable access
	// token. Expired and tampered tokens are reported identically.
	ErrInvalidToken = errors.New("invalid token")
)
