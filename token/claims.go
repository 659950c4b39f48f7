package token

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the claim set carried by short-lived access tokens. It is
// stateless: everything a request guard needs to authorize a call travels in
// the token itself.
type AccessClaims struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Timezone  string `json:"timezone,omitempty"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

// RefreshClaims is the claim set carried by refresh tokens. SessionID is
// preserved across rotations so downstream systems can correlate every token
// pair of one login. TokenVersion increments on each rotation.
type RefreshClaims struct {
	UserID       string `json:"userId"`
	SessionID    string `json:"sessionId"`
	TokenVersion int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}
