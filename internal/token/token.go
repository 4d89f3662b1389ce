// Package token decodes bearer token claims client-side for the expiry
// fast path. Tokens are never signature-verified here; any decision that
// matters is re-confirmed against the backend's validate endpoint.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the backend's JWT payload the client reads.
type Claims struct {
	UID   string `json:"uid,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// parser skips claims validation: expiry is checked explicitly so that a
// malformed token and an expired token take the same code path.
var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Decode parses the token payload without verifying the signature.
// Returns nil claims for anything that does not parse as a JWT.
func Decode(raw string) *Claims {
	if raw == "" {
		return nil
	}
	var claims Claims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return nil
	}
	return &claims
}

// Expired reports whether the token is expired as of now. Empty tokens,
// unparsable tokens, and tokens without an exp claim all count as expired.
func Expired(raw string, now time.Time) bool {
	claims := Decode(raw)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.Time.After(now)
}
