// Package auth issues and verifies the credentials the HTTP surface
// accepts: session JWTs for dashboard users, the shared ingest secret for
// the chat watcher, and the bcrypt-hashed admin token.
package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// SessionClaims represents the typed JWT issued after a successful
// identity-provider login.
type SessionClaims struct {
	ExternalID string `json:"external_id"`
	Tag        string `json:"tag"`
	Username   string `json:"username,omitempty"` // Set once the identity is linked
	jwt.RegisteredClaims
}

// MintSessionToken issues a signed JWT for a logged-in identity.
func MintSessionToken(secret string, ttl time.Duration, now time.Time, claims SessionClaims) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}

	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.Issuer = "craftbank"

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("error signing session token: %w", err)
	}

	return signed, nil
}

// ParseSessionToken validates the JWT string and returns typed claims.
func ParseSessionToken(secret, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwtSigningMethod {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("error parsing session token: %w", err)
	}

	return claims, nil
}

// CheckIngestToken compares a presented ingest credential against the
// shared secret in constant time.
func CheckIngestToken(secret, presented string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(presented)) == 1
}

// CheckAdminToken compares a presented admin credential against its
// configured bcrypt hash.
func CheckAdminToken(hash, presented string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil
}
