package entities

import (
	"time"
)

// LinkCodeTTL is how long an issued linking code stays valid.
const LinkCodeTTL = 24 * time.Hour

// LinkCode is a short-lived token proving control of an external identity,
// pending in-game confirmation. Codes are single-use.
type LinkCode struct {
	Code       string    `json:"code"`
	ExternalID string    `json:"external_id"`
	Tag        string    `json:"tag"`
	IssuedAt   time.Time `json:"issued_at"`
}

// Expired reports whether the code is past its TTL at the given instant.
func (c LinkCode) Expired(now time.Time) bool {
	return now.Sub(c.IssuedAt) > LinkCodeTTL
}
