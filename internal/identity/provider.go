// Package identity wraps the external identity provider behind a small
// interface. The provider only has to hand back a stable external id and
// a display tag; everything else about its OAuth dance is its business.
package identity

import (
	"context"

	"github.com/quarryworks/craftbank/pkg/entities"
)

// Provider is the contract the linking flow needs from an identity provider.
type Provider interface {
	// AuthURL builds the provider login URL carrying the given state
	AuthURL(state string) string

	// Exchange trades an authorization code for the identity behind it
	Exchange(ctx context.Context, code string) (entities.LinkedIdentity, error)
}
