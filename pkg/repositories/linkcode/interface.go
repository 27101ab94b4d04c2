package linkcode

import (
	"context"
	"errors"

	"github.com/quarryworks/craftbank/pkg/entities"
)

var (
	ErrCodeNotFound = errors.New("linking code not found")
	ErrCodeExpired  = errors.New("linking code expired")
)

// Repository defines the interface for pending linking codes.
type Repository interface {
	// Put stores a freshly issued code and persists immediately
	Put(ctx context.Context, code *entities.LinkCode) error

	// Take consumes a code atomically. Expired codes are removed and
	// reported as ErrCodeExpired; there is no background sweep.
	Take(ctx context.Context, code string) (*entities.LinkCode, error)

	// Reload re-reads durable storage
	Reload(ctx context.Context) error
}
