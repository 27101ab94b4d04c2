package account

import (
	"context"
	"errors"

	"github.com/quarryworks/craftbank/pkg/entities"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

// Repository defines the interface for account data operations.
// Lookups are case-insensitive; implementations normalize usernames.
type Repository interface {
	// Get retrieves an account by username
	Get(ctx context.Context, username string) (*entities.Account, error)

	// FindByIdentity retrieves the account holding the given external identity id
	FindByIdentity(ctx context.Context, externalID string) (*entities.Account, error)

	// Save creates or updates an account and persists the full account set
	Save(ctx context.Context, account *entities.Account) error

	// List returns every account
	List(ctx context.Context) ([]*entities.Account, error)

	// Reload re-reads durable storage, picking up writes made by another process
	Reload(ctx context.Context) error

	// Close releases any underlying resources
	Close() error
}
