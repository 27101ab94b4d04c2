package account

import (
	"context"
	"sync"

	"github.com/quarryworks/craftbank/pkg/entities"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	accounts map[string]*entities.Account
	mu       sync.RWMutex
}

// NewMemoryRepository creates a new in-memory account repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[string]*entities.Account),
	}
}

// Get retrieves an account by username
func (r *MemoryRepository) Get(ctx context.Context, username string) (*entities.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[entities.NormalizeUsername(username)]
	if !exists {
		return nil, ErrAccountNotFound
	}

	return cloneAccount(account), nil
}

// FindByIdentity retrieves the account holding the given external identity id
func (r *MemoryRepository) FindByIdentity(ctx context.Context, externalID string) (*entities.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.Linked != nil && account.Linked.ID == externalID {
			return cloneAccount(account), nil
		}
	}

	return nil, ErrAccountNotFound
}

// Save creates or updates an account
func (r *MemoryRepository) Save(ctx context.Context, account *entities.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[entities.NormalizeUsername(account.Username)] = cloneAccount(account)
	return nil
}

// List returns every account
func (r *MemoryRepository) List(ctx context.Context) ([]*entities.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*entities.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, cloneAccount(account))
	}

	return accounts, nil
}

// Reload is a no-op for memory storage
func (r *MemoryRepository) Reload(ctx context.Context) error {
	return nil
}

// Close is a no-op for memory storage
func (r *MemoryRepository) Close() error {
	return nil
}
