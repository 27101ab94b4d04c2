package account

import (
	"context"
	"fmt"
	"sync"

	"github.com/quarryworks/craftbank/pkg/entities"
	"github.com/quarryworks/craftbank/pkg/storage/jsonfile"
)

// FileRepository implements Repository on a single JSON document keyed by
// normalized username. Every Save rewrites the whole document; account
// counts are small enough that write-the-world beats incremental updates.
type FileRepository struct {
	path     string
	mu       sync.RWMutex
	accounts map[string]*entities.Account
}

// NewFileRepository creates a file-backed account repository and loads the
// existing document if one is present.
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		path:     path,
		accounts: make(map[string]*entities.Account),
	}

	if err := jsonfile.Load(path, &r.accounts); err != nil {
		return nil, fmt.Errorf("error loading accounts: %w", err)
	}

	return r, nil
}

// Get retrieves an account by username
func (r *FileRepository) Get(ctx context.Context, username string) (*entities.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[entities.NormalizeUsername(username)]
	if !ok {
		return nil, ErrAccountNotFound
	}

	clone := cloneAccount(account)
	return clone, nil
}

// FindByIdentity retrieves the account holding the given external identity id
func (r *FileRepository) FindByIdentity(ctx context.Context, externalID string) (*entities.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if account.Linked != nil && account.Linked.ID == externalID {
			clone := cloneAccount(account)
			return clone, nil
		}
	}

	return nil, ErrAccountNotFound
}

// Save creates or updates an account and rewrites the document
func (r *FileRepository) Save(ctx context.Context, account *entities.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[entities.NormalizeUsername(account.Username)] = cloneAccount(account)
	return jsonfile.Save(r.path, r.accounts)
}

// List returns every account
func (r *FileRepository) List(ctx context.Context) ([]*entities.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*entities.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, cloneAccount(account))
	}

	return accounts, nil
}

// Reload re-reads the document, replacing in-memory state wholesale
func (r *FileRepository) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := make(map[string]*entities.Account)
	if err := jsonfile.Load(r.path, &fresh); err != nil {
		return fmt.Errorf("error reloading accounts: %w", err)
	}

	r.accounts = fresh
	return nil
}

// Close is a no-op for file storage
func (r *FileRepository) Close() error {
	return nil
}

// Path returns the backing document location, used by the backup job.
func (r *FileRepository) Path() string {
	return r.path
}

// cloneAccount copies an account so callers never share history slices
// with the repository's authoritative copy.
func cloneAccount(a *entities.Account) *entities.Account {
	clone := *a
	if a.Linked != nil {
		linked := *a.Linked
		clone.Linked = &linked
	}
	clone.History = make([]entities.LedgerEvent, len(a.History))
	copy(clone.History, a.History)
	return &clone
}
