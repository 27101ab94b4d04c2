package linkcode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quarryworks/craftbank/pkg/entities"
	"github.com/quarryworks/craftbank/pkg/storage/jsonfile"
)

// FileRepository implements Repository on a JSON document keyed by code.
type FileRepository struct {
	path  string
	mu    sync.Mutex
	codes map[string]*entities.LinkCode
	now   func() time.Time
}

// NewFileRepository creates a file-backed linking-code repository
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{
		path:  path,
		codes: make(map[string]*entities.LinkCode),
		now:   time.Now,
	}

	if err := jsonfile.Load(path, &r.codes); err != nil {
		return nil, fmt.Errorf("error loading linking codes: %w", err)
	}

	return r, nil
}

// Put stores a freshly issued code and persists immediately
func (r *FileRepository) Put(ctx context.Context, code *entities.LinkCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *code
	r.codes[code.Code] = &clone
	return jsonfile.Save(r.path, r.codes)
}

// Take consumes a code atomically: the code is gone after this call
// whether it was valid or expired.
func (r *FileRepository) Take(ctx context.Context, code string) (*entities.LinkCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.codes[code]
	if !ok {
		return nil, ErrCodeNotFound
	}

	delete(r.codes, code)
	if err := jsonfile.Save(r.path, r.codes); err != nil {
		return nil, err
	}

	if entry.Expired(r.now()) {
		return nil, ErrCodeExpired
	}

	clone := *entry
	return &clone, nil
}

// SetNowFunc overrides the clock, used by tests to force expiry.
func (r *FileRepository) SetNowFunc(fn func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = fn
}

// Reload re-reads the document, replacing in-memory state wholesale
func (r *FileRepository) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := make(map[string]*entities.LinkCode)
	if err := jsonfile.Load(r.path, &fresh); err != nil {
		return fmt.Errorf("error reloading linking codes: %w", err)
	}

	r.codes = fresh
	return nil
}
