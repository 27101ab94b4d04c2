package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/quarryworks/craftbank/pkg/entities"
	"github.com/quarryworks/craftbank/pkg/storage/jsonfile"
)

// FileRepository implements Repository on a single JSON document holding
// payments in append order.
type FileRepository struct {
	path     string
	mu       sync.RWMutex
	payments []*entities.PendingPayment
}

// NewFileRepository creates a file-backed payment repository
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{path: path}

	if err := jsonfile.Load(path, &r.payments); err != nil {
		return nil, fmt.Errorf("error loading payments: %w", err)
	}

	return r, nil
}

// Append records a new pending payment and persists immediately
func (r *FileRepository) Append(ctx context.Context, payment *entities.PendingPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *payment
	r.payments = append(r.payments, &clone)
	return jsonfile.Save(r.path, r.payments)
}

// Get retrieves a payment by id
func (r *FileRepository) Get(ctx context.Context, id string) (*entities.PendingPayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.payments {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}

	return nil, ErrPaymentNotFound
}

// Update replaces a payment record in place and persists
func (r *FileRepository) Update(ctx context.Context, payment *entities.PendingPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.payments {
		if p.ID == payment.ID {
			clone := *payment
			r.payments[i] = &clone
			return jsonfile.Save(r.path, r.payments)
		}
	}

	return ErrPaymentNotFound
}

// Remove deletes a payment record and persists
func (r *FileRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.payments {
		if p.ID == id {
			r.payments = append(r.payments[:i], r.payments[i+1:]...)
			return jsonfile.Save(r.path, r.payments)
		}
	}

	return ErrPaymentNotFound
}

// List returns every payment in append order
func (r *FileRepository) List(ctx context.Context) ([]*entities.PendingPayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payments := make([]*entities.PendingPayment, 0, len(r.payments))
	for _, p := range r.payments {
		clone := *p
		payments = append(payments, &clone)
	}

	return payments, nil
}

// Reload re-reads the document, replacing in-memory state wholesale
func (r *FileRepository) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fresh []*entities.PendingPayment
	if err := jsonfile.Load(r.path, &fresh); err != nil {
		return fmt.Errorf("error reloading payments: %w", err)
	}

	r.payments = fresh
	return nil
}
