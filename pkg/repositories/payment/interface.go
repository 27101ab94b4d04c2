package payment

import (
	"context"
	"errors"

	"github.com/quarryworks/craftbank/pkg/entities"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
)

// Repository defines the interface for pending-payment persistence.
type Repository interface {
	// Append records a new pending payment and persists immediately
	Append(ctx context.Context, payment *entities.PendingPayment) error

	// Get retrieves a payment by id
	Get(ctx context.Context, id string) (*entities.PendingPayment, error)

	// Update replaces a payment record in place and persists
	Update(ctx context.Context, payment *entities.PendingPayment) error

	// Remove deletes a payment record (operator deny) and persists
	Remove(ctx context.Context, id string) error

	// List returns every payment in append order
	List(ctx context.Context) ([]*entities.PendingPayment, error)

	// Reload re-reads durable storage
	Reload(ctx context.Context) error
}
