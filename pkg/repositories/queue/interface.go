package queue

import (
	"context"
	"errors"

	"github.com/quarryworks/craftbank/pkg/entities"
)

var (
	ErrCommandNotFound = errors.New("queued command not found")
)

// Repository defines the interface for the outbound command queue. The
// queue is an append plus in-place status flip over a shared flat file,
// not a transactional store: the producer (ledger service) and the
// consumer (chat watcher) are separate processes, so each call that reads
// should Reload first to see the other side's writes.
type Repository interface {
	// Enqueue appends a pending command and persists immediately
	Enqueue(ctx context.Context, command string) (*entities.QueuedCommand, error)

	// Pending returns every pending command in append (FIFO) order
	Pending(ctx context.Context) ([]*entities.QueuedCommand, error)

	// MarkDone flips a command to done. Done commands never revert to pending.
	MarkDone(ctx context.Context, id string, executedBy string) error

	// List returns the full queue including executed entries
	List(ctx context.Context) ([]*entities.QueuedCommand, error)

	// Reload re-reads durable storage
	Reload(ctx context.Context) error
}
