package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quarryworks/craftbank/pkg/entities"
	"github.com/quarryworks/craftbank/pkg/storage/jsonfile"
)

// FileRepository implements Repository on a single JSON document.
type FileRepository struct {
	path     string
	mu       sync.RWMutex
	commands []*entities.QueuedCommand
}

// NewFileRepository creates a file-backed command queue
func NewFileRepository(path string) (*FileRepository, error) {
	r := &FileRepository{path: path}

	if err := jsonfile.Load(path, &r.commands); err != nil {
		return nil, fmt.Errorf("error loading command queue: %w", err)
	}

	return r, nil
}

// Enqueue appends a pending command and persists immediately
func (r *FileRepository) Enqueue(ctx context.Context, command string) (*entities.QueuedCommand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd := &entities.QueuedCommand{
		ID:        uuid.New().String(),
		Command:   command,
		Status:    entities.CommandPending,
		CreatedAt: time.Now(),
	}

	r.commands = append(r.commands, cmd)
	if err := jsonfile.Save(r.path, r.commands); err != nil {
		// Roll the append back so in-memory state matches disk
		r.commands = r.commands[:len(r.commands)-1]
		return nil, err
	}

	clone := *cmd
	return &clone, nil
}

// Pending returns every pending command in append (FIFO) order
func (r *FileRepository) Pending(ctx context.Context) ([]*entities.QueuedCommand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []*entities.QueuedCommand
	for _, cmd := range r.commands {
		if cmd.Status == entities.CommandPending {
			clone := *cmd
			pending = append(pending, &clone)
		}
	}

	return pending, nil
}

// MarkDone flips a command to done and persists. Already-done commands are
// left untouched so a repeated mark never resurrects or re-times an entry.
func (r *FileRepository) MarkDone(ctx context.Context, id string, executedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cmd := range r.commands {
		if cmd.ID != id {
			continue
		}
		if cmd.Status == entities.CommandDone {
			return nil
		}

		now := time.Now()
		cmd.Status = entities.CommandDone
		cmd.ExecutedAt = &now
		cmd.ExecutedBy = executedBy
		return jsonfile.Save(r.path, r.commands)
	}

	return ErrCommandNotFound
}

// List returns the full queue including executed entries
func (r *FileRepository) List(ctx context.Context) ([]*entities.QueuedCommand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := make([]*entities.QueuedCommand, 0, len(r.commands))
	for _, cmd := range r.commands {
		clone := *cmd
		commands = append(commands, &clone)
	}

	return commands, nil
}

// Reload re-reads the document, replacing in-memory state wholesale
func (r *FileRepository) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fresh []*entities.QueuedCommand
	if err := jsonfile.Load(r.path, &fresh); err != nil {
		return fmt.Errorf("error reloading command queue: %w", err)
	}

	r.commands = fresh
	return nil
}
