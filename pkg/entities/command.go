package entities

import (
	"time"
)

// CommandStatus represents the delivery state of a queued command.
type CommandStatus string

const (
	CommandPending CommandStatus = "pending"
	CommandDone    CommandStatus = "done"
)

// QueuedCommand is one outbound instruction destined for the game server.
// The queue is append-only; executed entries are flipped to done and kept
// as an audit trail rather than deleted.
type QueuedCommand struct {
	ID         string        `json:"id"`
	Command    string        `json:"command"` // Opaque command string, e.g. "/pay Alice 200"
	Status     CommandStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ExecutedAt *time.Time    `json:"executed_at,omitempty"`
	ExecutedBy string        `json:"executed_by,omitempty"` // Consumer that delivered the command
}
