package entities

import (
	"strings"
	"time"
)

// LinkedIdentity ties an account to an external identity provider login.
type LinkedIdentity struct {
	ID  string `json:"id"`  // Stable id assigned by the provider
	Tag string `json:"tag"` // Display tag shown on the dashboard
}

// Account represents one player's ledger entry.
type Account struct {
	ID           string          `json:"id"`            // Opaque stable identifier, assigned at creation
	Username     string          `json:"username"`      // Lowercase lookup key
	DisplayName  string          `json:"display_name"`  // Username as first seen in game chat
	Balance      int64           `json:"balance"`       // Current balance, may go negative via admin adjust
	TotalWagered int64           `json:"total_wagered"` // Lifetime wagered across all games
	TotalWon     int64           `json:"total_won"`     // Lifetime payouts above the wager
	TotalLost    int64           `json:"total_lost"`    // Lifetime wagers lost
	Linked       *LinkedIdentity `json:"linked,omitempty"`
	History      []LedgerEvent   `json:"history"` // Append-only, never edited
	CreatedAt    time.Time       `json:"created_at"`
}

// NormalizeUsername lowercases a username for case-insensitive lookups.
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Append records a ledger event on the account's history.
func (a *Account) Append(event LedgerEvent) {
	a.History = append(a.History, event)
}
