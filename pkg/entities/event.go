package entities

import (
	"time"
)

// EventKind tags a ledger event with the action that produced it.
type EventKind string

const (
	EventPayment     EventKind = "PAYMENT"
	EventDeposit     EventKind = "DEPOSIT"
	EventWithdraw    EventKind = "WITHDRAW"
	EventNumberDraw  EventKind = "GAME_NUMBERDRAW"
	EventCardDuel    EventKind = "GAME_CARDDUEL"
	EventPegDrop     EventKind = "GAME_PEGDROP"
	EventAdminSet    EventKind = "ADMIN_SET"
	EventAdminAdjust EventKind = "ADMIN_ADJUST"
)

// LedgerEvent is one immutable record of a balance-affecting action.
type LedgerEvent struct {
	ID           string         `json:"id"`
	Kind         EventKind      `json:"kind"`
	Delta        int64          `json:"delta"`         // Net balance change (negative for debits)
	BalanceAfter int64          `json:"balance_after"` // Balance once the delta was applied
	Detail       map[string]any `json:"detail,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}
