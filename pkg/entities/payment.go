package entities

import (
	"time"
)

// PaymentStatus represents the resolution state of a pending payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// PendingPayment is a detected in-game payment that has been credited but
// whose matching double-payout has not yet been issued by an operator.
type PendingPayment struct {
	ID          string        `json:"id"`
	From        string        `json:"from"`   // Username of the payer as seen in chat
	Amount      int64         `json:"amount"` // Amount credited on detection
	Status      PaymentStatus `json:"status"`
	PaidAmount  int64         `json:"paid_amount,omitempty"` // Set when an operator confirms the payout
	Timestamp   time.Time     `json:"timestamp"`
	ProcessedAt *time.Time    `json:"processed_at,omitempty"`
}
