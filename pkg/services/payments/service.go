// Package payments converts detected chat payments into ledger credits and
// handles operator resolution of the resulting pending records.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/quarryworks/craftbank/pkg/entities"
	paymentRepo "github.com/quarryworks/craftbank/pkg/repositories/payment"
	queueRepo "github.com/quarryworks/craftbank/pkg/repositories/queue"
	"github.com/quarryworks/craftbank/pkg/services/ledger"
)

var (
	ErrPaymentNotFound = paymentRepo.ErrPaymentNotFound
	ErrAlreadyResolved = errors.New("payment already resolved")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrMissingPayer    = errors.New("payer name required")
)

// Notifier alerts an operator channel about payments awaiting resolution.
type Notifier interface {
	NotifyPayment(ctx context.Context, payment *entities.PendingPayment) error
}

// Service handles payment ingestion and resolution
type Service struct {
	payments paymentRepo.Repository
	queue    queueRepo.Repository
	ledger   *ledger.Service
	notifier Notifier // optional
}

// NewService creates a new payments service. The notifier may be nil.
func NewService(payments paymentRepo.Repository, queue queueRepo.Repository, ledgerSvc *ledger.Service, notifier Notifier) *Service {
	return &Service{
		payments: payments,
		queue:    queue,
		ledger:   ledgerSvc,
		notifier: notifier,
	}
}

// IngestResult is what a successful ingestion returns to the caller.
type IngestResult struct {
	Payment    *entities.PendingPayment
	NewBalance int64
}

// Ingest records a detected payment and credits the payer. Every call
// produces one pending payment and one credit; replays of the same chat
// line are credited again, deduplication is the classifier's problem.
func (s *Service) Ingest(ctx context.Context, from string, amount int64) (*IngestResult, error) {
	if from == "" {
		return nil, ErrMissingPayer
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	payment := &entities.PendingPayment{
		ID:        uuid.New().String(),
		From:      from,
		Amount:    amount,
		Status:    entities.PaymentPending,
		Timestamp: time.Now(),
	}

	// The pending record lands on disk before the credit so an operator
	// never sees credited money with no payment trail. A crash between
	// the two writes leaves an uncredited pending record instead.
	if err := s.payments.Append(ctx, payment); err != nil {
		return nil, fmt.Errorf("error recording payment: %w", err)
	}

	account, err := s.ledger.Credit(ctx, from, amount, entities.EventPayment, map[string]any{
		"payment_id": payment.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("error crediting payment: %w", err)
	}

	log.Infof("[PAYMENTS] Ingested %d from %s (payment %s)", amount, from, payment.ID)

	if s.notifier != nil {
		if err := s.notifier.NotifyPayment(ctx, payment); err != nil {
			log.WithError(err).Warn("[PAYMENTS] Operator notification failed")
		}
	}

	return &IngestResult{Payment: payment, NewBalance: account.Balance}, nil
}

// Pay confirms a pending payment: the payer is owed double their payment
// in game, so a payout command for twice the amount is enqueued and the
// record is marked paid. Paid records never go back to pending.
func (s *Service) Pay(ctx context.Context, id string) (*entities.PendingPayment, *entities.QueuedCommand, error) {
	payment, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if payment.Status != entities.PaymentPending {
		return nil, nil, ErrAlreadyResolved
	}

	paid := payment.Amount * 2
	cmd, err := s.queue.Enqueue(ctx, fmt.Sprintf("/pay %s %d", payment.From, paid))
	if err != nil {
		return nil, nil, fmt.Errorf("error enqueueing payout command: %w", err)
	}

	now := time.Now()
	payment.Status = entities.PaymentPaid
	payment.PaidAmount = paid
	payment.ProcessedAt = &now
	if err := s.payments.Update(ctx, payment); err != nil {
		// The payout command is already queued; losing the status flip
		// risks a second payout, so this is worth shouting about.
		log.WithError(err).Errorf("[PAYMENTS] Failed to mark payment %s paid after enqueue", id)
		return nil, nil, err
	}

	log.Infof("[PAYMENTS] Payment %s paid out %d to %s", id, paid, payment.From)
	return payment, cmd, nil
}

// Deny removes a pending payment without paying it out.
func (s *Service) Deny(ctx context.Context, id string) error {
	payment, err := s.payments.Get(ctx, id)
	if err != nil {
		return err
	}
	if payment.Status != entities.PaymentPending {
		return ErrAlreadyResolved
	}

	if err := s.payments.Remove(ctx, id); err != nil {
		return err
	}

	log.Infof("[PAYMENTS] Payment %s from %s denied", id, payment.From)
	return nil
}

// List returns every payment record in append order.
func (s *Service) List(ctx context.Context) ([]*entities.PendingPayment, error) {
	return s.payments.List(ctx)
}
