// Package ledger owns all balance mutations. Every mutating call appends
// exactly one ledger event to the account's history and persists the full
// account set; a failed persist is logged and the in-memory state stays
// authoritative until the next successful write.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/quarryworks/craftbank/pkg/entities"
	accountRepo "github.com/quarryworks/craftbank/pkg/repositories/account"
	queueRepo "github.com/quarryworks/craftbank/pkg/repositories/queue"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrAccountNotFound   = accountRepo.ErrAccountNotFound
)

// Service handles account and balance business logic. The repository hands
// out clones, so every mutation is a read-modify-write of a snapshot; mu is
// held across the whole Get-mutate-Save cycle so concurrent requests cannot
// overwrite each other's updates.
type Service struct {
	accounts accountRepo.Repository
	queue    queueRepo.Repository

	mu sync.Mutex
}

// NewService creates a new ledger service
func NewService(accounts accountRepo.Repository, queue queueRepo.Repository) *Service {
	return &Service{
		accounts: accounts,
		queue:    queue,
	}
}

// Find retrieves an account by username
func (s *Service) Find(ctx context.Context, username string) (*entities.Account, error) {
	return s.accounts.Get(ctx, username)
}

// GetOrCreate retrieves an account or creates one with zero balances.
// The display form of the username is preserved from first sight.
func (s *Service) GetOrCreate(ctx context.Context, username string) (*entities.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreate(ctx, username)
}

func (s *Service) getOrCreate(ctx context.Context, username string) (*entities.Account, error) {
	account, err := s.accounts.Get(ctx, username)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, accountRepo.ErrAccountNotFound) {
		return nil, err
	}

	account = &entities.Account{
		ID:          uuid.New().String(),
		Username:    entities.NormalizeUsername(username),
		DisplayName: username,
		CreatedAt:   time.Now(),
	}

	log.Infof("[LEDGER] Creating account for %s", account.Username)
	s.persist(ctx, account)
	return account, nil
}

// Mutate applies one balance-and-counters update to an existing account
// and appends exactly one ledger event. The callback fills the event's
// kind, delta and detail; id, resulting balance and timestamp are stamped
// here after the callback has adjusted the account.
func (s *Service) Mutate(ctx context.Context, username string, fn func(a *entities.Account) (entities.LedgerEvent, error)) (*entities.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.accounts.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, account, fn)
}

// MutateOrCreate is Mutate with lazy account creation, used by flows that
// may reference a username before its first ledger entry exists.
func (s *Service) MutateOrCreate(ctx context.Context, username string, fn func(a *entities.Account) (entities.LedgerEvent, error)) (*entities.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.getOrCreate(ctx, username)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, account, fn)
}

// Credit adds amount to an account's balance with the given event kind
func (s *Service) Credit(ctx context.Context, username string, amount int64, kind entities.EventKind, detail map[string]any) (*entities.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	return s.MutateOrCreate(ctx, username, func(a *entities.Account) (entities.LedgerEvent, error) {
		a.Balance += amount
		return entities.LedgerEvent{Kind: kind, Delta: amount, Detail: detail}, nil
	})
}

// Deposit credits an account by username
func (s *Service) Deposit(ctx context.Context, username string, amount int64) (*entities.Account, error) {
	return s.Credit(ctx, username, amount, entities.EventDeposit, nil)
}

// Withdraw debits an account and enqueues the in-game payout command.
// If enqueueing fails the debit is rolled back with a compensating credit
// before the error is reported.
func (s *Service) Withdraw(ctx context.Context, username string, amount int64) (*entities.Account, *entities.QueuedCommand, error) {
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	account, err := s.Mutate(ctx, username, func(a *entities.Account) (entities.LedgerEvent, error) {
		if a.Balance < amount {
			return entities.LedgerEvent{}, ErrInsufficientFunds
		}
		a.Balance -= amount
		return entities.LedgerEvent{Kind: entities.EventWithdraw, Delta: -amount}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	cmd, err := s.queue.Enqueue(ctx, fmt.Sprintf("/pay %s %d", account.DisplayName, amount))
	if err != nil {
		log.WithError(err).Errorf("[LEDGER] Enqueue failed for %s withdrawal, refunding %d", account.Username, amount)

		refunded, refundErr := s.Mutate(ctx, username, func(a *entities.Account) (entities.LedgerEvent, error) {
			a.Balance += amount
			return entities.LedgerEvent{
				Kind:   entities.EventDeposit,
				Delta:  amount,
				Detail: map[string]any{"reason": "withdraw refund"},
			}, nil
		})
		if refundErr != nil {
			log.WithError(refundErr).Errorf("[LEDGER] Refund after failed enqueue also failed for %s", account.Username)
		} else {
			account = refunded
		}

		return nil, nil, fmt.Errorf("error enqueueing payout command: %w", err)
	}

	return account, cmd, nil
}

// SetBalance overwrites an account's balance, recording previous and new
// values on the audit event.
func (s *Service) SetBalance(ctx context.Context, username string, balance int64, actor string) (*entities.Account, error) {
	return s.MutateOrCreate(ctx, username, func(a *entities.Account) (entities.LedgerEvent, error) {
		previous := a.Balance
		a.Balance = balance
		return entities.LedgerEvent{
			Kind:  entities.EventAdminSet,
			Delta: balance - previous,
			Detail: map[string]any{
				"previous": previous,
				"new":      balance,
				"actor":    actor,
			},
		}, nil
	})
}

// AdjustBalance applies a signed delta to an account's balance, recording
// previous and new values on the audit event.
func (s *Service) AdjustBalance(ctx context.Context, username string, delta int64, actor string) (*entities.Account, error) {
	return s.MutateOrCreate(ctx, username, func(a *entities.Account) (entities.LedgerEvent, error) {
		previous := a.Balance
		a.Balance += delta
		return entities.LedgerEvent{
			Kind:  entities.EventAdminAdjust,
			Delta: delta,
			Detail: map[string]any{
				"previous": previous,
				"new":      a.Balance,
				"actor":    actor,
			},
		}, nil
	})
}

// ListAccounts returns every account
func (s *Service) ListAccounts(ctx context.Context) ([]*entities.Account, error) {
	return s.accounts.List(ctx)
}

// Reload re-reads account storage to pick up another process's writes
func (s *Service) Reload(ctx context.Context) error {
	return s.accounts.Reload(ctx)
}

// apply runs the mutation callback, stamps the resulting event and persists.
// Callers hold mu.
func (s *Service) apply(ctx context.Context, account *entities.Account, fn func(a *entities.Account) (entities.LedgerEvent, error)) (*entities.Account, error) {
	event, err := fn(account)
	if err != nil {
		return nil, err
	}

	event.ID = uuid.New().String()
	event.BalanceAfter = account.Balance
	event.Timestamp = time.Now()
	account.Append(event)

	s.persist(ctx, account)
	return account, nil
}

// persist saves the account set. Failures are logged and swallowed: the
// in-memory copy remains authoritative until the next successful write.
func (s *Service) persist(ctx context.Context, account *entities.Account) {
	if err := s.accounts.Save(ctx, account); err != nil {
		log.WithError(err).Errorf("[LEDGER] Persist failed for %s", account.Username)
	}
}
