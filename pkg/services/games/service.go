// Package games applies one self-contained wager transaction per call.
// Every game debits the wager, credits the computed payout and appends a
// single ledger event carrying the full outcome detail.
package games

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/quarryworks/craftbank/pkg/entities"
	"github.com/quarryworks/craftbank/pkg/services/ledger"
)

var (
	ErrInvalidWager  = errors.New("wager must be positive and within balance")
	ErrInvalidPick   = errors.New("picked number must be between 1 and 10")
	ErrInvalidPayout = errors.New("reported payout is out of range")
	ErrUserNotFound  = ledger.ErrAccountNotFound
)

// NumberDrawMax is the upper bound (inclusive) of the server draw.
const NumberDrawMax = 10

// Service runs the gambling mini-games against the ledger
type Service struct {
	ledger        *ledger.Service
	maxMultiplier int64

	mu   sync.Mutex
	draw func() int // returns a uniform integer in [1, NumberDrawMax]
}

// NewService creates a new game service. maxMultiplier caps the payout a
// client-simulated game may report, as a multiple of the wager.
func NewService(ledgerSvc *ledger.Service, maxMultiplier int64) *Service {
	rng := rand.New(rand.NewSource(rand.Int63()))
	return &Service{
		ledger:        ledgerSvc,
		maxMultiplier: maxMultiplier,
		draw: func() int {
			return rng.Intn(NumberDrawMax) + 1
		},
	}
}

// Outcome is the result of one wager transaction.
type Outcome struct {
	Account *entities.Account
	Wager   int64
	Payout  int64
	Won     bool
	Message string
	Drawn   int // Number-draw only
}

// NumberDraw draws a server-side number in [1,10]; a matching pick pays
// ten times the wager.
func (s *Service) NumberDraw(ctx context.Context, username string, wager int64, pick int) (*Outcome, error) {
	if pick < 1 || pick > NumberDrawMax {
		return nil, ErrInvalidPick
	}

	s.mu.Lock()
	drawn := s.draw()
	s.mu.Unlock()

	var payout int64
	if drawn == pick {
		payout = wager * 10
	}

	outcome, err := s.settle(ctx, username, wager, payout, entities.EventNumberDraw, map[string]any{
		"picked": pick,
		"drawn":  drawn,
	})
	if err != nil {
		return nil, err
	}

	outcome.Drawn = drawn
	if outcome.Won {
		outcome.Message = fmt.Sprintf("The draw was %d. You win %d!", drawn, payout)
	} else {
		outcome.Message = fmt.Sprintf("The draw was %d, you picked %d. Better luck next time.", drawn, pick)
	}

	return outcome, nil
}

// CardDuel settles a card-comparison round. The caller reports the result
// and both hand values; the engine does not evaluate card logic itself.
// A win pays double the wager.
func (s *Service) CardDuel(ctx context.Context, username string, wager int64, won bool, playerHand, dealerHand int) (*Outcome, error) {
	var payout int64
	if won {
		payout = wager * 2
	}

	outcome, err := s.settle(ctx, username, wager, payout, entities.EventCardDuel, map[string]any{
		"won":         won,
		"player_hand": playerHand,
		"dealer_hand": dealerHand,
	})
	if err != nil {
		return nil, err
	}

	if outcome.Won {
		outcome.Message = fmt.Sprintf("You beat the house %d to %d and win %d!", playerHand, dealerHand, payout)
	} else {
		outcome.Message = fmt.Sprintf("The house wins %d to %d.", dealerHand, playerHand)
	}

	return outcome, nil
}

// PegDrop settles a peg-scatter round simulated on the client. The
// reported payout is trusted within a cap: anything above
// wager * maxMultiplier is rejected before any balance change.
func (s *Service) PegDrop(ctx context.Context, username string, wager int64, winAmount int64, multiplier float64) (*Outcome, error) {
	if winAmount < 0 {
		return nil, ErrInvalidPayout
	}
	// When wager*maxMultiplier would overflow int64 the true cap exceeds
	// any representable payout, so only the in-range product is compared.
	if wager > 0 && wager <= math.MaxInt64/s.maxMultiplier && winAmount > wager*s.maxMultiplier {
		return nil, ErrInvalidPayout
	}

	outcome, err := s.settle(ctx, username, wager, winAmount, entities.EventPegDrop, map[string]any{
		"win_amount": winAmount,
		"multiplier": multiplier,
	})
	if err != nil {
		return nil, err
	}

	if outcome.Won {
		outcome.Message = fmt.Sprintf("The peg landed on %.2fx. You win %d!", multiplier, winAmount)
	} else {
		outcome.Message = "The peg came up short."
	}

	return outcome, nil
}

// settle performs the uniform accounting shared by every game: debit the
// wager, credit the payout, bump the counters and append one event.
func (s *Service) settle(ctx context.Context, username string, wager, payout int64, kind entities.EventKind, detail map[string]any) (*Outcome, error) {
	account, err := s.ledger.Mutate(ctx, username, func(a *entities.Account) (entities.LedgerEvent, error) {
		if wager <= 0 || wager > a.Balance {
			return entities.LedgerEvent{}, ErrInvalidWager
		}

		a.Balance -= wager
		a.Balance += payout
		a.TotalWagered += wager
		if payout > wager {
			a.TotalWon += payout
		} else {
			a.TotalLost += wager
		}

		detail["wager"] = wager
		detail["payout"] = payout
		return entities.LedgerEvent{Kind: kind, Delta: payout - wager, Detail: detail}, nil
	})
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Account: account,
		Wager:   wager,
		Payout:  payout,
		Won:     payout > wager,
	}, nil
}

// SetDrawFunc overrides the number-draw source, used by tests to force an
// outcome.
func (s *Service) SetDrawFunc(fn func() int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draw = fn
}
