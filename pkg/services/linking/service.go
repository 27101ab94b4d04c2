// Package linking binds external identity-provider logins to in-game
// accounts through short-lived, single-use confirmation codes.
package linking

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/quarryworks/craftbank/pkg/entities"
	accountRepo "github.com/quarryworks/craftbank/pkg/repositories/account"
	linkcodeRepo "github.com/quarryworks/craftbank/pkg/repositories/linkcode"
	"github.com/quarryworks/craftbank/pkg/services/ledger"
)

var (
	ErrCodeNotFound   = linkcodeRepo.ErrCodeNotFound
	ErrCodeExpired    = linkcodeRepo.ErrCodeExpired
	ErrIdentityLinked = errors.New("identity already linked to an account")
	ErrNotLinked      = errors.New("account has no linked identity")
)

const codeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"
const codeLength = 6

// Service runs the linking state machine. mu serializes Confirm and Unlink:
// the uniqueness check and the linking save are separate repository calls,
// and two codes for the same identity must not both pass the check.
type Service struct {
	codes    linkcodeRepo.Repository
	accounts accountRepo.Repository
	ledger   *ledger.Service

	mu sync.Mutex
}

// NewService creates a new linking service
func NewService(codes linkcodeRepo.Repository, accounts accountRepo.Repository, ledgerSvc *ledger.Service) *Service {
	return &Service{
		codes:    codes,
		accounts: accounts,
		ledger:   ledgerSvc,
	}
}

// BeginResult tells the login flow whether the identity already owns an
// account or a fresh code was issued for in-game confirmation.
type BeginResult struct {
	Account *entities.Account // Set when the identity is already linked
	Code    string            // Set when a confirmation code was issued
}

// Begin handles an identity-provider login. Already-linked identities
// short-circuit to their owning account; otherwise a confirmation code is
// issued and stored.
func (s *Service) Begin(ctx context.Context, identity entities.LinkedIdentity) (*BeginResult, error) {
	account, err := s.accounts.FindByIdentity(ctx, identity.ID)
	if err == nil {
		return &BeginResult{Account: account}, nil
	}
	if !errors.Is(err, accountRepo.ErrAccountNotFound) {
		return nil, err
	}

	code := &entities.LinkCode{
		Code:       generateCode(),
		ExternalID: identity.ID,
		Tag:        identity.Tag,
		IssuedAt:   time.Now(),
	}

	if err := s.codes.Put(ctx, code); err != nil {
		return nil, err
	}

	log.Infof("[LINKING] Issued code for identity %s", identity.ID)
	return &BeginResult{Code: code.Code}, nil
}

// Confirm consumes a code presented in game and links the identity to the
// named account, creating the account if it does not exist yet. A code
// works exactly once; expired codes are removed on sight.
func (s *Service) Confirm(ctx context.Context, username, code string) (*entities.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.codes.Take(ctx, code)
	if err != nil {
		return nil, err
	}

	// The identity may have been linked elsewhere while the code sat
	// unconfirmed; one external id never spans two accounts.
	if _, err := s.accounts.FindByIdentity(ctx, entry.ExternalID); err == nil {
		return nil, ErrIdentityLinked
	} else if !errors.Is(err, accountRepo.ErrAccountNotFound) {
		return nil, err
	}

	account, err := s.ledger.GetOrCreate(ctx, username)
	if err != nil {
		return nil, err
	}

	account.Linked = &entities.LinkedIdentity{ID: entry.ExternalID, Tag: entry.Tag}
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, err
	}

	log.Infof("[LINKING] Linked identity %s to %s", entry.ExternalID, account.Username)
	return account, nil
}

// Unlink clears the linked identity from an account.
func (s *Service) Unlink(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.accounts.Get(ctx, username)
	if err != nil {
		return err
	}
	if account.Linked == nil {
		return ErrNotLinked
	}

	account.Linked = nil
	if err := s.accounts.Save(ctx, account); err != nil {
		return err
	}

	log.Infof("[LINKING] Unlinked %s", account.Username)
	return nil
}

// FindByIdentity returns the account owning an external identity id.
func (s *Service) FindByIdentity(ctx context.Context, externalID string) (*entities.Account, error) {
	return s.accounts.FindByIdentity(ctx, externalID)
}

// generateCode builds a 6-character code. Collisions are only checked
// probabilistically: the alphabet gives ~887 million combinations against
// a handful of codes alive at once.
func generateCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(buf)
}
