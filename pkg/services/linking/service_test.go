package linking

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quarryworks/craftbank/pkg/entities"
	accountRepo "github.com/quarryworks/craftbank/pkg/repositories/account"
	linkcodeRepo "github.com/quarryworks/craftbank/pkg/repositories/linkcode"
	queueRepo "github.com/quarryworks/craftbank/pkg/repositories/queue"
	"github.com/quarryworks/craftbank/pkg/services/ledger"
)

type LinkingSuite struct {
	suite.Suite
	svc      *Service
	accounts accountRepo.Repository
	codes    *linkcodeRepo.FileRepository
	ctx      context.Context
}

func TestLinkingSuite(t *testing.T) {
	suite.Run(t, new(LinkingSuite))
}

func (s *LinkingSuite) SetupTest() {
	dir := s.T().TempDir()

	codes, err := linkcodeRepo.NewFileRepository(filepath.Join(dir, "linkcodes.json"))
	s.Require().NoError(err)
	queue, err := queueRepo.NewFileRepository(filepath.Join(dir, "commands.json"))
	s.Require().NoError(err)

	s.accounts = accountRepo.NewMemoryRepository()
	s.codes = codes
	s.svc = NewService(codes, s.accounts, ledger.NewService(s.accounts, queue))
	s.ctx = context.Background()
}

func (s *LinkingSuite) identity() entities.LinkedIdentity {
	return entities.LinkedIdentity{ID: "discord-123", Tag: "alice#0"}
}

func (s *LinkingSuite) TestBeginIssuesCode() {
	result, err := s.svc.Begin(s.ctx, s.identity())

	s.Require().NoError(err)
	s.Nil(result.Account)
	s.Len(result.Code, 6)
}

func (s *LinkingSuite) TestBeginShortCircuitsWhenAlreadyLinked() {
	// Setup: link the identity first.
	begin, err := s.svc.Begin(s.ctx, s.identity())
	s.Require().NoError(err)
	_, err = s.svc.Confirm(s.ctx, "Alice", begin.Code)
	s.Require().NoError(err)

	// Execute
	result, err := s.svc.Begin(s.ctx, s.identity())

	// Assert: no new code, straight to the owning account.
	s.Require().NoError(err)
	s.Empty(result.Code)
	s.Require().NotNil(result.Account)
	s.Equal("alice", result.Account.Username)
}

func (s *LinkingSuite) TestConfirmLinksAndCreatesAccount() {
	begin, err := s.svc.Begin(s.ctx, s.identity())
	s.Require().NoError(err)

	account, err := s.svc.Confirm(s.ctx, "Alice", begin.Code)

	s.Require().NoError(err)
	s.Require().NotNil(account.Linked)
	s.Equal("discord-123", account.Linked.ID)
	s.Equal("alice#0", account.Linked.Tag)

	found, err := s.svc.FindByIdentity(s.ctx, "discord-123")
	s.Require().NoError(err)
	s.Equal(account.ID, found.ID)
}

func (s *LinkingSuite) TestConfirmCodeIsSingleUse() {
	begin, err := s.svc.Begin(s.ctx, s.identity())
	s.Require().NoError(err)

	_, err = s.svc.Confirm(s.ctx, "Alice", begin.Code)
	s.Require().NoError(err)

	_, err = s.svc.Confirm(s.ctx, "Bob", begin.Code)
	s.ErrorIs(err, ErrCodeNotFound)
}

func (s *LinkingSuite) TestConfirmUnknownCode() {
	_, err := s.svc.Confirm(s.ctx, "Alice", "zzzzzz")
	s.ErrorIs(err, ErrCodeNotFound)
}

func (s *LinkingSuite) TestConfirmRejectsRaceOnIdentity() {
	// Two codes issued for the same identity; the first confirmation wins.
	first, err := s.svc.Begin(s.ctx, s.identity())
	s.Require().NoError(err)
	second, err := s.svc.Begin(s.ctx, s.identity())
	s.Require().NoError(err)

	_, err = s.svc.Confirm(s.ctx, "Alice", first.Code)
	s.Require().NoError(err)

	_, err = s.svc.Confirm(s.ctx, "Bob", second.Code)
	s.ErrorIs(err, ErrIdentityLinked)
}

func (s *LinkingSuite) TestConcurrentConfirmsLinkOneAccount() {
	// Both codes exist before either confirmation runs; simultaneous
	// confirmations must not give one external id two accounts.
	first, err := s.svc.Begin(s.ctx, s.identity())
	s.Require().NoError(err)
	second, err := s.svc.Begin(s.ctx, s.identity())
	s.Require().NoError(err)

	errs := make(chan error, 2)
	go func() {
		_, err := s.svc.Confirm(s.ctx, "Alice", first.Code)
		errs <- err
	}()
	go func() {
		_, err := s.svc.Confirm(s.ctx, "Bob", second.Code)
		errs <- err
	}()

	var linked, rejected int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			linked++
		default:
			s.ErrorIs(err, ErrIdentityLinked)
			rejected++
		}
	}
	s.Equal(1, linked)
	s.Equal(1, rejected)

	accounts, err := s.accounts.List(s.ctx)
	s.Require().NoError(err)
	var holders int
	for _, account := range accounts {
		if account.Linked != nil && account.Linked.ID == "discord-123" {
			holders++
		}
	}
	s.Equal(1, holders)
}

func (s *LinkingSuite) TestConfirmExpiredCode() {
	begin, err := s.svc.Begin(s.ctx, s.identity())
	s.Require().NoError(err)

	s.codes.SetNowFunc(func() time.Time {
		return time.Now().Add(entities.LinkCodeTTL + time.Minute)
	})

	_, err = s.svc.Confirm(s.ctx, "Alice", begin.Code)
	s.ErrorIs(err, ErrCodeExpired)
}

func (s *LinkingSuite) TestUnlink() {
	begin, err := s.svc.Begin(s.ctx, s.identity())
	s.Require().NoError(err)
	_, err = s.svc.Confirm(s.ctx, "Alice", begin.Code)
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Unlink(s.ctx, "alice"))

	account, err := s.accounts.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Nil(account.Linked)

	s.ErrorIs(s.svc.Unlink(s.ctx, "alice"), ErrNotLinked)
}
