package games

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryworks/craftbank/pkg/entities"
	accountRepo "github.com/quarryworks/craftbank/pkg/repositories/account"
	queueRepo "github.com/quarryworks/craftbank/pkg/repositories/queue"
	"github.com/quarryworks/craftbank/pkg/services/ledger"
)

const testMaxMultiplier = 100

func newTestService(t *testing.T, startingBalance int64) (*Service, *ledger.Service) {
	t.Helper()
	queue, err := queueRepo.NewFileRepository(filepath.Join(t.TempDir(), "commands.json"))
	require.NoError(t, err)

	ledgerSvc := ledger.NewService(accountRepo.NewMemoryRepository(), queue)
	if startingBalance > 0 {
		_, err = ledgerSvc.Deposit(context.Background(), "alice", startingBalance)
		require.NoError(t, err)
	}

	return NewService(ledgerSvc, testMaxMultiplier), ledgerSvc
}

func TestNumberDrawWinPaysTenfold(t *testing.T) {
	svc, _ := newTestService(t, 1000)
	svc.SetDrawFunc(func() int { return 7 })

	outcome, err := svc.NumberDraw(context.Background(), "alice", 100, 7)
	require.NoError(t, err)

	assert.True(t, outcome.Won)
	assert.Equal(t, int64(1000), outcome.Payout)
	assert.Equal(t, 7, outcome.Drawn)
	assert.Equal(t, int64(1900), outcome.Account.Balance, "1000 - 100 wager + 1000 payout")
	assert.Equal(t, int64(100), outcome.Account.TotalWagered)
	assert.Equal(t, int64(1000), outcome.Account.TotalWon)
	assert.Zero(t, outcome.Account.TotalLost)
}

func TestNumberDrawLoss(t *testing.T) {
	svc, _ := newTestService(t, 1000)
	svc.SetDrawFunc(func() int { return 3 })

	outcome, err := svc.NumberDraw(context.Background(), "alice", 100, 7)
	require.NoError(t, err)

	assert.False(t, outcome.Won)
	assert.Zero(t, outcome.Payout)
	assert.Equal(t, int64(900), outcome.Account.Balance)
	assert.Equal(t, int64(100), outcome.Account.TotalLost)

	event := outcome.Account.History[len(outcome.Account.History)-1]
	assert.Equal(t, entities.EventNumberDraw, event.Kind)
	assert.Equal(t, int64(-100), event.Delta)
	assert.Equal(t, 7, event.Detail["picked"])
	assert.Equal(t, 3, event.Detail["drawn"])
}

func TestNumberDrawInvalidPick(t *testing.T) {
	svc, _ := newTestService(t, 1000)

	_, err := svc.NumberDraw(context.Background(), "alice", 100, 0)
	assert.ErrorIs(t, err, ErrInvalidPick)

	_, err = svc.NumberDraw(context.Background(), "alice", 100, 11)
	assert.ErrorIs(t, err, ErrInvalidPick)
}

func TestWagerBeyondBalanceLeavesAccountUntouched(t *testing.T) {
	svc, ledgerSvc := newTestService(t, 50)
	svc.SetDrawFunc(func() int { return 7 })

	_, err := svc.NumberDraw(context.Background(), "alice", 100, 7)
	assert.ErrorIs(t, err, ErrInvalidWager)

	account, err := ledgerSvc.Find(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(50), account.Balance)
	assert.Zero(t, account.TotalWagered)
	assert.Len(t, account.History, 1, "Only the funding deposit should be on record")
}

func TestZeroWagerRejected(t *testing.T) {
	svc, _ := newTestService(t, 1000)
	svc.SetDrawFunc(func() int { return 7 })

	_, err := svc.NumberDraw(context.Background(), "alice", 0, 7)
	assert.ErrorIs(t, err, ErrInvalidWager)
}

func TestGameForUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t, 0)

	_, err := svc.NumberDraw(context.Background(), "ghost", 100, 7)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCardDuelWinPaysDouble(t *testing.T) {
	svc, _ := newTestService(t, 1000)

	outcome, err := svc.CardDuel(context.Background(), "alice", 100, true, 20, 18)
	require.NoError(t, err)

	assert.True(t, outcome.Won)
	assert.Equal(t, int64(200), outcome.Payout)
	assert.Equal(t, int64(1100), outcome.Account.Balance)
	assert.Equal(t, int64(200), outcome.Account.TotalWon)

	event := outcome.Account.History[len(outcome.Account.History)-1]
	assert.Equal(t, entities.EventCardDuel, event.Kind)
	assert.Equal(t, 20, event.Detail["player_hand"])
	assert.Equal(t, 18, event.Detail["dealer_hand"])
}

func TestCardDuelLoss(t *testing.T) {
	svc, _ := newTestService(t, 1000)

	outcome, err := svc.CardDuel(context.Background(), "alice", 100, false, 15, 19)
	require.NoError(t, err)

	assert.False(t, outcome.Won)
	assert.Equal(t, int64(900), outcome.Account.Balance)
	assert.Equal(t, int64(100), outcome.Account.TotalLost)
}

func TestPegDropPaysReportedAmount(t *testing.T) {
	svc, _ := newTestService(t, 1000)

	outcome, err := svc.PegDrop(context.Background(), "alice", 100, 350, 3.5)
	require.NoError(t, err)

	assert.True(t, outcome.Won)
	assert.Equal(t, int64(350), outcome.Payout)
	assert.Equal(t, int64(1250), outcome.Account.Balance)
}

func TestPegDropTotalLossIsValid(t *testing.T) {
	svc, _ := newTestService(t, 1000)

	outcome, err := svc.PegDrop(context.Background(), "alice", 100, 0, 0)
	require.NoError(t, err)

	assert.False(t, outcome.Won)
	assert.Equal(t, int64(900), outcome.Account.Balance)
}

func TestPegDropCapsReportedPayout(t *testing.T) {
	svc, ledgerSvc := newTestService(t, 1000)

	// Anything above wager * multiplier cap is rejected outright.
	_, err := svc.PegDrop(context.Background(), "alice", 100, 100*testMaxMultiplier+1, 10000)
	assert.ErrorIs(t, err, ErrInvalidPayout)

	_, err = svc.PegDrop(context.Background(), "alice", 100, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidPayout)

	account, err := ledgerSvc.Find(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), account.Balance)
}

func TestPegDropCapSurvivesHugeWager(t *testing.T) {
	svc, ledgerSvc := newTestService(t, 0)
	ctx := context.Background()

	_, err := ledgerSvc.SetBalance(ctx, "alice", math.MaxInt64, "admin")
	require.NoError(t, err)

	// wager * multiplier cap would overflow int64 here; the true cap
	// exceeds any representable payout, so a break-even report is valid.
	wager := int64(math.MaxInt64 / 2)
	outcome, err := svc.PegDrop(ctx, "alice", wager, wager, 1.0)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), outcome.Account.Balance)

	_, err = svc.PegDrop(ctx, "alice", wager, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidPayout)
}

func TestBreakEvenCountsAsLost(t *testing.T) {
	svc, _ := newTestService(t, 1000)

	// Payout equal to the wager returns the money but still counts the
	// wager as lost for the session counters.
	outcome, err := svc.PegDrop(context.Background(), "alice", 100, 100, 1.0)
	require.NoError(t, err)

	assert.False(t, outcome.Won)
	assert.Equal(t, int64(1000), outcome.Account.Balance)
	assert.Equal(t, int64(100), outcome.Account.TotalLost)
	assert.Zero(t, outcome.Account.TotalWon)
}
