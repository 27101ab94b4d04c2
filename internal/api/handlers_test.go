package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/quarryworks/craftbank/internal/config"
	"github.com/quarryworks/craftbank/pkg/entities"
	accountRepo "github.com/quarryworks/craftbank/pkg/repositories/account"
	linkcodeRepo "github.com/quarryworks/craftbank/pkg/repositories/linkcode"
	paymentRepo "github.com/quarryworks/craftbank/pkg/repositories/payment"
	queueRepo "github.com/quarryworks/craftbank/pkg/repositories/queue"
	"github.com/quarryworks/craftbank/pkg/services/games"
	"github.com/quarryworks/craftbank/pkg/services/ledger"
	"github.com/quarryworks/craftbank/pkg/services/linking"
	"github.com/quarryworks/craftbank/pkg/services/payments"
)

const (
	testIngestToken = "ingest-secret"
	testAdminToken  = "admin-secret"
)

type apiEnv struct {
	server  *httptest.Server
	ledger  *ledger.Service
	games   *games.Service
	linking *linking.Service
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	dir := t.TempDir()

	adminHash, err := bcrypt.GenerateFromPassword([]byte(testAdminToken), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Auth: config.AuthConfig{
			IngestToken:    testIngestToken,
			AdminTokenHash: string(adminHash),
			JWTSecret:      "jwt-secret",
			SessionTTL:     time.Hour,
		},
	}

	accounts := accountRepo.NewMemoryRepository()
	paymentStore, err := paymentRepo.NewFileRepository(filepath.Join(dir, "payments.json"))
	require.NoError(t, err)
	queue, err := queueRepo.NewFileRepository(filepath.Join(dir, "commands.json"))
	require.NoError(t, err)
	codes, err := linkcodeRepo.NewFileRepository(filepath.Join(dir, "linkcodes.json"))
	require.NoError(t, err)

	ledgerSvc := ledger.NewService(accounts, queue)
	paymentsSvc := payments.NewService(paymentStore, queue, ledgerSvc, nil)
	gamesSvc := games.NewService(ledgerSvc, 100)
	linkingSvc := linking.NewService(codes, accounts, ledgerSvc)

	handler := NewHandler(cfg, ledgerSvc, paymentsSvc, gamesSvc, linkingSvc, nil)
	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(server.Close)

	return &apiEnv{
		server:  server,
		ledger:  ledgerSvc,
		games:   gamesSvc,
		linking: linkingSvc,
	}
}

func (e *apiEnv) request(t *testing.T, method, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.request(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestIngestRequiresToken(t *testing.T) {
	env := newAPIEnv(t)
	payload := map[string]any{"from": "Alice", "amount": 100}

	resp, _ := env.request(t, http.MethodPost, "/api/payments", "", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.request(t, http.MethodPost, "/api/payments", "wrong-token", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The admin credential does not open the ingest surface.
	resp, _ = env.request(t, http.MethodPost, "/api/payments", testAdminToken, payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIngestPayment(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.request(t, http.MethodPost, "/api/payments", testIngestToken,
		map[string]any{"from": "Alice", "amount": 100})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(100), body["new_balance"])

	account, err := env.ledger.Find(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), account.Balance)
}

func TestIngestRejectsBadBody(t *testing.T) {
	env := newAPIEnv(t)

	resp, _ := env.request(t, http.MethodPost, "/api/payments", testIngestToken,
		map[string]any{"from": "Alice", "amount": -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.request(t, http.MethodPost, "/api/payments", testIngestToken,
		map[string]any{"from": "Alice", "amount": 100, "bogus": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "Unknown fields are rejected")
}

func TestGetAccount(t *testing.T) {
	env := newAPIEnv(t)
	_, err := env.ledger.Deposit(context.Background(), "Alice", 500)
	require.NoError(t, err)

	resp, body := env.request(t, http.MethodGet, "/api/accounts/alice", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	account := body["account"].(map[string]any)
	assert.Equal(t, float64(500), account["balance"])

	resp, _ = env.request(t, http.MethodGet, "/api/accounts/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDepositAndWithdraw(t *testing.T) {
	env := newAPIEnv(t)

	resp, _ := env.request(t, http.MethodPost, "/api/accounts/Alice/deposit", "",
		map[string]any{"amount": 500})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.request(t, http.MethodPost, "/api/accounts/alice/withdraw", "",
		map[string]any{"amount": 200})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	command := body["command"].(map[string]any)
	assert.Equal(t, "/pay Alice 200", command["command"])

	resp, _ = env.request(t, http.MethodPost, "/api/accounts/alice/withdraw", "",
		map[string]any{"amount": 100000})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNumberDrawEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	_, err := env.ledger.Deposit(context.Background(), "alice", 1000)
	require.NoError(t, err)
	env.games.SetDrawFunc(func() int { return 7 })

	resp, body := env.request(t, http.MethodPost, "/api/games/numberdraw", "",
		map[string]any{"username": "alice", "wager": 100, "pick": 7})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["won"])
	assert.Equal(t, float64(1000), body["payout"])
	assert.Equal(t, float64(7), body["drawn"])

	resp, _ = env.request(t, http.MethodPost, "/api/games/numberdraw", "",
		map[string]any{"username": "alice", "wager": 100, "pick": 11})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPegDropEndpointCapsPayout(t *testing.T) {
	env := newAPIEnv(t)
	_, err := env.ledger.Deposit(context.Background(), "alice", 1000)
	require.NoError(t, err)

	resp, _ := env.request(t, http.MethodPost, "/api/games/pegdrop", "",
		map[string]any{"username": "alice", "wager": 100, "win_amount": 999999, "multiplier": 9999.0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminSurfaceRequiresAdminToken(t *testing.T) {
	env := newAPIEnv(t)

	resp, _ := env.request(t, http.MethodGet, "/api/payments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The ingest credential does not open the admin surface.
	resp, _ = env.request(t, http.MethodGet, "/api/payments", testIngestToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.request(t, http.MethodGet, "/api/payments", testAdminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPaymentResolutionFlow(t *testing.T) {
	env := newAPIEnv(t)

	_, body := env.request(t, http.MethodPost, "/api/payments", testIngestToken,
		map[string]any{"from": "Alice", "amount": 100})
	paymentID := body["payment"].(map[string]any)["id"].(string)

	resp, body := env.request(t, http.MethodPost, fmt.Sprintf("/api/payments/%s/pay", paymentID), testAdminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	command := body["command"].(map[string]any)
	assert.Equal(t, "/pay Alice 200", command["command"], "Payout is double the payment")

	// Paying again conflicts.
	resp, _ = env.request(t, http.MethodPost, fmt.Sprintf("/api/payments/%s/pay", paymentID), testAdminToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = env.request(t, http.MethodPost, "/api/payments/missing/deny", testAdminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminSetAndAdjustBalance(t *testing.T) {
	env := newAPIEnv(t)

	resp, body := env.request(t, http.MethodPost, "/api/admin/accounts/alice/balance", testAdminToken,
		map[string]any{"balance": 1000})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	account := body["account"].(map[string]any)
	assert.Equal(t, float64(1000), account["balance"])

	resp, body = env.request(t, http.MethodPost, "/api/admin/accounts/alice/adjust", testAdminToken,
		map[string]any{"delta": -300})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	account = body["account"].(map[string]any)
	assert.Equal(t, float64(700), account["balance"])
}

func TestConfirmLinkEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	begin, err := env.linking.Begin(context.Background(), entities.LinkedIdentity{ID: "discord-1", Tag: "alice#0"})
	require.NoError(t, err)

	resp, body := env.request(t, http.MethodPost, "/api/link/confirm", testIngestToken,
		map[string]any{"username": "Alice", "code": begin.Code})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	account := body["account"].(map[string]any)
	linked := account["linked"].(map[string]any)
	assert.Equal(t, "discord-1", linked["id"])

	// A consumed code is gone.
	resp, _ = env.request(t, http.MethodPost, "/api/link/confirm", testIngestToken,
		map[string]any{"username": "Bob", "code": begin.Code})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoginWithoutProvider(t *testing.T) {
	env := newAPIEnv(t)

	resp, _ := env.request(t, http.MethodGet, "/auth/login", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
