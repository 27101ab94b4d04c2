package watcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LedgerAPI is what the watcher needs from the ledger service.
type LedgerAPI interface {
	// IngestPayment reports a detected payment to the ledger
	IngestPayment(ctx context.Context, payer string, amount int64) error

	// ConfirmLink forwards an in-game linking confirmation
	ConfirmLink(ctx context.Context, username, code string) error
}

// HTTPClient implements LedgerAPI against the ledger service's HTTP surface.
type HTTPClient struct {
	baseURL     string
	ingestToken string
	client      *http.Client
}

// NewHTTPClient creates a ledger API client.
func NewHTTPClient(baseURL, ingestToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:     baseURL,
		ingestToken: ingestToken,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// IngestPayment reports a detected payment to the ledger
func (c *HTTPClient) IngestPayment(ctx context.Context, payer string, amount int64) error {
	return c.post(ctx, "/api/payments", map[string]any{
		"from":   payer,
		"amount": amount,
	})
}

// ConfirmLink forwards an in-game linking confirmation
func (c *HTTPClient) ConfirmLink(ctx context.Context, username, code string) error {
	return c.post(ctx, "/api/link/confirm", map[string]any{
		"username": username,
		"code":     code,
	})
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.ingestToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("error calling ledger: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ledger returned %d for %s: %s", resp.StatusCode, path, string(msg))
	}

	return nil
}
