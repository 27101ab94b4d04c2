// Package archive ships ledger events to Elasticsearch so long-term
// history can be queried without growing the flat account files forever.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	log "github.com/sirupsen/logrus"

	"github.com/quarryworks/craftbank/internal/config"
	accountRepo "github.com/quarryworks/craftbank/pkg/repositories/account"
)

// archivedEvent is the document shape indexed per ledger event.
type archivedEvent struct {
	EventID      string         `json:"event_id"`
	Username     string         `json:"username"`
	Kind         string         `json:"kind"`
	Delta        int64          `json:"delta"`
	BalanceAfter int64          `json:"balance_after"`
	Detail       map[string]any `json:"detail,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Archiver indexes newly appended ledger events. Each run ships events
// stamped after the previous run's high-water mark, so a run that fails
// picks those events up again next time.
type Archiver struct {
	client      *elasticsearch.Client
	accounts    accountRepo.Repository
	indexPrefix string

	mu        sync.Mutex
	watermark time.Time
}

// NewArchiver creates the Elasticsearch client and ensures the events
// index exists.
func NewArchiver(cfg config.ArchiveConfig, accounts accountRepo.Repository) (*Archiver, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.URL},
	}
	if cfg.Username != "" && cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	a := &Archiver{
		client:      client,
		accounts:    accounts,
		indexPrefix: cfg.IndexPrefix,
		watermark:   time.Now(),
	}

	if err := a.initIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("error initializing events index: %w", err)
	}

	return a, nil
}

func (a *Archiver) eventsIndex() string {
	return a.indexPrefix + "-events"
}

func (a *Archiver) initIndex(ctx context.Context) error {
	existsReq := esapi.IndicesExistsRequest{
		Index: []string{a.eventsIndex()},
	}
	res, err := existsReq.Do(ctx, a.client)
	if err != nil {
		return fmt.Errorf("error checking if index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	mapping := `{
		"mappings": {
			"properties": {
				"event_id":      { "type": "keyword" },
				"username":      { "type": "keyword" },
				"kind":          { "type": "keyword" },
				"delta":         { "type": "long" },
				"balance_after": { "type": "long" },
				"timestamp":     { "type": "date" }
			}
		}
	}`

	createReq := esapi.IndicesCreateRequest{
		Index: a.eventsIndex(),
		Body:  strings.NewReader(mapping),
	}
	res, err = createReq.Do(ctx, a.client)
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// ArchiveNewEvents indexes every ledger event appended since the last
// successful run. The watermark only advances when the whole pass
// succeeds.
func (a *Archiver) ArchiveNewEvents(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	accounts, err := a.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing accounts: %w", err)
	}

	cutoff := a.watermark
	next := cutoff
	indexed := 0

	for _, account := range accounts {
		for _, event := range account.History {
			if !event.Timestamp.After(cutoff) {
				continue
			}

			doc := archivedEvent{
				EventID:      event.ID,
				Username:     account.Username,
				Kind:         string(event.Kind),
				Delta:        event.Delta,
				BalanceAfter: event.BalanceAfter,
				Detail:       event.Detail,
				Timestamp:    event.Timestamp,
			}

			if err := a.indexEvent(ctx, doc); err != nil {
				return fmt.Errorf("error archiving event %s: %w", event.ID, err)
			}

			indexed++
			if event.Timestamp.After(next) {
				next = event.Timestamp
			}
		}
	}

	a.watermark = next
	if indexed > 0 {
		log.Infof("[ARCHIVE] Indexed %d ledger events to %s", indexed, a.eventsIndex())
	}

	return nil
}

func (a *Archiver) indexEvent(ctx context.Context, doc archivedEvent) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}

	res, err := a.client.Index(
		a.eventsIndex(),
		bytes.NewReader(jsonData),
		a.client.Index.WithContext(ctx),
		a.client.Index.WithDocumentID(doc.EventID),
	)
	if err != nil {
		return fmt.Errorf("error indexing event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing event: %s", res.String())
	}

	return nil
}
