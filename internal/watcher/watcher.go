// Package watcher is the companion process to the ledger service. It
// reads game chat, relays classified payment and linking events to the
// ledger's HTTP API, and drains the shared command-queue file, delivering
// each pending command to the game server.
package watcher

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	queueRepo "github.com/quarryworks/craftbank/pkg/repositories/queue"
)

// maxSendAttempts is how many drain passes may retry one command before
// it is parked for the rest of the process lifetime.
const maxSendAttempts = 10

// Watcher wires the transport, the classifier, the ledger client and the
// queue drainer together.
type Watcher struct {
	transport  Transport
	classifier *Classifier
	ledger     LedgerAPI
	queue      queueRepo.Repository

	interval time.Duration
	consumer string

	attempts map[string]int // send attempts per command id, this run only
	parked   map[string]bool
}

// New creates a watcher. consumer names this process on executed commands.
func New(transport Transport, ledger LedgerAPI, queue queueRepo.Repository, interval time.Duration, consumer string) *Watcher {
	return &Watcher{
		transport:  transport,
		classifier: NewClassifier(),
		ledger:     ledger,
		queue:      queue,
		interval:   interval,
		consumer:   consumer,
		attempts:   make(map[string]int),
		parked:     make(map[string]bool),
	}
}

// Run blocks until the context is canceled or the transport closes.
func (w *Watcher) Run(ctx context.Context) error {
	go w.drainLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-w.transport.Lines():
			if !ok {
				log.Warn("[WATCHER] Transport closed, stopping")
				return ErrTransportClosed
			}
			w.handleLine(ctx, line)
		}
	}
}

// handleLine classifies one chat line and relays any event to the ledger.
// A failed relay is dropped: the ledger call is retried only when the
// player's next action produces a fresh line.
func (w *Watcher) handleLine(ctx context.Context, line string) {
	if event, ok := w.classifier.Payment(line); ok {
		log.Infof("[WATCHER] Payment detected: %s -> %d", event.Payer, event.Amount)
		if err := w.ledger.IngestPayment(ctx, event.Payer, event.Amount); err != nil {
			log.WithError(err).Errorf("[WATCHER] Failed to ingest payment from %s", event.Payer)
		}
		return
	}

	if event, ok := w.classifier.Link(line); ok {
		log.Infof("[WATCHER] Link confirmation detected from %s", event.Player)
		if err := w.ledger.ConfirmLink(ctx, event.Player, event.Code); err != nil {
			log.WithError(err).Errorf("[WATCHER] Failed to confirm link for %s", event.Player)
		}
		return
	}
}

// drainLoop polls the shared queue file and delivers pending commands.
func (w *Watcher) drainLoop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.DrainOnce(ctx)
		}
	}
}

// DrainOnce runs a single drain pass: reload the queue to pick up the
// ledger service's appends, then send every pending command in FIFO
// order, marking each done on success. A failed send leaves the entry
// pending for the next pass; after maxSendAttempts the command is parked
// and an alert is logged so an operator can deliver it by hand.
func (w *Watcher) DrainOnce(ctx context.Context) {
	if err := w.queue.Reload(ctx); err != nil {
		log.WithError(err).Error("[WATCHER] Failed to reload command queue")
		return
	}

	pending, err := w.queue.Pending(ctx)
	if err != nil {
		log.WithError(err).Error("[WATCHER] Failed to read pending commands")
		return
	}

	for _, cmd := range pending {
		if w.parked[cmd.ID] {
			continue
		}

		if err := w.transport.Send(cmd.Command); err != nil {
			w.attempts[cmd.ID]++
			log.WithError(err).Warnf("[WATCHER] Send failed for command %s (attempt %d)", cmd.ID, w.attempts[cmd.ID])

			if w.attempts[cmd.ID] >= maxSendAttempts {
				w.parked[cmd.ID] = true
				log.Errorf("[WATCHER] Command %s parked after %d attempts: %q", cmd.ID, maxSendAttempts, cmd.Command)
			}
			continue
		}

		// Each mark persists the queue immediately rather than once at
		// the end of the pass, so a crash mid-pass cannot replay
		// commands that were already delivered.
		if err := w.queue.MarkDone(ctx, cmd.ID, w.consumer); err != nil {
			log.WithError(err).Errorf("[WATCHER] Failed to mark command %s done", cmd.ID)
			continue
		}

		delete(w.attempts, cmd.ID)
		log.Infof("[WATCHER] Delivered command %s: %q", cmd.ID, cmd.Command)
	}
}
