package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/quarryworks/craftbank/internal/config"
	"github.com/quarryworks/craftbank/internal/watcher"
	queueRepo "github.com/quarryworks/craftbank/pkg/repositories/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport, err := watcher.DialTCP(ctx, cfg.Watcher.TransportAddr)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to game server")
	}
	defer transport.Close()
	log.Infof("Connected to game server at %s", cfg.Watcher.TransportAddr)

	// The queue file is shared with the ledger service. The watcher only
	// reads pending entries and marks them done.
	queue, err := queueRepo.NewFileRepository(cfg.Data.QueuePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open command queue")
	}

	client := watcher.NewHTTPClient(cfg.Watcher.LedgerURL, cfg.Auth.IngestToken)

	w := watcher.New(transport, client, queue, cfg.Watcher.PollInterval, cfg.Watcher.ConsumerName)

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("Shutting down...")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Fatal("Watcher stopped")
		}
	}
}
