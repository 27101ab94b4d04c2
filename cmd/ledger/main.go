package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/quarryworks/craftbank/internal/api"
	"github.com/quarryworks/craftbank/internal/config"
	"github.com/quarryworks/craftbank/internal/identity"
	"github.com/quarryworks/craftbank/internal/jobs"
	"github.com/quarryworks/craftbank/pkg/archive"
	"github.com/quarryworks/craftbank/pkg/backup"
	"github.com/quarryworks/craftbank/pkg/notify"
	accountRepo "github.com/quarryworks/craftbank/pkg/repositories/account"
	linkcodeRepo "github.com/quarryworks/craftbank/pkg/repositories/linkcode"
	paymentRepo "github.com/quarryworks/craftbank/pkg/repositories/payment"
	queueRepo "github.com/quarryworks/craftbank/pkg/repositories/queue"
	"github.com/quarryworks/craftbank/pkg/services/games"
	"github.com/quarryworks/craftbank/pkg/services/ledger"
	"github.com/quarryworks/craftbank/pkg/services/linking"
	"github.com/quarryworks/craftbank/pkg/services/payments"
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
	if !cfg.IsDevelopment() {
		log.SetFormatter(&log.JSONFormatter{})
	}

	// Pick the account store. SQLite failures fall back to the flat file
	// so the service still comes up.
	var accounts accountRepo.Repository
	if cfg.Data.StorageType == "sqlite" {
		sqliteRepo, err := accountRepo.NewSQLiteRepository(cfg.Data.SQLitePath())
		if err != nil {
			log.WithError(err).Warn("Failed to open SQLite store, falling back to file store")
		} else {
			accounts = sqliteRepo
			log.Infof("Using SQLite account store at %s", cfg.Data.SQLitePath())
		}
	}
	if accounts == nil {
		fileRepo, err := accountRepo.NewFileRepository(cfg.Data.AccountsPath())
		if err != nil {
			log.WithError(err).Fatal("Failed to open account store")
		}
		accounts = fileRepo
		log.Infof("Using file account store at %s", cfg.Data.AccountsPath())
	}
	defer accounts.Close()

	paymentStore, err := paymentRepo.NewFileRepository(cfg.Data.PaymentsPath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open payment store")
	}

	queue, err := queueRepo.NewFileRepository(cfg.Data.QueuePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open command queue")
	}

	codes, err := linkcodeRepo.NewFileRepository(cfg.Data.LinkCodesPath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open link code store")
	}

	ledgerSvc := ledger.NewService(accounts, queue)

	var notifier payments.Notifier
	if cfg.Notify.Enabled {
		discordNotifier, err := notify.NewDiscordNotifier(cfg.Notify)
		if err != nil {
			log.WithError(err).Warn("Failed to start Discord notifier, payment alerts disabled")
		} else {
			notifier = discordNotifier
			defer discordNotifier.Close()
			log.Info("Discord payment notifications enabled")
		}
	}

	paymentsSvc := payments.NewService(paymentStore, queue, ledgerSvc, notifier)
	gamesSvc := games.NewService(ledgerSvc, cfg.Game.MaxMultiplier)
	linkingSvc := linking.NewService(codes, accounts, ledgerSvc)

	var provider identity.Provider
	if cfg.Identity.ClientID != "" {
		provider = identity.NewOAuthProvider(cfg.Identity)
		log.Info("Identity provider configured")
	}

	// Background jobs.
	var backupRunner *backup.Runner
	if cfg.Backup.Enabled {
		if fileRepo, ok := accounts.(*accountRepo.FileRepository); ok {
			backupRunner = backup.NewRunner(fileRepo.Path(), cfg.Backup.Dir, cfg.Backup.MaxCount)
		} else {
			log.Warn("Backups are only supported for the file account store")
		}
	}

	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		archiver, err = archive.NewArchiver(cfg.Archive, accounts)
		if err != nil {
			log.WithError(err).Warn("Failed to start event archiver, archival disabled")
			archiver = nil
		}
	}

	scheduler := jobs.NewScheduler(cfg, backupRunner, archiver)
	if err := scheduler.Start(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to start background jobs")
	}
	defer scheduler.Stop()

	handler := api.NewHandler(cfg, ledgerSvc, paymentsSvc, gamesSvc, linkingSvc, provider)
	server := api.NewServer(cfg.HTTP.Port, handler)

	go func() {
		log.Infof("Ledger service listening on :%d", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down server")
	}
}
