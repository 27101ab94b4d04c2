// Package jobs runs the ledger service's background maintenance on cron
// schedules: data-file backups and Elasticsearch event archival.
package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/quarryworks/craftbank/internal/config"
	"github.com/quarryworks/craftbank/pkg/archive"
	"github.com/quarryworks/craftbank/pkg/backup"
)

// Scheduler owns the cron runner for all background jobs.
type Scheduler struct {
	cron     *cron.Cron
	backup   *backup.Runner
	archiver *archive.Archiver
	cfg      *config.Config
}

// NewScheduler wires up the enabled jobs. backupRunner and archiver may be
// nil when their feature is disabled.
func NewScheduler(cfg *config.Config, backupRunner *backup.Runner, archiver *archive.Archiver) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		backup:   backupRunner,
		archiver: archiver,
		cfg:      cfg,
	}
}

// Start registers the enabled jobs and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Backup.Enabled && s.backup != nil {
		if _, err := s.cron.AddFunc(s.cfg.Backup.Schedule, func() {
			path, err := s.backup.Run()
			if err != nil {
				log.WithError(err).Error("[CRON] Backup failed")
				return
			}
			if path != "" {
				log.Infof("[CRON] Backup written to %s", path)
			}
		}); err != nil {
			return err
		}
	}

	if s.cfg.Archive.Enabled && s.archiver != nil {
		if _, err := s.cron.AddFunc(s.cfg.Archive.Schedule, func() {
			if err := s.archiver.ArchiveNewEvents(ctx); err != nil {
				log.WithError(err).Error("[CRON] Event archival failed")
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Infof("[CRON] Scheduler started with %d jobs", len(s.cron.Entries()))
	return nil
}

// Stop halts the cron runner and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	log.Info("[CRON] Scheduler stopped")
}
