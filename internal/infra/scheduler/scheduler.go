package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"product_registration_bot/internal/domain/registration"
)

// CatalogRefresher reloads the product and store catalog.
type CatalogRefresher interface {
	Refresh(ctx context.Context) error
}

type MaintenanceScheduler struct {
	cronEngine        *cron.Cron
	catalog           CatalogRefresher
	journal           registration.Journal // nil when no database is configured
	logger            *logrus.Entry
	cronSpecRefresh   string
	cronSpecPrune     string
	retention         time.Duration
	now               func() time.Time
	refreshJobTimeout time.Duration
	pruneJobTimeout   time.Duration
}

func NewMaintenanceScheduler(
	catalog CatalogRefresher,
	journal registration.Journal,
	logger *logrus.Entry,
	cronSpecRefresh string, // e.g., "*/30 * * * *" (every 30 minutes)
	cronSpecPrune string, // e.g., "0 4 * * *" (4 AM daily)
	retentionDays int,
) *MaintenanceScheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &MaintenanceScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.Local), // Use server's local time for cron
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		catalog:           catalog,
		journal:           journal,
		logger:            logger,
		cronSpecRefresh:   cronSpecRefresh,
		cronSpecPrune:     cronSpecPrune,
		retention:         time.Duration(retentionDays) * 24 * time.Hour,
		now:               time.Now,
		refreshJobTimeout: 2 * time.Minute,
		pruneJobTimeout:   5 * time.Minute,
	}
}

// Start registers the jobs and starts the cron engine. The prune job is only
// registered when a journal is configured.
func (s *MaintenanceScheduler) Start() error {
	s.logger.Info("Starting maintenance scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecRefresh, s.refreshCatalog); err != nil {
		return fmt.Errorf("could not add catalog refresh cron job: %w", err)
	}

	if s.journal != nil {
		if _, err := s.cronEngine.AddFunc(s.cronSpecPrune, s.pruneJournal); err != nil {
			return fmt.Errorf("could not add journal prune cron job: %w", err)
		}
	} else {
		s.logger.Info("No journal configured, journal prune job disabled")
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.cronEngine.Entries())).Info("Maintenance scheduler started with jobs.")
	return nil
}

func (s *MaintenanceScheduler) refreshCatalog() {
	s.logger.Debug("Cron job triggered for catalog refresh.")
	ctx, cancel := context.WithTimeout(context.Background(), s.refreshJobTimeout)
	defer cancel()
	if err := s.catalog.Refresh(ctx); err != nil {
		// Sessions keep using the last good catalog.
		s.logger.WithError(err).Error("Error during catalog refresh")
	}
}

func (s *MaintenanceScheduler) pruneJournal() {
	cutoff := s.now().Add(-s.retention)
	logCtx := s.logger.WithField("cutoff", cutoff.Format(time.RFC3339))
	logCtx.Info("Cron job triggered for journal prune.")

	ctx, cancel := context.WithTimeout(context.Background(), s.pruneJobTimeout)
	defer cancel()
	n, err := s.journal.PruneBefore(ctx, cutoff)
	if err != nil {
		logCtx.WithError(err).Error("Error during journal prune")
		return
	}
	logCtx.WithField("deleted", n).Info("Journal pruned")
}

func (s *MaintenanceScheduler) Stop() {
	s.logger.Info("Stopping maintenance scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Maintenance scheduler gracefully stopped.")
}
