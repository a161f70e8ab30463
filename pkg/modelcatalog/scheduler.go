package modelcatalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/ganymede/pkg/providers"
)

// Source supplies the providers whose catalogs a scheduled refresh
// should cover.
type Source func() []providers.Provider

// Scheduler refreshes the catalog on a cron schedule.
type Scheduler struct {
	catalog  *Catalog
	source   Source
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler that refreshes the catalog for every
// provider the source yields. Common schedules:
//
//   - "0 * * * *"   - Hourly
//   - "*/15 * * * *" - Every 15 minutes
//
// An empty schedule disables scheduled refreshing.
func NewScheduler(catalog *Catalog, source Source, schedule string) *Scheduler {
	return &Scheduler{
		catalog:  catalog,
		source:   source,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "modelcatalog.scheduler"),
	}
}

// Start begins scheduled refreshing. With an empty schedule it does
// nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("refresh schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runRefresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("model catalog scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	list := s.source()
	s.logger.Debug("starting scheduled model refresh", "providers", len(list))
	s.catalog.RefreshAll(ctx, list)
}

// Stop stops the scheduler and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("model catalog scheduler stopped")
	}
}

// IsRunning returns true while the scheduler is started.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled refresh time, if any.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
