package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"focusflow/config"
	"focusflow/internal/modules/reminder"
)

// Scheduler owns the cron instance running the background reminder sweeps.
// It does no domain work itself; every entry delegates to the reminder
// usecase.
type Scheduler struct {
	cron *cron.Cron
	uc   reminder.UseCase
	cfg  config.SchedulerConfig
	log  *slog.Logger
}

func New(uc reminder.UseCase, cfg config.SchedulerConfig, log *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		uc:   uc,
		cfg:  cfg,
		log:  log.With(slog.String("component", "scheduler")),
	}

	entries := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"dispatch", every(cfg.DispatchInterval), uc.ProcessDueReminders},
		{"deadline_watch", every(cfg.DeadlineWatchInterval), uc.ProcessDeadlineChecks},
		{"hyperfocus_watch", every(cfg.HyperfocusInterval), uc.ProcessHyperfocusChecks},
		{"energy_analysis", every(cfg.EnergyAnalysisInterval), uc.RefreshEnergyInsights},
		{"daily_optimization", cfg.DailyOptimizationCron, uc.RetuneReminderTiming},
	}

	for _, e := range entries {
		e := e
		if _, err := s.cron.AddFunc(e.spec, func() { s.runSweep(e.name, e.run) }); err != nil {
			return nil, fmt.Errorf("failed to register %s sweep (%q): %w", e.name, e.spec, err)
		}
	}

	return s, nil
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

// runSweep wraps one sweep invocation. A panic or error in one sweep must
// never take the scheduler down.
func (s *Scheduler) runSweep(name string, run func(ctx context.Context) error) {
	log := s.log.With(slog.String("sweep", name))

	defer func() {
		if r := recover(); r != nil {
			log.Error("sweep panicked", slog.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := run(context.Background()); err != nil {
		log.Error("sweep failed", "error", err)
		return
	}
	log.Debug("sweep finished", slog.String("duration", time.Since(start).String()))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started",
		slog.String("dispatchInterval", s.cfg.DispatchInterval.String()),
		slog.String("dailyOptimizationCron", s.cfg.DailyOptimizationCron))
}

// Stop halts scheduling and waits for running sweeps up to the timeout.
func (s *Scheduler) Stop(timeout time.Duration) {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		s.log.Info("scheduler stopped")
	case <-time.After(timeout):
		s.log.Warn("scheduler stop timed out, sweeps may still be running")
	}
}
