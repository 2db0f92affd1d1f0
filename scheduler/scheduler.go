// Package scheduler fires the update pipeline on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/researchaccelerator-hub/manga-notifier/pipeline"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Runner performs one update pass.
type Runner interface {
	Run(ctx context.Context, channels model.ChannelRoleSet) (*pipeline.RunReport, error)
}

// Config controls when and for how long a pass runs.
type Config struct {
	Spec       string
	Location   *time.Location
	RunTimeout time.Duration
}

// Scheduler owns the cron instance. Overlapping fires are skipped and missed
// fires are not caught up.
type Scheduler struct {
	cron       *cron.Cron
	schedule   cron.Schedule
	location   *time.Location
	runner     Runner
	syncer     RepoSyncer
	channels   model.ChannelRoleSet
	runTimeout time.Duration
	started    atomic.Bool
}

// New creates a scheduler. syncer may be nil to skip the repository sync.
func New(cfg Config, runner Runner, syncer RepoSyncer, channels model.ChannelRoleSet) (*Scheduler, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 30 * time.Minute
	}

	schedule, err := cron.ParseStandard(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", cfg.Spec, err)
	}

	logger := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		schedule:   schedule,
		location:   cfg.Location,
		runner:     runner,
		syncer:     syncer,
		channels:   model.ChannelRoleSet{Update: channels.Update, Error: channels.Error},
		runTimeout: cfg.RunTimeout,
	}

	return s, nil
}

// Start registers the daily job and starts the cron loop. Calling Start again
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		log.Debug().Msg("Scheduler already started")
		return nil
	}

	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.Fire(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled run failed")
		}
	}))
	s.cron.Start()

	log.Info().
		Str("timezone", s.location.String()).
		Time("next_run", s.NextRun(time.Now())).
		Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	if !s.started.Load() {
		return
	}
	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// Started reports whether Start has been called.
func (s *Scheduler) Started() bool {
	return s.started.Load()
}

// NextRun returns the next fire time after t.
func (s *Scheduler) NextRun(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// Fire runs the repository sync followed by one pipeline pass. A failing sync
// aborts the pass.
func (s *Scheduler) Fire(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if s.syncer != nil {
		if err := s.syncer.Sync(ctx); err != nil {
			return fmt.Errorf("repository sync failed, skipping run: %w", err)
		}
	}

	report, err := s.runner.Run(ctx, s.channels)
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", report.RunID).
		Int("successes", report.Successes).
		Int("failures", report.Failures).
		Dur("duration", report.Duration).
		Msg("Scheduled run finished")
	return nil
}

// cronLogger routes cron's own logging onto zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
