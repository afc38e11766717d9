package workers

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Conte777/newsdigest/config"
	"github.com/Conte777/newsdigest/internal/domain/rating/usecase/buissines"
	applog "github.com/Conte777/newsdigest/internal/infrastructure/logger"
)

// Task is one run of a periodic worker
type Task func(ctx context.Context) error

// PeriodicWorker runs a task on a fixed interval until stopped
type PeriodicWorker struct {
	name     string
	task     Task
	final    Task
	clock    clockwork.Clock
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger

	done   chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPeriodicWorker creates a worker. final, when set, runs once on Stop.
func NewPeriodicWorker(name string, interval time.Duration, clock clockwork.Clock, task, final Task, logger zerolog.Logger) *PeriodicWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &PeriodicWorker{
		name:     name,
		task:     task,
		final:    final,
		clock:    clock,
		interval: interval,
		timeout:  time.Minute,
		logger:   applog.Component(logger, name),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the worker loop
func (w *PeriodicWorker) Start() {
	w.logger.Info().Dur("interval", w.interval).Msg("starting worker")

	w.wg.Add(1)
	go w.run()
}

// Stop gracefully stops the worker and runs the final task
func (w *PeriodicWorker) Stop(ctx context.Context) error {
	w.logger.Info().Msg("stopping worker")

	w.cancel()
	close(w.done)
	w.wg.Wait()

	if w.final != nil {
		if err := w.final(ctx); err != nil {
			w.logger.Error().Err(err).Msg("final run failed")
			return err
		}
	}

	w.logger.Info().Msg("worker stopped")
	return nil
}

func (w *PeriodicWorker) run() {
	defer w.wg.Done()

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.Chan():
			w.runOnce()
		}
	}
}

func (w *PeriodicWorker) runOnce() {
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()

	if err := w.task(ctx); err != nil {
		w.logger.Error().Err(err).Msg("worker run failed")
	}
}

// CleanupWorker removes expired tracked messages
type CleanupWorker struct {
	*PeriodicWorker
}

// NewCleanupWorker creates the retention cleanup worker
func NewCleanupWorker(uc *buissines.UseCase, cfg *config.RatingConfig, clock clockwork.Clock, logger zerolog.Logger) *CleanupWorker {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	task := func(ctx context.Context) error {
		_, err := uc.CleanupExpired(ctx)
		return err
	}
	return &CleanupWorker{NewPeriodicWorker("cleanup_worker", interval, clock, task, nil, logger)}
}

// FlushWorker retries failed snapshot saves and saves once more on shutdown
type FlushWorker struct {
	*PeriodicWorker
}

// NewFlushWorker creates the snapshot flush worker
func NewFlushWorker(uc *buissines.UseCase, cfg *config.StorageConfig, clock clockwork.Clock, logger zerolog.Logger) *FlushWorker {
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &FlushWorker{NewPeriodicWorker("flush_worker", interval, clock, uc.Flush, uc.Persist, logger)}
}
