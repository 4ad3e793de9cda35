// Package scheduler drives indexing cycles on a cron cadence and on demand,
// making sure at most one cycle runs at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/internal/metrics"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/config"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/indexer"
	"github.com/robfig/cron/v3"
)

const releaseTimeout = 5 * time.Second

// cronParser accepts six field expressions with a leading seconds field, plus descriptors like @every 10s.
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ErrCycleInProgress is returned by Trigger when another cycle is still running,
// in this process or, with a distributed lock, in another one.
var ErrCycleInProgress = errors.New("indexing cycle already in progress")

// Scheduler runs indexer cycles. Cron ticks, HTTP triggers and one-shot runs all go through Trigger.
type Scheduler struct {
	indexer indexer.Indexer
	lock    Locker
	log     *logger.Logger

	cron       *cron.Cron
	spec       string
	runOnStart bool
	timeout    time.Duration

	running atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithLocker guards cycles with a cross-process lock.
func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.lock = l }
}

// New creates a scheduler for idx. The cron expression is validated eagerly.
func New(idx indexer.Indexer, cfg config.SchedulerConfig, log *logger.Logger, opts ...Option) (*Scheduler, error) {
	cfg.ApplyDefaults()

	if _, err := cronParser.Parse(cfg.Cron); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.Cron, err)
	}

	s := &Scheduler{
		indexer:    idx,
		log:        log.WithComponent(common.ComponentScheduler),
		cron:       cron.New(cron.WithParser(cronParser)),
		spec:       cfg.Cron,
		runOnStart: cfg.RunOnStart,
		timeout:    cfg.CycleTimeout.Duration,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Start registers the cron job and starts ticking. Cycles run until Stop is called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("scheduler already started")
	}

	ctx, cancel := context.WithCancel(ctx)

	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule indexing cycle: %w", err)
	}

	s.cancel = cancel
	s.started = true
	s.cron.Start()
	metrics.ComponentHealthSet(common.ComponentScheduler, true)

	s.log.Infow("scheduler started", "cron", s.spec, "cycle_timeout", s.timeout.String())

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tick(ctx)
		}()
	}

	return nil
}

// Stop stops the cron ticker and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.started = false
	metrics.ComponentHealthSet(common.ComponentScheduler, false)

	s.log.Info("scheduler stopped")
}

// Running reports whether a cycle is in progress in this process.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// tick runs a scheduled cycle; failures are logged and counted, never propagated.
func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if _, err := s.Trigger(ctx); err != nil && !errors.Is(err, ErrCycleInProgress) {
		s.log.Errorf("indexing cycle failed: %v", err)
	}
}

// Trigger runs one cycle now. It returns ErrCycleInProgress without doing anything
// when a cycle is already running.
func (s *Scheduler) Trigger(ctx context.Context) (indexer.CycleResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("cycle already running, skipping")
		metrics.CycleInc(metrics.CycleSkipped)
		return indexer.CycleResult{}, ErrCycleInProgress
	}
	defer s.running.Store(false)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if s.lock != nil {
		release, acquired, err := s.lock.TryLock(ctx)
		if err != nil {
			metrics.CycleInc(metrics.CycleError)
			return indexer.CycleResult{}, err
		}
		if !acquired {
			s.log.Debug("cycle running in another process, skipping")
			metrics.CycleInc(metrics.CycleSkipped)
			return indexer.CycleResult{}, fmt.Errorf("%w: lock held by another process", ErrCycleInProgress)
		}
		defer func() {
			// release even when the cycle context already expired
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				s.log.Errorf("failed to release cycle lock: %v", err)
			}
		}()
	}

	start := time.Now()
	result, err := s.indexer.RunCycle(ctx)
	metrics.CycleDurationLog(time.Since(start))

	if err != nil {
		metrics.CycleInc(metrics.CycleError)
		metrics.ComponentHealthSet(common.ComponentIndexer, false)
		return result, err
	}

	metrics.CycleInc(metrics.CycleSuccess)
	metrics.ComponentHealthSet(common.ComponentIndexer, true)

	s.log.Debugw("cycle finished",
		"processed", result.Processed,
		"transactions", result.Transactions,
		"rejected", result.Rejected,
		"last_version", result.LastVersion,
		"duration", time.Since(start).String())

	return result, nil
}
