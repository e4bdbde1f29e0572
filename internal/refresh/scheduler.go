// Package refresh keeps the corpus current by periodically fetching the
// full message set and installing it as a new snapshot.
package refresh

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/SHUB2205/Aurora-technical-assessment/internal/corpus"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/metrics"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/model"
)

// Fetcher returns the full upstream corpus in fetch order.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]model.Message, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) ([]model.Message, error)

// FetchAll calls f(ctx).
func (f FetcherFunc) FetchAll(ctx context.Context) ([]model.Message, error) { return f(ctx) }

// TickResult is the outcome of one refresh tick.
type TickResult int

const (
	TickSuccess TickResult = iota
	TickFailure
	TickSkipped
)

func (r TickResult) String() string {
	switch r {
	case TickSuccess:
		return metrics.OutcomeSuccess
	case TickFailure:
		return metrics.OutcomeFailure
	case TickSkipped:
		return metrics.OutcomeSkipped
	default:
		return fmt.Sprintf("TickResult(%d)", int(r))
	}
}

// Config controls refresh cadence.
type Config struct {
	Interval     time.Duration // time between ticks
	FetchTimeout time.Duration // upper bound for one fetch; 0 disables
	// EagerInitialFetch runs the first tick as soon as Run starts instead
	// of one Interval later.
	EagerInitialFetch bool
}

// Scheduler runs refresh ticks on a fixed interval. At most one tick is in
// flight; a tick that comes due while another is running is skipped.
type Scheduler struct {
	store   *corpus.Store
	fetcher Fetcher
	cfg     Config
	log     zerolog.Logger

	running atomic.Bool
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewScheduler constructs a Scheduler from dependencies.
func NewScheduler(store *corpus.Store, fetcher Fetcher, cfg Config, log zerolog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.FetchTimeout < 0 {
		cfg.FetchTimeout = 0
	}
	return &Scheduler{
		store:   store,
		fetcher: fetcher,
		cfg:     cfg,
		log:     log.With().Str("component", "refresh").Logger(),
		now:     time.Now,
	}
}

// Run starts the refresh loop and blocks until ctx is canceled. It waits for
// an in-flight tick to observe the cancellation before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().
		Dur("interval", s.cfg.Interval).
		Dur("fetch_timeout", s.cfg.FetchTimeout).
		Bool("eager", s.cfg.EagerInitialFetch).
		Msg("refresh scheduler starting")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	defer s.wg.Wait()

	if s.cfg.EagerInitialFetch {
		s.spawn(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("refresh scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.spawn(ctx)
		}
	}
}

// spawn starts a tick without blocking the timer loop, so an overdue fetch
// causes later ticks to be skipped rather than queued.
func (s *Scheduler) spawn(ctx context.Context) {
	if s.running.Load() {
		s.skipped()
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Tick(ctx)
	}()
}

// Tick performs one fault-isolated refresh: fetch, build, install. Failures
// are recorded on the store and never returned.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	if !s.running.CompareAndSwap(false, true) {
		s.skipped()
		return TickSkipped
	}
	defer s.running.Store(false)

	start := s.now()
	records, err := s.fetch(ctx)
	elapsed := s.now().Sub(start)

	if err != nil {
		s.store.RecordFailure(err)
		st := s.store.Stats()
		metrics.ObserveRefresh(metrics.OutcomeFailure, elapsed)
		metrics.SetConsecutiveFailures(st.ConsecutiveFailures)
		s.log.Error().Stack().Err(err).
			Int("consecutive_failures", st.ConsecutiveFailures).
			Bool("serving_stale", st.Ready).
			Dur("elapsed", elapsed).
			Msg("refresh failed")
		return TickFailure
	}

	snap := corpus.NewSnapshot(records, s.store.NextVersion(), s.now())
	s.store.Install(snap)

	metrics.ObserveRefresh(metrics.OutcomeSuccess, elapsed)
	metrics.SetCorpus(snap.Len(), snap.Version())
	metrics.SetConsecutiveFailures(0)
	s.log.Info().
		Int("records", snap.Len()).
		Uint64("version", snap.Version()).
		Dur("elapsed", elapsed).
		Msg("corpus refreshed")
	return TickSuccess
}

// fetch calls the fetcher under the configured timeout and converts panics
// and errors into model.FetchError.
func (s *Scheduler) fetch(ctx context.Context) (records []model.Message, err error) {
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("fetcher panicked")
			records, err = nil, model.NewFetchError("all", fmt.Errorf("panic: %v", rec))
		}
	}()

	records, err = s.fetcher.FetchAll(ctx)
	if err != nil {
		return nil, model.NewFetchError("all", err)
	}
	return records, nil
}

func (s *Scheduler) skipped() {
	metrics.ObserveRefresh(metrics.OutcomeSkipped, 0)
	s.log.Warn().Msg("refresh still in flight, skipping tick")
}

// WaitReady blocks until store has a snapshot, ctx is done or timeout
// elapses. It returns model.NotReadyError on timeout.
func WaitReady(ctx context.Context, store *corpus.Store, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if store.Ready() {
			return nil
		}
		if time.Now().After(deadline) {
			return model.NewNotReadyError(fmt.Sprintf("no snapshot within %s", timeout))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
