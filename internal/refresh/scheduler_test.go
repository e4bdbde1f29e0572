package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SHUB2205/Aurora-technical-assessment/internal/corpus"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/model"
)

func records(n int) []model.Message {
	out := make([]model.Message, n)
	for i := range out {
		out[i] = model.Message{ID: fmt.Sprint(i), UserID: "u", UserName: "n", Message: "m"}
	}
	return out
}

func newScheduler(store *corpus.Store, f Fetcher, cfg Config) *Scheduler {
	return NewScheduler(store, f, cfg, zerolog.Nop())
}

func TestTick_InstallsSnapshotsWithIncreasingVersions(t *testing.T) {
	store := corpus.NewStore()
	n := 0
	s := newScheduler(store, FetcherFunc(func(context.Context) ([]model.Message, error) {
		n++
		return records(n), nil
	}), Config{})

	require.Equal(t, TickSuccess, s.Tick(context.Background()))
	first := store.Current()
	require.NotNil(t, first)
	assert.Equal(t, uint64(1), first.Version())
	assert.Equal(t, 1, first.Len())

	require.Equal(t, TickSuccess, s.Tick(context.Background()))
	assert.Equal(t, uint64(2), store.Current().Version())
	assert.Equal(t, 2, store.Current().Len())
	assert.Equal(t, 1, first.Len(), "old snapshot untouched")
}

func TestTick_FailureKeepsPreviousSnapshot(t *testing.T) {
	store := corpus.NewStore()
	fail := false
	s := newScheduler(store, FetcherFunc(func(context.Context) ([]model.Message, error) {
		if fail {
			return nil, errors.New("upstream unavailable")
		}
		return records(3), nil
	}), Config{})

	require.Equal(t, TickSuccess, s.Tick(context.Background()))
	installed := store.Current()

	fail = true
	assert.Equal(t, TickFailure, s.Tick(context.Background()))
	assert.Equal(t, TickFailure, s.Tick(context.Background()))

	assert.Same(t, installed, store.Current())
	st := store.Stats()
	assert.Equal(t, 2, st.ConsecutiveFailures)
	assert.Contains(t, st.LastError, "upstream unavailable")
	assert.Equal(t, 3, st.RecordCount)

	fail = false
	assert.Equal(t, TickSuccess, s.Tick(context.Background()))
	assert.Equal(t, 0, store.Stats().ConsecutiveFailures)
	assert.Equal(t, uint64(2), store.Current().Version())
}

func TestTick_InitialFailureLeavesStoreAbsent(t *testing.T) {
	store := corpus.NewStore()
	s := newScheduler(store, FetcherFunc(func(context.Context) ([]model.Message, error) {
		return nil, errors.New("boom")
	}), Config{})

	assert.Equal(t, TickFailure, s.Tick(context.Background()))
	assert.Nil(t, store.Current())
	st := store.Stats()
	assert.Equal(t, 0, st.RecordCount)
	assert.Nil(t, st.LastSuccessAt)
}

func TestTick_EmptyFetchIsValidSnapshot(t *testing.T) {
	store := corpus.NewStore()
	s := newScheduler(store, FetcherFunc(func(context.Context) ([]model.Message, error) {
		return nil, nil
	}), Config{})

	require.Equal(t, TickSuccess, s.Tick(context.Background()))
	require.NotNil(t, store.Current())
	assert.Equal(t, 0, store.Current().Len())
	assert.True(t, store.Ready())
}

func TestTick_RecoversFetcherPanic(t *testing.T) {
	store := corpus.NewStore()
	s := newScheduler(store, FetcherFunc(func(context.Context) ([]model.Message, error) {
		panic("fetcher exploded")
	}), Config{})

	assert.Equal(t, TickFailure, s.Tick(context.Background()))
	assert.Contains(t, store.Stats().LastError, "fetcher exploded")
	assert.False(t, s.running.Load())
}

func TestTick_AppliesFetchTimeout(t *testing.T) {
	store := corpus.NewStore()
	s := newScheduler(store, FetcherFunc(func(ctx context.Context) ([]model.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), Config{FetchTimeout: 20 * time.Millisecond})

	assert.Equal(t, TickFailure, s.Tick(context.Background()))
	assert.Contains(t, store.Stats().LastError, context.DeadlineExceeded.Error())
}

func TestTick_SkipsWhileInFlight(t *testing.T) {
	store := corpus.NewStore()
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int32
	s := newScheduler(store, FetcherFunc(func(context.Context) ([]model.Message, error) {
		calls.Add(1)
		close(entered)
		<-release
		return records(1), nil
	}), Config{})

	done := make(chan TickResult, 1)
	go func() { done <- s.Tick(context.Background()) }()
	<-entered

	assert.Equal(t, TickSkipped, s.Tick(context.Background()))
	close(release)
	assert.Equal(t, TickSuccess, <-done)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_ContinuesAfterFailures(t *testing.T) {
	store := corpus.NewStore()
	var calls atomic.Int32
	s := newScheduler(store, FetcherFunc(func(context.Context) ([]model.Message, error) {
		if calls.Add(1)%2 == 1 {
			return nil, errors.New("odd tick fails")
		}
		return records(2), nil
	}), Config{Interval: 5 * time.Millisecond, EagerInitialFetch: true})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	waitTrue(t, func() bool { return calls.Load() >= 4 })
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.True(t, store.Ready())
}

func TestRun_SkipsTicksDuringSlowFetch(t *testing.T) {
	store := corpus.NewStore()
	release := make(chan struct{})
	var calls atomic.Int32
	s := newScheduler(store, FetcherFunc(func(ctx context.Context) ([]model.Message, error) {
		calls.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return records(1), nil
	}), Config{Interval: 2 * time.Millisecond, EagerInitialFetch: true})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	waitTrue(t, func() bool { return calls.Load() == 1 })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "ticks must not overlap or queue")

	close(release)
	waitTrue(t, func() bool { return calls.Load() >= 2 })
	cancel()
	<-errCh
}

func TestRun_NotEagerWaitsForInterval(t *testing.T) {
	store := corpus.NewStore()
	var calls atomic.Int32
	s := newScheduler(store, FetcherFunc(func(context.Context) ([]model.Message, error) {
		calls.Add(1)
		return nil, nil
	}), Config{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-errCh

	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, store.Ready())
}

func TestWaitReady(t *testing.T) {
	store := corpus.NewStore()

	err := WaitReady(context.Background(), store, 30*time.Millisecond)
	require.Error(t, err)
	assert.True(t, model.IsNotReadyError(err))

	go func() {
		time.Sleep(20 * time.Millisecond)
		store.Install(corpus.NewSnapshot(nil, store.NextVersion(), time.Now()))
	}()
	assert.NoError(t, WaitReady(context.Background(), store, time.Second))
}

func TestTickResult_String(t *testing.T) {
	assert.Equal(t, "success", TickSuccess.String())
	assert.Equal(t, "failure", TickFailure.String())
	assert.Equal(t, "skipped", TickSkipped.String())
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
