package corpus

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker reports the corpus healthy once a snapshot is installed and,
// when maxFailures > 0, while the refresh failure streak stays below it.
type HealthChecker struct {
	store       *Store
	maxFailures int
	healthy     atomic.Int32
	log         zerolog.Logger
}

// NewHealthChecker creates a corpus health checker.
func NewHealthChecker(store *Store, maxFailures int, log zerolog.Logger) *HealthChecker {
	hc := &HealthChecker{store: store, maxFailures: maxFailures, log: log}
	hc.healthy.Store(0)
	return hc
}

// Name returns the checker name.
func (hc *HealthChecker) Name() string { return "corpus" }

// IsHealthy returns the cached health status (non-blocking).
func (hc *HealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

// Start begins periodic health evaluation.
func (hc *HealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	hc.check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.check()
		}
	}
}

func (hc *HealthChecker) check() {
	st := hc.store.Stats()
	ok := st.Ready && (hc.maxFailures <= 0 || st.ConsecutiveFailures < hc.maxFailures)
	if ok {
		hc.healthy.Store(1)
		return
	}
	if hc.healthy.Swap(0) == 1 {
		hc.log.Warn().
			Bool("ready", st.Ready).
			Int("consecutive_failures", st.ConsecutiveFailures).
			Str("last_error", st.LastError).
			Msg("corpus unhealthy")
	}
}
