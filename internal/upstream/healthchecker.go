package upstream

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/SHUB2205/Aurora-technical-assessment/internal/health"
)

// HealthChecker probes the upstream API on an interval.
type HealthChecker struct {
	pinger       health.HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewHealthChecker creates a checker for any upstream that can HealthPing.
func NewHealthChecker(p health.HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *HealthChecker {
	hc := &HealthChecker{pinger: p, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0) // start unhealthy until first successful probe
	return hc
}

// Name returns the checker name.
func (hc *HealthChecker) Name() string { return "upstream" }

// IsHealthy returns the cached health status (non-blocking).
func (hc *HealthChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

// Start begins periodic health checking.
func (hc *HealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		to := hc.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()

		if err := hc.pinger.HealthPing(checkCtx); err != nil {
			if hc.healthy.Swap(0) == 1 {
				hc.log.Error().Stack().Str("checker", hc.Name()).Err(err).Msg("upstream health check failed")
			}
			return
		}
		hc.healthy.Store(1)
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
