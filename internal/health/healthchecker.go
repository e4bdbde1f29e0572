// Package health aggregates component health for the service endpoints.
package health

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers (corpus, upstream).
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// ServiceHealthChecker folds component checkers into one service flag.
// Only required checkers affect the flag; optional ones are reported only.
type ServiceHealthChecker struct {
	healthy  atomic.Int32
	required []HealthChecker
	optional []HealthChecker
	log      zerolog.Logger
}

// NewServiceHealthChecker creates an aggregator over required checkers.
func NewServiceHealthChecker(log zerolog.Logger, required ...HealthChecker) *ServiceHealthChecker {
	h := &ServiceHealthChecker{required: required, log: log}
	h.healthy.Store(0)
	return h
}

// WithOptional adds checkers that are reported by Components but never
// mark the service down.
func (h *ServiceHealthChecker) WithOptional(c ...HealthChecker) *ServiceHealthChecker {
	h.optional = append(h.optional, c...)
	return h
}

// Name returns the checker name.
func (h *ServiceHealthChecker) Name() string { return "service" }

// IsHealthy returns cached service health.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.healthy.Load() == 1 }

// Components returns the live status of every checker keyed by name.
func (h *ServiceHealthChecker) Components() map[string]bool {
	out := make(map[string]bool, len(h.required)+len(h.optional))
	for _, c := range h.required {
		out[c.Name()] = c.IsHealthy()
	}
	for _, c := range h.optional {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

// Names returns checker names in sorted order.
func (h *ServiceHealthChecker) Names() []string {
	var names []string
	for name := range h.Components() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start periodically evaluates required checkers and updates the service flag.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(-1)
	eval := func() {
		var cur int32 = 1
		var down []string
		for _, c := range h.required {
			if !c.IsHealthy() {
				cur = 0
				down = append(down, c.Name())
			}
		}
		h.healthy.Store(cur)
		if cur != prev {
			if cur == 1 {
				h.log.Info().Msg("service health: UP")
			} else {
				h.log.Warn().Strs("down", down).Msg("service health: DOWN")
			}
			prev = cur
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
