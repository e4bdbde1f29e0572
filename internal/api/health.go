package api

import (
	"net/http"
	"time"

	respond "github.com/SHUB2205/Aurora-technical-assessment/internal/api/respond"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/corpus"
)

// ServiceHealth is the aggregated health view; *health.ServiceHealthChecker implements it.
type ServiceHealth interface {
	IsHealthy() bool
	Components() map[string]bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	service string
	store   *corpus.Store
	health  ServiceHealth
	ttl     time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service string, store *corpus.Store, health ServiceHealth, ttl time.Duration) *HealthHandler {
	return &HealthHandler{service: service, store: store, health: health, ttl: ttl}
}

// CheckHealth handles GET / and GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	var components map[string]bool
	if h.health != nil {
		if h.health.IsHealthy() {
			status = "healthy"
		}
		components = h.health.Components()
	}

	st := h.store.Stats()
	cacheStatus := "invalid"
	if st.FreshAt(time.Now(), h.ttl) {
		cacheStatus = "valid"
	}

	response := map[string]interface{}{
		"status":          status,
		"service":         h.service,
		"ready":           st.Ready,
		"cache_status":    cacheStatus,
		"cached_messages": st.RecordCount,
		"last_updated":    st.LastSuccessAt,
		"components":      components,
		"timestamp":       time.Now().Format(time.RFC3339),
	}
	respond.WriteJSON(w, r, http.StatusOK, response)
}

// CheckReady handles GET /readyz: 200 once a snapshot is installed, 503 before.
func (h *HealthHandler) CheckReady(w http.ResponseWriter, r *http.Request) {
	if !h.store.Ready() {
		respond.WriteServiceUnavailable(w, r, "corpus not loaded", "")
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, map[string]interface{}{"ready": true})
}
