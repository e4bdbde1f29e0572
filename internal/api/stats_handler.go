package api

import (
	"net/http"
	"time"

	respond "github.com/SHUB2205/Aurora-technical-assessment/internal/api/respond"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/corpus"
)

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	corpus.Stats
	CacheAgeSeconds *int64 `json:"cache_age_seconds"`
	CacheValid      bool   `json:"cache_valid"`
	Error           string `json:"error,omitempty"`
}

// StatsHandler handles GET /stats.
type StatsHandler struct {
	store *corpus.Store
	ttl   time.Duration
}

// NewStatsHandler creates a stats handler. ttl decides cache_valid.
func NewStatsHandler(store *corpus.Store, ttl time.Duration) *StatsHandler {
	return &StatsHandler{store: store, ttl: ttl}
}

// HandleStats reports corpus and refresh statistics. Before the first
// successful refresh it answers 503 with the (empty) counters.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st := h.store.Stats()
	now := time.Now()
	resp := StatsResponse{Stats: st, CacheValid: st.FreshAt(now, h.ttl)}
	if age, ok := st.AgeAt(now); ok {
		secs := int64(age / time.Second)
		resp.CacheAgeSeconds = &secs
	}

	if !resp.Ready {
		resp.Error = "No data in cache"
		respond.WriteJSON(w, r, http.StatusServiceUnavailable, resp)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, resp)
}
