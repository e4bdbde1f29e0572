package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/SHUB2205/Aurora-technical-assessment/internal/api/recovery"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Search *SearchHandler
	Stats  *StatsHandler
	Health *HealthHandler
}

// NewRouter creates the HTTP router with all routes and global middlewares.
func NewRouter(h Handlers, log zerolog.Logger) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(hlog.NewHandler(log))
	router.Use(RequestID)
	router.Use(AccessLog())
	router.Use(recovery.Middleware)

	// Health endpoints
	router.HandleFunc("/", h.Health.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health", h.Health.CheckHealth).Methods("GET")
	router.HandleFunc("/readyz", h.Health.CheckReady).Methods("GET")

	// Search & stats
	router.HandleFunc("/search", h.Search.HandleSearch).Methods("GET")
	router.HandleFunc("/stats", h.Stats.HandleStats).Methods("GET")

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}
