package searchservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/SHUB2205/Aurora-technical-assessment/internal/api"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/config"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/corpus"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/health"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/logger"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/refresh"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/search"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/upstream"
)

const serviceName = "message-search"

// Run starts the search service and blocks until shutdown or error.
func Run() error {
	cfg, err := config.New()
	if err != nil {
		l := logger.New(serviceName)
		l.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log := logger.NewWithWriter(os.Stdout, serviceName, cfg.LogLevel)

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	return Serve(ctx, cfg, log)
}

// Serve runs the refresher, health checkers and HTTP server until ctx is
// canceled or one of them fails.
func Serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Str("upstream_url", cfg.UpstreamURL).
		Dur("refresh_interval", cfg.RefreshInterval()).
		Msg("Search service starting")

	store := corpus.NewStore()
	client := upstream.New(upstream.Config{
		BaseURL:    cfg.UpstreamURL,
		Timeout:    cfg.UpstreamTimeout(),
		PageLimit:  cfg.UpstreamPageLimit,
		MaxRetries: cfg.UpstreamMaxRetries,
	}, log)
	scheduler := refresh.NewScheduler(store, client, refresh.Config{
		Interval:          cfg.RefreshInterval(),
		FetchTimeout:      cfg.FetchTimeout(),
		EagerInitialFetch: cfg.EagerInitialFetch,
	}, log)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	svcHealth := startHealthCheckers(ctx, g, cfg, log, store, client)

	if cfg.WaitReadySeconds > 0 {
		timeout := time.Duration(cfg.WaitReadySeconds) * time.Second
		if err := refresh.WaitReady(ctx, store, timeout); err != nil {
			// Serving continues; searches answer "not ready" until a refresh lands.
			log.Warn().Err(err).Dur("timeout", timeout).Msg("corpus not ready at startup")
		}
	}

	engine := search.NewEngine(store, search.Options{
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
		Strict:          cfg.StrictPageSize,
	})
	router := api.NewRouter(api.Handlers{
		Search: api.NewSearchHandler(engine, strconv.Itoa(cfg.RefreshIntervalSeconds)),
		Stats:  api.NewStatsHandler(store, cfg.CacheTTL()),
		Health: api.NewHealthHandler(serviceName, store, svcHealth, cfg.CacheTTL()),
	}, log)

	server := newHTTPServer(ctx, cfg, api.WithCORS(router, cfg.CORSAllowedOrigins))

	g.Go(func() error {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown on context cancel or component failure
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Stack().Err(err).Msg("Search service failed")
		return err
	}
	log.Info().Msg("Server exited")
	return nil
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, g *errgroup.Group, cfg *config.Config, log zerolog.Logger, store *corpus.Store, client *upstream.Client) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	corpusChecker := corpus.NewHealthChecker(store, cfg.HealthMaxFailures, log)
	upstreamChecker := upstream.NewHealthChecker(client, log, probeTimeout)

	// The upstream is reported but does not take the service down: a stale
	// corpus is still served while it is unreachable.
	svcHealth := health.NewServiceHealthChecker(log, corpusChecker).WithOptional(upstreamChecker)

	for _, c := range []health.HealthChecker{corpusChecker, upstreamChecker, svcHealth} {
		c := c
		g.Go(func() error {
			c.Start(ctx, interval)
			return nil
		})
	}
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
