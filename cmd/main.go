package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/pitwall/internal/adapters/artifact"
	"github.com/okian/pitwall/internal/adapters/ergast"
	"github.com/okian/pitwall/internal/adapters/http/api"
	"github.com/okian/pitwall/internal/adapters/http/swagger"
	service "github.com/okian/pitwall/internal/app"
	"github.com/okian/pitwall/internal/config"
	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 15 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	retryDelay                = 250 * time.Millisecond
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// buildService wires the artifact sources and the results client into a
// service configured from cfg. The service is not started.
func buildService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	averaging, err := aggregate.ParseAveraging(cfg.ErrorAveraging)
	if err != nil {
		return nil, err
	}
	kind, err := model.ParseModelKind(cfg.DefaultModel)
	if err != nil {
		return nil, err
	}
	actual, err := service.ParseActualResults(cfg.ActualResults)
	if err != nil {
		return nil, err
	}

	retries := uint(max(cfg.ErgastRetries, 1)) //nolint:gosec // validated positive
	predictions, err := artifact.NewSource(cfg.PredictionsSource, artifact.WithRetry(retries, retryDelay))
	if err != nil {
		return nil, fmt.Errorf("predictions source: %w", err)
	}

	standings := ergast.New(
		ergast.WithBaseURL(cfg.ErgastBaseURL),
		ergast.WithTimeout(cfg.ErgastTimeout()),
		ergast.WithRateLimit(cfg.ErgastRatePerS),
		ergast.WithRetry(retries, retryDelay),
		ergast.WithCacheTTL(cfg.StandingsTTL()),
		ergast.WithLogger(log.Named("ergast")),
	)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithPredictionsLoader(predictions),
		service.WithStandingsSource(standings),
		service.WithRefreshInterval(cfg.RefreshInterval()),
		service.WithQueueSize(cfg.RefreshQueueSize),
		service.WithPointsTable(cfg.PointsTable),
		service.WithAveraging(averaging),
		service.WithDefaultModel(kind),
		service.WithActualResults(actual),
		service.WithSimulationSeed(cfg.SimulationSeed),
		service.WithDriverAliases(cfg.DriverAliases),
	}
	if cfg.ErrorsSource != "" {
		errSrc, err := artifact.NewSource(cfg.ErrorsSource, artifact.WithRetry(retries, retryDelay))
		if err != nil {
			return nil, fmt.Errorf("errors source: %w", err)
		}
		opts = append(opts, service.WithErrorSeriesLoader(errSrc))
	}
	return service.New(opts...), nil
}

// newMux registers the API and the documentation routes.
func newMux(ctx context.Context, svc *service.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithMaxDriversLimit(cfg.MaxDriversLimit)).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that refreshes
// the queue gauge from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateRefreshQueueSize(queueLen)
	}
}
