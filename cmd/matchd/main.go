package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/drforse/match/internal/api"
	"github.com/drforse/match/internal/fetch"
	"github.com/drforse/match/internal/health"
	"github.com/drforse/match/internal/index"
	"github.com/drforse/match/internal/limiter"
	"github.com/drforse/match/internal/logging"
	"github.com/drforse/match/internal/service"
	"github.com/drforse/match/internal/signature"
)

const snapshotFile = "index.parquet"

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if err := envconfig.Process("", &cfg); err != nil {
		panic("failed to parse environment: " + err.Error())
	}
	if err := ValidateConfig(&cfg); err != nil {
		panic("invalid configuration: " + err.Error())
	}

	logger, err := logging.NewLogger(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer logger.Sync() //nolint:errcheck // stdout sync can fail on some platforms

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
		return err
	}
	snapshotPath := filepath.Join(cfg.DataPath, snapshotFile)

	store := index.NewMemory(logger)

	checks := health.NewManager(logger)
	checks.Register(health.IndexChecker{Store: store})
	checks.Register(health.DataDirChecker{Path: cfg.DataPath})

	go func() {
		logger.Info("starting metrics server", zap.String("address", cfg.MetricsAddr))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/healthz", checks.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	if err := store.LoadSnapshot(snapshotPath); err != nil {
		// A corrupt snapshot should not keep the service down; start empty.
		logger.Warn("failed to load snapshot, starting with an empty index",
			zap.String("path", snapshotPath), zap.Error(err))
	}

	engine := signature.NewEngine()
	fetcher := fetch.New(cfg.FetchTimeout, cfg.MaxUploadBytes)
	svcCfg := service.Config{
		DefaultMinScore: cfg.DefaultMinScore,
		AllOrientations: cfg.AllOrientations,
	}

	srv := api.New(
		api.Config{AuthToken: cfg.AuthToken, MaxUploadBytes: cfg.MaxUploadBytes},
		service.NewRegistry(store, engine, fetcher, logger),
		service.NewSearcher(store, engine, fetcher, svcCfg, logger),
		service.NewComparer(engine, fetcher),
		service.NewEnumerator(store),
		limiter.New(limiter.Config{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}),
		logger)

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.SnapshotInterval > 0 {
		go snapshotLoop(ctx, store, snapshotPath, cfg.SnapshotInterval, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", cfg.ListenAddr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http shutdown failed", zap.Error(err))
	}

	if err := store.SaveSnapshot(snapshotPath); err != nil {
		logger.Error("final snapshot failed", zap.Error(err))
		return err
	}
	return nil
}

// snapshotLoop persists the index on a fixed interval until ctx is cancelled.
func snapshotLoop(ctx context.Context, store *index.Memory, path string, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.SaveSnapshot(path); err != nil {
				logger.Error("periodic snapshot failed", zap.Error(err))
			}
		}
	}
}
