package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"

	"github.com/govdesk/govdesk/pkg/api"
	"github.com/govdesk/govdesk/pkg/audit"
	"github.com/govdesk/govdesk/pkg/config"
	"github.com/govdesk/govdesk/pkg/gov"
	"github.com/govdesk/govdesk/pkg/observability"
	"github.com/govdesk/govdesk/pkg/storage"
	"github.com/govdesk/govdesk/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "govdesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting govdesk")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}

	// Database
	pool, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := storage.EnsureSchema(ctx, pool.DB()); err != nil {
		return err
	}
	if metrics != nil {
		pool.StartStatsRoutine(ctx, metrics, 15*time.Second)
	}

	// Cache
	var redisClient *redis.Client
	var cache store.Cache
	if cfg.Storage.CacheEnabled {
		if cfg.Storage.RedisURL != "" {
			redisClient, err = storage.NewRedisClient(ctx, cfg.Storage)
			if err != nil {
				// Redis is an optimization, not a dependency.
				logger.WithError(err).Warn("Redis unavailable, running with in-process cache only")
				redisClient = nil
			}
		}
		tiered, err := storage.NewTieredCache(cfg.Storage, redisClient, logger, metrics)
		if err != nil {
			return err
		}
		cache = tiered
	}

	// Audit trail
	trail, err := audit.NewDBLogger(pool.DB())
	if err != nil {
		return err
	}

	var trailLogger audit.Logger = trail
	if cfg.Audit.FilePath != "" {
		fileLogger, err := audit.NewFileLogger(audit.FileLoggerConfig{
			BasePath: cfg.Audit.FilePath,
			Rotate:   true,
			MaxSize:  cfg.Audit.FileMaxSize,
		})
		if err != nil {
			return fmt.Errorf("failed to open audit file log: %w", err)
		}
		trailLogger = audit.NewMultiLogger(trail, fileLogger)
	}

	sink := audit.NewSink(trailLogger, logger, metrics)

	// Retention
	policy := audit.RetentionPolicy{
		RetentionDays:  cfg.Audit.RetentionDays,
		ArchiveEnabled: cfg.Audit.ArchiveEnabled,
		ArchivePrefix:  cfg.Audit.ArchivePrefix,
	}
	var archiver audit.Archiver
	if cfg.Audit.ArchiveEnabled {
		archiver, err = audit.NewS3Archiver(ctx, cfg.Audit.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize audit archiver: %w", err)
		}
	}
	retention := audit.NewRetentionJob(trail, archiver, policy, logger)
	if err := retention.Start(cfg.Audit.RetentionSchedule); err != nil {
		return fmt.Errorf("failed to start retention job: %w", err)
	}

	// Domain services
	storeOpts := []store.Option{store.WithLogger(logger)}
	if cache != nil {
		storeOpts = append(storeOpts, store.WithCache(cache))
	}
	if metrics != nil {
		storeOpts = append(storeOpts, store.WithMetrics(metrics))
	}
	services, err := gov.NewServices(pool.DB(), sink, storeOpts...)
	if err != nil {
		return err
	}

	// HTTP servers
	serverOpts := []api.ServerOption{}
	if metrics != nil {
		serverOpts = append(serverOpts, api.WithMetrics(metrics))
	}
	if cfg.Observability.OTelEnabled {
		serverOpts = append(serverOpts, api.WithTracing())
	}
	apiServer := api.NewServer(services, trail, logger, serverOpts...)

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	health := observability.NewHealthChecker(pool.DB(), redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", health.Liveness)
	healthMux.HandleFunc("/readyz", health.Readiness)
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		retention.Stop()
		return nil
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return trailLogger.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc(otelProviders.Shutdown)
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("API server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return shutdown.WaitForShutdown()
	})

	return g.Wait()
}
