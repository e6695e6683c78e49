package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	// Application
	"github.com/careoptions/rcm-dashboard/internal/application/port"

	// Infrastructure
	"github.com/careoptions/rcm-dashboard/internal/infrastructure/assets"
	rediscache "github.com/careoptions/rcm-dashboard/internal/infrastructure/cache/redis"
	natsmessaging "github.com/careoptions/rcm-dashboard/internal/infrastructure/messaging/nats"
	"github.com/careoptions/rcm-dashboard/internal/infrastructure/metrics"
	"github.com/careoptions/rcm-dashboard/internal/infrastructure/observability/cloudwatch"
	"github.com/careoptions/rcm-dashboard/internal/infrastructure/watcher"

	// Interfaces
	httpInterface "github.com/careoptions/rcm-dashboard/internal/interfaces/http"
	"github.com/careoptions/rcm-dashboard/internal/interfaces/http/handler"
	"github.com/careoptions/rcm-dashboard/internal/interfaces/http/middleware"

	// Shared
	"github.com/careoptions/rcm-dashboard/pkg/config"
	"github.com/careoptions/rcm-dashboard/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard assets and API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Logger
	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info("Starting RCM Dashboard", "version", handler.ServiceVersion)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Log shipping
	if cfg.CloudWatch.LogsEnabled {
		logsPublisher, err := cloudwatch.NewLogsPublisher(ctx, cloudwatch.LogsPublisherConfig{
			LogGroupName:    cfg.CloudWatch.LogGroupName,
			LogStreamName:   cfg.CloudWatch.LogStreamName,
			Region:          cfg.CloudWatch.Region,
			Endpoint:        cfg.CloudWatch.Endpoint,
			AccessKeyID:     cfg.CloudWatch.AccessKeyID,
			SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
			BufferSize:      cfg.CloudWatch.LogsBufferSize,
			FlushInterval:   cfg.CloudWatch.LogsFlushInterval,
			AutoCreate:      true,
		})
		if err != nil {
			log.Error("Failed to initialize CloudWatch Logs, continuing with stdout only", err)
		} else {
			log.SetLogPublisher(logsPublisher)
			defer func() {
				log.SetLogPublisher(nil)
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = logsPublisher.Close(closeCtx)
			}()
			log.Info("CloudWatch Logs enabled", "group", cfg.CloudWatch.LogGroupName)
		}
	}

	// 4. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// 5. Asset source
	source, err := openAssetSource(ctx, cfg)
	if err != nil {
		log.Error("Failed to open asset source", err, "source", cfg.Assets.Source)
		return err
	}
	log.Info("Asset source ready", "source", cfg.Assets.Source, "root", cfg.Assets.Root, "bucket", cfg.S3.Bucket)

	var (
		fsys     fs.FS = source
		cachedFS *assets.CachedFS
	)
	if cfg.Redis.Enabled {
		cache, err := rediscache.NewRedisCache(rediscache.Options{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			TTL:          cfg.Redis.TTL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("Redis unavailable, serving assets without cache", "error", err.Error())
		} else {
			defer cache.Close()
			cachedFS = assets.NewCachedFS(source, cache, assets.CachedFSOptions{
				OnHit:  m.AssetCacheHits.Inc,
				OnMiss: m.AssetCacheMisses.Inc,
			}, log)
			fsys = cachedFS
			log.Info("Asset cache enabled", "ttl", cfg.Redis.TTL.String())
		}
	}

	// 6. Manifest and readiness
	// readiness follows the source, never the cache
	manifest := assets.NewManifest(source, cfg.Assets.RequiredFiles, log)
	manifest.OnRefresh(func(missing []string) {
		m.AssetsMissing.Set(float64(len(missing)))
	})
	manifest.Refresh()
	go manifest.Start(ctx, cfg.Assets.RefreshInterval)

	// 7. Change events
	var events port.EventPublisher
	if cfg.NATS.Enabled {
		publisher, err := natsmessaging.NewNATSPublisher(cfg.NATS.URL, log)
		if err != nil {
			log.Warn("NATS unavailable, asset change events disabled", "error", err.Error())
		} else {
			defer publisher.Close()
			events = publisher
		}
	}

	if cfg.Assets.Watch {
		if cfg.Assets.Source != config.AssetSourceDisk {
			log.Warn("ASSETS_WATCH only applies to the disk source, ignoring", "source", cfg.Assets.Source)
		} else {
			// a nil *CachedFS must not reach the interface
			var cache invalidator
			if cachedFS != nil {
				cache = cachedFS
			}
			syncer := newAssetSync(manifest, cache, events, cfg.NATS.Subject, m.AssetChanges, log)

			w, err := watcher.New()
			if err != nil {
				log.Error("Failed to create asset watcher", err)
				return err
			}
			defer w.Stop()

			err = w.Watch(cfg.Assets.Root,
				func(change watcher.Change) { syncer.Handle(ctx, change) },
				func(err error) { log.Warn("Asset watcher error", "error", err.Error()) },
			)
			if err != nil {
				log.Error("Failed to watch asset root", err, "root", cfg.Assets.Root)
				return err
			}
			log.Info("Watching asset root", "root", cfg.Assets.Root)
		}
	}

	// 8. HTTP handlers and router
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		trusted, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
		if err != nil {
			log.Error("Invalid RATE_LIMIT_TRUSTED_PROXIES", err)
			return err
		}
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		limiter.TrustProxies(trusted)
		defer limiter.Stop()
	}

	router := httpInterface.NewRouter(
		handler.NewHealthHandler(),
		handler.NewDataHandler(),
		handler.NewProbeHandler(manifest),
		handler.NewStaticHandler(fsys, cfg.Assets.CacheMaxAge, log),
		httpInterface.RouterOptions{
			Compression: cfg.Compression.Enabled,
			RateLimiter: limiter,
			Metrics:     m,
		},
		log,
	)

	// 9. HTTP server
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		log.Info("Dashboard available at http://localhost:" + cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 10. Graceful shutdown
	select {
	case err, ok := <-serverErr:
		if ok {
			log.Error("HTTP server failed", err)
			return err
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received, starting graceful shutdown...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
		return err
	}

	log.Info("Server stopped gracefully")
	return nil
}
