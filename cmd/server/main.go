package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/notifyhub/notify-dispatch/internal/api"
	"github.com/notifyhub/notify-dispatch/internal/api/handler"
	"github.com/notifyhub/notify-dispatch/internal/audit"
	natsbroker "github.com/notifyhub/notify-dispatch/internal/broker/nats"
	"github.com/notifyhub/notify-dispatch/internal/config"
	"github.com/notifyhub/notify-dispatch/internal/db"
	"github.com/notifyhub/notify-dispatch/internal/dispatch"
	"github.com/notifyhub/notify-dispatch/internal/metrics"
	"github.com/notifyhub/notify-dispatch/internal/queue"
	"github.com/notifyhub/notify-dispatch/internal/ratelimiter"
	"github.com/notifyhub/notify-dispatch/internal/repository"
	"github.com/notifyhub/notify-dispatch/internal/service"
	"github.com/notifyhub/notify-dispatch/internal/worker"
)

func newLogger(level string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck

	routing, err := config.LoadRouting(cfg.ProvidersConfigPath)
	if err != nil {
		logger.Fatal("failed to load provider routing", zap.Error(err))
	}

	ctx := context.Background()
	checks := map[string]handler.Check{}

	// ---- audit log storage ----
	var logRepo repository.NotificationLogRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("database migrations applied")

		logRepo = repository.NewPgNotificationLogRepository(pool)
		checks["database"] = pool.Ping
	} else {
		logger.Warn("DATABASE_URL not set, keeping notification logs in memory")
		logRepo = repository.NewMemoryNotificationLogRepository()
	}

	sinks := []audit.Sink{audit.NewLogWriter(logRepo)}
	if cfg.NATSURL != "" {
		pub, err := natsbroker.New(ctx, cfg.NATSURL)
		if err != nil {
			logger.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer pub.Close() //nolint:errcheck
		sinks = append(sinks, audit.NewBrokerSink(pub))
		logger.Info("publishing delivery events to NATS", zap.String("stream", natsbroker.StreamName))
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	registry, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build provider registry", zap.Error(err))
	}

	q := queue.New(cfg.QueueSize)
	limiter := ratelimiter.New(cfg.RateLimit, cfg.RateLimitInterval)
	chain := dispatch.NewProviderChain(routing.Providers, registry, logger)
	emitter := audit.NewEmitter(logger, sinks...)
	handlerCore := dispatch.NewHandler(limiter, chain, emitter, m.DispatchHooks(), logger)

	factory := service.NewFactory(routing, logger)
	svc := service.NewNotificationService(factory, q, logRepo, m.OnQueued, logger)

	// ---- worker pool ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	workers := worker.NewPool(cfg.Workers, q, handlerCore, worker.Options{
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.RetryBackoff,
	}, logger, m.WorkerHooks())
	workers.Start(workerCtx)

	pruneIdle := max(cfg.RateLimitInterval, cfg.LimiterPruneInterval)
	pruner := worker.NewTicker("limiter_prune", cfg.LimiterPruneInterval, func(context.Context) {
		removed := limiter.Prune(pruneIdle)
		m.RateLimiterKeys.Set(float64(limiter.Len()))
		if removed > 0 {
			logger.Debug("pruned idle rate limit buckets", zap.Int("count", removed))
		}
	}, logger)
	go pruner.Run(workerCtx)

	sampler := worker.NewTicker("queue_depth", cfg.QueueSampleInterval, func(context.Context) {
		m.SetQueueDepth(q.Depths())
	}, logger)
	go sampler.Run(workerCtx)

	// ---- HTTP server ----
	router := api.NewRouter(svc, checks, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal all workers to stop taking new queue items.
	cancelWorkers()

	// 3. Wait for in-flight dispatches to finish their provider loop.
	workers.Wait()

	// 4. Drop parked redeliveries; with an in-memory queue they cannot outlive the process.
	if discarded := q.Close(); discarded > 0 {
		logger.Warn("discarded pending redeliveries on shutdown", zap.Int("count", discarded))
	}
	if ready, _ := q.Depths(); ready > 0 {
		logger.Warn("undispatched notifications lost on shutdown", zap.Int("count", ready))
	}

	logger.Info("server stopped cleanly")
}
