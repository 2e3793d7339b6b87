// Package chatservice wires the chat backend together and runs the HTTP
// server: config, durable store, Redis fast tier, search index, Gemini
// client, background maintenance tasks and health checking.
package chatservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/foodiary/foodiary-chat/internal/api"
	"github.com/foodiary/foodiary-chat/internal/bot"
	"github.com/foodiary/foodiary-chat/internal/config"
	"github.com/foodiary/foodiary-chat/internal/factory"
	"github.com/foodiary/foodiary-chat/internal/genai/gemini"
	"github.com/foodiary/foodiary-chat/internal/health"
	"github.com/foodiary/foodiary-chat/internal/history"
	"github.com/foodiary/foodiary-chat/internal/logger"
	"github.com/foodiary/foodiary-chat/internal/searchindex"
	"github.com/foodiary/foodiary-chat/internal/store"
	"github.com/foodiary/foodiary-chat/internal/telemetry"
)

// Run starts the chat service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("chat-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("redis_addr", cfg.RedisAddr).
		Str("search_index_url", cfg.SearchIndexURL).
		Str("gen_model", cfg.GenModel).
		Msg("Chat service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close(log)

	// Background maintenance: expiry reconciliation + capacity eviction.
	reconciler := history.NewReconciler(deps.fastTier, deps.activity, log)
	evictor := history.NewEvictor(deps.manager, cfg.EvictionInterval, log)
	go func() { _ = reconciler.Run(ctx) }()
	go func() { _ = evictor.Run(ctx) }()

	router := api.NewRouter(deps.bot, deps.manager, deps.metrics, cfg.AllowedOrigins, log)

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, cfg, log, deps)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		// Join in-flight durable appends and backfills before closing stores.
		deps.manager.Wait()
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// dependencies bundles everything initDependencies constructs.
type dependencies struct {
	rdb      *redis.Client
	fastTier *history.RedisFastTier
	activity *history.RedisActivityIndex
	durable  store.Store
	manager  *history.Manager
	index    searchindex.Index
	gemini   *gemini.Client
	bot      *bot.Bot
	metrics  *telemetry.Publisher
}

func (d *dependencies) close(log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.durable.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("durable store close failed")
	}
	if err := d.rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	durable, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Durable store unavailable")
		return nil, err
	}

	idx, err := factory.NewSearchIndex(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Search index adapter unavailable")
		return nil, err
	}

	gem, err := factory.NewGemini(cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Gemini client unavailable")
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	fastTier := history.NewRedisFastTier(rdb, cfg.MaxRecordCount, cfg.HistoryTTL, log)
	activity := history.NewRedisActivityIndex(rdb)
	manager := history.NewManager(fastTier, activity, durable, history.ManagerConfig{
		MaxRecordCount: cfg.MaxRecordCount,
		MaxUserCount:   cfg.MaxUserCount,
		SyncDurability: cfg.DurabilityMode == "sync",
	}, log)

	metrics := telemetry.NewDisabled()
	if cfg.MetricsEnabled {
		metrics, err = telemetry.New(ctx, cfg.AWSRegion, cfg.MetricsNamespace, log)
		if err != nil {
			log.Error().Stack().Err(err).Msg("CloudWatch publisher unavailable")
			return nil, err
		}
	}

	b := bot.New(gem, gem, idx, manager, cfg.DefaultLanguage, log)

	return &dependencies{
		rdb:      rdb,
		fastTier: fastTier,
		activity: activity,
		durable:  durable,
		manager:  manager,
		index:    idx,
		gemini:   gem,
		bot:      b,
		metrics:  metrics,
	}, nil
}

// startHealthCheckers starts component checkers and service-level aggregator; binds health.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, deps *dependencies) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	var checkers []health.HealthChecker

	redisChecker := health.NewPingChecker("fast-tier", deps.fastTier, log, probeTimeout)
	go redisChecker.Start(ctx, interval)
	checkers = append(checkers, redisChecker)

	storeChecker := store.NewStoreHealthChecker(deps.durable, log, probeTimeout)
	go storeChecker.Start(ctx, interval)
	checkers = append(checkers, storeChecker)

	idxChecker := health.NewPingChecker("search-index", deps.index, log, probeTimeout)
	go idxChecker.Start(ctx, interval)
	checkers = append(checkers, idxChecker)

	genChecker := health.NewPingChecker("gemini", deps.gemini, log, probeTimeout)
	go genChecker.Start(ctx, interval)
	checkers = append(checkers, genChecker)

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Checkers start unhealthy and need a probe cycle to flip.
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
