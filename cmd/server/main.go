package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"pwreset/internal/password"
	"pwreset/internal/password/adapters"
	passwordhandler "pwreset/internal/password/handler"
	passwordmetrics "pwreset/internal/password/metrics"
	"pwreset/internal/password/ports"
	"pwreset/internal/password/service"
	"pwreset/internal/platform/config"
	"pwreset/internal/platform/httpserver"
	"pwreset/internal/platform/logger"
	"pwreset/internal/platform/metrics"
	"pwreset/internal/platform/redis"
	ratelimitmetrics "pwreset/internal/ratelimit/metrics"
	ratelimit "pwreset/internal/ratelimit/middleware"
	"pwreset/internal/ratelimit/models"
	"pwreset/internal/ratelimit/store/bucket"
	"pwreset/internal/resettoken"
	httptransport "pwreset/internal/transport/http"
	audit "pwreset/pkg/platform/audit"
	"pwreset/pkg/platform/audit/publisher"
	auditkafka "pwreset/pkg/platform/audit/store/kafka"
	auditmemory "pwreset/pkg/platform/audit/store/memory"
	auditpostgres "pwreset/pkg/platform/audit/store/postgres"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pwreset:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.UsesDevTokenKey() {
		log.Warn("using development reset token key; set PWRESET_TOKEN_KEY")
	}

	engine, err := password.New(cfg.Policy)
	if err != nil {
		return err
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	checks := map[string]func(context.Context) error{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pool, err := openPostgres(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
		defer pool.Close()
	}
	credentials, err := buildCredentials(startupCtx, pool, log)
	if err != nil {
		return err
	}

	redisClient, err := redis.New(startupCtx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("failed to close redis", "error", err)
			}
		}()
	} else {
		log.Info("PWRESET_REDIS_URL not set; token ledger and rate limits are per process")
	}
	ledger := buildLedger(redisClient)
	limiter, sweeper, err := buildRateLimiter(cfg, redisClient, log, reg)
	if err != nil {
		return err
	}

	auditStore, closeAuditStore, err := buildAuditStore(startupCtx, cfg, pool, log, checks)
	if err != nil {
		return err
	}
	defer closeAuditStore()
	auditor := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		publisher.WithLogger(log),
	)
	// Drain queued events before the stores close.
	defer auditor.Close()

	svc, err := service.New(engine, credentials,
		service.WithLogger(log),
		service.WithMetrics(passwordmetrics.NewWithRegistry(reg)),
		service.WithHashCost(cfg.BcryptCost),
		service.WithTokenLedger(ledger),
		service.WithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	tokens := resettoken.NewService(cfg.TokenKey, cfg.TokenIssuer, cfg.TokenAudience)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Password:       passwordhandler.New(svc, log),
		Tokens:         resettoken.NewHandler(tokens, log, resettoken.WithAuditPublisher(auditor)),
		TokenValidator: resettoken.NewMiddlewareAdapter(tokens),
		TrustedProxies: cfg.TrustedProxies,
		RateLimiter:    limiter,
		AdminToken:     cfg.AdminToken,
		AuditLog:       auditor,
		Checks:         checks,
	})
	srv := httpserver.New(cfg.Addr, router, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting pwreset",
			"addr", cfg.Addr,
			"min_length", cfg.Policy.MinLength,
			"max_length", cfg.Policy.MaxLength,
			"required_criteria", cfg.Policy.RequiredCriteria,
			"require_length", cfg.Policy.RequireLength,
			"admin_enabled", cfg.AdminToken != "",
			"postgres", cfg.DatabaseURL != "",
			"redis", cfg.Redis.URL != "",
			"kafka", len(cfg.Audit.KafkaBrokers) > 0,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	if sweeper != nil {
		g.Go(func() error {
			sweepBuckets(gctx, sweeper, cfg.RateLimit.Window)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// openPostgres returns nil when no database is configured.
func openPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// buildCredentials stores hashes in Postgres when a pool is available and in
// memory otherwise.
func buildCredentials(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) (ports.CredentialWriter, error) {
	if pool == nil {
		log.Warn("PWRESET_DATABASE_URL not set; credentials are kept in memory")
		return adapters.NewMemoryCredentials(), nil
	}
	store := adapters.NewPostgresCredentials(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// buildLedger shares consumed token IDs through Redis when configured, so a
// token cannot be replayed against another replica.
func buildLedger(client *redis.Client) ports.TokenLedger {
	if client == nil {
		return adapters.NewMemoryLedger()
	}
	return adapters.NewRedisLedger(client.Client)
}

// buildRateLimiter returns the in-memory store as the sweeper when buckets are
// kept in process.
func buildRateLimiter(cfg config.Server, client *redis.Client, log *slog.Logger, reg prometheus.Registerer) (*ratelimit.Middleware, *bucket.InMemoryBucketStore, error) {
	var (
		store   ratelimit.BucketStore
		sweeper *bucket.InMemoryBucketStore
	)
	if client != nil {
		store = bucket.NewRedisBucketStore(client.Client)
	} else {
		sweeper = bucket.NewInMemoryBucketStore()
		store = sweeper
	}

	window := cfg.RateLimit.Window
	limiter, err := ratelimit.New(store, log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithMetrics(ratelimitmetrics.New(reg)),
		ratelimit.WithLimit(models.ClassReset, models.Limit{Requests: cfg.RateLimit.Reset, Window: window}),
		ratelimit.WithLimit(models.ClassEvaluate, models.Limit{Requests: cfg.RateLimit.Evaluate, Window: window}),
		ratelimit.WithLimit(models.ClassAdmin, models.Limit{Requests: cfg.RateLimit.Admin, Window: window}),
	)
	if err != nil {
		return nil, nil, err
	}
	return limiter, sweeper, nil
}

func sweepBuckets(ctx context.Context, store *bucket.InMemoryBucketStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep()
		}
	}
}

// buildAuditStore streams audit events to Kafka when brokers are configured,
// else keeps them in Postgres, else in memory. Kafka is write-only, so the
// admin listing is unavailable in that mode.
func buildAuditStore(ctx context.Context, cfg config.Server, pool *pgxpool.Pool, log *slog.Logger, checks map[string]func(context.Context) error) (audit.Store, func(), error) {
	switch {
	case len(cfg.Audit.KafkaBrokers) > 0:
		store, err := auditkafka.New(cfg.Audit.KafkaBrokers, cfg.Audit.Topic)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureTopic(ctx, 3, 1); err != nil {
			store.Close()
			return nil, nil, err
		}
		log.Info("streaming audit events to kafka", "topic", cfg.Audit.Topic)
		checks["kafka"] = store.Ping
		return store, store.Close, nil
	case pool != nil:
		store := auditpostgres.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
}
