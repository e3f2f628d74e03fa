package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"pwreset/internal/platform/config"
	"pwreset/internal/platform/logger"
	"pwreset/pkg/platform/audit/consumer"
	auditpostgres "pwreset/pkg/platform/audit/store/postgres"
)

// main copies the Kafka audit topic into Postgres so the trail stays
// queryable when the server streams audit events to Kafka.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "auditsink:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.DatabaseURL == "" {
		return errors.New("PWRESET_DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	store := auditpostgres.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	c, err := consumer.New(cfg.Audit.KafkaBrokers, cfg.Audit.Topic, cfg.Audit.ConsumerGroup,
		consumer.NewHandler(store, log), log)
	if err != nil {
		return err
	}
	defer c.Close()

	log.Info("materializing audit events",
		"topic", cfg.Audit.Topic,
		"group", cfg.Audit.ConsumerGroup,
	)
	if err := c.Run(ctx); err != nil {
		return err
	}
	log.Info("audit sink stopped")
	return nil
}
