// cmd/historian/main.go drains lobby events from Redis into Postgres.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/relay/internal/config"
	"github.com/jason-s-yu/relay/internal/database"
	"github.com/jason-s-yu/relay/internal/events"
	"github.com/jason-s-yu/relay/internal/historian"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg, cfgErr := config.Load()
	logger := cfg.NewLogger()
	if cfgErr != nil {
		logger.WithError(cfgErr).Warn("invalid configuration values replaced with defaults")
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL or PG_HOST must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer pool.Close()

	store := database.NewEventStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("failed to prepare schema")
	}

	rdb, err := events.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer rdb.Close()

	svc := historian.New(rdb, store, historian.Options{
		Queue:         cfg.EventsQueue,
		BatchSize:     cfg.HistorianBatchSize,
		FlushInterval: cfg.HistorianFlush,
		Logger:        logger,
	})
	svc.Run(ctx)
}
