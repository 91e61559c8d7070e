// Command migrate bulk-loads the flat-file ticket document into Postgres.
// It is a one-shot tool: read tickets.json, default any missing timestamps,
// replace the tickets table contents.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/tikets-io/tikets/internal/config"
	"github.com/tikets-io/tikets/internal/observability"
	"github.com/tikets-io/tikets/internal/persistence"
	"github.com/tikets-io/tikets/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Postgres.DSN == "" {
		log.Fatal("POSTGRES_DSN is required for migration")
	}

	logger, err := observability.NewLogger(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.EnsureSchema(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	fileStore := store.NewFileStore(cfg.Store.DataFile, logger)
	tickets, err := fileStore.Load(ctx)
	if err != nil {
		logger.Fatal("failed to read tickets file", zap.Error(err))
	}

	now := time.Now()
	for i := range tickets {
		if tickets[i].CreatedAt.IsZero() {
			tickets[i].CreatedAt = now
		}
		if tickets[i].LastModifiedAt.IsZero() {
			tickets[i].LastModifiedAt = tickets[i].CreatedAt
		}
	}

	pgStore := store.NewPostgresStore(pg.PoolHandle())
	if err := pgStore.ReplaceAll(ctx, tickets); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	logger.Info("migration complete",
		zap.String("source", cfg.Store.DataFile),
		zap.Int("tickets", len(tickets)))
}
