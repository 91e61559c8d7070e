package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// The whole durable schema is one table; messages and attachments live
// inside the row as JSONB, mirroring the flat-file document layout.
const ticketsSchema = `
CREATE TABLE IF NOT EXISTS tickets (
    seq              BIGSERIAL,
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL,
    national_id      TEXT NOT NULL DEFAULT '',
    email            TEXT NOT NULL,
    phone            TEXT NOT NULL DEFAULT '',
    description      TEXT NOT NULL DEFAULT '',
    attachments      JSONB NOT NULL DEFAULT '[]',
    state            TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL,
    last_modified_at TIMESTAMPTZ NOT NULL,
    messages         JSONB NOT NULL DEFAULT '[]'
)`

// EnsureSchema creates the tickets table when it does not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping schema bootstrap")
		return nil
	}
	if _, err := pool.Exec(ctx, ticketsSchema); err != nil {
		return fmt.Errorf("ensure tickets schema: %w", err)
	}
	logger.Info("tickets schema ensured")
	return nil
}
