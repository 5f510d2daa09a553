/**
 * @description
 * Idempotent schema bootstrap for the trainer session catalog.
 */
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS trainer_sessions (
    id UUID PRIMARY KEY,
    trainer_id TEXT NOT NULL,
    title TEXT NOT NULL,
    price BIGINT NOT NULL,
    starts_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_trainer_sessions_trainer_id ON trainer_sessions (trainer_id);
`

// EnsureSchema creates the catalog tables if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schemaDDL)
	return err
}
