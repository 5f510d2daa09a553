/**
 * @description
 * Idempotent schema bootstrap for the gym plan catalog.
 */
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS gym_plans (
    id UUID PRIMARY KEY,
    gym_id TEXT NOT NULL,
    title TEXT NOT NULL,
    price BIGINT NOT NULL,
    duration INT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_gym_plans_gym_id ON gym_plans (gym_id);
`

// EnsureSchema creates the catalog tables if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schemaDDL)
	return err
}
