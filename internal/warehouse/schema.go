// Package warehouse owns all access to the destination Postgres store: the
// idempotent transactional loader, the append-only run audit trail, and the
// run history queries behind the ops API.
package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ddl creates the three destination tables. Statements are idempotent so
// startup can apply them unconditionally.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id      TEXT PRIMARY KEY,
		customer_id   TEXT,
		product       TEXT NOT NULL,
		category      TEXT,
		region        TEXT,
		quantity      BIGINT NOT NULL,
		unit_price    DOUBLE PRECISION NOT NULL,
		discount      DOUBLE PRECISION NOT NULL DEFAULT 0,
		order_date    DATE NOT NULL,
		status        TEXT,
		total_revenue DOUBLE PRECISION NOT NULL,
		ingested_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS purchased_products (
		product             TEXT PRIMARY KEY,
		category            TEXT,
		total_units_sold    BIGINT NOT NULL DEFAULT 0,
		total_revenue       DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_discount        DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_purchased_date DATE,
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS pipeline_runs (
		run_id        BIGSERIAL PRIMARY KEY,
		run_key       TEXT NOT NULL,
		source_key    TEXT NOT NULL,
		rows_inserted INT NOT NULL DEFAULT 0,
		rows_updated  INT NOT NULL DEFAULT 0,
		rows_skipped  INT NOT NULL DEFAULT 0,
		status        TEXT NOT NULL,
		finished_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders (order_date)`,
	`CREATE INDEX IF NOT EXISTS idx_pipeline_runs_finished_at ON pipeline_runs (finished_at DESC)`,
}

// EnsureSchema applies the destination DDL. Safe to run on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying warehouse schema: %w", err)
		}
	}
	return nil
}
