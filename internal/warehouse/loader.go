package warehouse

// loader.go implements the idempotent load stage: order upsert, product
// rollup upsert, and the audit row, all inside one transaction. Any failure
// rolls back all three together; the external scheduler retries the whole
// run, and upsert-on-conflict makes the retry safe.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datakit/salespipe/internal/transform"
)

// upsertOrderSQL overwrites every mutable field on conflict and refreshes
// the ingestion timestamp. The xmax = 0 check distinguishes a fresh insert
// from a conflict update so the audit row can report the two separately.
const upsertOrderSQL = `
	INSERT INTO orders (
		order_id, customer_id, product, category, region,
		quantity, unit_price, discount, order_date, status, total_revenue
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (order_id) DO UPDATE SET
		customer_id   = EXCLUDED.customer_id,
		product       = EXCLUDED.product,
		category      = EXCLUDED.category,
		region        = EXCLUDED.region,
		quantity      = EXCLUDED.quantity,
		unit_price    = EXCLUDED.unit_price,
		discount      = EXCLUDED.discount,
		order_date    = EXCLUDED.order_date,
		status        = EXCLUDED.status,
		total_revenue = EXCLUDED.total_revenue,
		ingested_at   = now()
	RETURNING (xmax = 0) AS inserted`

// upsertRollupSQL accumulates units and revenue additively across runs;
// avg_discount is replaced by the incoming batch mean and the last
// purchased date takes the running maximum.
const upsertRollupSQL = `
	INSERT INTO purchased_products (
		product, category, total_units_sold, total_revenue,
		avg_discount, last_purchased_date, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, now())
	ON CONFLICT (product) DO UPDATE SET
		category            = EXCLUDED.category,
		total_units_sold    = purchased_products.total_units_sold + EXCLUDED.total_units_sold,
		total_revenue       = purchased_products.total_revenue    + EXCLUDED.total_revenue,
		avg_discount        = EXCLUDED.avg_discount,
		last_purchased_date = GREATEST(purchased_products.last_purchased_date, EXCLUDED.last_purchased_date),
		updated_at          = now()`

const insertRunSQL = `
	INSERT INTO pipeline_runs (run_key, source_key, rows_inserted, rows_updated, rows_skipped, status, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, now())
	RETURNING run_id`

// DB is the slice of the connection pool the store uses. Splitting it out
// lets the load transaction be exercised with a fake Tx, without a live
// database.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store provides warehouse access for the load stage and the ops API.
type Store struct {
	db       DB
	pageSize int
}

// New creates a Store. pageSize bounds how many upserts are queued per
// database round trip.
func New(pool *pgxpool.Pool, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Store{db: pool, pageSize: pageSize}
}

// RunInfo describes the run being recorded in the audit trail.
type RunInfo struct {
	RunKey      string // execution identifier from the external scheduler
	SourceKey   string // object key of the batch that was processed
	RowsSkipped int    // rows dropped during cleaning
	Status      string
}

// LoadResult reports what one load transaction committed.
type LoadResult struct {
	RunID        int64
	RowsInserted int
	RowsUpdated  int
	RowsSkipped  int
}

// LoadBatch upserts cleaned orders and product rollups and appends the
// audit row, all in a single transaction. On any error nothing persists:
// no orders without their audit row, no audit row without its orders.
func (s *Store) LoadBatch(ctx context.Context, orders []transform.Order, rollups []transform.ProductRollup, info RunInfo) (LoadResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return LoadResult{}, fmt.Errorf("beginning load transaction: %w", err)
	}
	// No-op once Commit succeeds; guarantees release on every exit path.
	defer tx.Rollback(ctx)

	inserted, updated, err := s.upsertOrders(ctx, tx, orders)
	if err != nil {
		return LoadResult{}, fmt.Errorf("upserting orders: %w", err)
	}

	if err := s.upsertRollups(ctx, tx, rollups); err != nil {
		return LoadResult{}, fmt.Errorf("upserting product rollups: %w", err)
	}

	var runID int64
	err = tx.QueryRow(ctx, insertRunSQL,
		info.RunKey, info.SourceKey, inserted, updated, info.RowsSkipped, info.Status,
	).Scan(&runID)
	if err != nil {
		return LoadResult{}, fmt.Errorf("recording pipeline run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return LoadResult{}, fmt.Errorf("committing load transaction: %w", err)
	}

	slog.Info("load committed",
		"run_id", runID,
		"rows_inserted", inserted,
		"rows_updated", updated,
		"rows_skipped", info.RowsSkipped,
		"rollups", len(rollups),
	)

	return LoadResult{
		RunID:        runID,
		RowsInserted: inserted,
		RowsUpdated:  updated,
		RowsSkipped:  info.RowsSkipped,
	}, nil
}

// upsertOrders pages the order upserts through pgx batches and counts
// inserts and conflict updates separately.
func (s *Store) upsertOrders(ctx context.Context, tx pgx.Tx, orders []transform.Order) (inserted, updated int, err error) {
	for _, page := range pages(orders, s.pageSize) {
		b := &pgx.Batch{}
		for _, o := range page {
			b.Queue(upsertOrderSQL,
				o.OrderID, o.CustomerID, o.Product, o.Category, o.Region,
				o.Quantity, o.UnitPrice, o.Discount, o.OrderDate, o.Status, o.TotalRevenue,
			)
		}

		br := tx.SendBatch(ctx, b)
		for range page {
			var wasInsert bool
			if scanErr := br.QueryRow().Scan(&wasInsert); scanErr != nil {
				br.Close()
				return 0, 0, scanErr
			}
			if wasInsert {
				inserted++
			} else {
				updated++
			}
		}
		if closeErr := br.Close(); closeErr != nil {
			return 0, 0, closeErr
		}
	}
	return inserted, updated, nil
}

func (s *Store) upsertRollups(ctx context.Context, tx pgx.Tx, rollups []transform.ProductRollup) error {
	for _, page := range pages(rollups, s.pageSize) {
		b := &pgx.Batch{}
		for _, r := range page {
			b.Queue(upsertRollupSQL,
				r.Product, r.Category, r.TotalUnitsSold, r.TotalRevenue,
				r.AvgDiscount, r.LastPurchased,
			)
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return err
		}
	}
	return nil
}

// pages splits items into chunks of at most size elements.
func pages[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
