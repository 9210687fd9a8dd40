// Command pipeline executes one ETL run: it claims the oldest pending batch
// in the landing zone, validates, cleans and aggregates it, loads the result
// into the warehouse and archives the source object. An external scheduler
// (cron, Airflow, systemd timer) invokes it on whatever cadence fits.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/datakit/salespipe/internal/config"
	"github.com/datakit/salespipe/internal/logging"
	"github.com/datakit/salespipe/internal/objectstore"
	"github.com/datakit/salespipe/internal/pipeline"
	"github.com/datakit/salespipe/internal/warehouse"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Pipeline.RunTimeout)
	defer cancel()

	pool, err := connectPool(runCtx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to warehouse", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := warehouse.EnsureSchema(runCtx, pool); err != nil {
		slog.Error("failed to ensure warehouse schema", "error", err)
		os.Exit(1)
	}

	store, err := objectstore.New(cfg.Store)
	if err != nil {
		slog.Error("failed to create object store client", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureBuckets(runCtx); err != nil {
		slog.Error("failed to ensure buckets", "error", err)
		os.Exit(1)
	}

	// An optional argument names the scheduler execution for the audit trail.
	var runKey string
	if len(os.Args) > 1 {
		runKey = os.Args[1]
	}

	runner := pipeline.NewRunner(store, warehouse.New(pool, cfg.Pipeline.UpsertPageSize), cfg.Pipeline.TempDir)

	res, err := runner.Run(runCtx, runKey)
	if err != nil {
		slog.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	if res.NoOp {
		slog.Info("no pending batches, exiting", "run_key", res.RunKey)
		return
	}

	slog.Info("pipeline run complete",
		"run_id", res.RunID,
		"run_key", res.RunKey,
		"object_key", res.ObjectKey,
		"rows_inserted", res.RowsInserted,
		"rows_updated", res.RowsUpdated,
		"rows_skipped", res.RowsSkipped,
	)
}

// connectPool builds the pgx pool from config and verifies connectivity.
func connectPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
