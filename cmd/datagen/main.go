// Command datagen uploads a synthetic sales batch to the landing zone so the
// pipeline has something to process in development environments.
package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/datakit/salespipe/internal/config"
	"github.com/datakit/salespipe/internal/datagen"
	"github.com/datakit/salespipe/internal/logging"
	"github.com/datakit/salespipe/internal/objectstore"
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

	slog.Info("starting data generator",
		"rows", cfg.Generator.Rows,
		"seed", cfg.Generator.Seed,
	)

	rows := datagen.New(cfg.Generator.Seed).Rows(cfg.Generator.Rows)
	data, err := datagen.CSV(rows)
	if err != nil {
		slog.Error("failed to serialize batch", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := objectstore.New(cfg.Store)
	if err != nil {
		slog.Error("failed to create object store client", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureBuckets(ctx); err != nil {
		slog.Error("failed to ensure buckets", "error", err)
		os.Exit(1)
	}

	key := datagen.ObjectKey(time.Now())
	if err := store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "text/csv"); err != nil {
		slog.Error("failed to upload batch", "error", err)
		os.Exit(1)
	}

	slog.Info("batch uploaded",
		"object_key", key,
		"rows", len(rows),
		"bytes", len(data),
		"bucket", cfg.Store.LandingBucket,
	)
}
