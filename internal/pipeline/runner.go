// Package pipeline sequences one ETL run: download, validate, transform,
// load, archive.
//
// The package assumes an external scheduler provides retries, back-off and
// the guarantee that at most one run is active at a time. Every stage hands
// an explicit typed result to the next stage; there is no shared mailbox
// between stages. A run either reaches a terminal outcome or returns an
// error for the scheduler to retry whole, which the idempotent loader makes
// safe.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/datakit/salespipe/internal/batch"
	"github.com/datakit/salespipe/internal/logging"
	"github.com/datakit/salespipe/internal/objectstore"
	"github.com/datakit/salespipe/internal/transform"
	"github.com/datakit/salespipe/internal/warehouse"
)

// ObjectStore is the slice of the landing/archive client the runner needs.
type ObjectStore interface {
	NextPending(ctx context.Context) (string, error)
	FetchToFile(ctx context.Context, key, path string) error
	Archive(ctx context.Context, key string) error
}

// Loader is the slice of the warehouse the runner needs.
type Loader interface {
	LoadBatch(ctx context.Context, orders []transform.Order, rollups []transform.ProductRollup, info warehouse.RunInfo) (warehouse.LoadResult, error)
}

// Runner executes pipeline runs.
type Runner struct {
	store   ObjectStore
	loader  Loader
	tempDir string
}

// NewRunner creates a Runner. tempDir may be empty to use the OS default.
func NewRunner(store ObjectStore, loader Loader, tempDir string) *Runner {
	return &Runner{store: store, loader: loader, tempDir: tempDir}
}

// DownloadResult is the typed hand-off from the download stage.
type DownloadResult struct {
	ObjectKey string
	LocalPath string
}

// TransformResult is the typed hand-off from the transform stage.
type TransformResult struct {
	CleanedPath string
	RowsKept    int
	RowsSkipped int
}

// RunResult is the terminal outcome of one pipeline run.
type RunResult struct {
	RunID        int64
	RunKey       string
	ObjectKey    string
	NoOp         bool
	RowsInserted int
	RowsUpdated  int
	RowsSkipped  int
}

// Run executes one complete pipeline run for the next pending batch.
//
// An empty landing zone is a benign no-op, not a failure: the scheduler
// polls again on its next tick. runKey identifies the scheduler execution;
// when empty a fresh identifier is generated.
func (r *Runner) Run(ctx context.Context, runKey string) (RunResult, error) {
	if runKey == "" {
		runKey = uuid.NewString()
	}

	key, err := r.store.NextPending(ctx)
	if err != nil {
		if isNoPending(err) {
			slog.Warn("landing zone empty, nothing to process", "run_key", runKey)
			return RunResult{RunKey: runKey, NoOp: true}, nil
		}
		return RunResult{}, fmt.Errorf("listing landing zone: %w", err)
	}

	log := logging.WithRun(ctx, runKey, key)

	dl, err := r.download(ctx, key)
	if err != nil {
		return RunResult{}, err
	}
	defer removeQuiet(dl.LocalPath)
	log.Info("batch downloaded", "local_path", dl.LocalPath)

	tr, err := r.transform(dl)
	if err != nil {
		return RunResult{}, err
	}
	defer transform.RemoveIntermediate(tr.CleanedPath)
	log.Info("batch transformed", "rows_kept", tr.RowsKept, "rows_skipped", tr.RowsSkipped)

	loaded, err := r.load(ctx, runKey, key, tr)
	if err != nil {
		return RunResult{}, err
	}
	log.Info("batch loaded", "run_id", loaded.RunID, "rows_inserted", loaded.RowsInserted, "rows_updated", loaded.RowsUpdated)

	if err := r.store.Archive(ctx, key); err != nil {
		return RunResult{}, fmt.Errorf("archiving %s: %w", key, err)
	}
	log.Info("batch archived")

	return RunResult{
		RunID:        loaded.RunID,
		RunKey:       runKey,
		ObjectKey:    key,
		RowsInserted: loaded.RowsInserted,
		RowsUpdated:  loaded.RowsUpdated,
		RowsSkipped:  loaded.RowsSkipped,
	}, nil
}

// download fetches the batch into a staging file.
func (r *Runner) download(ctx context.Context, key string) (DownloadResult, error) {
	tmp, err := os.CreateTemp(r.tempDir, "sales_raw_*.csv")
	if err != nil {
		return DownloadResult{}, fmt.Errorf("creating staging file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	if err := r.store.FetchToFile(ctx, key, path); err != nil {
		removeQuiet(path)
		return DownloadResult{}, err
	}

	return DownloadResult{ObjectKey: key, LocalPath: path}, nil
}

// transform validates the batch schema, applies the cleaning rules and
// writes the columnar intermediate for the load stage.
func (r *Runner) transform(dl DownloadResult) (TransformResult, error) {
	f, err := os.Open(dl.LocalPath)
	if err != nil {
		return TransformResult{}, fmt.Errorf("opening staged batch: %w", err)
	}
	raw, err := batch.ReadCSV(f)
	f.Close()
	if err != nil {
		return TransformResult{}, fmt.Errorf("decoding %s: %w", dl.ObjectKey, err)
	}

	cleaned, skipped, err := transform.CleanAndTransform(raw)
	if err != nil {
		return TransformResult{}, fmt.Errorf("transforming %s: %w", dl.ObjectKey, err)
	}

	cleanedPath := strings.TrimSuffix(dl.LocalPath, ".csv") + "_cleaned.parquet"
	if err := transform.WriteIntermediate(cleanedPath, cleaned); err != nil {
		return TransformResult{}, err
	}

	return TransformResult{
		CleanedPath: cleanedPath,
		RowsKept:    len(cleaned),
		RowsSkipped: skipped,
	}, nil
}

// load reloads the cleaned batch from the columnar intermediate, builds the
// product rollups and commits everything in one transaction.
func (r *Runner) load(ctx context.Context, runKey, objectKey string, tr TransformResult) (warehouse.LoadResult, error) {
	orders, err := transform.ReadIntermediate(tr.CleanedPath)
	if err != nil {
		return warehouse.LoadResult{}, err
	}

	rollups := transform.Aggregate(orders)

	result, err := r.loader.LoadBatch(ctx, orders, rollups, warehouse.RunInfo{
		RunKey:      runKey,
		SourceKey:   objectKey,
		RowsSkipped: tr.RowsSkipped,
		Status:      "success",
	})
	if err != nil {
		return warehouse.LoadResult{}, err
	}

	return result, nil
}

func isNoPending(err error) bool {
	return errors.Is(err, objectstore.ErrNoPendingObjects)
}

func removeQuiet(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Debug("could not remove staging file", "path", path, "error", err)
	}
}
