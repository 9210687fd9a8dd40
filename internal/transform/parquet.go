package transform

// parquet.go persists a cleaned batch between the transform and load stages.
//
// Parquet is used instead of re-serializing to CSV because the coerced
// types must survive the hand-off exactly: dates stay dates, quantities
// stay integers, and revenue does not pick up text-format rounding drift.

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
)

// WriteIntermediate writes cleaned orders to a parquet file at path.
func WriteIntermediate(path string, orders []Order) error {
	if err := parquet.WriteFile(path, orders); err != nil {
		return fmt.Errorf("writing parquet intermediate %s: %w", path, err)
	}
	return nil
}

// ReadIntermediate loads cleaned orders back from a parquet file.
func ReadIntermediate(path string) ([]Order, error) {
	orders, err := parquet.ReadFile[Order](path)
	if err != nil {
		return nil, fmt.Errorf("reading parquet intermediate %s: %w", path, err)
	}
	return orders, nil
}

// RemoveIntermediate deletes a temporary artifact, tolerating files that
// are already gone. Cleanup is best effort and never fails a run.
func RemoveIntermediate(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Debug("could not remove intermediate artifact", "path", path, "error", err)
	}
}
