package warehouse

// runs.go exposes the append-only audit trail to the ops API. Rows in
// pipeline_runs are never updated after insertion.

import (
	"context"
	"fmt"
	"time"
)

// RunRecord is one audit row describing a completed pipeline run.
type RunRecord struct {
	RunID        int64     `json:"run_id"`
	RunKey       string    `json:"run_key"`
	SourceKey    string    `json:"source_key"`
	RowsInserted int       `json:"rows_inserted"`
	RowsUpdated  int       `json:"rows_updated"`
	RowsSkipped  int       `json:"rows_skipped"`
	Status       string    `json:"status"`
	FinishedAt   time.Time `json:"finished_at"`
}

// RecentRuns returns up to limit audit rows, newest first. Non-positive
// limits fall back to 50; limits above 500 are capped at 500.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := s.db.Query(ctx, `
		SELECT run_id, run_key, source_key, rows_inserted, rows_updated,
		       rows_skipped, status, finished_at
		FROM pipeline_runs
		ORDER BY run_id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying pipeline runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.RunKey, &r.SourceKey, &r.RowsInserted,
			&r.RowsUpdated, &r.RowsSkipped, &r.Status, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning pipeline run: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pipeline runs: %w", err)
	}

	return records, nil
}
