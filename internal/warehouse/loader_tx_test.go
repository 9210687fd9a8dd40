package warehouse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/datakit/salespipe/internal/transform"
)

// The fakes below stub just enough of pgx.Tx to drive LoadBatch through
// its commit and rollback paths. Embedding the interfaces leaves every
// method the loader must not touch panicking if it is ever called.

type boolRow bool

func (r boolRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = bool(r)
	return nil
}

type int64Row int64

func (r int64Row) Scan(dest ...any) error {
	*(dest[0].(*int64)) = int64(r)
	return nil
}

type fakeBatchResults struct {
	pgx.BatchResults
	inserts  []bool
	next     int
	closeErr error
}

func (f *fakeBatchResults) QueryRow() pgx.Row {
	v := f.inserts[f.next]
	f.next++
	return boolRow(v)
}

func (f *fakeBatchResults) Close() error { return f.closeErr }

type fakeTx struct {
	pgx.Tx
	orderInserts []bool
	rollupErr    error
	sendCalls    int
	auditArgs    []any
	committed    bool
	rolledBack   bool
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	t.sendCalls++
	if t.sendCalls == 1 {
		return &fakeBatchResults{inserts: t.orderInserts}
	}
	return &fakeBatchResults{closeErr: t.rollupErr}
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	t.auditArgs = args
	return int64Row(42)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx       *fakeTx
	beginErr error
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.tx, nil
}

func (d *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func sampleOrders(n int) []transform.Order {
	orders := make([]transform.Order, n)
	for i := range orders {
		orders[i] = transform.Order{
			OrderID:      "ORD-" + string(rune('A'+i)),
			Product:      "Laptop Pro 15",
			Category:     "Electronics",
			Quantity:     1,
			UnitPrice:    999.99,
			OrderDate:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			Status:       "completed",
			TotalRevenue: 999.99,
		}
	}
	return orders
}

func sampleRollups() []transform.ProductRollup {
	return []transform.ProductRollup{{
		Product:        "Laptop Pro 15",
		Category:       "Electronics",
		TotalUnitsSold: 3,
		TotalRevenue:   2999.97,
		LastPurchased:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}}
}

func TestLoadBatchCommitsAllThree(t *testing.T) {
	tx := &fakeTx{orderInserts: []bool{true, true, false}}
	store := &Store{db: &fakeDB{tx: tx}, pageSize: 500}

	res, err := store.LoadBatch(context.Background(), sampleOrders(3), sampleRollups(), RunInfo{
		RunKey:      "manual-1",
		SourceKey:   "sales_20240315.csv",
		RowsSkipped: 2,
		Status:      "success",
	})
	if err != nil {
		t.Fatalf("LoadBatch: %v", err)
	}

	if !tx.committed {
		t.Error("transaction was not committed")
	}
	if tx.rolledBack {
		t.Error("transaction rolled back after successful commit")
	}
	if res.RunID != 42 {
		t.Errorf("RunID = %d, want 42", res.RunID)
	}
	if res.RowsInserted != 2 || res.RowsUpdated != 1 {
		t.Errorf("inserted/updated = %d/%d, want 2/1", res.RowsInserted, res.RowsUpdated)
	}

	// The audit row reports the counts the upserts actually produced.
	if len(tx.auditArgs) != 6 {
		t.Fatalf("audit insert got %d args, want 6", len(tx.auditArgs))
	}
	if tx.auditArgs[2] != 2 || tx.auditArgs[3] != 1 || tx.auditArgs[4] != 2 {
		t.Errorf("audit args = %v", tx.auditArgs)
	}
}

func TestLoadBatchRollupFailureRollsBackEverything(t *testing.T) {
	tx := &fakeTx{
		orderInserts: []bool{true, true, true},
		rollupErr:    errors.New("deadlock detected"),
	}
	store := &Store{db: &fakeDB{tx: tx}, pageSize: 500}

	_, err := store.LoadBatch(context.Background(), sampleOrders(3), sampleRollups(), RunInfo{
		RunKey:    "manual-2",
		SourceKey: "sales.csv",
		Status:    "success",
	})
	if err == nil {
		t.Fatal("expected rollup failure to surface")
	}
	if !strings.Contains(err.Error(), "upserting product rollups") {
		t.Errorf("error = %v, want rollup context", err)
	}

	if tx.committed {
		t.Error("transaction committed despite rollup failure")
	}
	if !tx.rolledBack {
		t.Error("transaction was not rolled back")
	}
	if tx.auditArgs != nil {
		t.Error("audit row was inserted despite the failed upsert")
	}
}

func TestLoadBatchBeginFailure(t *testing.T) {
	store := &Store{db: &fakeDB{beginErr: errors.New("connection refused")}, pageSize: 500}

	_, err := store.LoadBatch(context.Background(), sampleOrders(1), nil, RunInfo{Status: "success"})
	if err == nil || !strings.Contains(err.Error(), "beginning load transaction") {
		t.Fatalf("error = %v, want begin failure", err)
	}
}
