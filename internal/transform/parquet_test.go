package transform

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIntermediateRoundTrip(t *testing.T) {
	orders := []Order{
		{
			OrderID:      "A-1",
			CustomerID:   "C-1",
			Product:      "Laptop Pro 15",
			Category:     "Electronics",
			Region:       "North America",
			Quantity:     2,
			UnitPrice:    999.99,
			Discount:     0.10,
			OrderDate:    time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Status:       "completed",
			TotalRevenue: 1799.98,
		},
		{
			OrderID:      "A-2",
			CustomerID:   "C-2",
			Product:      "Blender",
			Category:     "Home & Kitchen",
			Region:       "Europe",
			Quantity:     1,
			UnitPrice:    49.99,
			Discount:     0,
			OrderDate:    time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			Status:       "pending",
			TotalRevenue: 49.99,
		},
	}

	path := filepath.Join(t.TempDir(), "cleaned.parquet")
	if err := WriteIntermediate(path, orders); err != nil {
		t.Fatalf("WriteIntermediate() error = %v", err)
	}

	got, err := ReadIntermediate(path)
	if err != nil {
		t.Fatalf("ReadIntermediate() error = %v", err)
	}

	if len(got) != len(orders) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(orders))
	}
	for i := range orders {
		// Coerced types must survive the hand-off exactly
		if got[i].OrderID != orders[i].OrderID ||
			got[i].Quantity != orders[i].Quantity ||
			got[i].UnitPrice != orders[i].UnitPrice ||
			got[i].Discount != orders[i].Discount ||
			got[i].TotalRevenue != orders[i].TotalRevenue ||
			got[i].Status != orders[i].Status {
			t.Errorf("row %d changed in round trip:\n  in = %+v\n out = %+v", i, orders[i], got[i])
		}
		if !got[i].OrderDate.Equal(orders[i].OrderDate) {
			t.Errorf("row %d OrderDate = %v, want %v", i, got[i].OrderDate, orders[i].OrderDate)
		}
	}
}

func TestReadIntermediate_MissingFile(t *testing.T) {
	_, err := ReadIntermediate(filepath.Join(t.TempDir(), "nope.parquet"))
	if err == nil {
		t.Error("ReadIntermediate() error = nil, want error for missing file")
	}
}

func TestRemoveIntermediate_ToleratesMissing(t *testing.T) {
	// Must not panic or error on files that are already gone
	RemoveIntermediate(filepath.Join(t.TempDir(), "already-gone.parquet"))
	RemoveIntermediate("")

	path := filepath.Join(t.TempDir(), "present.parquet")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	RemoveIntermediate(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present after RemoveIntermediate: %v", err)
	}
}
