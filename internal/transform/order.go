// Package transform implements the cleaning, transformation and aggregation
// rules for sales batches.
//
// Everything here is pure computation over in-memory rows: no database, no
// object store. Bad rows are dropped and counted, never raised as errors,
// so one malformed export cannot fail a whole run once its schema checks
// out. The only I/O in the package is the parquet intermediate used to hand
// a cleaned batch from the transform stage to the load stage.
package transform

import (
	"math"
	"time"
)

// Order is one cleaned purchase event, typed for lossless round-tripping
// through the parquet intermediate and for loading into the warehouse.
type Order struct {
	OrderID      string    `parquet:"order_id"`
	CustomerID   string    `parquet:"customer_id"`
	Product      string    `parquet:"product"`
	Category     string    `parquet:"category"`
	Region       string    `parquet:"region"`
	Quantity     int64     `parquet:"quantity"`
	UnitPrice    float64   `parquet:"unit_price"`
	Discount     float64   `parquet:"discount"`
	OrderDate    time.Time `parquet:"order_date"`
	Status       string    `parquet:"status"`
	TotalRevenue float64   `parquet:"total_revenue"`
}

// ProductRollup is the per-(product, category) aggregation of one cleaned
// batch. Units and revenue are deltas the loader adds to the warehouse
// accumulators; AvgDiscount and LastPurchased replace what is stored.
type ProductRollup struct {
	Product        string
	Category       string
	TotalUnitsSold int64
	TotalRevenue   float64
	AvgDiscount    float64
	LastPurchased  time.Time
}

// round2 rounds to 2 decimal places (money).
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round4 rounds to 4 decimal places (discount rates).
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
