// Package datagen produces synthetic sales batches for development and
// testing environments.
//
// Output columns match exactly what the pipeline expects, so a generated
// batch flows through validation, transformation and loading unchanged.
package datagen

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/datakit/salespipe/internal/batch"
)

// products maps each category to its catalog entries.
var products = map[string][]string{
	"Electronics":    {"Laptop Pro 15", "Wireless Earbuds", "Smart Watch", "USB-C Hub", "Webcam HD"},
	"Apparel":        {"Running Shoes", "Winter Jacket", "Yoga Pants", "Casual T-Shirt", "Denim Jeans"},
	"Home & Kitchen": {"Coffee Maker", "Air Fryer", "Blender", "Knife Set", "Cast Iron Pan"},
	"Books":          {"Data Engineering 101", "Python Mastery", "System Design", "Clean Code", "DevOps Handbook"},
	"Sports":         {"Yoga Mat", "Resistance Bands", "Dumbbells 10kg", "Jump Rope", "Water Bottle"},
}

// categories holds the product category names in a fixed order so a seeded
// generator is deterministic across runs.
var categories = []string{"Electronics", "Apparel", "Home & Kitchen", "Books", "Sports"}

var regions = []string{"North America", "Europe", "Asia Pacific", "Latin America", "Middle East & Africa"}

// statuses is sampled uniformly; repeating "completed" weights the draw.
var statuses = []string{"completed", "completed", "completed", "pending", "returned", "cancelled"}

var discounts = []float64{0, 0, 0, 0.05, 0.10, 0.15, 0.20, 0.25}

// Row is one synthetic sales order.
type Row struct {
	OrderID    string
	CustomerID string
	Product    string
	Category   string
	Region     string
	Quantity   int
	UnitPrice  float64
	Discount   float64
	OrderDate  string
	Status     string
}

// Generator produces reproducible synthetic batches.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// New creates a Generator. The same seed always yields the same rows.
func New(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now().UTC(),
	}
}

// Rows generates n synthetic orders with dates spread over the past year.
func (g *Generator) Rows(n int) []Row {
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		category := categories[g.rng.Intn(len(categories))]
		catalog := products[category]

		rows = append(rows, Row{
			OrderID:    newID(g.rng),
			CustomerID: newID(g.rng),
			Product:    catalog[g.rng.Intn(len(catalog))],
			Category:   category,
			Region:     regions[g.rng.Intn(len(regions))],
			Quantity:   1 + g.rng.Intn(10),
			UnitPrice:  round2(5.0 + g.rng.Float64()*1495.0),
			Discount:   discounts[g.rng.Intn(len(discounts))],
			OrderDate:  g.randomOrderDate(365),
			Status:     statuses[g.rng.Intn(len(statuses))],
		})
	}
	return rows
}

// CSV serializes rows into a CSV document with the standard header.
func CSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(batch.RequiredColumns); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.OrderID,
			r.CustomerID,
			r.Product,
			r.Category,
			r.Region,
			strconv.Itoa(r.Quantity),
			strconv.FormatFloat(r.UnitPrice, 'f', 2, 64),
			strconv.FormatFloat(r.Discount, 'f', 2, 64),
			r.OrderDate,
			r.Status,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ObjectKey returns the landing-zone key for a batch generated at t.
func ObjectKey(t time.Time) string {
	return fmt.Sprintf("sales_%s.csv", t.UTC().Format("20060102_150405"))
}

func (g *Generator) randomOrderDate(spanDays int) string {
	start := g.now.AddDate(0, 0, -spanDays)
	offset := time.Duration(g.rng.Intn(spanDays+1)) * 24 * time.Hour
	return start.Add(offset).Format("2006-01-02")
}

// newID draws order and customer identifiers from the generator's own
// randomness stream so batches stay reproducible for a fixed seed.
func newID(rng *rand.Rand) string {
	var b [16]byte
	rng.Read(b[:])
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	id, _ := uuid.FromBytes(b[:])
	return id.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
