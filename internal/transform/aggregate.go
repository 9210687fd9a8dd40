package transform

// aggregate.go rolls a cleaned batch up into per-product summaries.

import (
	"sort"
	"time"
)

// Aggregate groups cleaned orders by (product, category) and computes the
// batch's contribution to each product summary: total units, total revenue
// (2 decimals), mean discount (4 decimals), and the latest order date.
//
// Pure function; the result is independent of input row order and sorted
// by product then category for determinism.
func Aggregate(orders []Order) []ProductRollup {
	type key struct {
		product  string
		category string
	}

	type acc struct {
		units       int64
		revenue     float64
		discountSum float64
		rows        int64
		lastDate    time.Time
	}

	groups := make(map[key]*acc)
	for _, o := range orders {
		k := key{product: o.Product, category: o.Category}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.units += o.Quantity
		a.revenue += o.TotalRevenue
		a.discountSum += o.Discount
		a.rows++
		if o.OrderDate.After(a.lastDate) {
			a.lastDate = o.OrderDate
		}
	}

	rollups := make([]ProductRollup, 0, len(groups))
	for k, a := range groups {
		rollups = append(rollups, ProductRollup{
			Product:        k.product,
			Category:       k.category,
			TotalUnitsSold: a.units,
			TotalRevenue:   round2(a.revenue),
			AvgDiscount:    round4(a.discountSum / float64(a.rows)),
			LastPurchased:  a.lastDate,
		})
	}

	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].Product != rollups[j].Product {
			return rollups[i].Product < rollups[j].Product
		}
		return rollups[i].Category < rollups[j].Category
	})

	return rollups
}
