package transform

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregate_GroupsByProductAndCategory(t *testing.T) {
	orders := []Order{
		{Product: "Blender", Category: "Home & Kitchen", Quantity: 2, TotalRevenue: 100.00, Discount: 0.10, OrderDate: date(2024, 1, 5)},
		{Product: "Blender", Category: "Home & Kitchen", Quantity: 3, TotalRevenue: 150.50, Discount: 0.20, OrderDate: date(2024, 2, 1)},
		{Product: "Yoga Mat", Category: "Sports", Quantity: 1, TotalRevenue: 15.00, Discount: 0, OrderDate: date(2024, 1, 1)},
	}

	rollups := Aggregate(orders)
	if len(rollups) != 2 {
		t.Fatalf("len(rollups) = %d, want 2", len(rollups))
	}

	blender := rollups[0]
	if blender.Product != "Blender" {
		t.Fatalf("rollups[0].Product = %q, want Blender (sorted)", blender.Product)
	}
	if blender.TotalUnitsSold != 5 {
		t.Errorf("TotalUnitsSold = %d, want 5", blender.TotalUnitsSold)
	}
	if blender.TotalRevenue != 250.50 {
		t.Errorf("TotalRevenue = %v, want 250.50", blender.TotalRevenue)
	}
	if blender.AvgDiscount != 0.15 {
		t.Errorf("AvgDiscount = %v, want 0.15", blender.AvgDiscount)
	}
	if !blender.LastPurchased.Equal(date(2024, 2, 1)) {
		t.Errorf("LastPurchased = %v, want %v", blender.LastPurchased, date(2024, 2, 1))
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	a := []Order{
		{Product: "Blender", Category: "Home", Quantity: 2, TotalRevenue: 20, Discount: 0.1, OrderDate: date(2024, 1, 1)},
		{Product: "Blender", Category: "Home", Quantity: 1, TotalRevenue: 10, Discount: 0.3, OrderDate: date(2024, 3, 1)},
		{Product: "Airfryer", Category: "Home", Quantity: 4, TotalRevenue: 80, Discount: 0, OrderDate: date(2024, 2, 1)},
	}
	b := []Order{a[2], a[1], a[0]}

	ra, rb := Aggregate(a), Aggregate(b)
	if len(ra) != len(rb) {
		t.Fatalf("rollup counts differ: %d vs %d", len(ra), len(rb))
	}
	for i := range ra {
		if ra[i] != rb[i] {
			t.Errorf("rollup %d differs by input order:\n a = %+v\n b = %+v", i, ra[i], rb[i])
		}
	}
}

func TestAggregate_DiscountRounding(t *testing.T) {
	// Mean of 0.1, 0.1, 0.15 = 0.11666... → 0.1167
	orders := []Order{
		{Product: "P", Category: "C", Quantity: 1, Discount: 0.10, OrderDate: date(2024, 1, 1)},
		{Product: "P", Category: "C", Quantity: 1, Discount: 0.10, OrderDate: date(2024, 1, 2)},
		{Product: "P", Category: "C", Quantity: 1, Discount: 0.15, OrderDate: date(2024, 1, 3)},
	}

	rollups := Aggregate(orders)
	if rollups[0].AvgDiscount != 0.1167 {
		t.Errorf("AvgDiscount = %v, want 0.1167", rollups[0].AvgDiscount)
	}
}

func TestAggregate_SameProductDifferentCategory(t *testing.T) {
	orders := []Order{
		{Product: "Water Bottle", Category: "Sports", Quantity: 1, OrderDate: date(2024, 1, 1)},
		{Product: "Water Bottle", Category: "Home & Kitchen", Quantity: 2, OrderDate: date(2024, 1, 1)},
	}

	rollups := Aggregate(orders)
	if len(rollups) != 2 {
		t.Fatalf("len(rollups) = %d, want 2 (category is part of the grouping key)", len(rollups))
	}
}

func TestAggregate_Empty(t *testing.T) {
	if rollups := Aggregate(nil); len(rollups) != 0 {
		t.Errorf("Aggregate(nil) = %v, want empty", rollups)
	}
}
