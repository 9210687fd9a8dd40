package transform

// clean.go applies the cleaning and transformation rules to a raw batch.
//
// The steps run in a fixed order:
//  1. schema validation (fails closed, before anything else)
//  2. dedupe by order_id, first occurrence wins
//  3. type coercion with null markers for unparseable values
//  4. discount clamped to [0, 1]
//  5. rows with null critical fields dropped and counted
//  6. text normalization
//  7. revenue computation
//  8. order date reduced to a plain calendar date
//
// Data-quality problems after step 1 never fail the batch: partial success
// is preferred over wholesale rejection.

import (
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/datakit/salespipe/internal/batch"
)

// CleanAndTransform cleans a raw batch and returns the typed rows plus the
// number of source rows skipped (duplicates and unsalvageable rows).
//
// The function is idempotent on its own output: feeding a cleaned batch
// back through produces identical rows and zero additional skips.
func CleanAndTransform(b *batch.Batch) ([]Order, int, error) {
	if err := batch.ValidateSchema(b); err != nil {
		return nil, 0, err
	}

	originalLen := b.Len()
	titleCaser := cases.Title(language.English)

	seen := make(map[string]struct{}, originalLen)
	cleaned := make([]Order, 0, originalLen)
	var nullDropped int

	for i := 0; i < b.Len(); i++ {
		orderID := batch.CleanCell(b.Get(i, batch.ColOrderID))

		// Dedupe: first occurrence in input order wins. Rows with no
		// order_id fall through to the null-critical drop below.
		if orderID != "" {
			if _, dup := seen[orderID]; dup {
				continue
			}
			seen[orderID] = struct{}{}
		}

		orderDate, dateOK := coerceDate(batch.CleanCell(b.Get(i, batch.ColOrderDate)))
		quantity, qtyOK := coerceInt(batch.CleanCell(b.Get(i, batch.ColQuantity)))
		unitPrice, priceOK := coerceFloat(batch.CleanCell(b.Get(i, batch.ColUnitPrice)))

		// Unparseable discount means no discount; out-of-range values are
		// clamped to the nearest boundary, not rejected.
		discount, ok := coerceFloat(batch.CleanCell(b.Get(i, batch.ColDiscount)))
		if !ok {
			discount = 0
		}
		discount = clamp(discount, 0, 1)

		if orderID == "" || !dateOK || !qtyOK || !priceOK {
			nullDropped++
			continue
		}

		order := Order{
			OrderID:      orderID,
			CustomerID:   batch.CleanCell(b.Get(i, batch.ColCustomerID)),
			Product:      strings.TrimSpace(b.Get(i, batch.ColProduct)),
			Category:     titleCaser.String(strings.TrimSpace(b.Get(i, batch.ColCategory))),
			Region:       titleCaser.String(strings.TrimSpace(b.Get(i, batch.ColRegion))),
			Quantity:     quantity,
			UnitPrice:    unitPrice,
			Discount:     discount,
			OrderDate:    orderDate,
			Status:       strings.ToLower(strings.TrimSpace(b.Get(i, batch.ColStatus))),
			TotalRevenue: round2(float64(quantity) * unitPrice * (1 - discount)),
		}
		cleaned = append(cleaned, order)
	}

	if nullDropped > 0 {
		slog.Warn("dropped rows with null critical fields", "rows", nullDropped)
	}

	rowsSkipped := originalLen - len(cleaned)
	slog.Info("transformation complete",
		"rows_kept", len(cleaned),
		"rows_skipped", rowsSkipped,
	)

	return cleaned, rowsSkipped, nil
}
