package batch

// schema.go defines the required column set for a sales batch and the
// pre-mutation schema check every run must pass.

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Column names every sales batch must carry. Matching is case-insensitive;
// additional columns are ignored.
const (
	ColOrderID    = "order_id"
	ColCustomerID = "customer_id"
	ColProduct    = "product"
	ColCategory   = "category"
	ColRegion     = "region"
	ColQuantity   = "quantity"
	ColUnitPrice  = "unit_price"
	ColDiscount   = "discount"
	ColOrderDate  = "order_date"
	ColStatus     = "status"
)

// RequiredColumns is the fixed set a batch must contain to be processed.
var RequiredColumns = []string{
	ColOrderID, ColCustomerID, ColProduct, ColCategory, ColRegion,
	ColQuantity, ColUnitPrice, ColDiscount, ColOrderDate, ColStatus,
}

// ErrEmptyBatch is returned when a batch has a header but no data rows,
// or no content at all.
var ErrEmptyBatch = errors.New("batch contains no rows")

// SchemaError reports the exact set of required columns a batch is missing.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("batch is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ValidateSchema verifies the batch is non-empty and contains every
// required column. It is side-effect free and safe to call repeatedly.
//
// A failure here aborts the run before any transformation or warehouse
// mutation happens.
func ValidateSchema(b *Batch) error {
	if b == nil || b.Len() == 0 {
		return ErrEmptyBatch
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !b.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &SchemaError{Missing: missing}
	}

	return nil
}
