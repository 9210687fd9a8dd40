package batch

import (
	"errors"
	"strings"
	"testing"
)

const fullHeader = "order_id,customer_id,product,category,region,quantity,unit_price,discount,order_date,status"

func TestValidateSchema_Valid(t *testing.T) {
	b, err := ReadCSV(strings.NewReader(fullHeader + "\nA-1,C-1,Blender,Home & Kitchen,Europe,2,49.99,0.1,2024-03-01,completed\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if err := ValidateSchema(b); err != nil {
		t.Errorf("ValidateSchema() error = %v, want nil", err)
	}
}

func TestValidateSchema_ExtraColumnsIgnored(t *testing.T) {
	b, err := ReadCSV(strings.NewReader(fullHeader + ",warehouse_code\nA-1,C-1,Blender,Home & Kitchen,Europe,2,49.99,0.1,2024-03-01,completed,WH-9\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if err := ValidateSchema(b); err != nil {
		t.Errorf("ValidateSchema() error = %v, want nil", err)
	}
}

func TestValidateSchema_MissingColumnsNamed(t *testing.T) {
	b, err := ReadCSV(strings.NewReader("order_id,product\nA-1,Blender\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	err = ValidateSchema(b)
	if err == nil {
		t.Fatal("ValidateSchema() = nil, want SchemaError")
	}

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("error type = %T, want *SchemaError", err)
	}

	want := []string{"category", "customer_id", "discount", "order_date", "quantity", "region", "status", "unit_price"}
	if len(schemaErr.Missing) != len(want) {
		t.Fatalf("Missing = %v, want %v", schemaErr.Missing, want)
	}
	for i, col := range want {
		if schemaErr.Missing[i] != col {
			t.Errorf("Missing[%d] = %q, want %q", i, schemaErr.Missing[i], col)
		}
	}
}

func TestValidateSchema_EmptyBatch(t *testing.T) {
	b, err := ReadCSV(strings.NewReader(fullHeader + "\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if err := ValidateSchema(b); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("ValidateSchema(header only) error = %v, want ErrEmptyBatch", err)
	}

	if err := ValidateSchema(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("ValidateSchema(nil) error = %v, want ErrEmptyBatch", err)
	}
}

func TestValidateSchema_Idempotent(t *testing.T) {
	b, err := ReadCSV(strings.NewReader("order_id\nA-1\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	first := ValidateSchema(b)
	second := ValidateSchema(b)
	if first == nil || second == nil {
		t.Fatal("expected schema errors on both calls")
	}
	if first.Error() != second.Error() {
		t.Errorf("validation not stable: %q vs %q", first.Error(), second.Error())
	}
}
