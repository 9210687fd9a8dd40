// Package batch models one raw sales batch: a delimited tabular file with a
// header row, as it arrives in the landing zone.
//
// The package owns decoding (BOM skipping, UTF-8 sanitization, CSV parsing)
// and the required-column schema check. It performs no mutation of any
// external system, so validation failures always abort a run before the
// warehouse is touched.
package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Batch is a decoded tabular batch. Columns preserves the header order from
// the file; Rows holds raw cell values, one slice per data row. Rows may be
// ragged when the source file is malformed; missing cells read as empty.
type Batch struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// ReadCSV decodes a delimited batch from r.
//
// The reader is wrapped to skip a UTF-8 BOM and replace invalid UTF-8
// sequences before CSV parsing, so files exported on Windows decode the
// same as clean ones. Extra columns beyond the required set are kept and
// ignored downstream.
func ReadCSV(r io.Reader) (*Batch, error) {
	cr := csv.NewReader(wrapForDecoding(r))
	cr.FieldsPerRecord = -1 // tolerate ragged rows; cleaning drops the broken ones

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyBatch
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	b := &Batch{Columns: make([]string, len(header))}
	for i, col := range header {
		b.Columns[i] = CleanCell(col)
	}
	b.buildIndex()

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(b.Rows)+2, err)
		}
		b.Rows = append(b.Rows, record)
	}

	return b, nil
}

// Len returns the number of data rows in the batch.
func (b *Batch) Len() int {
	return len(b.Rows)
}

// Get returns the raw cell for column col in row i, or "" when the column
// is absent or the row is too short.
func (b *Batch) Get(i int, col string) string {
	pos, ok := b.index[strings.ToLower(col)]
	if !ok {
		return ""
	}
	row := b.Rows[i]
	if pos >= len(row) {
		return ""
	}
	return row[pos]
}

// HasColumn reports whether the batch header contains col (case-insensitive).
func (b *Batch) HasColumn(col string) bool {
	_, ok := b.index[strings.ToLower(col)]
	return ok
}

func (b *Batch) buildIndex() {
	b.index = make(map[string]int, len(b.Columns))
	for i, col := range b.Columns {
		key := strings.ToLower(col)
		// First occurrence wins for duplicate headers
		if _, exists := b.index[key]; !exists {
			b.index[key] = i
		}
	}
}

// CleanCell normalizes a raw cell value: trims whitespace, unwraps Excel
// formula prefixes (="value"), and strips surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
