// Package csvimport parses and validates bulk asset uploads.
//
// Oversized input and structural problems are rejected at parse time
// with a single error. Validation never fails; it accumulates per-row issues
// into a models.ValidationResult that decides whether an import may proceed.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Limits applied to uploaded files.
const (
	MaxFileSize     = 10 << 20 // bytes
	MaxRows         = 10000    // non-blank lines, header included
	MaxColumns      = 50
	MaxCellLength   = 1000
	MaxSerialLength = 100
)

var (
	ErrFileTooLarge   = errors.New("file too large")
	ErrTooManyRows    = errors.New("too many rows")
	ErrTooFewRows     = errors.New("file must contain a header row and at least one data row")
	ErrNoValidHeaders = errors.New("no valid column headers")
	ErrMalformedCSV   = errors.New("malformed csv")
)

// Row is one data row keyed by canonical field name.
type Row struct {
	Number int // 1-based record number; the header is record 1
	Values map[string]string
}

// Parsed is a sanitized upload restricted to known columns.
type Parsed struct {
	Headers []string // canonical field names in column order
	Rows    []Row
}

// HasHeader reports whether the upload contains a column for field.
func (p *Parsed) HasHeader(field string) bool {
	for _, h := range p.Headers {
		if h == field {
			return true
		}
	}
	return false
}

type column struct {
	index int
	field string
}

// Parse reads raw CSV text, keeping only columns that resolve to a schema field.
func Parse(raw string, schema Schema) (*Parsed, error) {
	raw = strings.TrimPrefix(raw, "\ufeff")
	if len(raw) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, len(raw), MaxFileSize)
	}
	lines := countLines(raw)
	if lines > MaxRows {
		return nil, fmt.Errorf("%w: %d lines exceeds the %d line limit", ErrTooManyRows, lines, MaxRows)
	}
	if lines < 2 {
		return nil, ErrTooFewRows
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedCSV, err)
	}
	columns := resolveColumns(header, schema)
	if len(columns) == 0 {
		return nil, ErrNoValidHeaders
	}

	p := &Parsed{Headers: make([]string, 0, len(columns))}
	for _, c := range columns {
		p.Headers = append(p.Headers, c.field)
	}

	number := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		if isBlank(record) {
			continue
		}
		number++
		if number > MaxRows {
			break
		}

		values := make(map[string]string, len(columns))
		for _, c := range columns {
			v := ""
			if c.index < len(record) {
				v = Sanitize(record[c.index])
			}
			values[c.field] = v
		}
		p.Rows = append(p.Rows, Row{Number: number, Values: values})
	}

	if len(p.Rows) == 0 {
		return nil, ErrTooFewRows
	}
	return p, nil
}

func resolveColumns(header []string, schema Schema) []column {
	if len(header) > MaxColumns {
		header = header[:MaxColumns]
	}
	seen := make(map[string]bool)
	var columns []column
	for i, h := range header {
		field, ok := resolveHeader(Sanitize(stripQuotes(h)), schema)
		if !ok || seen[field] {
			continue
		}
		seen[field] = true
		columns = append(columns, column{index: i, field: field})
	}
	return columns
}

func resolveHeader(h string, schema Schema) (string, bool) {
	if h == "" {
		return "", false
	}
	for _, f := range schema.Fields() {
		if strings.EqualFold(f, h) {
			return f, true
		}
	}
	if f, ok := CanonicalField(h); ok && schema.has(f) {
		return f, true
	}
	return "", false
}

func countLines(raw string) int {
	n := 0
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
