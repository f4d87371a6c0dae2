// Package grid turns a rectangular block of raw cells into a Record Set.
// The delimited and workbook readers share it so header handling, duplicate
// detection, and empty-row trimming behave identically across formats.
package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-docgen/pkg/record"
	"github.com/goliatone/go-docgen/pkg/source"
)

// CellFunc converts one raw cell into a typed value. Readers supply their own
// so format-native typing survives where the format has any.
type CellFunc func(raw string) any

// Records builds a Record Set from raw rows. The first row after the
// configured header offsets provides field names; names are trimmed, must be
// non-empty up to the last populated column, and must be unique.
func Records(location string, rows [][]string, opts source.ReadOptions, cell CellFunc) (*record.Set, error) {
	if cell == nil {
		cell = Scalar
	}

	if opts.HeaderRow > 0 {
		if opts.HeaderRow >= len(rows) {
			return nil, &source.MalformedSourceError{
				Location: location,
				Reason:   fmt.Sprintf("header row %d is past the end of the data (%d rows)", opts.HeaderRow, len(rows)),
			}
		}
		rows = rows[opts.HeaderRow:]
	}
	if opts.HeaderColumn > 0 {
		trimmed := make([][]string, len(rows))
		for i, row := range rows {
			if opts.HeaderColumn < len(row) {
				trimmed[i] = row[opts.HeaderColumn:]
			}
		}
		rows = trimmed
	}

	if len(rows) == 0 {
		return nil, &source.MalformedSourceError{
			Location: location,
			Reason:   "missing a column header",
		}
	}

	headers, err := parseHeaders(location, rows[0])
	if err != nil {
		return nil, err
	}

	set := &record.Set{}
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		rec := record.New()
		for i, name := range headers {
			if i >= len(row) {
				break
			}
			rec.Set(name, cell(row[i]))
		}
		set.Append(rec)
	}
	return set, nil
}

// parseHeaders trims header cells, drops empty trailing columns, and rejects
// duplicates and interior gaps.
func parseHeaders(location string, raw []string) ([]string, error) {
	headers := make([]string, len(raw))
	for i, cell := range raw {
		headers[i] = strings.TrimSpace(cell)
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}
	if len(headers) == 0 {
		return nil, &source.MalformedSourceError{
			Location: location,
			Reason:   "missing a column header",
		}
	}

	seen := make(map[string]struct{}, len(headers))
	for i, name := range headers {
		if name == "" {
			return nil, &source.MalformedSourceError{
				Location: location,
				Reason:   fmt.Sprintf("column %d has an empty header", i+1),
			}
		}
		if _, dup := seen[name]; dup {
			return nil, &source.MalformedSourceError{
				Location: location,
				Reason:   fmt.Sprintf("duplicate column header %q", name),
			}
		}
		seen[name] = struct{}{}
	}
	return headers, nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Scalar infers numeric values from raw text cells and leaves everything else
// as-is. Formats without native typing (CSV) use it so numbers reach the
// validator as numbers.
func Scalar(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return raw
}

// TypedScalar extends Scalar with the TRUE/FALSE literals spreadsheet boolean
// cells serialize to.
func TypedScalar(raw string) any {
	switch strings.TrimSpace(raw) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return Scalar(raw)
}
