// Package delimited reads comma- and tab-separated text into Record Sets.
package delimited

import (
	"context"
	"encoding/csv"

	"github.com/goliatone/go-docgen/internal/reader/grid"
	"github.com/goliatone/go-docgen/pkg/record"
	"github.com/goliatone/go-docgen/pkg/source"
)

// Reader implements source.Reader for CSV/TSV files.
type Reader struct{}

var _ source.Reader = (*Reader)(nil)

// New constructs a delimited reader.
func New() *Reader {
	return &Reader{}
}

// Read parses the source into a Record Set. The first row (after any header
// offsets) names the fields; rows may be ragged, delimiter defaults follow the
// detected format.
func (r *Reader) Read(ctx context.Context, src source.Source, opts source.ReadOptions) (*record.Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := source.Open(src)
	if err != nil {
		return nil, &source.MalformedSourceError{
			Location: src.Location(),
			Reason:   "cannot open source",
			Err:      err,
		}
	}
	defer file.Close()

	parser := csv.NewReader(file)
	parser.FieldsPerRecord = -1
	parser.Comma = delimiter(src, opts)

	rows, err := parser.ReadAll()
	if err != nil {
		return nil, &source.MalformedSourceError{
			Location: src.Location(),
			Reason:   "cannot parse delimited data",
			Err:      err,
		}
	}

	return grid.Records(src.Location(), rows, opts, grid.Scalar)
}

func delimiter(src source.Source, opts source.ReadOptions) rune {
	if opts.Delimiter != 0 {
		return opts.Delimiter
	}
	if source.DetectFormat(src, opts.Format) == source.FormatTSV {
		return '\t'
	}
	return ','
}
