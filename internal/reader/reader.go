// Package reader dispatches sources to the concrete format readers. New
// formats are added by registering another source.Reader in the dispatch
// table, not by subclassing anything.
package reader

import (
	"context"
	"fmt"

	"github.com/goliatone/go-docgen/internal/reader/delimited"
	"github.com/goliatone/go-docgen/internal/reader/structured"
	"github.com/goliatone/go-docgen/internal/reader/workbook"
	"github.com/goliatone/go-docgen/pkg/record"
	"github.com/goliatone/go-docgen/pkg/source"
)

// Dispatch routes Read calls to the reader registered for the source's format.
type Dispatch struct {
	readers map[source.Format]source.Reader
}

var _ source.Reader = (*Dispatch)(nil)

// New builds a Dispatch covering the statically supported formats.
func New() *Dispatch {
	csv := delimited.New()
	cfg := structured.New()
	return &Dispatch{
		readers: map[source.Format]source.Reader{
			source.FormatCSV:  csv,
			source.FormatTSV:  csv,
			source.FormatXLSX: workbook.New(),
			source.FormatYAML: cfg,
			source.FormatJSON: cfg,
		},
	}
}

// Register installs or replaces the reader for a format.
func (d *Dispatch) Register(format source.Format, r source.Reader) {
	if d.readers == nil {
		d.readers = make(map[source.Format]source.Reader)
	}
	d.readers[format] = r
}

// Read resolves the format from the hint or the source location and delegates.
func (d *Dispatch) Read(ctx context.Context, src source.Source, opts source.ReadOptions) (*record.Set, error) {
	format := source.DetectFormat(src, opts.Format)
	if format == source.FormatAuto {
		return nil, &source.UnsupportedFormatError{
			Location: src.Location(),
			Reason:   "format cannot be determined from the file extension; pass an explicit format",
		}
	}

	r, ok := d.readers[format]
	if !ok {
		return nil, &source.UnsupportedFormatError{
			Location: src.Location(),
			Reason:   fmt.Sprintf("no reader registered for format %q", format),
		}
	}
	return r.Read(ctx, src, opts)
}
