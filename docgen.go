// Package docgen turns tabular and record-oriented data files into text
// documents through templates. The root package re-exports the pieces most
// callers need; the pkg tree holds the full contracts.
package docgen

import (
	"context"

	"github.com/goliatone/go-docgen/internal/reader"
	"github.com/goliatone/go-docgen/pkg/binding"
	"github.com/goliatone/go-docgen/pkg/pipeline"
	"github.com/goliatone/go-docgen/pkg/record"
	"github.com/goliatone/go-docgen/pkg/render"
	"github.com/goliatone/go-docgen/pkg/render/pongo"
	"github.com/goliatone/go-docgen/pkg/schema"
	"github.com/goliatone/go-docgen/pkg/source"
)

// Request describes one conversion run; alias exported via the root package
// for convenience.
type Request = pipeline.Request

// Report summarises what a run loaded, rendered, and wrote.
type Report = pipeline.Report

// Record is one ordered data row.
type Record = record.Record

// Source locates input data for a run.
type Source = source.Source

// ReadOptions configures how sources are parsed.
type ReadOptions = source.ReadOptions

// Schema declares the expected shape of a record.
type Schema = schema.Schema

// Render modes.
const (
	ModePerRecord = binding.ModePerRecord
	ModeBatch     = binding.ModeBatch
)

// SourceFromFile wraps a path on the local filesystem as a data source.
var SourceFromFile = source.FromFile

// SourceFromFS wraps a file inside an fs.FS as a data source.
var SourceFromFS = source.FromFS

// NewReader constructs a reader that dispatches on file format, with every
// supported format registered.
func NewReader() source.Reader {
	return reader.New()
}

// NewPipeline exposes the pipeline constructor from the top-level module.
func NewPipeline(options ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.New(options...)
}

// NewEngine constructs the default template engine.
func NewEngine(options ...pongo.Option) (render.Engine, error) {
	return pongo.New(options...)
}

// Generate runs one conversion end to end with a default pipeline. It is the
// simplest entry point for callers that just want files on disk.
func Generate(ctx context.Context, req Request, options ...pipeline.Option) (*Report, error) {
	return pipeline.New(options...).Run(ctx, req)
}

// LoadSchema reads and compiles a schema document from disk.
func LoadSchema(path string) (*Schema, error) {
	return schema.LoadFile(path)
}
