// Package binding assembles the variable environments handed to the render
// engine: one per record or one for the whole set, selected by configuration
// rather than inferred from data shape.
package binding

import (
	"fmt"

	"github.com/goliatone/go-docgen/pkg/record"
)

// Mode selects the rendering strategy.
type Mode string

const (
	// ModePerRecord renders the template once per record, in set order.
	ModePerRecord Mode = "per-record"

	// ModeBatch renders the template exactly once with the whole set bound
	// to a single collection variable.
	ModeBatch Mode = "batch"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePerRecord:
		return ModePerRecord, nil
	case ModeBatch:
		return ModeBatch, nil
	}
	return "", fmt.Errorf("binding: unknown mode %q (want %q or %q)", s, ModePerRecord, ModeBatch)
}

// Injected variable names. Record fields with the same name shadow them.
const (
	// VarRecords holds the whole set in batch mode. Indexing is zero-based,
	// matching the engine's native slice access.
	VarRecords = "records"

	// VarRecordIndex is the record's 1-based position in the loaded set.
	VarRecordIndex = "record_index"

	// VarRecordCount is the total number of loaded records.
	VarRecordCount = "record_count"

	VarInput    = "input"
	VarOutput   = "output"
	VarTemplate = "template"
)

// Meta carries the run-level path variables exposed to every binding.
type Meta struct {
	Input    string
	Output   string
	Template string
}

// Item pairs a record with its original position in the loaded set. Positions
// survive validation filtering so index metadata matches the source rows.
type Item struct {
	Position int
	Record   *record.Record

	// Source is the location the record was read from. When set it overrides
	// Meta.Input in the job's binding, so multi-source runs attribute each
	// record to its own file.
	Source string
}

// Job is one unit of render work: a binding plus the position it was built
// from. Jobs are consumed exactly once by the render/write stages.
type Job struct {
	Position int
	Binding  map[string]any
}

// Builder assembles render jobs for one pipeline run.
type Builder struct {
	Mode    Mode
	Globals map[string]any
	Meta    Meta
}

// Build produces the job sequence for the given records. total is the size of
// the originally loaded set, which can exceed len(items) when invalid records
// were filtered out.
func (b Builder) Build(items []Item, total int) ([]Job, error) {
	switch b.Mode {
	case ModePerRecord, "":
		return b.perRecord(items, total), nil
	case ModeBatch:
		return b.batch(items, total), nil
	}
	return nil, fmt.Errorf("binding: unknown mode %q", b.Mode)
}

func (b Builder) perRecord(items []Item, total int) []Job {
	jobs := make([]Job, 0, len(items))
	for _, item := range items {
		bind := b.base()
		if item.Source != "" {
			bind[VarInput] = item.Source
		}
		bind[VarRecordIndex] = item.Position + 1
		bind[VarRecordCount] = total
		for _, name := range item.Record.Fields() {
			value, _ := item.Record.Get(name)
			bind[name] = flatten(value)
		}
		jobs = append(jobs, Job{Position: item.Position, Binding: bind})
	}
	return jobs
}

func (b Builder) batch(items []Item, total int) []Job {
	records := make([]any, 0, len(items))
	for _, item := range items {
		records = append(records, item.Record.Map())
	}

	bind := b.base()
	bind[VarRecords] = records
	bind[VarRecordCount] = total
	return []Job{{Position: 0, Binding: bind}}
}

func (b Builder) base() map[string]any {
	bind := make(map[string]any, len(b.Globals)+8)
	for key, value := range b.Globals {
		bind[key] = flatten(value)
	}
	bind[VarInput] = b.Meta.Input
	bind[VarOutput] = b.Meta.Output
	bind[VarTemplate] = b.Meta.Template
	return bind
}

// flatten converts nested records to plain maps and deep-copies container
// values. Jobs resolve their bindings in place, so a map or slice shared
// between bindings would leak one job's resolved values into the others.
func flatten(value any) any {
	switch v := value.(type) {
	case *record.Record:
		return v.Map()
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = flatten(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = flatten(item)
		}
		return out
	}
	return value
}
