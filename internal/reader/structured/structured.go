// Package structured reads YAML and JSON documents into Record Sets. A
// document is either a sequence of mappings (one table) or a mapping from
// table name to such a sequence; the caller selects a table by name or
// position. YAML being a JSON superset, one decoder covers both formats.
package structured

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-docgen/pkg/record"
	"github.com/goliatone/go-docgen/pkg/source"
)

// Reader implements source.Reader for structured config documents.
type Reader struct{}

var _ source.Reader = (*Reader)(nil)

// New constructs a structured reader.
func New() *Reader {
	return &Reader{}
}

// Read decodes the document and materializes the selected table.
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

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &source.MalformedSourceError{
			Location: src.Location(),
			Reason:   "cannot read source",
			Err:      err,
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &source.MalformedSourceError{
			Location: src.Location(),
			Reason:   "cannot parse document",
			Err:      err,
		}
	}

	doc := &root
	if doc.Kind == 0 {
		// Empty document.
		return &record.Set{}, nil
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return &record.Set{}, nil
		}
		doc = doc.Content[0]
	}

	table, name, err := selectTable(doc, src, opts)
	if err != nil {
		return nil, err
	}

	set, err := sequenceToSet(src.Location(), table)
	if err != nil {
		return nil, err
	}
	set.Name = name
	return set, nil
}

// selectTable resolves the record sequence: either the document root itself or
// one named table out of a mapping of sequences.
func selectTable(doc *yaml.Node, src source.Source, opts source.ReadOptions) (*yaml.Node, string, error) {
	switch doc.Kind {
	case yaml.SequenceNode:
		return doc, "", nil
	case yaml.MappingNode:
		names := make([]string, 0, len(doc.Content)/2)
		for i := 0; i+1 < len(doc.Content); i += 2 {
			names = append(names, doc.Content[i].Value)
		}

		target := opts.Sheet
		if target == "" {
			if opts.SheetIndex < 0 || opts.SheetIndex >= len(names) {
				return nil, "", &source.UnsupportedFormatError{
					Location: src.Location(),
					Reason:   fmt.Sprintf("table index %d out of range (%d tables)", opts.SheetIndex, len(names)),
				}
			}
			target = names[opts.SheetIndex]
		}

		for i := 0; i+1 < len(doc.Content); i += 2 {
			if doc.Content[i].Value != target {
				continue
			}
			value := doc.Content[i+1]
			if value.Kind != yaml.SequenceNode {
				return nil, "", &source.MalformedSourceError{
					Location: src.Location(),
					Reason:   fmt.Sprintf("table %q is not a sequence of records", target),
				}
			}
			return value, target, nil
		}
		return nil, "", &source.UnsupportedFormatError{
			Location: src.Location(),
			Reason:   fmt.Sprintf("table %q not found", target),
		}
	default:
		return nil, "", &source.MalformedSourceError{
			Location: src.Location(),
			Reason:   "document root must be a sequence of records or a mapping of tables",
		}
	}
}

func sequenceToSet(location string, seq *yaml.Node) (*record.Set, error) {
	set := &record.Set{}
	for i, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			return nil, &source.MalformedSourceError{
				Location: location,
				Reason:   fmt.Sprintf("entry %d is not a mapping", i),
			}
		}
		rec, err := mappingToRecord(location, item)
		if err != nil {
			return nil, err
		}
		set.Append(rec)
	}
	return set, nil
}

func mappingToRecord(location string, node *yaml.Node) (*record.Record, error) {
	rec := record.New()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if rec.Has(key) {
			return nil, &source.MalformedSourceError{
				Location: location,
				Reason:   fmt.Sprintf("duplicate field %q", key),
			}
		}
		value, err := nodeValue(location, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		rec.Set(key, value)
	}
	return rec, nil
}

// nodeValue converts a YAML node into the pipeline's value set, keeping the
// document's native typing.
func nodeValue(location string, node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return mappingToRecord(location, node)
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := nodeValue(location, item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case yaml.AliasNode:
		return nodeValue(location, node.Alias)
	case yaml.ScalarNode:
		return scalarValue(node)
	default:
		return nil, &source.MalformedSourceError{
			Location: location,
			Reason:   fmt.Sprintf("unsupported node kind at line %d", node.Line),
		}
	}
}

func scalarValue(node *yaml.Node) (any, error) {
	switch node.Tag {
	case "!!int":
		n, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "!!bool":
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			// YAML accepts more boolean spellings than strconv.
			var v bool
			if err := node.Decode(&v); err != nil {
				return nil, err
			}
			return v, nil
		}
		return b, nil
	case "!!null":
		return nil, nil
	default:
		return node.Value, nil
	}
}
