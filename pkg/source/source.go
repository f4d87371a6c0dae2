package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-docgen/pkg/record"
)

// Source identifies where a tabular document lives so readers can operate on
// files or fs.FS entries without leaking implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the reader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
)

// fileSource identifies on-disk documents.
type fileSource struct {
	path string
}

func (s fileSource) Location() string {
	return s.path
}

func (s fileSource) Kind() SourceKind {
	return SourceKindFile
}

// FromFile returns a Source pointing to a file path.
func FromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

// fsSource references a path within an fs.FS.
type fsSource struct {
	fsys fs.FS
	name string
}

func (s fsSource) Location() string {
	return s.name
}

func (s fsSource) Kind() SourceKind {
	return SourceKindFS
}

// FS exposes the filesystem carried by an fs-backed source.
func (s fsSource) FS() fs.FS {
	return s.fsys
}

// FromFS returns a Source identifying a resource inside an fs.FS.
func FromFS(fsys fs.FS, name string) Source {
	return fsSource{fsys: fsys, name: name}
}

// FSHolder is implemented by sources that carry their own filesystem.
type FSHolder interface {
	FS() fs.FS
}

// Open returns a reader over the source's content. Callers own the close.
func Open(src Source) (io.ReadCloser, error) {
	switch src.Kind() {
	case SourceKindFile:
		return os.Open(src.Location())
	case SourceKindFS:
		holder, ok := src.(FSHolder)
		if !ok || holder.FS() == nil {
			return nil, fmt.Errorf("source: fs source %s has no filesystem", src.Location())
		}
		file, err := holder.FS().Open(src.Location())
		if err != nil {
			return nil, err
		}
		return file, nil
	default:
		return nil, fmt.Errorf("source: unknown source kind %q", src.Kind())
	}
}

// Format names a concrete tabular format a reader can handle.
type Format string

const (
	// FormatAuto asks the dispatcher to detect the format from the source's
	// file extension.
	FormatAuto Format = ""

	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DetectFormat resolves a format hint against the source location. An explicit
// hint always wins; otherwise the file extension decides. Returns FormatAuto
// when nothing matches.
func DetectFormat(src Source, hint Format) Format {
	if hint != FormatAuto {
		return hint
	}
	switch strings.ToLower(filepath.Ext(src.Location())) {
	case ".csv":
		return FormatCSV
	case ".tsv", ".tab":
		return FormatTSV
	case ".xlsx":
		return FormatXLSX
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return FormatAuto
}

// ReadOptions carries per-read configuration shared by all format readers.
// The zero value reads the first sheet with the header in the first row.
type ReadOptions struct {
	// Format overrides extension-based detection.
	Format Format

	// Delimiter overrides the field separator for delimited formats. Zero
	// means the format default (comma for CSV, tab for TSV).
	Delimiter rune

	// HeaderRow and HeaderColumn skip leading rows/columns before the header
	// cell. Both are zero-based offsets.
	HeaderRow    int
	HeaderColumn int

	// Sheet selects a sheet or table by name for multi-sheet sources. Takes
	// precedence over SheetIndex when non-empty.
	Sheet string

	// SheetIndex selects a sheet by zero-based position. Ignored when Sheet
	// is set.
	SheetIndex int
}

// Reader adapts one or more concrete file formats into an ordered Record Set.
type Reader interface {
	Read(ctx context.Context, src Source, opts ReadOptions) (*record.Set, error)
}
