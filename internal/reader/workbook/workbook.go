// Package workbook reads XLSX spreadsheets into Record Sets via excelize.
// Each sheet is an independently addressable Record Set; callers pick one by
// name or by position.
package workbook

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-docgen/internal/reader/grid"
	"github.com/goliatone/go-docgen/pkg/record"
	"github.com/goliatone/go-docgen/pkg/source"
)

// Reader implements source.Reader for XLSX workbooks.
type Reader struct{}

var _ source.Reader = (*Reader)(nil)

// New constructs a workbook reader.
func New() *Reader {
	return &Reader{}
}

// Read opens the workbook and materializes the selected sheet. A sheet that
// does not exist is an UnsupportedFormat failure so callers can distinguish a
// wrong selector from a corrupt file.
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

	book, err := excelize.OpenReader(file)
	if err != nil {
		return nil, &source.MalformedSourceError{
			Location: src.Location(),
			Reason:   "cannot open workbook",
			Err:      err,
		}
	}
	defer book.Close()

	sheet, err := selectSheet(book, src, opts)
	if err != nil {
		return nil, err
	}

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, &source.MalformedSourceError{
			Location: src.Location(),
			Reason:   fmt.Sprintf("cannot read sheet %q", sheet),
			Err:      err,
		}
	}

	set, err := grid.Records(src.Location(), rows, opts, grid.TypedScalar)
	if err != nil {
		return nil, err
	}
	set.Name = sheet
	return set, nil
}

// Sheets lists the workbook's sheet names in workbook order.
func (r *Reader) Sheets(ctx context.Context, src source.Source) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := source.Open(src)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	book, err := excelize.OpenReader(file)
	if err != nil {
		return nil, &source.MalformedSourceError{
			Location: src.Location(),
			Reason:   "cannot open workbook",
			Err:      err,
		}
	}
	defer book.Close()

	return book.GetSheetList(), nil
}

func selectSheet(book *excelize.File, src source.Source, opts source.ReadOptions) (string, error) {
	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return "", &source.MalformedSourceError{
			Location: src.Location(),
			Reason:   "workbook has no sheets",
		}
	}

	if opts.Sheet != "" {
		for _, name := range sheets {
			if name == opts.Sheet {
				return name, nil
			}
		}
		return "", &source.UnsupportedFormatError{
			Location: src.Location(),
			Reason:   fmt.Sprintf("sheet %q not found", opts.Sheet),
		}
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(sheets) {
		return "", &source.UnsupportedFormatError{
			Location: src.Location(),
			Reason:   fmt.Sprintf("sheet index %d out of range (%d sheets)", opts.SheetIndex, len(sheets)),
		}
	}
	return sheets[opts.SheetIndex], nil
}
