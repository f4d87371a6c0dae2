package workbook_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-docgen/internal/reader/workbook"
	"github.com/goliatone/go-docgen/pkg/source"
)

// writeWorkbook builds an xlsx file with the given sheets, each a grid of
// cell values starting at A1. The first sheet listed becomes the first sheet
// of the book.
func writeWorkbook(t *testing.T, sheets map[string][][]any, order []string) string {
	t.Helper()
	book := excelize.NewFile()
	defer book.Close()

	for i, name := range order {
		if i == 0 {
			if err := book.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := book.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, row := range sheets[name] {
			for c, value := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatalf("cell name: %v", err)
				}
				if err := book.SetCellValue(name, cell, value); err != nil {
					t.Fatalf("set cell: %v", err)
				}
			}
		}
	}

	path := filepath.Join(t.TempDir(), "data.xlsx")
	if err := book.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestReadFirstSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"people": {
			{"name", "age", "active"},
			{"ada", 36, true},
			{"eve", 41, false},
		},
	}, []string{"people"})

	set, err := workbook.New().Read(context.Background(), source.FromFile(path), source.ReadOptions{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if set.Name != "people" {
		t.Errorf("Name = %q, want %q", set.Name, "people")
	}

	want := []map[string]any{
		{"name": "ada", "age": int64(36), "active": true},
		{"name": "eve", "age": int64(41), "active": false},
	}
	got := make([]map[string]any, 0, set.Len())
	for _, rec := range set.Records {
		got = append(got, rec.Map())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadSheetByName(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"people":   {{"name"}, {"ada"}},
		"machines": {{"name"}, {"difference-engine"}},
	}, []string{"people", "machines"})

	set, err := workbook.New().Read(context.Background(), source.FromFile(path),
		source.ReadOptions{Sheet: "machines"})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if name, _ := set.Records[0].Get("name"); name != "difference-engine" {
		t.Errorf("name = %v, want difference-engine", name)
	}
}

func TestReadSheetByIndex(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"people":   {{"name"}, {"ada"}},
		"machines": {{"name"}, {"difference-engine"}},
	}, []string{"people", "machines"})

	set, err := workbook.New().Read(context.Background(), source.FromFile(path),
		source.ReadOptions{SheetIndex: 1})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if set.Name != "machines" {
		t.Errorf("Name = %q, want %q", set.Name, "machines")
	}
}

func TestReadMissingSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"people": {{"name"}, {"ada"}},
	}, []string{"people"})

	_, err := workbook.New().Read(context.Background(), source.FromFile(path),
		source.ReadOptions{Sheet: "animals"})
	if !errors.Is(err, source.ErrUnsupportedFormat) {
		t.Fatalf("Read() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadNotAWorkbook(t *testing.T) {
	_, err := workbook.New().Read(context.Background(),
		source.FromFile(filepath.Join(t.TempDir(), "missing.xlsx")), source.ReadOptions{})
	if !errors.Is(err, source.ErrMalformedSource) {
		t.Fatalf("Read() error = %v, want ErrMalformedSource", err)
	}
}

func TestSheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"people":   {{"name"}},
		"machines": {{"name"}},
	}, []string{"people", "machines"})

	names, err := workbook.New().Sheets(context.Background(), source.FromFile(path))
	if err != nil {
		t.Fatalf("Sheets() error = %v", err)
	}
	if diff := cmp.Diff([]string{"people", "machines"}, names); diff != "" {
		t.Errorf("sheet list mismatch (-want +got):\n%s", diff)
	}
}
