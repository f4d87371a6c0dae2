package grid_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docgen/internal/reader/grid"
	"github.com/goliatone/go-docgen/pkg/record"
	"github.com/goliatone/go-docgen/pkg/source"
)

func TestRecordsHeaderAndOrder(t *testing.T) {
	rows := [][]string{
		{" name ", "age", ""},
		{"Ada", "36", ""},
		{"", "", ""},
		{"Grace", "45", ""},
	}

	set, err := grid.Records("people.csv", rows, source.ReadOptions{}, grid.Scalar)
	if err != nil {
		t.Fatalf("Records returned error: %v", err)
	}

	if set.Len() != 2 {
		t.Fatalf("expected 2 records (empty row dropped), got %d", set.Len())
	}
	if diff := cmp.Diff([]string{"name", "age"}, set.Records[0].Fields()); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
	age, _ := set.Records[0].Get("age")
	if age != int64(36) {
		t.Fatalf("expected numeric cell to stay numeric, got %T %v", age, age)
	}
}

func TestRecordsDuplicateHeaderNamesTheColumn(t *testing.T) {
	rows := [][]string{
		{"name", " name "},
		{"a", "b"},
	}

	_, err := grid.Records("dup.csv", rows, source.ReadOptions{}, nil)
	if !errors.Is(err, source.ErrMalformedSource) {
		t.Fatalf("expected ErrMalformedSource, got %v", err)
	}
	if !strings.Contains(err.Error(), `"name"`) {
		t.Fatalf("error should name the duplicate header: %v", err)
	}
}

func TestRecordsHeaderOffsets(t *testing.T) {
	rows := [][]string{
		{"junk", "junk"},
		{"", "name", "age"},
		{"", "Ada", "36"},
	}

	set, err := grid.Records("offset.csv", rows, source.ReadOptions{HeaderRow: 1, HeaderColumn: 1}, nil)
	if err != nil {
		t.Fatalf("Records returned error: %v", err)
	}

	want := record.FromPairs("name", "Ada", "age", int64(36)).Map()
	if diff := cmp.Diff(want, set.Records[0].Map()); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordsShortRowLeavesFieldsAbsent(t *testing.T) {
	rows := [][]string{
		{"name", "age"},
		{"Ada"},
	}

	set, err := grid.Records("short.csv", rows, source.ReadOptions{}, nil)
	if err != nil {
		t.Fatalf("Records returned error: %v", err)
	}
	if set.Records[0].Has("age") {
		t.Fatal("missing trailing cell should leave the field absent, not empty")
	}
}

func TestScalarInference(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{"36", int64(36)},
		{"3.5", 3.5},
		{"abc", "abc"},
		{"", ""},
		{"007", int64(7)},
	}
	for _, tc := range cases {
		if got := grid.Scalar(tc.in); got != tc.want {
			t.Errorf("Scalar(%q) = %v (%T), want %v", tc.in, got, got, tc.want)
		}
	}
	if got := grid.TypedScalar("TRUE"); got != true {
		t.Errorf("TypedScalar(TRUE) = %v, want true", got)
	}
}
