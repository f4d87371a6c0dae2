package record_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docgen/pkg/record"
)

func TestRecordPreservesInsertionOrder(t *testing.T) {
	rec := record.New()
	rec.Set("zulu", 1)
	rec.Set("alpha", 2)
	rec.Set("mike", 3)

	want := []string{"zulu", "alpha", "mike"}
	if diff := cmp.Diff(want, rec.Fields()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordSetUpdatesInPlace(t *testing.T) {
	rec := record.FromPairs("name", "Ada", "age", int64(36))
	rec.Set("name", "Grace")

	if diff := cmp.Diff([]string{"name", "age"}, rec.Fields()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
	got, _ := rec.Get("name")
	if got != "Grace" {
		t.Fatalf("expected updated value, got %v", got)
	}
}

func TestRecordMapFlattensNestedRecords(t *testing.T) {
	nested := record.FromPairs("street", "Main St", "no", int64(5))
	rec := record.FromPairs("name", "Ada", "address", nested, "tags", []any{"a", record.FromPairs("k", "v")})

	want := map[string]any{
		"name": "Ada",
		"address": map[string]any{
			"street": "Main St",
			"no":     int64(5),
		},
		"tags": []any{"a", map[string]any{"k": "v"}},
	}
	if diff := cmp.Diff(want, rec.Map()); diff != "" {
		t.Fatalf("map mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneDoesNotAliasFieldLayout(t *testing.T) {
	rec := record.FromPairs("a", 1, "b", 2)
	clone := rec.Clone()
	clone.Set("c", 3)
	clone.Set("a", 9)

	if rec.Has("c") {
		t.Fatal("clone mutation leaked into source record")
	}
	got, _ := rec.Get("a")
	if got != 1 {
		t.Fatalf("source record value changed: %v", got)
	}
}

func TestSetColumnsUnionFirstSeen(t *testing.T) {
	set := &record.Set{}
	set.Append(
		record.FromPairs("name", "a", "age", 1),
		record.FromPairs("name", "b", "email", "b@x"),
	)

	want := []string{"name", "age", "email"}
	if diff := cmp.Diff(want, set.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}
