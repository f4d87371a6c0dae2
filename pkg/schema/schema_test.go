package schema_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docgen/pkg/record"
	"github.com/goliatone/go-docgen/pkg/schema"
)

const peopleSchema = `
fields:
  - name: name
    type: string
    required: true
  - name: age
    type: integer
    required: true
    min: 0
  - name: role
    type: string
    allowed: [admin, user]
  - name: email
    type: string
    pattern: "[^@]+@[^@]+"
`

func mustParse(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return s
}

func TestParseRejectsBadDeclarations(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"duplicate field", "fields:\n  - name: a\n  - name: a\n", "duplicate field"},
		{"unknown type", "fields:\n  - name: a\n    type: decimal\n", "unknown type"},
		{"empty name", "fields:\n  - type: string\n", "has no name"},
		{"bad pattern", "fields:\n  - name: a\n    pattern: '['\n", "pattern"},
		{"inverted range", "fields:\n  - name: a\n    min: 5\n    max: 1\n", "exceeds max"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.Parse([]byte(tc.doc))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateRequiredMissingIsDistinctFromTypeMismatch(t *testing.T) {
	s := mustParse(t, peopleSchema)

	res := s.Validate(record.FromPairs("age", "abc"))
	if res.Valid() {
		t.Fatal("expected invalid result")
	}

	want := []schema.Violation{
		{Field: "name", Kind: schema.KindRequiredMissing},
		{Field: "age", Kind: schema.KindTypeMismatch, Value: "abc"},
	}
	if diff := cmp.Diff(want, res.Violations); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateReportsInDeclarationOrder(t *testing.T) {
	s := mustParse(t, peopleSchema)

	// Record order is reversed relative to the schema; the report must follow
	// schema declaration order regardless.
	rec := record.FromPairs("email", "nope", "role", "root", "age", int64(-1), "name", "Ada")
	res := s.Validate(rec)

	var fields []string
	for _, v := range res.Violations {
		fields = append(fields, v.Field)
	}
	if diff := cmp.Diff([]string{"age", "role", "email"}, fields); diff != "" {
		t.Fatalf("violation order mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateCoercionIsLosslessOnly(t *testing.T) {
	s := mustParse(t, "fields:\n  - name: age\n    type: integer\n  - name: score\n    type: number\n  - name: active\n    type: boolean\n")

	res := s.Validate(record.FromPairs("age", "42", "score", "3.5", "active", "Yes"))
	if !res.Valid() {
		t.Fatalf("expected valid result, got %v", res.Violations)
	}

	age, _ := res.Record.Get("age")
	if age != int64(42) {
		t.Fatalf("age not coerced: %T %v", age, age)
	}
	score, _ := res.Record.Get("score")
	if score != 3.5 {
		t.Fatalf("score not coerced: %T %v", score, score)
	}
	active, _ := res.Record.Get("active")
	if active != true {
		t.Fatalf("active not coerced: %T %v", active, active)
	}

	for _, bad := range []any{"4.5", "abc", 1.5} {
		res := s.Validate(record.FromPairs("age", bad))
		if res.Valid() {
			t.Fatalf("lossy coercion of %v should fail validation", bad)
		}
		if res.Violations[0].Kind != schema.KindTypeMismatch {
			t.Fatalf("expected type_mismatch for %v, got %s", bad, res.Violations[0].Kind)
		}
	}
}

func TestValidateIntegerCoercionRejectsOverflow(t *testing.T) {
	s := mustParse(t, "fields:\n  - name: age\n    type: integer\n")

	// Integral but outside int64: converting would silently wrap.
	for _, bad := range []any{"1e30", "-1e30", 1e30, -1e30, "9223372036854775808"} {
		res := s.Validate(record.FromPairs("age", bad))
		if res.Valid() {
			age, _ := res.Record.Get("age")
			t.Fatalf("overflowing value %v accepted as %v", bad, age)
		}
		if res.Violations[0].Kind != schema.KindTypeMismatch {
			t.Fatalf("expected type_mismatch for %v, got %s", bad, res.Violations[0].Kind)
		}
	}

	// The extremes that do fit stay accepted.
	res := s.Validate(record.FromPairs("age", "-9223372036854775808"))
	if !res.Valid() {
		t.Fatalf("min int64 rejected: %v", res.Violations)
	}
}

func TestValidateWholeRecordNeverPartiallyAccepted(t *testing.T) {
	s := mustParse(t, peopleSchema)

	res := s.Validate(record.FromPairs("name", "Ada", "age", "not-a-number"))
	if res.Valid() {
		t.Fatal("expected invalid result")
	}
	if res.Record != nil {
		t.Fatal("invalid result must not carry a normalized record")
	}
}

func TestValidateIgnoresUnknownFields(t *testing.T) {
	s := mustParse(t, peopleSchema)

	res := s.Validate(record.FromPairs("name", "Ada", "age", int64(36), "shoe_size", 44))
	if !res.Valid() {
		t.Fatalf("unknown fields must be ignored, got %v", res.Violations)
	}
	if !res.Record.Has("shoe_size") {
		t.Fatal("unknown field should pass through to the normalized record")
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	s := mustParse(t, "fields:\n  - name: age\n    type: integer\n")

	rec := record.FromPairs("age", "42")
	if res := s.Validate(rec); !res.Valid() {
		t.Fatalf("unexpected violations: %v", res.Violations)
	}
	got, _ := rec.Get("age")
	if got != "42" {
		t.Fatalf("input record was mutated: %T %v", got, got)
	}
}

func TestValidateAllowedSetComparesAcrossNumericTypes(t *testing.T) {
	s := mustParse(t, "fields:\n  - name: level\n    allowed: [1, 2]\n")

	if res := s.Validate(record.FromPairs("level", int64(2))); !res.Valid() {
		t.Fatalf("int64(2) should satisfy allowed [1, 2]: %v", res.Violations)
	}
	if res := s.Validate(record.FromPairs("level", int64(3))); res.Valid() {
		t.Fatal("3 should violate allowed [1, 2]")
	}
}

func TestValidateNullable(t *testing.T) {
	s := mustParse(t, "fields:\n  - name: note\n    type: string\n    nullable: true\n  - name: title\n    type: string\n")

	if res := s.Validate(record.FromPairs("note", nil)); !res.Valid() {
		t.Fatalf("nullable field should accept nil: %v", res.Violations)
	}
	if res := s.Validate(record.FromPairs("title", nil)); res.Valid() {
		t.Fatal("non-nullable field should reject nil")
	}
}
