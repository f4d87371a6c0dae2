package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-docgen/pkg/record"
)

// ViolationKind classifies a single rule failure.
type ViolationKind string

const (
	KindRequiredMissing ViolationKind = "required_missing"
	KindTypeMismatch    ViolationKind = "type_mismatch"
	KindNotAllowed      ViolationKind = "not_allowed"
	KindOutOfRange      ViolationKind = "out_of_range"
	KindPatternMismatch ViolationKind = "pattern_mismatch"
)

// Violation records one failed rule: which field, which rule, what value.
type Violation struct {
	Field string
	Kind  ViolationKind
	Value any
}

func (v Violation) String() string {
	switch v.Kind {
	case KindRequiredMissing:
		return fmt.Sprintf("field %q is required but missing", v.Field)
	default:
		return fmt.Sprintf("field %q: %s (value %v)", v.Field, v.Kind, v.Value)
	}
}

// Result is the outcome of validating one record. A record with any violation
// is wholly invalid: Record is nil and Violations lists every failure in
// schema declaration order.
type Result struct {
	Record     *record.Record
	Violations []Violation
}

// Valid reports whether the record was accepted.
func (r Result) Valid() bool {
	return len(r.Violations) == 0
}

// Validate checks one record against the schema. Fields are checked in
// declaration order; each declared field contributes at most one violation
// (the first rule it fails). On success the returned record is a normalized
// clone with coerced values; the input record is never mutated. Fields absent
// from the schema pass through untouched.
func (s *Schema) Validate(rec *record.Record) Result {
	normalized := rec.Clone()
	var violations []Violation

	for i := range s.Fields {
		field := &s.Fields[i]
		value, present := rec.Get(field.Name)

		if !present {
			if field.Required {
				violations = append(violations, Violation{Field: field.Name, Kind: KindRequiredMissing})
			}
			continue
		}

		if value == nil {
			if !field.Nullable {
				violations = append(violations, Violation{Field: field.Name, Kind: KindTypeMismatch, Value: nil})
			}
			continue
		}

		coerced, ok := coerce(field.Type, value)
		if !ok {
			violations = append(violations, Violation{Field: field.Name, Kind: KindTypeMismatch, Value: value})
			continue
		}

		if v, ok := checkConstraints(field, coerced); !ok {
			violations = append(violations, v)
			continue
		}

		normalized.Set(field.Name, coerced)
	}

	if len(violations) > 0 {
		return Result{Violations: violations}
	}
	return Result{Record: normalized}
}

func checkConstraints(field *Field, value any) (Violation, bool) {
	if len(field.Allowed) > 0 && !isAllowed(field.Allowed, value) {
		return Violation{Field: field.Name, Kind: KindNotAllowed, Value: value}, false
	}
	if field.Min != nil || field.Max != nil {
		if n, ok := asFloat(value); ok {
			if field.Min != nil && n < *field.Min {
				return Violation{Field: field.Name, Kind: KindOutOfRange, Value: value}, false
			}
			if field.Max != nil && n > *field.Max {
				return Violation{Field: field.Name, Kind: KindOutOfRange, Value: value}, false
			}
		}
	}
	if field.re != nil {
		s, ok := value.(string)
		if !ok || !field.re.MatchString(s) {
			return Violation{Field: field.Name, Kind: KindPatternMismatch, Value: value}, false
		}
	}
	return Violation{}, true
}

// coerce normalizes a value to the declared type. Coercion only happens when
// it is unambiguous and lossless; anything else is a type mismatch.
func coerce(t FieldType, value any) (any, bool) {
	switch t {
	case TypeAny:
		return value, true
	case TypeString:
		s, ok := value.(string)
		return s, ok
	case TypeInteger:
		return coerceInteger(value)
	case TypeNumber:
		return coerceNumber(value)
	case TypeBoolean:
		return coerceBoolean(value)
	case TypeList:
		v, ok := value.([]any)
		return v, ok
	case TypeMap:
		v, ok := value.(*record.Record)
		return v, ok
	}
	return nil, false
}

func coerceInteger(value any) (any, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == math.Trunc(v) && fitsInt64(v) {
			return int64(v), true
		}
		return nil, false
	case string:
		trimmed := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n, true
		}
		// Scientific notation like "1e3" still denotes an integral value.
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && f == math.Trunc(f) && fitsInt64(f) {
			return int64(f), true
		}
		return nil, false
	}
	return nil, false
}

// fitsInt64 reports whether f converts to int64 without overflow. MaxInt64
// rounds up to 2^63 as a float64, so the upper bound is exclusive. Rejects
// infinities as a side effect.
func fitsInt64(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

func coerceNumber(value any) (any, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
		return nil, false
	}
	return nil, false
}

// coerceBoolean accepts the classic strtobool spellings for string input.
func coerceBoolean(value any) (any, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on", "y", "t":
			return true, true
		case "0", "false", "no", "off", "n", "f":
			return false, true
		}
		return nil, false
	}
	return nil, false
}

func isAllowed(allowed []any, value any) bool {
	for _, candidate := range allowed {
		if looseEqual(candidate, value) {
			return true
		}
	}
	return false
}

// looseEqual compares across the numeric types YAML and the readers produce,
// so an allowed list of [1, 2] matches an int64(1) or float64(2).
func looseEqual(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
