// Package schema declares the expected shape of a Record and validates
// records against it. A schema is a minimum contract: fields it does not
// mention are ignored, fields it does mention are checked in declaration
// order so reports stay stable regardless of source column order.
package schema

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldType names the value type a field must hold after normalization.
type FieldType string

const (
	// TypeAny disables the type check and keeps the value as the reader
	// produced it.
	TypeAny FieldType = ""

	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeList    FieldType = "list"
	TypeMap     FieldType = "map"
)

func (t FieldType) valid() bool {
	switch t {
	case TypeAny, TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeList, TypeMap:
		return true
	}
	return false
}

// Field is one declared field with its constraints.
type Field struct {
	Name     string    `yaml:"name"`
	Type     FieldType `yaml:"type,omitempty"`
	Required bool      `yaml:"required,omitempty"`
	Nullable bool      `yaml:"nullable,omitempty"`

	// Allowed restricts the value to a fixed set, compared after coercion.
	Allowed []any `yaml:"allowed,omitempty"`

	// Min and Max bound numeric values, inclusive.
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// Pattern must match the entire string value.
	Pattern string `yaml:"pattern,omitempty"`

	re *regexp.Regexp
}

// Schema is an ordered list of field declarations.
type Schema struct {
	Fields []Field `yaml:"fields"`
}

// Parse reads a schema document from YAML and compiles its patterns.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: parse document: %w", err)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses a schema document from disk.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", path, err)
	}
	return s, nil
}

func (s *Schema) compile() error {
	seen := make(map[string]struct{}, len(s.Fields))
	for i := range s.Fields {
		field := &s.Fields[i]
		field.Name = strings.TrimSpace(field.Name)
		if field.Name == "" {
			return fmt.Errorf("schema: field %d has no name", i)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("schema: duplicate field %q", field.Name)
		}
		seen[field.Name] = struct{}{}

		if !field.Type.valid() {
			return fmt.Errorf("schema: field %q has unknown type %q", field.Name, field.Type)
		}
		if field.Pattern != "" {
			re, err := regexp.Compile(`\A(?:` + field.Pattern + `)\z`)
			if err != nil {
				return fmt.Errorf("schema: field %q pattern: %w", field.Name, err)
			}
			field.re = re
		}
		if field.Min != nil && field.Max != nil && *field.Min > *field.Max {
			return fmt.Errorf("schema: field %q min %v exceeds max %v", field.Name, *field.Min, *field.Max)
		}
	}
	return nil
}

// FieldNames returns declared field names in declaration order.
func (s *Schema) FieldNames() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}
