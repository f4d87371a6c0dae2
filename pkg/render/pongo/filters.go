package pongo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/kballard/go-shellquote"
	"github.com/microcosm-cc/bluemonday"
)

// htmlPolicy sanitizes user-supplied HTML fragments embedded into rendered
// documents. The UGC policy allows formatting tags but strips scripts and
// event handlers.
var htmlPolicy = bluemonday.UGCPolicy()

// registerDefaultFilters installs the document-generation filter set. pongo2
// keeps one process-wide filter table, so repeated engine construction skips
// names that already exist.
func registerDefaultFilters(e *Engine) error {
	filters := map[string]func(input any, param any) (any, error){
		"regex_escape": func(input any, _ any) (any, error) {
			return regexp.QuoteMeta(asString(input)), nil
		},
		"bool": func(input any, _ any) (any, error) {
			return toBool(input)
		},
		"quote": func(input any, _ any) (any, error) {
			return shellquote.Join(asString(input)), nil
		},
		"sanitize_html": func(input any, _ any) (any, error) {
			return htmlPolicy.Sanitize(asString(input)), nil
		},
	}
	for name, fn := range filters {
		if pongo2.FilterExists(name) {
			continue
		}
		if err := e.RegisterFilter(name, fn); err != nil {
			return fmt.Errorf("pongo: register filter %q: %w", name, err)
		}
	}

	functions := map[string]any{
		"regex_replace":  regexReplace,
		"regex_search":   regexSearch,
		"regex_contains": regexContains,
	}
	for name, fn := range functions {
		if err := e.RegisterFunction(name, fn); err != nil {
			return fmt.Errorf("pongo: register function %q: %w", name, err)
		}
	}
	return nil
}

func regexReplace(value, pattern, replacement *pongo2.Value) *pongo2.Value {
	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return pongo2.AsValue(err)
	}
	return pongo2.AsValue(re.ReplaceAllString(value.String(), replacement.String()))
}

func regexSearch(value, pattern *pongo2.Value) *pongo2.Value {
	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return pongo2.AsValue(err)
	}
	return pongo2.AsValue(re.FindString(value.String()))
}

func regexContains(value, pattern *pongo2.Value) *pongo2.Value {
	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return pongo2.AsValue(err)
	}
	return pongo2.AsValue(re.MatchString(value.String()))
}

func asString(input any) string {
	if s, ok := input.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", input)
}

// toBool converts the classic strtobool spellings; anything else is an error
// surfaced as a template evaluation failure.
func toBool(input any) (any, error) {
	switch v := input.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on", "y", "t":
			return true, nil
		case "0", "false", "no", "off", "n", "f":
			return false, nil
		}
	}
	return nil, fmt.Errorf("%v is not a boolean value", input)
}
