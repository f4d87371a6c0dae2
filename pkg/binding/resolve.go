package binding

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-docgen/pkg/render"
)

// maxResolvePasses bounds recursive variable resolution so mutually
// referential variables terminate instead of looping.
const maxResolvePasses = 8

// markers that make a string value a candidate for resolution.
var templateMarkers = []string{"{{", "{%", "{#"}

// Resolve renders string variables that contain template markers against the
// binding itself, repeating until values stop changing or the pass limit is
// hit. A resolved value that parses cleanly as a number or boolean is
// re-typed, so a variable like "{{ record_index }}" can feed numeric
// expressions downstream.
func Resolve(engine render.Engine, bind map[string]any) error {
	for pass := 0; pass < maxResolvePasses; pass++ {
		changed, err := resolveMap(engine, bind, bind)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}
	return nil
}

func resolveMap(engine render.Engine, root, m map[string]any) (bool, error) {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	changed := false
	for _, key := range keys {
		next, didChange, err := resolveValue(engine, root, m[key])
		if err != nil {
			return false, err
		}
		if didChange {
			m[key] = next
			changed = true
		}
	}
	return changed, nil
}

func resolveValue(engine render.Engine, root map[string]any, value any) (any, bool, error) {
	switch v := value.(type) {
	case string:
		if !isPossiblyTemplate(v) {
			return v, false, nil
		}
		rendered, err := engine.RenderString(v, root)
		if err != nil {
			return nil, false, err
		}
		if rendered == v {
			return v, false, nil
		}
		return evaluateScalar(rendered), true, nil
	case map[string]any:
		changed, err := resolveMap(engine, root, v)
		return v, changed, err
	case []any:
		changed := false
		for i, item := range v {
			next, didChange, err := resolveValue(engine, root, item)
			if err != nil {
				return nil, false, err
			}
			if didChange {
				v[i] = next
				changed = true
			}
		}
		return v, changed, nil
	default:
		return value, false, nil
	}
}

func isPossiblyTemplate(s string) bool {
	for _, marker := range templateMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// evaluateScalar re-types a rendered string when it denotes a number or
// boolean; anything else stays a string.
func evaluateScalar(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	switch strings.ToLower(trimmed) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	return s
}
