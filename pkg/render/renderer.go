// Package render defines the template-engine capability the pipeline
// consumes. Engines live behind a small interface plus a named registry so
// the concrete expression syntax stays out of the core.
package render

import (
	"errors"
	"fmt"
)

// Engine renders template text against a variable binding. Failures are
// authoring errors in the template/binding pairing and surface as
// TemplateError, never as silent defaults.
type Engine interface {
	Name() string

	// RenderString renders inline template content.
	RenderString(template string, binding map[string]any) (string, error)

	// RenderFile renders a template loaded from the engine's configured
	// base directory or filesystem.
	RenderFile(name string, binding map[string]any) (string, error)

	// RegisterFilter installs a named value filter usable from templates.
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
}

// ErrTemplate marks template syntax errors, undefined-variable references,
// and expression evaluation failures.
var ErrTemplate = errors.New("template error")

// TemplateError attributes a rendering failure to a template.
type TemplateError struct {
	// Template identifies the failing template: a file name or a short
	// excerpt for inline content.
	Template string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("render %s: %s: %v", e.Template, ErrTemplate, e.Err)
}

func (e *TemplateError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTemplate, e.Err}
	}
	return []error{ErrTemplate}
}

// NewTemplateError wraps an engine failure, collapsing nested TemplateErrors
// so callers see a single attribution.
func NewTemplateError(template string, err error) *TemplateError {
	var nested *TemplateError
	if errors.As(err, &nested) {
		return nested
	}
	return &TemplateError{Template: template, Err: err}
}

// Excerpt shortens inline template content for error attribution.
func Excerpt(template string) string {
	const max = 40
	if len(template) <= max {
		return fmt.Sprintf("%q", template)
	}
	return fmt.Sprintf("%q...", template[:max])
}
