// Package pongo backs the render.Engine contract with a pongo2 template set.
// The expression syntax is Django/Jinja2-style, which is what document
// templates in the wild use.
package pongo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-docgen/pkg/render"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
	globals   map[string]any
}

// WithBaseDir configures the engine to load template files from a directory
// on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS configures the engine to load template files from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithGlobals seeds context values available to every template.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// Engine satisfies render.Engine using a pongo2 template set. File templates
// are cached after first load.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
}

var _ render.Engine = (*Engine)(nil)

// New constructs an Engine. Without a base directory or fs.FS the engine can
// still render inline content; RenderFile will fail.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("pongo: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	if len(loaders) == 0 {
		loaders = append(loaders, pongo2.MustNewLocalFileSystemLoader(""))
	}

	engine := &Engine{
		templateSet: pongo2.NewSet("docgen", loaders...),
		templates:   make(map[string]*pongo2.Template),
	}

	if len(cfg.globals) > 0 {
		engine.templateSet.Globals = pongo2.Context(cfg.globals)
	}
	if err := registerDefaultFilters(engine); err != nil {
		return nil, err
	}

	return engine, nil
}

// Name identifies this engine in the registry.
func (e *Engine) Name() string {
	return "pongo"
}

// RenderString renders inline template content against the binding.
func (e *Engine) RenderString(template string, binding map[string]any) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.templateSet.FromString(template)
	if err != nil {
		return "", render.NewTemplateError(render.Excerpt(template), err)
	}
	return e.execute(tmpl, render.Excerpt(template), binding)
}

// RenderFile renders a template loaded through the configured loaders.
func (e *Engine) RenderFile(name string, binding map[string]any) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", render.NewTemplateError(name, err)
	}
	return e.execute(tmpl, name, binding)
}

// RegisterFilter registers a single-argument template filter. pongo2 filters
// are process-wide; re-registering an existing name is an error.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "custom_filter", OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}

	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, filter)
}

// RegisterFunction exposes a callable in every template's global context.
// Used for helpers that need more than one argument, which pongo2 filters
// cannot express.
func (e *Engine) RegisterFunction(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return errors.New("pongo: function name and value required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals[trimmed] = fn
	return nil
}

func (e *Engine) execute(tmpl *pongo2.Template, name string, binding map[string]any) (string, error) {
	var buf bytes.Buffer

	e.mu.RLock()
	err := tmpl.ExecuteWriter(pongo2.Context(binding), &buf)
	e.mu.RUnlock()

	if err != nil {
		return "", render.NewTemplateError(name, err)
	}
	return buf.String(), nil
}

func (e *Engine) getTemplate(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[name]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[name]; ok {
		return tmpl, nil
	}

	tmpl, err := e.templateSet.FromFile(name)
	if err != nil {
		return nil, err
	}

	e.templates[name] = tmpl
	return tmpl, nil
}

// IsTemplate reports whether a string contains template markers and therefore
// needs rendering before use. Mirrors the marker set of the engine syntax.
func IsTemplate(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%") || strings.Contains(s, "{#")
}
