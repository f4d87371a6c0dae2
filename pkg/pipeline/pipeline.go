package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-docgen/internal/reader"
	"github.com/goliatone/go-docgen/pkg/binding"
	"github.com/goliatone/go-docgen/pkg/output"
	"github.com/goliatone/go-docgen/pkg/record"
	"github.com/goliatone/go-docgen/pkg/render"
	"github.com/goliatone/go-docgen/pkg/render/pongo"
	"github.com/goliatone/go-docgen/pkg/schema"
	"github.com/goliatone/go-docgen/pkg/source"
)

// State names the phase a run is in. A run moves forward through the states
// in order and never revisits one; Aborted is reachable from any phase.
type State string

const (
	StateLoading    State = "loading"
	StateValidating State = "validating"
	StateRendering  State = "rendering"
	StateWriting    State = "writing"
	StateDone       State = "done"
	StateAborted    State = "aborted"
)

// ErrValidation marks a run aborted because strict mode saw invalid records.
var ErrValidation = errors.New("validation failed")

// Request describes one conversion run.
type Request struct {
	// Sources are read in order; records keep their position across files.
	Sources []source.Source

	ReadOptions source.ReadOptions

	// Schema is optional. When nil every loaded record is rendered.
	Schema *schema.Schema

	// Template is the template name, resolved by the engine's loader.
	Template string

	// Output is the destination path template, rendered per job.
	Output string

	Mode binding.Mode

	// Engine selects a registered engine by name. Empty uses the default.
	Engine string

	// Strict aborts the run when any record fails validation.
	Strict bool

	// Force overwrites existing destination files.
	Force bool

	// Delete removes each file again after its post hook ran.
	Delete bool

	// Skip is a template expression evaluated per job; a truthy result
	// drops the job before rendering.
	Skip string

	PreHook  string
	PostHook string

	// Vars are extra variables merged into every binding, shadowed by
	// record fields.
	Vars map[string]any

	// Workers bounds render parallelism. Values below 2 render serially.
	Workers int

	// WorkDir anchors relative output paths and hook commands.
	WorkDir string
}

// RecordFailure reports one invalid record.
type RecordFailure struct {
	Position   int
	Source     string
	Violations []schema.Violation
}

// Report summarises a run. Counters are final even when the run aborted.
type Report struct {
	State       State
	AbortReason string

	Loaded   int
	Valid    int
	Invalid  int
	Skipped  int
	Rendered int
	Written  int

	Failures []RecordFailure
	Paths    []string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReader replaces the format-dispatching source reader.
func WithReader(r source.Reader) Option {
	return func(p *Pipeline) {
		p.reader = r
	}
}

// WithRegistry replaces the engine registry.
func WithRegistry(reg *render.Registry) Option {
	return func(p *Pipeline) {
		p.registry = reg
	}
}

// WithDefaultEngine sets the engine used when the request names none.
func WithDefaultEngine(name string) Option {
	return func(p *Pipeline) {
		p.engine = name
	}
}

// WithLogger sets the run logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithHookRunner replaces the hook executor, mainly for tests.
func WithHookRunner(runner HookRunner) Option {
	return func(p *Pipeline) {
		p.hooks = runner
	}
}

// Pipeline runs conversion requests. It is safe for concurrent use.
type Pipeline struct {
	reader   source.Reader
	registry *render.Registry
	engine   string
	logger   *slog.Logger
	hooks    HookRunner

	initErr error
}

// New builds a pipeline with a reader for every supported format and a
// default template engine. Construction errors surface on the first Run.
func New(options ...Option) *Pipeline {
	p := &Pipeline{
		reader: reader.New(),
		engine: "pongo",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		hooks:  execRunner{},
	}

	for _, opt := range options {
		opt(p)
	}

	if p.registry == nil {
		p.registry = render.NewRegistry()
		engine, err := pongo.New()
		if err != nil {
			p.initErr = fmt.Errorf("pipeline: default engine: %w", err)
		} else if err := p.registry.Register(engine); err != nil {
			p.initErr = fmt.Errorf("pipeline: default engine: %w", err)
		}
	}

	return p
}

type renderResult struct {
	path    string
	content string
	skipped bool
	err     error
}

// Run executes one request and reports what happened. The returned report is
// non-nil even on error; its State and AbortReason say where the run stopped.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	report := &Report{State: StateLoading}

	if p.initErr != nil {
		return p.abort(report, p.initErr)
	}
	if len(req.Sources) == 0 {
		return p.abort(report, errors.New("pipeline: no sources"))
	}
	if req.Template == "" {
		return p.abort(report, errors.New("pipeline: no template"))
	}
	if req.Output == "" {
		return p.abort(report, errors.New("pipeline: no output path template"))
	}

	name := req.Engine
	if name == "" {
		name = p.engine
	}
	engine, err := p.registry.Get(name)
	if err != nil {
		return p.abort(report, fmt.Errorf("pipeline: %w", err))
	}

	items, err := p.load(ctx, req)
	if err != nil {
		return p.abort(report, err)
	}
	report.Loaded = len(items)
	p.logger.Info("loaded records", "count", report.Loaded, "sources", len(req.Sources))

	report.State = StateValidating
	valid := p.validate(req, items, report)
	if req.Strict && report.Invalid > 0 {
		return p.abort(report, fmt.Errorf("pipeline: %w: %d of %d records invalid",
			ErrValidation, report.Invalid, report.Loaded))
	}

	report.State = StateRendering
	builder := binding.Builder{
		Mode:    req.Mode,
		Globals: req.Vars,
		Meta: binding.Meta{
			Input:    req.Sources[0].Location(),
			Output:   req.Output,
			Template: req.Template,
		},
	}
	jobs, err := builder.Build(valid, report.Loaded)
	if err != nil {
		return p.abort(report, fmt.Errorf("pipeline: %w", err))
	}

	writer := output.NewWriter(output.WithForce(req.Force), output.WithBaseDir(req.WorkDir))
	results, err := p.render(ctx, engine, writer, req, jobs)
	if err != nil {
		return p.abort(report, fmt.Errorf("pipeline: %w", err))
	}
	for i := range results {
		if results[i].skipped {
			report.Skipped++
		} else {
			report.Rendered++
		}
	}
	p.logger.Info("rendered jobs", "rendered", report.Rendered, "skipped", report.Skipped)

	report.State = StateWriting
	for i := range results {
		if results[i].skipped {
			continue
		}
		res := &results[i]
		if req.PreHook != "" {
			if err := p.hooks.Run(ctx, "pre", req.PreHook, req.WorkDir, hookEnv(res.path)); err != nil {
				return p.abort(report, fmt.Errorf("pipeline: %w", err))
			}
		}
		if err := writer.Write(res.path, []byte(res.content)); err != nil {
			return p.abort(report, fmt.Errorf("pipeline: %w", err))
		}
		report.Written++
		report.Paths = append(report.Paths, res.path)
		if req.PostHook != "" {
			if err := p.hooks.Run(ctx, "post", req.PostHook, req.WorkDir, hookEnv(res.path)); err != nil {
				return p.abort(report, fmt.Errorf("pipeline: %w", err))
			}
		}
		if req.Delete {
			if err := writer.Remove(res.path); err != nil {
				return p.abort(report, fmt.Errorf("pipeline: %w", err))
			}
		}
	}
	p.logger.Info("run complete", "written", report.Written)

	report.State = StateDone
	return report, nil
}

func (p *Pipeline) abort(report *Report, err error) (*Report, error) {
	report.State = StateAborted
	report.AbortReason = err.Error()
	p.logger.Error("run aborted", "reason", report.AbortReason)
	return report, err
}

func (p *Pipeline) load(ctx context.Context, req Request) ([]binding.Item, error) {
	var items []binding.Item
	for _, src := range req.Sources {
		set, err := p.reader.Read(ctx, src, req.ReadOptions)
		if err != nil {
			return nil, fmt.Errorf("pipeline: loading %s: %w", src.Location(), err)
		}
		p.logger.Debug("read source",
			"location", src.Location(),
			"records", set.Len(),
			"columns", strings.Join(set.SortedColumns(), ","))
		for _, rec := range set.Records {
			items = append(items, binding.Item{
				Position: len(items),
				Record:   rec,
				Source:   src.Location(),
			})
		}
	}
	return items, nil
}

// validate filters items through the schema. Invalid records drop out whole;
// the survivors carry the schema's coerced values.
func (p *Pipeline) validate(req Request, items []binding.Item, report *Report) []binding.Item {
	if req.Schema == nil {
		report.Valid = len(items)
		return items
	}

	valid := make([]binding.Item, 0, len(items))
	for _, it := range items {
		res := req.Schema.Validate(it.Record)
		if res.Valid() {
			it.Record = res.Record
			valid = append(valid, it)
			continue
		}
		report.Failures = append(report.Failures, RecordFailure{
			Position:   it.Position,
			Source:     it.Source,
			Violations: res.Violations,
		})
		p.logger.Warn("record failed validation",
			"record", it.Position+1, "source", it.Source, "violations", len(res.Violations))
	}
	report.Valid = len(valid)
	report.Invalid = len(items) - len(valid)
	return valid
}

// render produces content for every job. Claims on destination paths happen
// here so collisions surface before anything touches the filesystem. With
// Workers > 1 jobs render concurrently; results come back in job order and
// the first failing job (by order) decides the run's error.
func (p *Pipeline) render(ctx context.Context, engine render.Engine, writer *output.Writer, req Request, jobs []binding.Job) ([]renderResult, error) {
	results := make([]renderResult, len(jobs))

	workers := req.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers > 1 {
		p.renderParallel(ctx, engine, writer, req, jobs, results, workers)
	} else {
		for i := range jobs {
			results[i] = p.renderOne(engine, writer, req, jobs[i])
			if results[i].err != nil {
				break
			}
		}
	}

	for i := range results {
		if err := results[i].err; err != nil {
			position := jobs[i].Position
			// A collision lands on whichever of the two jobs claimed the
			// path second, which under parallel rendering depends on
			// scheduling. Pinning it to the higher-positioned job keeps
			// the abort reason identical across serial and parallel runs.
			var collision *output.PathCollisionError
			if errors.As(err, &collision) {
				position = collision.SecondJob
			}
			return nil, fmt.Errorf("rendering job %d: %w", position+1, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) renderParallel(ctx context.Context, engine render.Engine, writer *output.Writer, req Request, jobs []binding.Job, results []renderResult, workers int) {
	var (
		wg     sync.WaitGroup
		failed atomic.Bool
		next   = make(chan int)
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				results[i] = p.renderOne(engine, writer, req, jobs[i])
				if results[i].err != nil {
					failed.Store(true)
				}
			}
		}()
	}
	for i := range jobs {
		if failed.Load() || ctx.Err() != nil {
			break
		}
		next <- i
	}
	close(next)
	wg.Wait()
}

func (p *Pipeline) renderOne(engine render.Engine, writer *output.Writer, req Request, job binding.Job) renderResult {
	if err := binding.Resolve(engine, job.Binding); err != nil {
		return renderResult{err: err}
	}

	if req.Skip != "" {
		skip, err := p.evalSkip(engine, req.Skip, job.Binding)
		if err != nil {
			return renderResult{err: err}
		}
		if skip {
			return renderResult{skipped: true}
		}
	}

	path, err := writer.ResolvePath(engine, req.Output, job.Binding)
	if err != nil {
		return renderResult{err: err}
	}
	if err := writer.Claim(path, job.Position); err != nil {
		return renderResult{err: err}
	}

	// Templates see the concrete destination, not the path template.
	job.Binding[binding.VarOutput] = path

	content, err := engine.RenderFile(req.Template, job.Binding)
	if err != nil {
		return renderResult{err: err}
	}
	return renderResult{path: path, content: content}
}

// evalSkip renders the skip expression and reads the result as a boolean.
// Anything that is not a recognised truth word is a template error.
func (p *Pipeline) evalSkip(engine render.Engine, expr string, bind map[string]any) (bool, error) {
	rendered, err := engine.RenderString(expr, bind)
	if err != nil {
		return false, err
	}
	value, err := truthy(rendered)
	if err != nil {
		return false, render.NewTemplateError(expr, err)
	}
	return value, nil
}

func truthy(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "", "0", "f", "false", "n", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

func hookEnv(path string) map[string]string {
	return map[string]string{"DOCGEN_OUTPUT": path}
}

// Records loads every source of a request without rendering anything. It is
// the programmatic entry for callers that only want the parsed data.
func (p *Pipeline) Records(ctx context.Context, req Request) (*record.Set, error) {
	if p.initErr != nil {
		return nil, p.initErr
	}
	items, err := p.load(ctx, req)
	if err != nil {
		return nil, err
	}
	set := &record.Set{}
	for _, it := range items {
		set.Append(it.Record)
	}
	return set, nil
}
