// Package output resolves destination paths and writes rendered documents.
// Destination paths are templates themselves, so per-record filenames derive
// from record fields; the writer guards against two jobs resolving to the
// same file.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-docgen/pkg/render"
)

// ErrPathCollision marks two render jobs resolving to the same destination.
var ErrPathCollision = errors.New("path collision")

// ErrExists marks a destination that already exists and force is off.
var ErrExists = errors.New("destination already exists")

// ErrWrite marks filesystem-level failures, fatal to the run.
var ErrWrite = errors.New("write error")

// PathCollisionError names the conflicting path and the two jobs that claimed
// it, so naming-template mistakes are fixable from the report alone.
type PathCollisionError struct {
	Path      string
	FirstJob  int
	SecondJob int
}

func (e *PathCollisionError) Error() string {
	return fmt.Sprintf("output %s: %s: jobs %d and %d resolve to the same destination",
		e.Path, ErrPathCollision, e.FirstJob+1, e.SecondJob+1)
}

func (e *PathCollisionError) Unwrap() error {
	return ErrPathCollision
}

// WriteError wraps a filesystem failure with the destination path.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("output %s: %s: %v", e.Path, ErrWrite, e.Err)
}

func (e *WriteError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrWrite, e.Err}
	}
	return []error{ErrWrite}
}

// Option customises the writer.
type Option func(*Writer)

// WithForce allows overwriting existing destination files.
func WithForce(force bool) Option {
	return func(w *Writer) {
		w.force = force
	}
}

// WithBaseDir resolves relative destination paths against dir.
func WithBaseDir(dir string) Option {
	return func(w *Writer) {
		w.baseDir = strings.TrimSpace(dir)
	}
}

// Writer writes rendered text to resolved destinations. The claim set is
// shared across all jobs of a run and synchronized, so parallel rendering can
// claim paths before any write begins.
type Writer struct {
	mu      sync.Mutex
	claimed map[string]int

	force   bool
	baseDir string
}

// NewWriter constructs a Writer for one pipeline run.
func NewWriter(options ...Option) *Writer {
	w := &Writer{claimed: make(map[string]int)}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(w)
	}
	return w
}

// ResolvePath renders the destination-path template against the job's binding
// and normalizes the result.
func (w *Writer) ResolvePath(engine render.Engine, pathTemplate string, bind map[string]any) (string, error) {
	resolved, err := engine.RenderString(pathTemplate, bind)
	if err != nil {
		return "", err
	}
	resolved = strings.TrimSpace(resolved)
	if resolved == "" {
		return "", render.NewTemplateError(render.Excerpt(pathTemplate),
			errors.New("destination path resolved to an empty string"))
	}
	if w.baseDir != "" && !filepath.IsAbs(resolved) {
		resolved = filepath.Join(w.baseDir, resolved)
	}
	return filepath.Clean(resolved), nil
}

// Claim reserves a destination path for a job. A path already claimed by a
// different job is a collision regardless of claim order.
func (w *Writer) Claim(path string, job int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if first, taken := w.claimed[path]; taken {
		lo, hi := first, job
		if lo > hi {
			lo, hi = hi, lo
		}
		return &PathCollisionError{Path: path, FirstJob: lo, SecondJob: hi}
	}
	w.claimed[path] = job
	return nil
}

// Write persists rendered content at path. An existing regular file fails
// unless force is set; a destination that exists and is not a regular file
// always fails. Parent directories are created as needed.
func (w *Writer) Write(path string, content []byte) error {
	if info, err := os.Stat(path); err == nil {
		if !info.Mode().IsRegular() {
			return &WriteError{Path: path, Err: errors.New("destination exists and is not a regular file")}
		}
		if !w.force {
			return &WriteError{Path: path, Err: ErrExists}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &WriteError{Path: path, Err: err}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// Remove deletes a previously written destination. Used by delete-after runs
// where a post hook has already consumed the file.
func (w *Writer) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
