package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ErrHook marks pre/post hook command failures, fatal to the run.
var ErrHook = errors.New("hook failed")

// HookError carries the failing stage, command, and captured output.
type HookError struct {
	Stage   string
	Command string
	Output  string
	Err     error
}

func (e *HookError) Error() string {
	msg := fmt.Sprintf("%s hook %q: %s: %v", e.Stage, e.Command, ErrHook, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *HookError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrHook, e.Err}
	}
	return []error{ErrHook}
}

// HookRunner executes a hook command. The default implementation splits the
// command shell-style and runs it directly, without a shell.
type HookRunner interface {
	Run(ctx context.Context, stage, command, dir string, env map[string]string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stage, command, dir string, env map[string]string) error {
	parts, err := shellquote.Split(command)
	if err != nil {
		return &HookError{Stage: stage, Command: command, Err: err}
	}
	if len(parts) == 0 {
		return nil
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	for key, value := range env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		return &HookError{Stage: stage, Command: command, Output: string(out), Err: err}
	}
	return nil
}
