// Package runner invokes the external package manager and framework build
// tools inside the working copy.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/next2gas/internal/foundation/errors"
	"git.home.luguber.info/inful/next2gas/internal/logfields"
)

// Result holds the captured streams of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner abstracts process execution so stages can be tested without node or
// npm on PATH. Run blocks until the command exits; a non-zero exit is returned
// as an external_tool error carrying the captured output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Env is appended to the inherited environment.
	Env []string
}

func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	display := strings.TrimSpace(name + " " + strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Running command", logfields.Command(display), logfields.Path(dir))
	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}

	if res.Stdout != "" {
		slog.Debug("command stdout", logfields.Command(display), slog.String("output", res.Stdout))
	}
	if err == nil {
		return res, nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return res, ferrors.WrapError(err, ferrors.CategoryExternalTool, fmt.Sprintf("%s not found on PATH", name)).
			WithContext("command", display).Build()
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("%s: %w", display, ctx.Err())
	}

	// Tools report failures on either stream.
	output := res.Stderr
	if output == "" {
		output = res.Stdout
	} else if res.Stdout != "" {
		output = res.Stdout + "\n" + res.Stderr
	}
	return res, ferrors.WrapError(err, ferrors.CategoryExternalTool, fmt.Sprintf("command failed: %s", display)).
		WithContext("command", display).
		WithContext("dir", dir).
		WithOutput(output).
		Build()
}

// Call records one invocation made through a RecordingRunner.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Line renders the call as a shell-like command line.
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// RecordingRunner records calls instead of executing them. Respond, when set,
// produces the result for a call.
type RecordingRunner struct {
	Respond func(c Call) (Result, error)

	mu    sync.Mutex
	calls []Call
}

func (r *RecordingRunner) Run(_ context.Context, dir, name string, args ...string) (Result, error) {
	c := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
	if r.Respond != nil {
		return r.Respond(c)
	}
	return Result{}, nil
}

// Calls returns the recorded calls in order.
func (r *RecordingRunner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}
