// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package pipeline runs an ordered sequence of verification stages against
// the working tree, halting at the first failure.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"go.astrophena.name/runchecks/internal/logger"
)

// Stage is one named verification step delegated to an external command.
// Stages are defined once at process start and never mutated.
type Stage struct {
	// Name is a short human-readable label, like "lint".
	Name string
	// Command is the argv of the external command. Fixed arguments that
	// enforce stage-specific policy (check-only mode, warnings as errors)
	// belong here, not in the runner.
	Command []string
}

// Result is the outcome of running a single stage.
type Result struct {
	// Stage is the stage that produced this result.
	Stage Stage
	// Output is the combined stdout and stderr of the command.
	Output []byte
	// Code is the exit status of the command, or -1 if it never started.
	Code int
	// Err is nil exactly when the command exited with status 0. A non-zero
	// exit and a failure to start the command at all are both failures;
	// Output and the error text are what tell them apart.
	Err error
}

// OK reports whether the stage passed.
func (r *Result) OK() bool { return r.Err == nil }

// Outcome is the aggregate result of one pipeline run.
type Outcome struct {
	// Failed is the result of the first failing stage, or nil if every
	// stage passed. Execution never proceeds past the first failure, so
	// there is at most one failed result per run.
	Failed *Result
}

// AllPassed reports whether every stage passed.
func (o *Outcome) AllPassed() bool { return o.Failed == nil }

// ExitCode maps the outcome to a process exit code: 0 when all stages
// passed, the failing command's own exit status when it terminated with a
// non-zero one, and 1 when it could not be started at all.
func (o *Outcome) ExitCode() int {
	if o.Failed == nil {
		return 0
	}
	if o.Failed.Code > 0 {
		return o.Failed.Code
	}
	return 1
}

// ErrNoStages is returned by [Runner.Run] when the stage sequence is empty.
var ErrNoStages = errors.New("pipeline: no stages to run")

// Runner executes stages one at a time, in order, stopping at the first
// failure.
type Runner struct {
	// Output receives a status line before each stage and the stages'
	// combined output as it is produced.
	Output io.Writer
	// Width, if non-nil, returns the width to shorten status lines to.
	// Zero or negative widths leave status lines unshortened.
	Width func() int
}

// Run executes stages in the given order against the current working tree.
// It stops at the first stage whose command does not exit with status 0;
// stages after it are never invoked. Stage failures are reported through the
// returned Outcome, not the error, which is reserved for an empty stage
// sequence.
//
// Each command runs synchronously and the wait for it is blocking: ctx
// carries the logger but does not cancel a running command.
func (r *Runner) Run(ctx context.Context, stages []Stage) (*Outcome, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	for i, stage := range stages {
		fmt.Fprintln(r.Output, statusLine(i+1, len(stages), stage, r.width()))
		res := r.runStage(ctx, stage)
		if !res.OK() {
			return &Outcome{Failed: res}, nil
		}
	}
	return &Outcome{}, nil
}

func (r *Runner) width() int {
	if r.Width == nil {
		return 0
	}
	return r.Width()
}

// runStage invokes the stage's command with stdout and stderr combined,
// streaming the output through to r.Output and capturing it for the result.
// cmd.Run waits for the command to exit on every path, so the child process
// and its output streams are released before the next stage starts.
func (r *Runner) runStage(ctx context.Context, stage Stage) *Result {
	res := &Result{Stage: stage, Code: -1}

	if len(stage.Command) == 0 {
		res.Err = fmt.Errorf("%s: stage has no command", stage.Name)
		return res
	}

	var buf bytes.Buffer
	out := io.MultiWriter(r.Output, &buf)

	cmd := exec.Command(stage.Command[0], stage.Command[1:]...)
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	res.Output = buf.Bytes()

	if err == nil {
		res.Code = 0
		logger.Debug(ctx, "stage passed",
			slog.String("stage", stage.Name),
			slog.Duration("elapsed", elapsed))
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.Code = exitErr.ExitCode()
		res.Err = fmt.Errorf("%s: %s exited with code %d", stage.Name, strings.Join(stage.Command, " "), res.Code)
	} else {
		res.Err = fmt.Errorf("%s: starting %s: %w", stage.Name, strings.Join(stage.Command, " "), err)
	}
	logger.Debug(ctx, "stage failed",
		slog.String("stage", stage.Name),
		slog.Int("code", res.Code),
		slog.Duration("elapsed", elapsed))
	return res
}

// statusLine formats the line announcing a stage, shortening it to width
// when the full line would not fit. The "[i/n] Running name: " prefix is
// never truncated; only the command is, with an ellipsis when there is room
// for one. Whitespace runs in the command (shell scripts in argv carry
// newlines and tabs) collapse to single spaces.
func statusLine(current, total int, stage Stage, width int) string {
	prefix := fmt.Sprintf("[%d/%d] Running %s: ", current, total, stage.Name)
	cmd := strings.Join(strings.Fields(strings.Join(stage.Command, " ")), " ")

	msg := prefix + cmd
	if width <= 0 || len(msg) <= width {
		return msg
	}

	avail := width - len(prefix)
	if avail <= 0 {
		return prefix
	}
	const ellipsis = "..."
	if avail <= len(ellipsis) {
		return prefix + cmd[:avail]
	}
	return prefix + cmd[:avail-len(ellipsis)] + ellipsis
}
