// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.astrophena.name/runchecks/internal/testutil"
)

// sh returns a stage running a short shell snippet, standing in for an
// external check tool.
func sh(name, script string) Stage {
	return Stage{Name: name, Command: []string{"sh", "-c", script}}
}

func run(t *testing.T, stages []Stage) (*Outcome, string) {
	t.Helper()
	var out bytes.Buffer
	r := &Runner{Output: &out}
	outcome, err := r.Run(context.Background(), stages)
	if err != nil {
		t.Fatalf("Run(): %v", err)
	}
	return outcome, out.String()
}

func TestRunAllStagesPass(t *testing.T) {
	t.Parallel()

	outcome, out := run(t, []Stage{
		sh("lint", "echo lint ok"),
		sh("format", "echo format ok"),
		sh("test", "echo test ok"),
	})

	testutil.AssertEqual(t, outcome.AllPassed(), true)
	testutil.AssertEqual(t, outcome.ExitCode(), 0)

	want := "[1/3] Running lint: sh -c echo lint ok\n" +
		"lint ok\n" +
		"[2/3] Running format: sh -c echo format ok\n" +
		"format ok\n" +
		"[3/3] Running test: sh -c echo test ok\n" +
		"test ok\n"
	testutil.AssertEqual(t, out, want)
}

func TestRunHaltsAtFirstFailure(t *testing.T) {
	t.Parallel()

	outcome, out := run(t, []Stage{
		sh("lint", "echo lint violation; exit 1"),
		sh("format", "echo format ok"),
		sh("test", "echo test ok"),
	})

	testutil.AssertEqual(t, outcome.AllPassed(), false)
	testutil.AssertEqual(t, outcome.Failed.Stage.Name, "lint")
	testutil.AssertEqual(t, outcome.Failed.Code, 1)
	testutil.AssertEqual(t, outcome.ExitCode(), 1)
	testutil.AssertEqual(t, string(outcome.Failed.Output), "lint violation\n")

	// Exactly one status line: the stages after the failure are never
	// invoked and get no announcement.
	want := "[1/3] Running lint: sh -c echo lint violation; exit 1\n" +
		"lint violation\n"
	testutil.AssertEqual(t, out, want)
}

func TestRunHaltsAtMiddleStage(t *testing.T) {
	t.Parallel()

	outcome, out := run(t, []Stage{
		sh("lint", "echo lint ok"),
		sh("format", "echo needs reformatting; exit 1"),
		sh("test", "echo test ok"),
	})

	testutil.AssertEqual(t, outcome.Failed.Stage.Name, "format")
	testutil.AssertEqual(t, outcome.ExitCode(), 1)
	if strings.Contains(out, "Running test") {
		t.Errorf("the test stage must not be announced, got:\n%s", out)
	}
	if !strings.Contains(out, "Running lint") || !strings.Contains(out, "Running format") {
		t.Errorf("lint and format must both be announced, got:\n%s", out)
	}
}

func TestRunPropagatesExitCode(t *testing.T) {
	t.Parallel()

	outcome, _ := run(t, []Stage{sh("test", "exit 7")})

	testutil.AssertEqual(t, outcome.Failed.Code, 7)
	testutil.AssertEqual(t, outcome.ExitCode(), 7)
}

func TestRunInvocationError(t *testing.T) {
	t.Parallel()

	outcome, out := run(t, []Stage{
		sh("lint", "echo lint ok"),
		sh("format", "echo format ok"),
		{Name: "test", Command: []string{"/nonexistent/test-runner"}},
	})

	testutil.AssertEqual(t, outcome.AllPassed(), false)
	testutil.AssertEqual(t, outcome.Failed.Stage.Name, "test")
	// The command never started, so there is no exit status to propagate.
	testutil.AssertEqual(t, outcome.Failed.Code, -1)
	testutil.AssertEqual(t, outcome.ExitCode(), 1)
	testutil.AssertEqual(t, len(outcome.Failed.Output), 0)
	if !strings.Contains(outcome.Failed.Err.Error(), "starting /nonexistent/test-runner") {
		t.Errorf("error must describe the invocation failure, got: %v", outcome.Failed.Err)
	}
	if !strings.Contains(out, "[3/3] Running test: /nonexistent/test-runner") {
		t.Errorf("the failing stage must be announced before its output, got:\n%s", out)
	}
}

func TestRunOrderSensitivity(t *testing.T) {
	t.Parallel()

	a := sh("A", "exit 1")
	b := sh("B", "echo b ran")

	outcome, out := run(t, []Stage{a, b})
	testutil.AssertEqual(t, outcome.Failed.Stage.Name, "A")
	if strings.Contains(out, "b ran") {
		t.Errorf("B must not run after A fails, got:\n%s", out)
	}

	outcome, out = run(t, []Stage{b, a})
	testutil.AssertEqual(t, outcome.Failed.Stage.Name, "A")
	if !strings.Contains(out, "b ran") {
		t.Errorf("B must run before A is reached, got:\n%s", out)
	}
}

func TestRunClassificationIsIdempotent(t *testing.T) {
	t.Parallel()

	stages := []Stage{
		sh("lint", "echo ok"),
		sh("format", "exit 1"),
	}

	first, _ := run(t, stages)
	second, _ := run(t, stages)

	testutil.AssertEqual(t, first.AllPassed(), second.AllPassed())
	testutil.AssertEqual(t, first.Failed.Stage.Name, second.Failed.Stage.Name)
	testutil.AssertEqual(t, first.Failed.Code, second.Failed.Code)
}

func TestRunEmptyStages(t *testing.T) {
	t.Parallel()

	r := &Runner{Output: &bytes.Buffer{}}
	_, err := r.Run(context.Background(), nil)
	if !errors.Is(err, ErrNoStages) {
		t.Fatalf("want ErrNoStages, got %v", err)
	}
}

func TestRunStageWithoutCommand(t *testing.T) {
	t.Parallel()

	outcome, _ := run(t, []Stage{{Name: "broken"}})
	testutil.AssertEqual(t, outcome.AllPassed(), false)
	testutil.AssertEqual(t, outcome.ExitCode(), 1)
}

func TestStatusLine(t *testing.T) {
	t.Parallel()

	stage := Stage{Name: "test", Command: []string{"go", "test", "./..."}}

	cases := map[string]struct {
		current int
		total   int
		stage   Stage
		width   int
		want    string
	}{
		"no width does not shorten": {
			current: 1,
			total:   1,
			stage:   Stage{Name: "lint", Command: []string{"very-long-command", "with", "arguments"}},
			width:   0,
			want:    "[1/1] Running lint: very-long-command with arguments",
		},
		"small width with ellipsis": {
			current: 2,
			total:   10,
			stage:   stage,
			width:   28,
			want:    "[2/10] Running test: go t...",
		},
		"very small width keeps prefix only": {
			current: 3,
			total:   10,
			stage:   stage,
			width:   10,
			want:    "[3/10] Running test: ",
		},
		"very small width trims without ellipsis": {
			current: 2,
			total:   100,
			stage:   stage,
			width:   24,
			want:    "[2/100] Running test: go",
		},
		"whitespace in the command collapses": {
			current: 1,
			total:   3,
			stage:   Stage{Name: "format", Command: []string{"sh", "-c", "a\nb\tc"}},
			width:   0,
			want:    "[1/3] Running format: sh -c a b c",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := statusLine(tc.current, tc.total, tc.stage, tc.width)
			if got != tc.want {
				t.Fatalf("statusLine() = %q, want %q", got, tc.want)
			}
			if strings.ContainsAny(got, "\t\n") {
				t.Fatalf("statusLine() contains a tab or newline: %q", got)
			}
		})
	}
}
