// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package clitest provides a harness for table-driven tests of [cli.App]
// implementations.
package clitest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"go.astrophena.name/runchecks/internal/cli"
)

// Case describes a single test case for a [cli.App].
type Case[App cli.App] struct {
	// Args are the command-line arguments passed to the app.
	Args []string
	// Env contains the environment variables visible to the app through
	// [cli.Env.Getenv].
	Env map[string]string
	// Stdin is the app's standard input.
	Stdin io.Reader
	// WantErr, if set, requires the returned error to match with [errors.Is].
	WantErr error
	// WantExitCode, if non-zero, requires [cli.ExitCode] of the returned
	// error to match.
	WantExitCode int
	// WantNothingPrinted requires both stdout and stderr to be empty.
	WantNothingPrinted bool
	// WantInStdout, if set, requires stdout to contain this substring.
	WantInStdout string
	// WantInStderr, if set, requires stderr to contain this substring.
	WantInStderr string
	// CheckFunc, if set, runs after the app with the app value, for
	// case-specific assertions.
	CheckFunc func(*testing.T, App)
}

// Run runs each case as a subtest: setup constructs a fresh app, the app
// runs via [cli.Run] with an isolated environment, and the case's
// expectations are checked.
func Run[App cli.App](t *testing.T, setup func(*testing.T) App, cases map[string]Case[App]) {
	t.Helper()

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			app := setup(t)

			stdin := tc.Stdin
			if stdin == nil {
				stdin = strings.NewReader("")
			}

			var stdout, stderr bytes.Buffer
			env := &cli.Env{
				Args:   tc.Args,
				Stdin:  stdin,
				Stdout: &stdout,
				Stderr: &stderr,
				Getenv: func(key string) string { return tc.Env[key] },
			}

			err := cli.Run(cli.WithEnv(context.Background(), env), app)

			if tc.WantErr != nil && !errors.Is(err, tc.WantErr) {
				t.Errorf("want error %v, got %v", tc.WantErr, err)
			}
			if tc.WantErr == nil && tc.WantExitCode == 0 && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tc.WantExitCode != 0 {
				if got := cli.ExitCode(err); got != tc.WantExitCode {
					t.Errorf("want exit code %d, got %d (err: %v)", tc.WantExitCode, got, err)
				}
			}
			if tc.WantNothingPrinted {
				if stdout.Len() > 0 {
					t.Errorf("nothing must be printed to stdout, got: %q", stdout.String())
				}
				if stderr.Len() > 0 {
					t.Errorf("nothing must be printed to stderr, got: %q", stderr.String())
				}
			}
			if tc.WantInStdout != "" && !strings.Contains(stdout.String(), tc.WantInStdout) {
				t.Errorf("stdout must contain %q, got: %q", tc.WantInStdout, stdout.String())
			}
			if tc.WantInStderr != "" && !strings.Contains(stderr.String(), tc.WantInStderr) {
				t.Errorf("stderr must contain %q, got: %q", tc.WantInStderr, stderr.String())
			}
			if tc.CheckFunc != nil {
				tc.CheckFunc(t, app)
			}
		})
	}
}
