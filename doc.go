// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Runchecks is a pre-commit verification gate.

It runs a fixed sequence of checks against the current Git repository, in
this order:

 1. lint: go vet ./...
 2. format: a check-only gofmt pass that fails when any file needs
    reformatting
 3. test: go test ./...

The first failing check stops the run. Later checks are not invoked, the
failing command's output is printed as is, and the process exits with that
command's status code (or 1 when the command could not be started at all).
When every check passes, the exit code is 0. The commit hook uses this exit
code to allow or block the commit.

On its first run outside CI (the CI environment variable not set to "true"),
runchecks installs itself as the repository's .git/hooks/pre-commit hook, so
subsequent commits are gated automatically. An existing hook is never
overwritten.

Pass -verbose to log each check's timing and exit status to stderr.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/runchecks/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
