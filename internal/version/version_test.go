// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package version

import (
	"runtime"
	"strings"
	"testing"

	"go.astrophena.name/runchecks/internal/testutil"
)

func TestVersion(t *testing.T) {
	t.Parallel()

	i := Version()
	testutil.AssertEqual(t, i.Name, CmdName())
	testutil.AssertEqual(t, i.Go, runtime.Version())
	if i.Version == "" {
		t.Error("Version must not be empty")
	}

	// Version is computed once.
	testutil.AssertEqual(t, Version(), i)
}

func TestInfoString(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		in   Info
		want string
	}{
		"without commit": {
			in:   Info{Name: "runchecks", Version: "devel", Go: "go1.26.0"},
			want: "runchecks devel\nbuilt with go1.26.0\n",
		},
		"with commit": {
			in:   Info{Name: "runchecks", Version: "v1.2.3", Commit: "abcdef123456", Go: "go1.26.0"},
			want: "runchecks v1.2.3 (abcdef123456)\nbuilt with go1.26.0\n",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, tc.in.String(), tc.want)
		})
	}
}

func TestCmdName(t *testing.T) {
	t.Parallel()

	name := CmdName()
	if name == "" {
		t.Fatal("CmdName() must not be empty")
	}
	if strings.HasSuffix(name, ".exe") {
		t.Errorf("CmdName() = %q, must not keep the .exe suffix", name)
	}
}
