// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package version provides information about the current binary's build.
package version

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"go.astrophena.name/runchecks/internal/syncx"
)

// CmdName returns the base name of the current binary.
func CmdName() string {
	exe, err := os.Executable()
	if err != nil {
		return "runchecks"
	}
	return strings.TrimSuffix(filepath.Base(exe), ".exe")
}

// Info describes the build of the current binary.
type Info struct {
	Name    string // base name of the binary
	Version string // module version, or "devel"
	Commit  string // VCS revision the binary was built from, if known
	Go      string // version of the Go toolchain that built the binary
}

// String implements [fmt.Stringer].
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", i.Name, i.Version)
	if i.Commit != "" {
		fmt.Fprintf(&sb, " (%s)", i.Commit)
	}
	fmt.Fprintf(&sb, "\nbuilt with %s\n", i.Go)
	return sb.String()
}

var info syncx.Lazy[Info]

// Version returns the build information of the current binary.
func Version() Info { return info.Get(load) }

func load() Info {
	i := Info{
		Name:    CmdName(),
		Version: "devel",
		Go:      runtime.Version(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return i
	}
	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		i.Version = bi.Main.Version
	}
	var revision, modified string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}
	if revision != "" {
		if len(revision) > 12 {
			revision = revision[:12]
		}
		i.Commit = revision
		if modified == "true" {
			i.Commit += "-dirty"
		}
	}
	return i
}
