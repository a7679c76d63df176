// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package txtar implements a trivial text-based file archive format.
//
// The format of a txtar archive is:
//
//   - A comment: zero or more lines of text up to the first file marker.
//   - A sequence of files, each introduced by a marker line of the form
//     "-- FILENAME --" followed by the file's contents.
//
// Archives are intended for storing a directory tree of small text files,
// mainly as testdata.
package txtar

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// An Archive is a collection of files.
type Archive struct {
	Comment []byte
	Files   []File
}

// A File is a single file in an archive.
type File struct {
	Name string // name of file ("foo/bar.txt")
	Data []byte // text content of file
}

// Parse parses the serialized form of an archive.
// The returned Archive holds slices of data; it is always non-nil.
func Parse(data []byte) *Archive {
	a := &Archive{Comment: []byte{}, Files: []File{}}
	cur := -1 // index into a.Files, or -1 while in the comment
	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i+1], data[i+1:]
		} else {
			// The last line is missing its newline; restore it.
			line, data = append(bytes.Clone(data), '\n'), nil
		}
		if name, ok := parseMarker(line); ok {
			a.Files = append(a.Files, File{Name: name, Data: []byte{}})
			cur = len(a.Files) - 1
			continue
		}
		if cur >= 0 {
			a.Files[cur].Data = append(a.Files[cur].Data, line...)
		} else {
			a.Comment = append(a.Comment, line...)
		}
	}
	return a
}

// ParseFile parses the named file as an archive.
func ParseFile(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data), nil
}

var (
	markerPrefix = []byte("-- ")
	markerSuffix = []byte(" --")
)

// parseMarker reports whether line is a file marker and, if so, returns the
// file name it carries. Whitespace around the name is ignored.
func parseMarker(line []byte) (name string, ok bool) {
	line = bytes.TrimSpace(line)
	if len(line) < len("-- a --") || !bytes.HasPrefix(line, markerPrefix) || !bytes.HasSuffix(line, markerSuffix) {
		return "", false
	}
	name = string(bytes.TrimSpace(line[len(markerPrefix) : len(line)-len(markerSuffix)]))
	if name == "" {
		return "", false
	}
	return name, true
}

// Format returns the serialized form of an archive.
// It appends a final newline to file contents that lack one.
func Format(a *Archive) []byte {
	var buf bytes.Buffer
	buf.Write(a.Comment)
	for _, f := range a.Files {
		fmt.Fprintf(&buf, "-- %s --\n", f.Name)
		buf.Write(f.Data)
		if n := len(f.Data); n > 0 && f.Data[n-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// FromDir builds an archive from the contents of a directory. File names in
// the archive are slash-separated and relative to dir.
func FromDir(dir string) (*Archive, error) {
	a := &Archive{Comment: []byte{}, Files: []File{}}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		a.Files = append(a.Files, File{Name: filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Extract writes each file of the archive into dir, creating parent
// directories as needed. It refuses file names that escape dir.
func Extract(ar *Archive, dir string) error {
	for _, f := range ar.Files {
		name := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("txtar: file name %q escapes the target directory", f.Name)
		}
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		mode := fs.FileMode(0o644)
		// Shell scripts are extracted executable, so testdata archives can
		// carry fake tools.
		if strings.HasPrefix(string(f.Data), "#!") {
			mode = 0o755
		}
		if err := os.WriteFile(path, f.Data, mode); err != nil {
			return err
		}
	}
	return nil
}
