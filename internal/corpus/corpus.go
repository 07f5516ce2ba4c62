// Package corpus discovers the source files a resonance run analyzes and
// loads them into an immutable snapshot shared by every perspective.
package corpus

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFiles is the file cap used when the caller does not choose one.
const DefaultMaxFiles = 50

// Options controls which files Discover selects.
type Options struct {
	// Suffixes a file name must end with to be selected.
	Suffixes []string

	// ReservedPrefixes: directories whose name starts with one of these are
	// skipped without descending into them.
	ReservedPrefixes []string

	// ExcludeDirs are directory names skipped wherever they appear.
	ExcludeDirs []string

	// IncludeGlobs, when non-empty, restrict selection to matching
	// root-relative paths (doublestar syntax).
	IncludeGlobs []string

	// ExcludeGlobs drop matching root-relative paths.
	ExcludeGlobs []string

	// Filter is consulted last; returning false drops the path.
	Filter func(rel string) bool
}

// DefaultOptions selects Go and Python sources and skips hidden and cache directories.
func DefaultOptions() Options {
	return Options{
		Suffixes:         []string{".go", ".py"},
		ReservedPrefixes: []string{".", "__pycache__"},
		ExcludeDirs:      []string{"vendor", "node_modules"},
	}
}

// Discover walks root and returns up to maxFiles root-relative, slash-separated
// paths in traversal order. It never fails: unreadable entries are skipped and
// a missing root, or a root that is not a directory, yields an empty corpus.
func Discover(root string, maxFiles int, opts Options) []string {
	files := []string{}
	if maxFiles <= 0 {
		return files
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return files
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entry; skip it but keep walking.
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && opts.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !opts.hasSuffix(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !opts.allowed(rel) {
			return nil
		}

		files = append(files, rel)
		if len(files) >= maxFiles {
			return filepath.SkipAll
		}
		return nil
	})

	return files
}

func (o Options) skipDir(name string) bool {
	for _, prefix := range o.ReservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, excluded := range o.ExcludeDirs {
		if name == excluded {
			return true
		}
	}
	return false
}

func (o Options) hasSuffix(name string) bool {
	for _, suffix := range o.Suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func (o Options) allowed(rel string) bool {
	if len(o.IncludeGlobs) > 0 && !matchAnyGlob(rel, o.IncludeGlobs) {
		return false
	}
	if len(o.ExcludeGlobs) > 0 && matchAnyGlob(rel, o.ExcludeGlobs) {
		return false
	}
	if o.Filter != nil && !o.Filter(rel) {
		return false
	}
	return true
}

// matchAnyGlob matches the full relative path and, as a convenience, the base name.
func matchAnyGlob(rel string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}
