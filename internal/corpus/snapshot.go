package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// ErrNotUTF8 marks a file whose bytes do not decode as UTF-8 text.
var ErrNotUTF8 = errors.New("content is not valid UTF-8")

// Snapshot is an immutable view of a discovered file set. Contents are held as
// strings so perspectives can share them without copying or mutating.
type Snapshot struct {
	root     string
	paths    []string
	contents map[string]string
	errs     map[string]error
}

// Load reads every path (relative to root) once. Read and decode failures are
// recorded per file and surface through Text; they never fail the load.
func Load(root string, paths []string) *Snapshot {
	s := &Snapshot{
		root:     root,
		paths:    append([]string(nil), paths...),
		contents: make(map[string]string, len(paths)),
		errs:     make(map[string]error),
	}
	for _, rel := range s.paths {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			s.errs[rel] = fmt.Errorf("reading %s: %w", rel, err)
			continue
		}
		if !utf8.Valid(data) {
			s.errs[rel] = fmt.Errorf("decoding %s: %w", rel, ErrNotUTF8)
			continue
		}
		s.contents[rel] = string(data)
	}
	return s
}

// FromContents builds a snapshot from in-memory file contents, in the given
// path order. Paths missing from contents behave like unreadable files.
func FromContents(paths []string, contents map[string]string) *Snapshot {
	s := &Snapshot{
		paths:    append([]string(nil), paths...),
		contents: make(map[string]string, len(contents)),
		errs:     make(map[string]error),
	}
	for _, p := range s.paths {
		text, ok := contents[p]
		switch {
		case !ok:
			s.errs[p] = fmt.Errorf("reading %s: %w", p, os.ErrNotExist)
		case !utf8.ValidString(text):
			s.errs[p] = fmt.Errorf("decoding %s: %w", p, ErrNotUTF8)
		default:
			s.contents[p] = text
		}
	}
	return s
}

// Root returns the directory the snapshot was loaded from.
func (s *Snapshot) Root() string { return s.root }

// Paths returns the discovered paths in discovery order.
func (s *Snapshot) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Len returns the number of discovered paths, readable or not.
func (s *Snapshot) Len() int { return len(s.paths) }

// Text returns the decoded content of path, or the error that prevented
// reading it.
func (s *Snapshot) Text(path string) (string, error) {
	if err, ok := s.errs[path]; ok {
		return "", err
	}
	text, ok := s.contents[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return text, nil
}

// Digest fingerprints the snapshot: paths and contents, in order. Unreadable
// files contribute their path only.
func (s *Snapshot) Digest() string {
	h := xxhash.New()
	for _, p := range s.paths {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
		if text, ok := s.contents[p]; ok {
			_, _ = h.WriteString(text)
		}
		_, _ = h.Write([]byte{0})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
