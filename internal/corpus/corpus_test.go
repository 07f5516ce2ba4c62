package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.py", "print('hi')\n")
	writeFile(t, root, "pkg/util.go", "package pkg\n")
	writeFile(t, root, "pkg/readme.md", "# docs\n")
	writeFile(t, root, ".hidden/secret.py", "x = 1\n")
	writeFile(t, root, "__pycache__/cached.py", "x = 1\n")
	writeFile(t, root, "__pycache__sub/cached.py", "x = 1\n")
	writeFile(t, root, "vendor/dep/dep.go", "package dep\n")

	files := Discover(root, 50, DefaultOptions())

	assert.ElementsMatch(t, []string{"main.py", "pkg/util.go"}, files)
}

func TestDiscoverCap(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py"} {
		writeFile(t, root, name, "pass\n")
	}

	assert.Len(t, Discover(root, 2, DefaultOptions()), 2)
	assert.Len(t, Discover(root, 10, DefaultOptions()), 4)
	assert.Empty(t, Discover(root, 0, DefaultOptions()))
	assert.Empty(t, Discover(root, -1, DefaultOptions()))
}

func TestDiscoverMissingRoot(t *testing.T) {
	files := Discover(filepath.Join(t.TempDir(), "nope"), 50, DefaultOptions())
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestDiscoverFileRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "password = 'x'\n")

	files := Discover(filepath.Join(root, "app.py"), 50, DefaultOptions())
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestDiscoverGlobsAndFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "cmd/app/main.go", "package main\n")
	writeFile(t, root, "internal/core/core.go", "package core\n")
	writeFile(t, root, "internal/core/gen.pb.go", "package core\n")
	writeFile(t, root, "scripts/tool.py", "pass\n")

	opts := DefaultOptions()
	opts.IncludeGlobs = []string{"internal/**"}
	opts.ExcludeGlobs = []string{"*.pb.go"}
	assert.Equal(t, []string{"internal/core/core.go"}, Discover(root, 50, opts))

	opts = DefaultOptions()
	opts.Filter = func(rel string) bool { return rel == "scripts/tool.py" }
	assert.Equal(t, []string{"scripts/tool.py"}, Discover(root, 50, opts))
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.py", "x = 1\n")
	writeFile(t, root, "bad.py", "\xff\xfe\x00garbage")

	snap := Load(root, []string{"ok.py", "bad.py", "gone.py"})
	require.Equal(t, 3, snap.Len())
	assert.Equal(t, []string{"ok.py", "bad.py", "gone.py"}, snap.Paths())

	text, err := snap.Text("ok.py")
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", text)

	_, err = snap.Text("bad.py")
	assert.True(t, errors.Is(err, ErrNotUTF8))

	_, err = snap.Text("gone.py")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDigest(t *testing.T) {
	a := FromContents([]string{"a.py"}, map[string]string{"a.py": "x = 1\n"})
	b := FromContents([]string{"a.py"}, map[string]string{"a.py": "x = 1\n"})
	c := FromContents([]string{"a.py"}, map[string]string{"a.py": "x = 2\n"})

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
}
