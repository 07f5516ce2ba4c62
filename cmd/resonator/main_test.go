package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/resonator/internal/config"
	"github.com/steveyegge/resonator/internal/issues"
	"github.com/steveyegge/resonator/internal/metrics"
	"github.com/steveyegge/resonator/internal/perspectives"
	"github.com/steveyegge/resonator/internal/pipeline"
	"github.com/steveyegge/resonator/internal/types"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"app.py":    "password = \"hunter2\"\n# TODO rotate\n",
		"util.go":   "package util\n\nfunc F() int { return 1 }\n",
		"broken.py": "def f(:\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0644))
	}
	return root
}

// withScanFlags resets the scan flag variables for one test.
func withScanFlags(t *testing.T, format, failOn string, record bool) {
	t.Helper()
	prevFormat, prevFailOn, prevRecord, prevNoColor := scanFormat, scanFailOn, scanRecord, noColor
	scanFormat, scanFailOn, scanRecord, noColor = format, failOn, record, true
	t.Cleanup(func() {
		scanFormat, scanFailOn, scanRecord, noColor = prevFormat, prevFailOn, prevRecord, prevNoColor
	})
}

func TestRunScanJSON(t *testing.T) {
	root := writeProject(t)
	withScanFlags(t, "json", "", false)

	var out bytes.Buffer
	code, err := runScan(context.Background(), scanCmd, root, &out)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	var result types.ResonanceResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 3, result.FilesAnalyzed)
	assert.Len(t, result.Signals, 6)

	security, ok := result.Signal(types.PerspectiveSecurity)
	require.True(t, ok)
	require.NotEmpty(t, security.Findings)
	assert.Equal(t, "hardcoded_password", security.Findings[0].Kind)
}

func TestRunScanFailOn(t *testing.T) {
	root := writeProject(t)
	withScanFlags(t, "text", "CRITICAL", false)

	var out bytes.Buffer
	code, err := runScan(context.Background(), scanCmd, root, &out)
	require.NoError(t, err)
	assert.Equal(t, exitFindings, code)
	assert.Contains(t, out.String(), "hardcoded_password")
	assert.Contains(t, out.String(), "eligible for filing")
}

func TestRunScanRecordsAndShowsHistory(t *testing.T) {
	root := writeProject(t)
	withScanFlags(t, "text", "", true)

	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		_, err := runScan(context.Background(), scanCmd, root, &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Recorded run")
	}

	var out bytes.Buffer
	require.NoError(t, runHistory(context.Background(), root, &out))
	assert.Contains(t, out.String(), "Trend: stable")

	store, err := metrics.Open(filepath.Join(root, ".resonator", "metrics.db"))
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.History(context.Background(), root, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunScanRejectsFileRoot(t *testing.T) {
	root := writeProject(t)
	withScanFlags(t, "text", "", false)

	var out bytes.Buffer
	_, err := runScan(context.Background(), scanCmd, filepath.Join(root, "app.py"), &out)
	assert.ErrorContains(t, err, "not a directory")
	assert.Empty(t, out.String())

	_, err = runScan(context.Background(), scanCmd, filepath.Join(root, "missing"), &out)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunHistoryWithoutDatabase(t *testing.T) {
	noColor = true
	var out bytes.Buffer
	require.NoError(t, runHistory(context.Background(), t.TempDir(), &out))
	assert.Contains(t, out.String(), "No runs recorded yet")
}

func TestEngineConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Suffixes = []string{".py"}
	cfg.ExcludeGlobs = []string{"*_pb2.py"}
	cfg.PerspectiveTimeout = 5 * time.Second

	ec := engineConfig(cfg)
	assert.Equal(t, []string{".py"}, ec.Corpus.Suffixes)
	assert.Equal(t, []string{"*_pb2.py"}, ec.Corpus.ExcludeGlobs)
	assert.Equal(t, []string{".", "__pycache__"}, ec.Corpus.ReservedPrefixes)
	assert.Equal(t, 5*time.Second, ec.PerspectiveTimeout)
}

func TestListPerspectives(t *testing.T) {
	noColor = true
	registry, err := perspectives.DefaultRegistry()
	require.NoError(t, err)

	var out bytes.Buffer
	listPerspectives(&out, registry, true)
	text := out.String()
	assert.Contains(t, text, "6 perspectives")
	for _, p := range types.AllPerspectives() {
		assert.Contains(t, text, string(p))
	}
	assert.Contains(t, text, "hardcoded_password")
}

func TestPrintOutcome(t *testing.T) {
	ticket := issues.Ticket{Kind: "hardcoded_key", File: "app.py", Severity: types.SeverityCritical}
	var out bytes.Buffer
	printOutcome(&out, pipeline.Outcome{
		Filing: &issues.Report{
			Filed:   []issues.Filed{{Ticket: ticket, Number: 12}, {Ticket: ticket}},
			Skipped: []issues.Ticket{ticket},
		},
	})
	text := out.String()
	assert.Contains(t, text, "Filed #12 [CRITICAL] hardcoded_key in app.py")
	assert.Contains(t, text, "Would file: [CRITICAL] hardcoded_key in app.py")
	assert.Contains(t, text, "Already open: [CRITICAL] hardcoded_key in app.py")
}
