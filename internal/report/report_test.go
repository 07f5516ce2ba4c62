package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/resonator/internal/types"
)

func sampleResult() types.ResonanceResult {
	line := 4
	return types.ResonanceResult{
		RunID:         "run-1",
		Root:          "/src/app",
		FilesAnalyzed: 3,
		Signals: []types.ResonanceSignal{
			{Perspective: types.PerspectiveSyntax, Confidence: 0.70, Impact: 0.02, Findings: []types.Finding{
				{Kind: "syntax_error", File: "bad.go", Message: "expected ')'", Severity: types.SeverityHigh, Line: &line},
			}},
			{Perspective: types.PerspectiveSecurity, Confidence: 0.85, Impact: 0.04, Findings: []types.Finding{
				{Kind: "hardcoded_password", File: "app.py", Message: "Hardcoded password", Severity: types.SeverityCritical},
			}},
		},
		ConsensusIssues: []types.ConsensusIssue{
			{
				Finding:        types.Finding{Kind: "hardcoded_password", File: "app.py", Message: "Hardcoded password", Severity: types.SeverityCritical},
				Perspective:    types.PerspectiveSecurity,
				Confidence:     0.85,
				ResonanceScore: 0.85,
			},
			{
				Finding:        types.Finding{Kind: "syntax_error", File: "bad.go", Message: "expected ')'", Severity: types.SeverityHigh, Line: &line},
				Perspective:    types.PerspectiveSyntax,
				Confidence:     0.70,
				ResonanceScore: 0.70,
			},
		},
		ResonanceStrength: 0.775,
		TotalImpact:       0.03,
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, sampleResult(), Options{NoColor: true}))
	out := buf.String()

	assert.Contains(t, out, "/src/app")
	assert.Contains(t, out, "Files analyzed: 3")
	assert.Contains(t, out, "syntax")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "0.775")
	assert.Contains(t, out, "Consensus issues:   2")
	assert.Contains(t, out, "hardcoded_password")
	assert.Contains(t, out, "bad.go:4")
	assert.NotContains(t, out, "\x1b[")
}

func TestSummaryTopIssuesLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, sampleResult(), Options{NoColor: true, TopIssues: 1}))

	assert.Contains(t, buf.String(), "Top 1 issues")
	assert.NotContains(t, buf.String(), "bad.go:4")
}

func TestSummaryNoIssues(t *testing.T) {
	r := types.ResonanceResult{
		Signals: []types.ResonanceSignal{{Perspective: types.PerspectiveSyntax, Confidence: 0.95, Impact: 0.01, Findings: []types.Finding{}}},
	}
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, r, Options{NoColor: true}))
	assert.Contains(t, buf.String(), "No consensus issues")
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleResult(), FormatJSON, Options{}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 0.775, decoded["resonance_strength"])

	issues := decoded["consensus_issues"].([]any)
	require.Len(t, issues, 2)
	first := issues[0].(map[string]any)
	assert.Equal(t, "hardcoded_password", first["kind"])
	assert.Equal(t, "app.py", first["file"])
	assert.Equal(t, "CRITICAL", first["severity"])
	assert.Equal(t, 0.85, first["resonance_score"])
	assert.NotContains(t, first, "line")
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleResult(), FormatYAML, Options{}))

	var decoded struct {
		ConsensusIssues []struct {
			Kind           string  `yaml:"kind"`
			Line           int     `yaml:"line"`
			ResonanceScore float64 `yaml:"resonance_score"`
		} `yaml:"consensus_issues"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.ConsensusIssues, 2)
	assert.Equal(t, "syntax_error", decoded.ConsensusIssues[1].Kind)
	assert.Equal(t, 4, decoded.ConsensusIssues[1].Line)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
