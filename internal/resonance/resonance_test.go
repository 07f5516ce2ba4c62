package resonance

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/resonator/internal/types"
)

func finding(kind, file string, sev types.Severity) types.Finding {
	return types.Finding{Kind: kind, File: file, Message: kind, Severity: sev}
}

func signal(p types.Perspective, confidence, impact float64, findings ...types.Finding) types.ResonanceSignal {
	if findings == nil {
		findings = []types.Finding{}
	}
	return types.ResonanceSignal{Perspective: p, Confidence: confidence, Impact: impact, Findings: findings}
}

func TestResonateNoSignals(t *testing.T) {
	result := Resonate(nil)

	assert.Equal(t, 0.0, result.ResonanceStrength)
	assert.Equal(t, 0.0, result.TotalImpact)
	assert.NotNil(t, result.ConsensusIssues)
	assert.Empty(t, result.ConsensusIssues)
}

func TestResonateEmptyFindingsStillCountInMeans(t *testing.T) {
	signals := []types.ResonanceSignal{
		signal(types.PerspectiveSyntax, 0.95, 0.01),
		signal(types.PerspectiveSemantic, 0.80, 0.01),
		signal(types.PerspectiveSecurity, 0.85, 0.02),
		signal(types.PerspectivePerformance, 0.75, 0.01),
		signal(types.PerspectiveArchitecture, 0.70, 0.01),
		signal(types.PerspectiveEvolution, 0.60, 0.02, finding("missing_tests", types.ProjectFile, types.SeverityMedium)),
	}

	result := Resonate(signals)

	assert.InDelta(t, (0.95+0.80+0.85+0.75+0.70+0.60)/6, result.ResonanceStrength, 1e-9)
	assert.InDelta(t, (0.01+0.01+0.02+0.01+0.01+0.02)/6, result.TotalImpact, 1e-9)
	require.Len(t, result.ConsensusIssues, 1)
	issue := result.ConsensusIssues[0]
	assert.Equal(t, types.PerspectiveEvolution, issue.Perspective)
	assert.Equal(t, types.ProjectFile, issue.File)
	assert.Equal(t, 0.60, issue.ResonanceScore)
	assert.Len(t, result.Signals, 6)
}

func TestResonateAgreementAmplifies(t *testing.T) {
	signals := []types.ResonanceSignal{
		signal(types.PerspectiveSemantic, 0.80, 0.02, finding("shared_kind", "f.py", types.SeverityMedium)),
		signal(types.PerspectiveSecurity, 0.80, 0.04, finding("shared_kind", "f.py", types.SeverityCritical)),
		signal(types.PerspectivePerformance, 0.80, 0.02, finding("lonely", "g.py", types.SeverityLow)),
	}

	result := Resonate(signals)

	require.Len(t, result.ConsensusIssues, 3)
	assert.Equal(t, 1.0, result.ConsensusIssues[0].ResonanceScore)
	assert.Equal(t, types.PerspectiveSemantic, result.ConsensusIssues[0].Perspective)
	assert.Equal(t, 1.0, result.ConsensusIssues[1].ResonanceScore)
	assert.Equal(t, types.PerspectiveSecurity, result.ConsensusIssues[1].Perspective)
	assert.Equal(t, 0.80, result.ConsensusIssues[2].ResonanceScore)
	assert.Equal(t, "g.py", result.ConsensusIssues[2].File)
}

func TestResonateSameKindDifferentFilesDoNotResonate(t *testing.T) {
	signals := []types.ResonanceSignal{
		signal(types.PerspectiveSemantic, 0.50, 0.02,
			finding("todo_found", "a.py", types.SeverityMedium),
			finding("todo_found", "b.py", types.SeverityMedium),
		),
	}

	result := Resonate(signals)

	for _, issue := range result.ConsensusIssues {
		assert.Equal(t, 0.50, issue.ResonanceScore)
	}
}

func TestResonateClampsScore(t *testing.T) {
	var findings []types.Finding
	for i := 0; i < 10; i++ {
		findings = append(findings, finding("same", "crowded.py", types.SeverityLow))
	}

	result := Resonate([]types.ResonanceSignal{signal(types.PerspectiveSemantic, 0.95, 0.02, findings...)})

	require.Len(t, result.ConsensusIssues, 10)
	for _, issue := range result.ConsensusIssues {
		assert.LessOrEqual(t, issue.ResonanceScore, 1.0)
		assert.GreaterOrEqual(t, issue.ResonanceScore, 0.0)
	}
}

func TestResonateTruncatesToTopK(t *testing.T) {
	var findings []types.Finding
	for i := 0; i < 30; i++ {
		findings = append(findings, finding(fmt.Sprintf("kind_%d", i), fmt.Sprintf("f%02d.py", i), types.SeverityLow))
	}
	result := Resonate([]types.ResonanceSignal{signal(types.PerspectiveSemantic, 0.5, 0.02, findings...)})
	require.Len(t, result.ConsensusIssues, TopK)

	// Ties keep discovery order.
	for i, issue := range result.ConsensusIssues {
		assert.Equal(t, fmt.Sprintf("f%02d.py", i), issue.File)
	}

	small := Resonate([]types.ResonanceSignal{signal(types.PerspectiveSemantic, 0.5, 0.02, findings[:3]...)})
	assert.Len(t, small.ConsensusIssues, 3)
}

func TestResonateStableOrderAcrossFiles(t *testing.T) {
	signals := []types.ResonanceSignal{
		signal(types.PerspectiveArchitecture, 0.70, 0.02, finding("large_file", "b.py", types.SeverityMedium)),
		signal(types.PerspectiveSemantic, 0.80, 0.02, finding("todo_found", "a.py", types.SeverityMedium)),
		signal(types.PerspectivePerformance, 0.70, 0.02, finding("inefficient_loop", "a.py", types.SeverityLow)),
	}

	result := Resonate(signals)

	require.Len(t, result.ConsensusIssues, 3)
	assert.Equal(t, "todo_found", result.ConsensusIssues[0].Kind)
	// b.py was discovered before a.py, so its 0.70 tie comes first.
	assert.Equal(t, "large_file", result.ConsensusIssues[1].Kind)
	assert.Equal(t, "inefficient_loop", result.ConsensusIssues[2].Kind)
}

func TestResonateIsIdempotent(t *testing.T) {
	signals := []types.ResonanceSignal{
		signal(types.PerspectiveSemantic, 0.80, 0.02,
			finding("todo_found", "a.py", types.SeverityMedium),
			finding("dangerous_eval", "a.py", types.SeverityMedium),
		),
		signal(types.PerspectiveSecurity, 0.85, 0.04, finding("hardcoded_key", "a.py", types.SeverityCritical)),
	}

	assert.Equal(t, Resonate(signals).ConsensusIssues, Resonate(signals).ConsensusIssues)
}

func TestResonateDoesNotMutateSignals(t *testing.T) {
	signals := []types.ResonanceSignal{
		signal(types.PerspectiveSemantic, 0.80, 0.02, finding("todo_found", "a.py", types.SeverityMedium)),
	}
	before := fmt.Sprintf("%+v", signals)

	Resonate(signals)

	assert.Equal(t, before, fmt.Sprintf("%+v", signals))
}

func TestScoreMonotonic(t *testing.T) {
	for _, confidence := range []float64{0, 0.3, 0.6, 0.8, 0.95, 1} {
		prev := Score(confidence, 1)
		assert.Equal(t, confidence, prev)
		for n := 2; n <= 12; n++ {
			next := Score(confidence, n)
			assert.GreaterOrEqual(t, next, prev, "confidence %v count %d", confidence, n)
			assert.LessOrEqual(t, next, 1.0)
			prev = next
		}
	}
	assert.InDelta(t, 0.6*1.4, Score(0.6, 2), 1e-9)
}
