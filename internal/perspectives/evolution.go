package perspectives

import (
	"context"
	"strings"

	"github.com/steveyegge/resonator/internal/corpus"
	"github.com/steveyegge/resonator/internal/types"
)

// EvolutionAnalyzer checks whether the project carries the tests it needs to
// change safely. It looks at paths only, never contents. An empty corpus has
// nothing to test and yields no finding.
type EvolutionAnalyzer struct{}

// NewEvolutionAnalyzer creates an evolution analyzer.
func NewEvolutionAnalyzer() Analyzer {
	return &EvolutionAnalyzer{}
}

// Perspective implements Analyzer.
func (e *EvolutionAnalyzer) Perspective() types.Perspective {
	return types.PerspectiveEvolution
}

// Philosophy implements Analyzer.
func (e *EvolutionAnalyzer) Philosophy() string {
	return "Untested code cannot evolve safely"
}

// Scope implements Analyzer.
func (e *EvolutionAnalyzer) Scope() string {
	return "Presence of any test file in the corpus"
}

// Analyze implements Analyzer.
func (e *EvolutionAnalyzer) Analyze(ctx context.Context, snap *corpus.Snapshot) (types.ResonanceSignal, error) {
	if err := ctx.Err(); err != nil {
		return types.ResonanceSignal{}, err
	}

	findings := []types.Finding{}
	if snap.Len() > 0 && !hasTests(snap.Paths()) {
		findings = append(findings, types.Finding{
			Kind:     "missing_tests",
			File:     types.ProjectFile,
			Message:  "No tests found",
			Severity: types.SeverityMedium,
		})
	}
	return types.NewSignal(types.PerspectiveEvolution, 0.60, findings, impactFor(baseImpact, findings))
}

func hasTests(paths []string) bool {
	for _, p := range paths {
		if strings.Contains(strings.ToLower(p), "test") {
			return true
		}
	}
	return false
}
