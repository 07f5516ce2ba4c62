package perspectives

import (
	"context"
	"fmt"
	"strings"

	"github.com/steveyegge/resonator/internal/corpus"
	"github.com/steveyegge/resonator/internal/types"
)

// MaxFileLines is the line count above which a file is reported as too large.
const MaxFileLines = 500

// ArchitectureAnalyzer flags files that have outgrown a single unit of change.
type ArchitectureAnalyzer struct {
	MaxLines int
}

// NewArchitectureAnalyzer creates an architecture analyzer with the default limit.
func NewArchitectureAnalyzer() Analyzer {
	return &ArchitectureAnalyzer{MaxLines: MaxFileLines}
}

// Perspective implements Analyzer.
func (a *ArchitectureAnalyzer) Perspective() types.Perspective {
	return types.PerspectiveArchitecture
}

// Philosophy implements Analyzer.
func (a *ArchitectureAnalyzer) Philosophy() string {
	return "Files should be small enough to hold in your head"
}

// Scope implements Analyzer.
func (a *ArchitectureAnalyzer) Scope() string {
	return fmt.Sprintf("Files longer than %d lines", a.MaxLines)
}

// Analyze implements Analyzer.
func (a *ArchitectureAnalyzer) Analyze(ctx context.Context, snap *corpus.Snapshot) (types.ResonanceSignal, error) {
	findings := []types.Finding{}
	for _, path := range snap.Paths() {
		if err := ctx.Err(); err != nil {
			return types.ResonanceSignal{}, err
		}
		text, err := snap.Text(path)
		if err != nil {
			continue
		}
		if lines := countLines(text); lines > a.MaxLines {
			findings = append(findings, types.Finding{
				Kind:     "large_file",
				File:     path,
				Message:  fmt.Sprintf("File too large (%d lines)", lines),
				Severity: types.SeverityMedium,
			})
		}
	}
	return types.NewSignal(types.PerspectiveArchitecture, 0.70, findings, impactFor(baseImpact, findings))
}

// countLines counts newline-terminated lines plus a trailing unterminated one.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
