package perspectives

import (
	"context"

	"github.com/steveyegge/resonator/internal/corpus"
	"github.com/steveyegge/resonator/internal/lang"
	"github.com/steveyegge/resonator/internal/syntax"
	"github.com/steveyegge/resonator/internal/types"
)

// SyntaxAnalyzer parses every file with its language's full grammar and
// reports the first syntax error of each.
type SyntaxAnalyzer struct{}

// NewSyntaxAnalyzer creates a syntax analyzer.
func NewSyntaxAnalyzer() Analyzer {
	return &SyntaxAnalyzer{}
}

// Perspective implements Analyzer.
func (s *SyntaxAnalyzer) Perspective() types.Perspective {
	return types.PerspectiveSyntax
}

// Philosophy implements Analyzer.
func (s *SyntaxAnalyzer) Philosophy() string {
	return "Code that does not parse cannot be trusted for anything else"
}

// Scope implements Analyzer.
func (s *SyntaxAnalyzer) Scope() string {
	return "Grammar errors in Go and Python sources"
}

// Analyze implements Analyzer. Files in languages without an available
// parser are skipped rather than flagged.
func (s *SyntaxAnalyzer) Analyze(ctx context.Context, snap *corpus.Snapshot) (types.ResonanceSignal, error) {
	findings := []types.Finding{}
	for _, path := range snap.Paths() {
		if err := ctx.Err(); err != nil {
			return types.ResonanceSignal{}, err
		}
		text, err := snap.Text(path)
		if err != nil {
			continue
		}
		language := lang.Detect(path)
		if language == lang.Unknown {
			continue
		}
		serr, err := syntax.Check(ctx, language, path, text)
		if err != nil || serr == nil {
			continue
		}
		line := serr.Line
		findings = append(findings, types.Finding{
			Kind:     "syntax_error",
			File:     path,
			Message:  serr.Message,
			Severity: types.SeverityHigh,
			Line:     &line,
		})
	}

	confidence := 0.95
	if len(findings) > 0 {
		confidence = 0.70
	}
	return types.NewSignal(types.PerspectiveSyntax, confidence, findings, impactFor(baseImpact, findings))
}
