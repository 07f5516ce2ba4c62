package perspectives

import (
	"context"
	"regexp"

	"github.com/steveyegge/resonator/internal/corpus"
	"github.com/steveyegge/resonator/internal/lang"
	"github.com/steveyegge/resonator/internal/types"
)

// Rule is a content pattern that yields at most one finding per file.
type Rule struct {
	Kind    string
	Message string

	// Languages the rule applies to; empty means every language.
	Languages []lang.Language

	Pattern *regexp.Regexp
}

func (r Rule) appliesTo(l lang.Language) bool {
	if len(r.Languages) == 0 {
		return true
	}
	for _, candidate := range r.Languages {
		if candidate == l {
			return true
		}
	}
	return false
}

// scanRules evaluates rules against every readable file in discovery order,
// then rule order. Unreadable files are skipped.
func scanRules(ctx context.Context, snap *corpus.Snapshot, rules []Rule, severity types.Severity) ([]types.Finding, error) {
	findings := []types.Finding{}
	for _, path := range snap.Paths() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := snap.Text(path)
		if err != nil {
			continue
		}
		language := lang.Detect(path)
		for _, rule := range rules {
			if !rule.appliesTo(language) {
				continue
			}
			if rule.Pattern.MatchString(text) {
				findings = append(findings, types.Finding{
					Kind:     rule.Kind,
					File:     path,
					Message:  rule.Message,
					Severity: severity,
				})
			}
		}
	}
	return findings, nil
}

// ruleAnalyzer is the shared shape of the pattern-driven perspectives.
type ruleAnalyzer struct {
	perspective types.Perspective
	philosophy  string
	scope       string
	rules       []Rule
	severity    types.Severity
	confidence  float64
	impact      float64
}

func (a *ruleAnalyzer) Perspective() types.Perspective { return a.perspective }
func (a *ruleAnalyzer) Philosophy() string             { return a.philosophy }
func (a *ruleAnalyzer) Scope() string                  { return a.scope }

// Rules returns the analyzer's rule set.
func (a *ruleAnalyzer) Rules() []Rule {
	return append([]Rule(nil), a.rules...)
}

func (a *ruleAnalyzer) Analyze(ctx context.Context, snap *corpus.Snapshot) (types.ResonanceSignal, error) {
	findings, err := scanRules(ctx, snap, a.rules, a.severity)
	if err != nil {
		return types.ResonanceSignal{}, err
	}
	return types.NewSignal(a.perspective, a.confidence, findings, impactFor(a.impact, findings))
}
