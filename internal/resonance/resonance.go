// Package resonance merges perspective signals into a ranked list of
// consensus issues.
package resonance

import (
	"math"
	"sort"

	"github.com/steveyegge/resonator/internal/types"
)

const (
	// TopK bounds the number of consensus issues in a result.
	TopK = 20

	// AmplificationStep is the score boost per same-kind finding in a file.
	AmplificationStep = 0.2
)

// Resonate groups findings by file, amplifies kinds that several findings in
// the same file agree on, and returns the top issues by score. Signals are
// not modified.
func Resonate(signals []types.ResonanceSignal) types.ResonanceResult {
	result := types.ResonanceResult{
		Signals:         append([]types.ResonanceSignal(nil), signals...),
		ConsensusIssues: []types.ConsensusIssue{},
	}
	if len(signals) == 0 {
		return result
	}

	// Group by file, preserving first-appearance order.
	var order []string
	groups := make(map[string][]types.ConsensusIssue)
	for _, s := range signals {
		for _, f := range s.Findings {
			if _, seen := groups[f.File]; !seen {
				order = append(order, f.File)
			}
			groups[f.File] = append(groups[f.File], types.ConsensusIssue{
				Finding:     f,
				Perspective: s.Perspective,
				Confidence:  s.Confidence,
			})
		}
	}

	var issues []types.ConsensusIssue
	for _, file := range order {
		group := groups[file]
		kindCount := make(map[string]int, len(group))
		for _, issue := range group {
			kindCount[issue.Kind]++
		}
		for _, issue := range group {
			issue.ResonanceScore = Score(issue.Confidence, kindCount[issue.Kind])
			issues = append(issues, issue)
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].ResonanceScore > issues[j].ResonanceScore
	})
	if len(issues) > TopK {
		issues = issues[:TopK]
	}
	if issues != nil {
		result.ConsensusIssues = issues
	}

	var confidence, impact float64
	for _, s := range signals {
		confidence += s.Confidence
		impact += s.Impact
	}
	n := float64(len(signals))
	result.ResonanceStrength = confidence / n
	result.TotalImpact = impact / n

	return result
}

// Score is the resonance score of a finding whose perspective reported
// confidence, when sameKind findings of its kind (itself included) exist in
// its file. A lone finding keeps its confidence; agreement amplifies it, up
// to 1.0.
func Score(confidence float64, sameKind int) float64 {
	score := confidence
	if sameKind > 1 {
		score = confidence * (1 + AmplificationStep*float64(sameKind))
	}
	return math.Min(score, 1.0)
}
