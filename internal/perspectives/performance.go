package perspectives

import (
	"regexp"

	"github.com/steveyegge/resonator/internal/lang"
	"github.com/steveyegge/resonator/internal/types"
)

// NewPerformanceAnalyzer flags index-based iteration where direct iteration
// is the idiom.
func NewPerformanceAnalyzer() Analyzer {
	return &ruleAnalyzer{
		perspective: types.PerspectivePerformance,
		philosophy:  "Hot paths should use the language's cheapest idiom",
		scope:       "Index-based loops over len()",
		severity:    types.SeverityLow,
		confidence:  0.75,
		impact:      baseImpact,
		rules: []Rule{
			{
				Kind:      "inefficient_loop",
				Message:   "Inefficient range(len())",
				Languages: []lang.Language{lang.Python},
				Pattern:   regexp.MustCompile(`range\s*\(\s*len\s*\(`),
			},
			{
				Kind:      "inefficient_loop",
				Message:   "Index loop over len(); prefer range",
				Languages: []lang.Language{lang.Go},
				Pattern:   regexp.MustCompile(`for\s+\w+\s*:=\s*0\s*;\s*\w+\s*<\s*len\s*\(`),
			},
		},
	}
}
