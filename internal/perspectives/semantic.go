package perspectives

import (
	"regexp"

	"github.com/steveyegge/resonator/internal/lang"
	"github.com/steveyegge/resonator/internal/types"
)

// NewSemanticAnalyzer flags code whose meaning is suspect: swallowed errors,
// unfinished work and dynamic code evaluation.
func NewSemanticAnalyzer() Analyzer {
	return &ruleAnalyzer{
		perspective: types.PerspectiveSemantic,
		philosophy:  "Code should mean what it says and fail loudly",
		scope:       "Swallowed errors, TODO markers, dynamic code evaluation",
		severity:    types.SeverityMedium,
		confidence:  0.80,
		impact:      baseImpact,
		rules: []Rule{
			{
				Kind:      "silent_exception",
				Message:   "Silent exception",
				Languages: []lang.Language{lang.Python},
				Pattern:   regexp.MustCompile(`except:\s*pass`),
			},
			{
				Kind:      "silent_exception",
				Message:   "Error checked and silently dropped",
				Languages: []lang.Language{lang.Go},
				Pattern:   regexp.MustCompile(`if\s+err\s*!=\s*nil\s*\{\s*\}`),
			},
			{
				Kind:      "todo_found",
				Message:   "TODO comment",
				Languages: []lang.Language{lang.Python},
				Pattern:   regexp.MustCompile(`# TODO`),
			},
			{
				Kind:      "todo_found",
				Message:   "TODO comment",
				Languages: []lang.Language{lang.Go},
				Pattern:   regexp.MustCompile(`// TODO`),
			},
			{
				Kind:      "dangerous_eval",
				Message:   "Using eval()",
				Languages: []lang.Language{lang.Python},
				Pattern:   regexp.MustCompile(`eval\s*\(`),
			},
			{
				Kind:      "dangerous_eval",
				Message:   "Loading code at runtime with plugin.Open()",
				Languages: []lang.Language{lang.Go},
				Pattern:   regexp.MustCompile(`plugin\.Open\s*\(`),
			},
		},
	}
}
