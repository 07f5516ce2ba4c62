package perspectives

import (
	"regexp"

	"github.com/steveyegge/resonator/internal/lang"
	"github.com/steveyegge/resonator/internal/types"
)

// NewSecurityAnalyzer flags inline credentials and shell invocation.
// All patterns are case-insensitive; assignment patterns accept both = and :=.
func NewSecurityAnalyzer() Analyzer {
	return &ruleAnalyzer{
		perspective: types.PerspectiveSecurity,
		philosophy:  "Security vulnerabilities should be caught before production",
		scope:       "Hardcoded passwords and API keys, shell injection",
		severity:    types.SeverityCritical,
		confidence:  0.85,
		impact:      2 * baseImpact,
		rules: []Rule{
			{
				Kind:    "hardcoded_password",
				Message: "Hardcoded password",
				Pattern: regexp.MustCompile(`(?i)password\s*:?=\s*["'\x60]`),
			},
			{
				Kind:    "hardcoded_key",
				Message: "Hardcoded API key",
				Pattern: regexp.MustCompile(`(?i)api_?key\s*:?=\s*["'\x60]`),
			},
			{
				Kind:      "shell_injection",
				Message:   "Potential shell injection",
				Languages: []lang.Language{lang.Python},
				Pattern:   regexp.MustCompile(`(?i)shell\s*=\s*True`),
			},
			{
				Kind:      "shell_injection",
				Message:   "Potential shell injection",
				Languages: []lang.Language{lang.Go},
				Pattern:   regexp.MustCompile(`(?i)exec\.Command(Context)?\([^)]*"(sh|bash|zsh)"\s*,\s*"-c"`),
			},
		},
	}
}
