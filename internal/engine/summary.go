package engine

import (
	"io"

	"github.com/steveyegge/resonator/internal/report"
	"github.com/steveyegge/resonator/internal/types"
)

// Summary writes the human-readable report for r. It is a presentation side
// channel; the structured result is the contract.
func (e *Engine) Summary(w io.Writer, r types.ResonanceResult, noColor bool) error {
	return report.Summary(w, r, report.Options{TopIssues: report.DefaultTopIssues, NoColor: noColor})
}
