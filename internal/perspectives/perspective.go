// Package perspectives implements the independent analysis viewpoints that
// each turn a corpus snapshot into one resonance signal.
package perspectives

import (
	"context"

	"github.com/steveyegge/resonator/internal/corpus"
	"github.com/steveyegge/resonator/internal/types"
)

// Analyzer is one perspective over a corpus.
//
// Implementations must be pure functions of the snapshot: no shared mutable
// state, no I/O beyond the snapshot, and the same input always yields the same
// signal. A defect in a single file never fails the whole analysis; the file
// is skipped instead.
type Analyzer interface {
	// Perspective returns the viewpoint this analyzer implements.
	Perspective() types.Perspective

	// Philosophy is a one-line statement of what the perspective cares about.
	Philosophy() string

	// Scope describes what the perspective looks at.
	Scope() string

	// Analyze produces the perspective's signal for snap. It returns an error
	// only when ctx is done or the signal violates its own contract.
	Analyze(ctx context.Context, snap *corpus.Snapshot) (types.ResonanceSignal, error)
}

// baseImpact is the impact a perspective reports when it has findings.
const baseImpact = 0.02

// impactFor halves base when there is nothing to report.
func impactFor(base float64, findings []types.Finding) float64 {
	if len(findings) == 0 {
		return base * 0.5
	}
	return base
}
