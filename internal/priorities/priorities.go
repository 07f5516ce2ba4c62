package priorities

import (
	"fmt"

	"github.com/steveyegge/resonator/internal/types"
)

// Lowest is the lowest ticket priority (P3). P0 is the highest.
const Lowest = 3

// ForTicket calculates the priority for a ticket from its severity and how
// many perspectives agree on it.
//
// Priority rules:
// - CRITICAL: P0
// - HIGH:     P1
// - MEDIUM:   P2
// - LOW:      P3
// - Agreement between two or more perspectives escalates one level (capped at P0)
// - Unknown severity: P3
func ForTicket(severity types.Severity, perspectives int) int {
	var priority int
	switch severity {
	case types.SeverityCritical:
		priority = 0
	case types.SeverityHigh:
		priority = 1
	case types.SeverityMedium:
		priority = 2
	default:
		priority = Lowest
	}

	if perspectives > 1 && priority > 0 {
		priority--
	}
	return priority
}

// Label renders a priority as a tracker label, e.g. "P1".
func Label(priority int) string {
	if priority < 0 {
		priority = 0
	}
	if priority > Lowest {
		priority = Lowest
	}
	return fmt.Sprintf("P%d", priority)
}
