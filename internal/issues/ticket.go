// Package issues turns consensus issues into tracker tickets and files them
// idempotently.
package issues

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/steveyegge/resonator/internal/priorities"
	"github.com/steveyegge/resonator/internal/types"
)

// Ticket is one deduplicated unit of filing: every consensus issue sharing a
// (file, kind) pair collapses into a single ticket.
type Ticket struct {
	Fingerprint    string
	Kind           string
	File           string
	Message        string
	Severity       types.Severity
	ResonanceScore float64
	Perspectives   []types.Perspective
	Line           *int

	// Priority is 0 (P0, highest) to 3, derived from severity and agreement.
	Priority int
}

// Fingerprint identifies a (file, kind) pair independent of run, score or
// message wording.
func Fingerprint(kind, file string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(kind+"\x00"+file))
}

// Select keeps issues at or above min and merges them into tickets, in the
// order their first issue appears. Merged tickets carry the highest severity
// and score, every contributing perspective and the resulting priority.
func Select(issues []types.ConsensusIssue, min types.Severity) []Ticket {
	tickets := []Ticket{}
	index := make(map[string]int)
	for _, issue := range issues {
		if !issue.Severity.AtLeast(min) {
			continue
		}
		fp := Fingerprint(issue.Kind, issue.File)
		i, ok := index[fp]
		if !ok {
			index[fp] = len(tickets)
			tickets = append(tickets, Ticket{
				Fingerprint:    fp,
				Kind:           issue.Kind,
				File:           issue.File,
				Message:        issue.Message,
				Severity:       issue.Severity,
				ResonanceScore: issue.ResonanceScore,
				Perspectives:   []types.Perspective{issue.Perspective},
				Line:           issue.Line,
			})
			continue
		}

		t := &tickets[i]
		if issue.Severity.Rank() > t.Severity.Rank() {
			t.Severity = issue.Severity
		}
		if issue.ResonanceScore > t.ResonanceScore {
			t.ResonanceScore = issue.ResonanceScore
		}
		if !containsPerspective(t.Perspectives, issue.Perspective) {
			t.Perspectives = append(t.Perspectives, issue.Perspective)
		}
	}

	for i := range tickets {
		tickets[i].Priority = priorities.ForTicket(tickets[i].Severity, len(tickets[i].Perspectives))
	}
	return tickets
}

func containsPerspective(ps []types.Perspective, p types.Perspective) bool {
	for _, candidate := range ps {
		if candidate == p {
			return true
		}
	}
	return false
}

// Title is the ticket's one-line summary.
func (t Ticket) Title() string {
	return fmt.Sprintf("[%s] %s in %s", t.Severity, t.Kind, t.File)
}

// Body renders the ticket description as markdown, ending with the
// fingerprint marker used to detect earlier filings.
func (t Ticket) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", t.Message)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Kind | `%s` |\n", t.Kind)
	location := t.File
	if t.Line != nil {
		location += ":" + strconv.Itoa(*t.Line)
	}
	fmt.Fprintf(&b, "| File | `%s` |\n", location)
	fmt.Fprintf(&b, "| Severity | %s |\n", t.Severity)
	fmt.Fprintf(&b, "| Priority | %s |\n", priorities.Label(t.Priority))
	fmt.Fprintf(&b, "| Resonance score | %.2f |\n", t.ResonanceScore)

	names := make([]string, len(t.Perspectives))
	for i, p := range t.Perspectives {
		names[i] = string(p)
	}
	fmt.Fprintf(&b, "| Perspectives | %s |\n\n", strings.Join(names, ", "))

	if len(t.Perspectives) > 1 {
		b.WriteString("Several independent perspectives agree on this diagnosis.\n\n")
	}
	fmt.Fprintf(&b, "<!-- resonance:fingerprint=%s -->\n", t.Fingerprint)
	return b.String()
}

var markerPattern = regexp.MustCompile(`<!-- resonance:fingerprint=([0-9a-f]{16}) -->`)

// ParseMarker extracts the fingerprint from a ticket body.
func ParseMarker(body string) (string, bool) {
	m := markerPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}
