package types

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ProjectFile is the File value used by findings that apply to the whole
// corpus rather than a single file.
const ProjectFile = "project"

// Severity is the ordered severity of a finding: LOW < MEDIUM < HIGH < CRITICAL.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// IsValid checks if the severity value is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank returns the position of s in the severity order, starting at 1 for LOW.
// Invalid severities rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// AtLeast reports whether s is at or above min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// ParseSeverity parses a severity name case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("invalid severity: %q (expected LOW, MEDIUM, HIGH or CRITICAL)", s)
	}
	return sev, nil
}

// Perspective names one of the independent analysis viewpoints.
type Perspective string

const (
	PerspectiveSyntax       Perspective = "syntax"
	PerspectiveSemantic     Perspective = "semantic"
	PerspectiveSecurity     Perspective = "security"
	PerspectivePerformance  Perspective = "performance"
	PerspectiveArchitecture Perspective = "architecture"
	PerspectiveEvolution    Perspective = "evolution"
)

// AllPerspectives returns every perspective in canonical order.
func AllPerspectives() []Perspective {
	return []Perspective{
		PerspectiveSyntax,
		PerspectiveSemantic,
		PerspectiveSecurity,
		PerspectivePerformance,
		PerspectiveArchitecture,
		PerspectiveEvolution,
	}
}

// IsValid checks if the perspective value is valid
func (p Perspective) IsValid() bool {
	for _, known := range AllPerspectives() {
		if p == known {
			return true
		}
	}
	return false
}

// Finding is a single observation produced by one perspective.
type Finding struct {
	Kind     string   `json:"kind" yaml:"kind"`
	File     string   `json:"file" yaml:"file"`
	Message  string   `json:"message" yaml:"message"`
	Severity Severity `json:"severity" yaml:"severity"`
	Line     *int     `json:"line,omitempty" yaml:"line,omitempty"`
}

// Validate checks that the finding carries a kind, a file and a valid severity.
func (f Finding) Validate() error {
	if f.Kind == "" {
		return fmt.Errorf("finding kind is required")
	}
	if f.File == "" {
		return fmt.Errorf("finding %s: file is required", f.Kind)
	}
	if !f.Severity.IsValid() {
		return fmt.Errorf("finding %s: invalid severity: %s", f.Kind, f.Severity)
	}
	if f.Line != nil && *f.Line < 1 {
		return fmt.Errorf("finding %s: line must be positive (got %d)", f.Kind, *f.Line)
	}
	return nil
}

// ResonanceSignal is the output of one perspective over a whole corpus.
type ResonanceSignal struct {
	Perspective Perspective `json:"perspective" yaml:"perspective"`
	Confidence  float64     `json:"confidence" yaml:"confidence"`
	Findings    []Finding   `json:"findings" yaml:"findings"`
	Impact      float64     `json:"impact" yaml:"impact"`
}

// ContractError reports a signal that violates its value constraints.
type ContractError struct {
	Perspective Perspective
	Reason      string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("invalid %s signal: %s", e.Perspective, e.Reason)
}

// NewSignal builds a validated signal. A nil findings slice is normalized to empty.
func NewSignal(p Perspective, confidence float64, findings []Finding, impact float64) (ResonanceSignal, error) {
	if findings == nil {
		findings = []Finding{}
	}
	s := ResonanceSignal{
		Perspective: p,
		Confidence:  confidence,
		Findings:    findings,
		Impact:      impact,
	}
	if err := s.Validate(); err != nil {
		return ResonanceSignal{}, err
	}
	return s, nil
}

// Validate checks the signal's value constraints.
func (s ResonanceSignal) Validate() error {
	if !s.Perspective.IsValid() {
		return &ContractError{Perspective: s.Perspective, Reason: "unknown perspective"}
	}
	if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 1 {
		return &ContractError{Perspective: s.Perspective, Reason: fmt.Sprintf("confidence %v outside [0, 1]", s.Confidence)}
	}
	if math.IsNaN(s.Impact) || s.Impact < 0 {
		return &ContractError{Perspective: s.Perspective, Reason: fmt.Sprintf("negative impact %v", s.Impact)}
	}
	for _, f := range s.Findings {
		if err := f.Validate(); err != nil {
			return &ContractError{Perspective: s.Perspective, Reason: err.Error()}
		}
	}
	return nil
}

// EmptySignal is the signal of a perspective that produced nothing, e.g. one
// that timed out.
func EmptySignal(p Perspective) ResonanceSignal {
	return ResonanceSignal{Perspective: p, Findings: []Finding{}}
}

// ConsensusIssue is a finding annotated with the perspective that produced it
// and its resonance score.
type ConsensusIssue struct {
	Finding        `yaml:",inline"`
	Perspective    Perspective `json:"perspective" yaml:"perspective"`
	Confidence     float64     `json:"confidence" yaml:"confidence"`
	ResonanceScore float64     `json:"resonance_score" yaml:"resonance_score"`
}

// ResonanceResult is the outcome of a full run.
type ResonanceResult struct {
	RunID         string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Root          string        `json:"root,omitempty" yaml:"root,omitempty"`
	FilesAnalyzed int           `json:"files_analyzed" yaml:"files_analyzed"`
	CorpusDigest  string        `json:"corpus_digest,omitempty" yaml:"corpus_digest,omitempty"`
	StartedAt     time.Time     `json:"started_at" yaml:"started_at"`
	Duration      time.Duration `json:"duration" yaml:"duration"`

	Signals           []ResonanceSignal `json:"signals" yaml:"signals"`
	ConsensusIssues   []ConsensusIssue  `json:"consensus_issues" yaml:"consensus_issues"`
	ResonanceStrength float64           `json:"resonance_strength" yaml:"resonance_strength"`
	TotalImpact       float64           `json:"total_impact" yaml:"total_impact"`
}

// Signal returns the signal for perspective p, if present.
func (r ResonanceResult) Signal(p Perspective) (ResonanceSignal, bool) {
	for _, s := range r.Signals {
		if s.Perspective == p {
			return s, true
		}
	}
	return ResonanceSignal{}, false
}

// TotalFindings counts findings across all signals.
func (r ResonanceResult) TotalFindings() int {
	n := 0
	for _, s := range r.Signals {
		n += len(s.Findings)
	}
	return n
}
