package types

import (
	"errors"
	"testing"
)

func TestSeverityOrder(t *testing.T) {
	order := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should rank above %s", order[i], order[i-1])
		}
	}
	if !SeverityCritical.AtLeast(SeverityHigh) {
		t.Errorf("CRITICAL should be at least HIGH")
	}
	if SeverityLow.AtLeast(SeverityMedium) {
		t.Errorf("LOW should not be at least MEDIUM")
	}
	if Severity("BOGUS").Rank() != 0 {
		t.Errorf("unknown severity should rank 0")
	}
}

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity(" high ")
	if err != nil {
		t.Fatalf("ParseSeverity failed: %v", err)
	}
	if sev != SeverityHigh {
		t.Errorf("expected HIGH, got %s", sev)
	}
	if _, err := ParseSeverity("urgent"); err == nil {
		t.Errorf("expected error for unknown severity")
	}
}

func TestNewSignalValidation(t *testing.T) {
	line := 3
	good := []Finding{{Kind: "syntax_error", File: "a.go", Message: "boom", Severity: SeverityHigh, Line: &line}}

	s, err := NewSignal(PerspectiveSyntax, 0.7, good, 0.02)
	if err != nil {
		t.Fatalf("valid signal rejected: %v", err)
	}
	if len(s.Findings) != 1 {
		t.Errorf("expected 1 finding, got %d", len(s.Findings))
	}

	empty, err := NewSignal(PerspectiveSemantic, 0.8, nil, 0.01)
	if err != nil {
		t.Fatalf("valid empty signal rejected: %v", err)
	}
	if empty.Findings == nil {
		t.Errorf("nil findings should be normalized to an empty slice")
	}

	tests := []struct {
		name       string
		p          Perspective
		confidence float64
		findings   []Finding
		impact     float64
	}{
		{"confidence above one", PerspectiveSecurity, 1.01, nil, 0},
		{"negative confidence", PerspectiveSecurity, -0.1, nil, 0},
		{"negative impact", PerspectiveSecurity, 0.5, nil, -0.01},
		{"unknown perspective", Perspective("vibes"), 0.5, nil, 0},
		{"finding without file", PerspectiveSemantic, 0.8, []Finding{{Kind: "todo_found", Severity: SeverityMedium}}, 0.02},
		{"finding without kind", PerspectiveSemantic, 0.8, []Finding{{File: "a.py", Severity: SeverityMedium}}, 0.02},
		{"finding with bad severity", PerspectiveSemantic, 0.8, []Finding{{Kind: "x", File: "a.py", Severity: "meh"}}, 0.02},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSignal(tt.p, tt.confidence, tt.findings, tt.impact)
			var contractErr *ContractError
			if !errors.As(err, &contractErr) {
				t.Fatalf("expected ContractError, got %v", err)
			}
		})
	}
}

func TestResultHelpers(t *testing.T) {
	r := ResonanceResult{
		Signals: []ResonanceSignal{
			{Perspective: PerspectiveSyntax, Confidence: 0.95, Findings: []Finding{}},
			{Perspective: PerspectiveEvolution, Confidence: 0.6, Findings: []Finding{
				{Kind: "missing_tests", File: ProjectFile, Message: "No tests found", Severity: SeverityMedium},
			}},
		},
	}
	if got := r.TotalFindings(); got != 1 {
		t.Errorf("expected 1 finding, got %d", got)
	}
	s, ok := r.Signal(PerspectiveEvolution)
	if !ok || s.Confidence != 0.6 {
		t.Errorf("expected evolution signal with confidence 0.6, got %+v (ok=%v)", s, ok)
	}
	if _, ok := r.Signal(PerspectiveSecurity); ok {
		t.Errorf("security signal should be absent")
	}
}
