// Package report renders resonance results for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/resonator/internal/types"
)

// DefaultTopIssues is how many consensus issues the summary lists.
const DefaultTopIssues = 5

// OKThreshold is the confidence above which a perspective reports OK.
const OKThreshold = 0.7

// Format is an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (expected text, json or yaml)", s)
}

// Options controls the text summary.
type Options struct {
	TopIssues int
	NoColor   bool
}

// Summary writes the human-readable report: one row per perspective, the
// aggregate scores and the top consensus issues.
func Summary(w io.Writer, r types.ResonanceResult, opts Options) error {
	if opts.TopIssues <= 0 {
		opts.TopIssues = DefaultTopIssues
	}
	paint := newPalette(opts.NoColor)

	if r.Root != "" {
		fmt.Fprintf(w, "%s %s\n", paint.bold("Resonance analysis:"), r.Root)
	}
	fmt.Fprintf(w, "Files analyzed: %d\n\n", r.FilesAnalyzed)

	table := tablewriter.NewWriter(w)
	table.Header("Perspective", "Status", "Confidence", "Findings", "Impact")
	for _, s := range r.Signals {
		status := paint.green("OK")
		if s.Confidence <= OKThreshold {
			status = paint.yellow("WARN")
		}
		if err := table.Append([]string{
			string(s.Perspective),
			status,
			strconv.FormatFloat(s.Confidence, 'f', 2, 64),
			strconv.Itoa(len(s.Findings)),
			strconv.FormatFloat(s.Impact, 'f', 3, 64),
		}); err != nil {
			return fmt.Errorf("rendering perspectives: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering perspectives: %w", err)
	}

	fmt.Fprintf(w, "\nResonance strength: %s\n", paint.bold(strconv.FormatFloat(r.ResonanceStrength, 'f', 3, 64)))
	fmt.Fprintf(w, "Total impact:       %.3f\n", r.TotalImpact)
	fmt.Fprintf(w, "Consensus issues:   %d\n", len(r.ConsensusIssues))

	if len(r.ConsensusIssues) == 0 {
		fmt.Fprintf(w, "\n%s No consensus issues\n", paint.green("✓"))
		return nil
	}

	top := r.ConsensusIssues
	if len(top) > opts.TopIssues {
		top = top[:opts.TopIssues]
	}
	fmt.Fprintf(w, "\nTop %d issues:\n", len(top))

	issues := tablewriter.NewWriter(w)
	issues.Header("Severity", "Kind", "File", "Message", "Score", "Perspective")
	for _, issue := range top {
		if err := issues.Append([]string{
			paint.severity(issue.Severity),
			issue.Kind,
			location(issue.Finding),
			issue.Message,
			strconv.FormatFloat(issue.ResonanceScore, 'f', 2, 64),
			string(issue.Perspective),
		}); err != nil {
			return fmt.Errorf("rendering issues: %w", err)
		}
	}
	if err := issues.Render(); err != nil {
		return fmt.Errorf("rendering issues: %w", err)
	}
	return nil
}

func location(f types.Finding) string {
	if f.Line != nil {
		return fmt.Sprintf("%s:%d", f.File, *f.Line)
	}
	return f.File
}

// Encode writes r in the requested format.
func Encode(w io.Writer, r types.ResonanceResult, format Format, opts Options) error {
	switch format {
	case FormatText, "":
		return Summary(w, r, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}

type palette struct {
	bold, green, yellow, red, magenta func(a ...interface{}) string
}

func newPalette(noColor bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		bold:    mk(color.Bold),
		green:   mk(color.FgGreen),
		yellow:  mk(color.FgYellow),
		red:     mk(color.FgRed, color.Bold),
		magenta: mk(color.FgMagenta),
	}
}

func (p palette) severity(s types.Severity) string {
	switch s {
	case types.SeverityCritical:
		return p.red(string(s))
	case types.SeverityHigh:
		return p.magenta(string(s))
	case types.SeverityMedium:
		return p.yellow(string(s))
	}
	return string(s)
}
