package issues

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrMissingToken is returned when a tracker filer is built without credentials.
var ErrMissingToken = errors.New("issue tracker token is required")

// Filer creates tickets in an external tracker. Implementations must not file
// a ticket whose fingerprint is already open.
type Filer interface {
	File(ctx context.Context, tickets []Ticket) (*Report, error)
}

// Filed is a ticket that was created.
type Filed struct {
	Ticket
	Number int
	URL    string
}

// Report summarizes a filing pass.
type Report struct {
	Filed   []Filed
	Skipped []Ticket
}

// DryRunFiler logs what would be filed without contacting a tracker.
type DryRunFiler struct {
	logger *zap.Logger
}

// NewDryRunFiler creates a dry-run filer.
func NewDryRunFiler(logger *zap.Logger) *DryRunFiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRunFiler{logger: logger}
}

// File implements Filer.
func (d *DryRunFiler) File(ctx context.Context, tickets []Ticket) (*Report, error) {
	report := &Report{}
	for _, t := range tickets {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("dry run interrupted: %w", err)
		}
		d.logger.Info("would file ticket",
			zap.String("title", t.Title()),
			zap.String("fingerprint", t.Fingerprint),
			zap.Float64("resonance_score", t.ResonanceScore),
		)
		report.Filed = append(report.Filed, Filed{Ticket: t})
	}
	return report, nil
}
