// Package pipeline wraps a resonance run in three explicit stages:
//
//	Perceive: run the engine and capture an Observation
//	Think:    decide which consensus issues deserve tickets (a Plan)
//	Act:      record metrics and file tickets (an Outcome)
//
// Each stage consumes the previous stage's value and returns a new one;
// nothing is shared or mutated between stages. Collaborators (metrics store,
// issue filer) are optional and only the Act stage touches them.
//
// Example usage:
//
//	p := pipeline.New(eng, pipeline.Config{Recorder: store, Filer: filer}, logger)
//	outcome, err := p.Run(ctx, root, 50)
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/steveyegge/resonator/internal/issues"
	"github.com/steveyegge/resonator/internal/metrics"
	"github.com/steveyegge/resonator/internal/types"
)

// Scanner produces a resonance result for a project root.
type Scanner interface {
	Run(ctx context.Context, root string, maxFiles int) (types.ResonanceResult, error)
}

// Recorder persists run metrics. *metrics.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, r types.ResonanceResult) (metrics.Run, error)
	LatestTrend(ctx context.Context, root string) (metrics.Trend, error)
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config wires the optional collaborators.
type Config struct {
	// Recorder, when set, stores every run and reports the trend.
	Recorder Recorder

	// Retention prunes recorded runs older than this. Zero keeps everything.
	Retention time.Duration

	// Filer, when set, receives the planned tickets.
	Filer issues.Filer

	// MinSeverity is the lowest severity that becomes a ticket.
	// Default: HIGH
	MinSeverity types.Severity
}

// Observation is the output of Perceive.
type Observation struct {
	Root   string
	Result types.ResonanceResult
}

// Plan is the output of Think.
type Plan struct {
	Observation Observation
	Tickets     []issues.Ticket
}

// Outcome is the output of Act. Fields for collaborators that were not
// configured stay nil.
type Outcome struct {
	Plan   Plan
	Run    *metrics.Run
	Trend  *metrics.Trend
	Pruned int64
	Filing *issues.Report
}

// Pipeline runs the perceive, think and act stages.
type Pipeline struct {
	scanner Scanner
	config  Config
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a pipeline around scanner.
func New(scanner Scanner, config Config, logger *zap.Logger) *Pipeline {
	if config.MinSeverity == "" {
		config.MinSeverity = types.SeverityHigh
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		scanner: scanner,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes all three stages.
func (p *Pipeline) Run(ctx context.Context, root string, maxFiles int) (Outcome, error) {
	obs, err := p.Perceive(ctx, root, maxFiles)
	if err != nil {
		return Outcome{}, err
	}
	return p.Act(ctx, p.Think(obs))
}

// Perceive scans root.
func (p *Pipeline) Perceive(ctx context.Context, root string, maxFiles int) (Observation, error) {
	result, err := p.scanner.Run(ctx, root, maxFiles)
	if err != nil {
		return Observation{}, fmt.Errorf("perceive: %w", err)
	}
	return Observation{Root: root, Result: result}, nil
}

// Think selects the consensus issues worth filing.
func (p *Pipeline) Think(obs Observation) Plan {
	tickets := issues.Select(obs.Result.ConsensusIssues, p.config.MinSeverity)
	p.logger.Debug("planned tickets",
		zap.Int("consensus_issues", len(obs.Result.ConsensusIssues)),
		zap.Int("tickets", len(tickets)),
		zap.String("min_severity", string(p.config.MinSeverity)),
	)
	return Plan{Observation: obs, Tickets: tickets}
}

// Act hands the plan to the configured collaborators. A recording failure
// does not prevent filing; both errors are returned joined.
func (p *Pipeline) Act(ctx context.Context, plan Plan) (Outcome, error) {
	out := Outcome{Plan: plan}
	var errs []error

	if p.config.Recorder != nil {
		if err := p.record(ctx, plan.Observation, &out); err != nil {
			errs = append(errs, err)
		}
	}

	if p.config.Filer != nil && len(plan.Tickets) > 0 {
		report, err := p.config.Filer.File(ctx, plan.Tickets)
		out.Filing = report
		if err != nil {
			errs = append(errs, fmt.Errorf("filing tickets: %w", err))
		}
	}

	return out, errors.Join(errs...)
}

func (p *Pipeline) record(ctx context.Context, obs Observation, out *Outcome) error {
	rec := p.config.Recorder

	run, err := rec.Record(ctx, obs.Result)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	out.Run = &run

	if p.config.Retention > 0 {
		pruned, err := rec.Prune(ctx, p.now().Add(-p.config.Retention))
		if err != nil {
			p.logger.Warn("pruning old runs failed", zap.Error(err))
		}
		out.Pruned = pruned
	}

	trend, err := rec.LatestTrend(ctx, obs.Root)
	switch {
	case err == nil:
		out.Trend = &trend
	case errors.Is(err, metrics.ErrNoRuns):
	default:
		return fmt.Errorf("computing trend: %w", err)
	}
	return nil
}
