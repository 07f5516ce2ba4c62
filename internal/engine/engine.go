// Package engine runs every registered perspective over one corpus snapshot
// in parallel and merges the signals into a resonance result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/resonator/internal/corpus"
	"github.com/steveyegge/resonator/internal/perspectives"
	"github.com/steveyegge/resonator/internal/resonance"
	"github.com/steveyegge/resonator/internal/types"
)

// DefaultPerspectiveTimeout bounds a single perspective's analysis.
const DefaultPerspectiveTimeout = 30 * time.Second

// Config controls a ResonanceEngine.
type Config struct {
	// Corpus selects the files to analyze.
	Corpus corpus.Options

	// PerspectiveTimeout bounds each analyzer. A perspective that runs over
	// contributes an empty, zero-confidence signal instead of failing the run.
	PerspectiveTimeout time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus:             corpus.DefaultOptions(),
		PerspectiveTimeout: DefaultPerspectiveTimeout,
	}
}

// Engine coordinates a resonance run:
// - Discovers the corpus once and loads an immutable snapshot
// - Fans out every registered perspective over the same snapshot
// - Waits for all of them before aggregating
//
// An Engine holds no state between runs.
type Engine struct {
	registry *perspectives.Registry
	config   *Config
	logger   *zap.Logger
}

// New creates an engine over registry. A nil config uses DefaultConfig and a
// nil logger discards output. The engine keeps its own copy of config.
func New(registry *perspectives.Registry, config *Config, logger *zap.Logger) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.PerspectiveTimeout <= 0 {
		cfg.PerspectiveTimeout = DefaultPerspectiveTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry: registry,
		config:   &cfg,
		logger:   logger,
	}
}

// Run analyzes up to maxFiles files under root. Defects in individual files
// or perspectives degrade the result; the only error is ctx being done.
func (e *Engine) Run(ctx context.Context, root string, maxFiles int) (types.ResonanceResult, error) {
	startedAt := time.Now()
	runID := uuid.NewString()
	log := e.logger.With(zap.String("run_id", runID), zap.String("root", root))

	paths := corpus.Discover(root, maxFiles, e.config.Corpus)
	snap := corpus.Load(root, paths)
	log.Debug("corpus loaded", zap.Int("files", snap.Len()))

	signals, err := e.Analyze(ctx, snap)
	if err != nil {
		return types.ResonanceResult{}, err
	}

	result := resonance.Resonate(signals)
	result.RunID = runID
	result.Root = root
	result.FilesAnalyzed = snap.Len()
	result.CorpusDigest = snap.Digest()
	result.StartedAt = startedAt
	result.Duration = time.Since(startedAt)

	log.Info("resonance run complete",
		zap.Int("files", result.FilesAnalyzed),
		zap.Int("consensus_issues", len(result.ConsensusIssues)),
		zap.Float64("resonance_strength", result.ResonanceStrength),
		zap.Float64("total_impact", result.TotalImpact),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// Analyze runs every registered perspective over snap concurrently and
// returns their signals in registration order, once all have finished.
func (e *Engine) Analyze(ctx context.Context, snap *corpus.Snapshot) ([]types.ResonanceSignal, error) {
	analyzers := e.registry.All()
	signals := make([]types.ResonanceSignal, len(analyzers))

	var g errgroup.Group
	g.SetLimit(max(len(analyzers), 1))
	for i, a := range analyzers {
		g.Go(func() error {
			signals[i] = e.runAnalyzer(ctx, a, snap)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resonance run cancelled: %w", err)
	}
	return signals, nil
}

// runAnalyzer runs a under the per-perspective timeout. Failures, contract
// violations and timeouts all yield the perspective's empty signal.
func (e *Engine) runAnalyzer(ctx context.Context, a perspectives.Analyzer, snap *corpus.Snapshot) types.ResonanceSignal {
	p := a.Perspective()
	log := e.logger.With(zap.String("perspective", string(p)))

	actx, cancel := context.WithTimeout(ctx, e.config.PerspectiveTimeout)
	defer cancel()

	type outcome struct {
		signal types.ResonanceSignal
		err    error
	}
	done := make(chan outcome, 1)
	started := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		signal, err := a.Analyze(actx, snap)
		done <- outcome{signal: signal, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) || errors.Is(out.err, context.Canceled) {
				log.Warn("perspective timed out", zap.Duration("timeout", e.config.PerspectiveTimeout))
			} else {
				log.Error("perspective failed", zap.Error(out.err))
			}
			return types.EmptySignal(p)
		}
		if err := out.signal.Validate(); err != nil || out.signal.Perspective != p {
			log.Error("perspective returned an invalid signal", zap.Error(err))
			return types.EmptySignal(p)
		}
		log.Debug("perspective complete",
			zap.Int("findings", len(out.signal.Findings)),
			zap.Float64("confidence", out.signal.Confidence),
			zap.Duration("duration", time.Since(started)),
		)
		return out.signal
	case <-actx.Done():
		log.Warn("perspective timed out", zap.Duration("timeout", e.config.PerspectiveTimeout))
		return types.EmptySignal(p)
	}
}

// Perspectives returns the registered analyzers in run order.
func (e *Engine) Perspectives() []perspectives.Analyzer {
	return e.registry.All()
}
