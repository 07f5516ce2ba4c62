// Package metrics persists the outcome of resonance runs so strength and
// impact can be tracked over time. The engine never touches this store.
package metrics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/steveyegge/resonator/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS resonance_runs (
	run_id             TEXT PRIMARY KEY,
	recorded_at        TEXT NOT NULL,
	root               TEXT NOT NULL,
	files_analyzed     INTEGER NOT NULL,
	corpus_digest      TEXT NOT NULL DEFAULT '',
	resonance_strength REAL NOT NULL,
	total_impact       REAL NOT NULL,
	consensus_count    INTEGER NOT NULL,
	duration_ms        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resonance_runs_recorded_at ON resonance_runs(recorded_at);
CREATE INDEX IF NOT EXISTS idx_resonance_runs_root ON resonance_runs(root, recorded_at);

CREATE TABLE IF NOT EXISTS perspective_signals (
	run_id      TEXT NOT NULL,
	perspective TEXT NOT NULL,
	confidence  REAL NOT NULL,
	impact      REAL NOT NULL,
	findings    INTEGER NOT NULL,
	PRIMARY KEY (run_id, perspective)
);
`

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Run is one recorded resonance run.
type Run struct {
	ID                string
	RecordedAt        time.Time
	Root              string
	FilesAnalyzed     int
	CorpusDigest      string
	ResonanceStrength float64
	TotalImpact       float64
	ConsensusCount    int
	Duration          time.Duration
}

// SignalRecord is the per-perspective part of a recorded run.
type SignalRecord struct {
	Perspective types.Perspective
	Confidence  float64
	Impact      float64
	Findings    int
}

// Store is a SQLite-backed run history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the metrics database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dsn, err := dataSourceName(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// dataSourceName builds a file: URI for path with the connection pragmas.
// The path is escaped so '?', '#' and '%' stay part of the file name.
func dataSourceName(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving database path: %w", err)
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		// Windows drive paths need a leading slash in a file URI.
		slashed = "/" + slashed
	}
	u := url.URL{
		Scheme:   "file",
		Path:     slashed,
		RawQuery: "_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)",
	}
	return u.String(), nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores r and its per-perspective signals. Runs without an ID get one.
func (s *Store) Record(ctx context.Context, r types.ResonanceResult) (Run, error) {
	run := Run{
		ID:                r.RunID,
		RecordedAt:        r.StartedAt,
		Root:              r.Root,
		FilesAnalyzed:     r.FilesAnalyzed,
		CorpusDigest:      r.CorpusDigest,
		ResonanceStrength: r.ResonanceStrength,
		TotalImpact:       r.TotalImpact,
		ConsensusCount:    len(r.ConsensusIssues),
		Duration:          r.Duration,
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = s.now()
	}
	run.RecordedAt = run.RecordedAt.UTC().Truncate(time.Microsecond)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO resonance_runs (
				run_id, recorded_at, root, files_analyzed, corpus_digest,
				resonance_strength, total_impact, consensus_count, duration_ms
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, run.RecordedAt.Format(timeLayout), run.Root, run.FilesAnalyzed, run.CorpusDigest,
			run.ResonanceStrength, run.TotalImpact, run.ConsensusCount, run.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}

		for _, sig := range r.Signals {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO perspective_signals (run_id, perspective, confidence, impact, findings)
				VALUES (?, ?, ?, ?, ?)
			`, run.ID, string(sig.Perspective), sig.Confidence, sig.Impact, len(sig.Findings))
			if err != nil {
				return fmt.Errorf("inserting %s signal: %w", sig.Perspective, err)
			}
		}
		return nil
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// History returns up to limit runs, newest first. An empty root returns runs
// for every root.
func (s *Store) History(ctx context.Context, root string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, recorded_at, root, files_analyzed, corpus_digest,
		       resonance_strength, total_impact, consensus_count, duration_ms
		FROM resonance_runs
		WHERE ? = '' OR root = ?
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?
	`, root, root, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run        Run
			recordedAt string
			durationMs int64
		)
		if err := rows.Scan(&run.ID, &recordedAt, &run.Root, &run.FilesAnalyzed, &run.CorpusDigest,
			&run.ResonanceStrength, &run.TotalImpact, &run.ConsensusCount, &durationMs); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.RecordedAt, err = time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at %q: %w", recordedAt, err)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Signals returns the per-perspective records of a run.
func (s *Store) Signals(ctx context.Context, runID string) ([]SignalRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT perspective, confidence, impact, findings
		FROM perspective_signals
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying signals: %w", err)
	}
	defer rows.Close()

	records := []SignalRecord{}
	for rows.Next() {
		var rec SignalRecord
		var p string
		if err := rows.Scan(&p, &rec.Confidence, &rec.Impact, &rec.Findings); err != nil {
			return nil, fmt.Errorf("scanning signal: %w", err)
		}
		rec.Perspective = types.Perspective(p)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Direction summarizes how resonance strength moved between two runs.
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionDeclining Direction = "declining"
	DirectionStable    Direction = "stable"
)

// stableEpsilon is the strength change below which a trend is stable.
const stableEpsilon = 0.005

// Trend compares the two most recent runs for a root.
type Trend struct {
	Latest        Run
	Previous      *Run
	StrengthDelta float64
	ImpactDelta   float64
	Direction     Direction
}

// ErrNoRuns is returned by LatestTrend when nothing has been recorded.
var ErrNoRuns = errors.New("no recorded runs")

// LatestTrend compares the newest run for root with the one before it.
func (s *Store) LatestTrend(ctx context.Context, root string) (Trend, error) {
	runs, err := s.History(ctx, root, 2)
	if err != nil {
		return Trend{}, err
	}
	if len(runs) == 0 {
		return Trend{}, ErrNoRuns
	}

	trend := Trend{Latest: runs[0], Direction: DirectionStable}
	if len(runs) < 2 {
		return trend, nil
	}
	prev := runs[1]
	trend.Previous = &prev
	trend.StrengthDelta = runs[0].ResonanceStrength - prev.ResonanceStrength
	trend.ImpactDelta = runs[0].TotalImpact - prev.TotalImpact
	switch {
	case math.Abs(trend.StrengthDelta) < stableEpsilon:
		trend.Direction = DirectionStable
	case trend.StrengthDelta > 0:
		trend.Direction = DirectionImproving
	default:
		trend.Direction = DirectionDeclining
	}
	return trend, nil
}

// Prune deletes runs recorded before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		at := cutoff.UTC().Format(timeLayout)
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM perspective_signals
			WHERE run_id IN (SELECT run_id FROM resonance_runs WHERE recorded_at < ?)
		`, at); err != nil {
			return fmt.Errorf("pruning signals: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM resonance_runs WHERE recorded_at < ?`, at)
		if err != nil {
			return fmt.Errorf("pruning runs: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
