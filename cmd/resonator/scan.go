package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/steveyegge/resonator/internal/config"
	"github.com/steveyegge/resonator/internal/engine"
	"github.com/steveyegge/resonator/internal/issues"
	"github.com/steveyegge/resonator/internal/metrics"
	"github.com/steveyegge/resonator/internal/perspectives"
	"github.com/steveyegge/resonator/internal/pipeline"
	"github.com/steveyegge/resonator/internal/report"
	"github.com/steveyegge/resonator/internal/types"
	"github.com/steveyegge/resonator/internal/vcs"
)

// exitFindings is the exit status when --fail-on matches a consensus issue.
const exitFindings = 2

var (
	scanMaxFiles      int
	scanPerspectives  []string
	scanRecentCommits int
	scanWorking       bool
	scanFormat        string
	scanTop           int
	scanRecord        bool
	scanFileIssues    bool
	scanDryRun        bool
	scanMinSeverity   string
	scanFailOn        string
)

var scanCmd = &cobra.Command{
	Use:   "scan [root]",
	Short: "Analyze a source tree and report resonating issues",
	Long: `Analyze up to --max-files Go and Python files under root (default: the
current directory) from every registered perspective, then report the
per-perspective signals and the consensus issues.

Examples:
  resonator scan                           # Scan the current directory
  resonator scan ./service --max-files=200 # Larger corpus
  resonator scan --perspective=security    # One perspective only
  resonator scan --recent-commits=5        # Only files touched by the last 5 commits
  resonator scan --format=json             # Machine-readable output
  resonator scan --record                  # Store the run in the metrics database
  resonator scan --file-issues --dry-run   # Preview the tickets that would be filed
  resonator scan --fail-on=HIGH            # Exit 2 if a HIGH or CRITICAL issue resonates`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := ""
		if len(args) == 1 {
			root = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		code, err := runScan(ctx, cmd, root, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVar(&scanMaxFiles, "max-files", 0, "Maximum files to analyze (default from config: 50)")
	scanCmd.Flags().StringSliceVar(&scanPerspectives, "perspective", nil, "Perspective to run (repeatable; default: all)")
	scanCmd.Flags().IntVar(&scanRecentCommits, "recent-commits", 0, "Only analyze files changed in the last N commits")
	scanCmd.Flags().BoolVar(&scanWorking, "working", false, "Only analyze files with uncommitted changes")
	scanCmd.Flags().StringVar(&scanFormat, "format", "text", "Output format: text, json or yaml")
	scanCmd.Flags().IntVar(&scanTop, "top", report.DefaultTopIssues, "Consensus issues listed in the text summary")
	scanCmd.Flags().BoolVar(&scanRecord, "record", false, "Record the run in the metrics database")
	scanCmd.Flags().BoolVar(&scanFileIssues, "file-issues", false, "File tickets for consensus issues")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "With --file-issues, log tickets instead of filing them")
	scanCmd.Flags().StringVar(&scanMinSeverity, "min-severity", "", "Lowest severity filed as a ticket (default from config: HIGH)")
	scanCmd.Flags().StringVar(&scanFailOn, "fail-on", "", "Exit 2 if any consensus issue is at least this severity")
}

// runScan executes a scan and writes the report to out. It returns the
// process exit code for a successful scan.
func runScan(ctx context.Context, cmd *cobra.Command, root string, out io.Writer) (int, error) {
	s, err := loadSettings(root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = s.logger.Sync() }()
	if err := applyScanFlags(cmd, s.config); err != nil {
		return 0, err
	}

	format, err := report.ParseFormat(scanFormat)
	if err != nil {
		return 0, err
	}
	var failOn types.Severity
	if scanFailOn != "" {
		if failOn, err = types.ParseSeverity(scanFailOn); err != nil {
			return 0, fmt.Errorf("--fail-on: %w", err)
		}
	}
	minSeverity, err := types.ParseSeverity(s.config.Issues.MinSeverity)
	if err != nil {
		return 0, err
	}

	registry, err := perspectives.DefaultRegistry()
	if err != nil {
		return 0, err
	}
	if len(s.config.Perspectives) > 0 {
		if registry, err = registry.Select(s.config.Perspectives); err != nil {
			return 0, err
		}
	}

	engCfg := engineConfig(s.config)
	if err := restrictToChanges(ctx, s, engCfg); err != nil {
		return 0, err
	}
	eng := engine.New(registry, engCfg, s.logger)

	pcfg := pipeline.Config{MinSeverity: minSeverity}
	if scanRecord {
		store, err := metrics.Open(s.config.MetricsPath(s.root))
		if err != nil {
			return 0, err
		}
		defer store.Close()
		pcfg.Recorder = store
		pcfg.Retention = time.Duration(s.config.Metrics.RetentionDays) * 24 * time.Hour
	}
	if scanFileIssues {
		if pcfg.Filer, err = newFiler(s); err != nil {
			return 0, err
		}
	}

	outcome, runErr := pipeline.New(eng, pcfg, s.logger).Run(ctx, s.root, s.config.MaxFiles)
	result := outcome.Plan.Observation.Result
	if result.RunID == "" {
		// Perceive failed; nothing to report.
		return 0, runErr
	}

	if err := report.Encode(out, result, format, report.Options{TopIssues: scanTop, NoColor: noColor}); err != nil {
		return 0, fmt.Errorf("writing report: %w", err)
	}
	if format == report.FormatText {
		printOutcome(out, outcome)
	}
	if runErr != nil {
		return 0, runErr
	}

	if failOn != "" {
		for _, issue := range result.ConsensusIssues {
			if issue.Severity.AtLeast(failOn) {
				return exitFindings, nil
			}
		}
	}
	return 0, nil
}

// applyScanFlags overrides config values with explicitly set scan flags.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("max-files") {
		cfg.MaxFiles = scanMaxFiles
	}
	if flags.Changed("perspective") {
		cfg.Perspectives = append([]string(nil), scanPerspectives...)
	}
	if flags.Changed("recent-commits") {
		cfg.VCS.RecentCommits = scanRecentCommits
	}
	if flags.Changed("min-severity") {
		cfg.Issues.MinSeverity = scanMinSeverity
	}
	return cfg.Validate()
}

// restrictToChanges narrows the corpus to recently committed or uncommitted
// files when asked to. Outside a git repository the full corpus is scanned.
func restrictToChanges(ctx context.Context, s *settings, engCfg *engine.Config) error {
	recent := s.config.VCS.RecentCommits
	if recent == 0 && !scanWorking {
		return nil
	}

	repo, err := vcs.Open(s.root)
	if err != nil {
		if errors.Is(err, vcs.ErrNotRepository) {
			s.logger.Warn("not a git repository, scanning full corpus", zap.String("root", s.root))
			return nil
		}
		return err
	}

	var paths []string
	if recent > 0 {
		changed, err := repo.RecentlyChanged(ctx, s.root, recent)
		if err != nil {
			return err
		}
		paths = append(paths, changed...)
	}
	if scanWorking {
		changed, err := repo.WorkingChanges(s.root)
		if err != nil {
			return err
		}
		paths = append(paths, changed...)
	}

	if head, err := repo.Head(); err == nil {
		s.logger.Debug("restricting corpus to changed files",
			zap.String("branch", head.Branch),
			zap.String("head", head.Hash),
			zap.Int("paths", len(paths)),
		)
	}
	engCfg.Corpus.Filter = vcs.Filter(paths)
	return nil
}

func newFiler(s *settings) (issues.Filer, error) {
	if scanDryRun {
		return issues.NewDryRunFiler(s.logger), nil
	}
	owner, repo, err := s.config.Issues.OwnerRepo()
	if err != nil {
		return nil, fmt.Errorf("issues.repo: %w", err)
	}
	return issues.NewGitHubFiler(issues.GitHubConfig{
		Owner:         owner,
		Repo:          repo,
		Token:         s.config.Issues.Token,
		BaseURL:       s.config.Issues.BaseURL,
		Labels:        s.config.Issues.Labels,
		RatePerMinute: s.config.Issues.RatePerMinute,
	}, s.logger)
}

// printOutcome appends the collaborator results to the text report.
func printOutcome(w io.Writer, o pipeline.Outcome) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	if o.Run != nil {
		fmt.Fprintf(w, "\n%s Recorded run %s\n", green("✓"), o.Run.ID)
		if o.Trend != nil && o.Trend.Previous != nil {
			fmt.Fprintf(w, "  Trend: %s (strength %+.3f, impact %+.4f)\n",
				o.Trend.Direction, o.Trend.StrengthDelta, o.Trend.ImpactDelta)
		}
		if o.Pruned > 0 {
			fmt.Fprintf(w, "  %s\n", gray(fmt.Sprintf("Pruned %d old runs", o.Pruned)))
		}
	}

	if o.Filing != nil {
		fmt.Fprintln(w)
		for _, f := range o.Filing.Filed {
			if f.Number > 0 {
				fmt.Fprintf(w, "%s Filed #%d %s\n", green("✓"), f.Number, f.Title())
			} else {
				fmt.Fprintf(w, "%s Would file: %s\n", yellow("→"), f.Title())
			}
		}
		for _, t := range o.Filing.Skipped {
			fmt.Fprintf(w, "%s Already open: %s\n", gray("•"), t.Title())
		}
	} else if len(o.Plan.Tickets) > 0 {
		fmt.Fprintf(w, "\n%s\n", gray(fmt.Sprintf("%d ticket(s) eligible for filing (use --file-issues)", len(o.Plan.Tickets))))
	}
}
