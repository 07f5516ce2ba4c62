package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/steveyegge/resonator/internal/metrics"
)

var (
	historyLimit int
	historyAll   bool
)

var historyCmd = &cobra.Command{
	Use:   "history [root]",
	Short: "Show recorded resonance runs and the latest trend",
	Long: `Show runs recorded with 'resonator scan --record', newest first, and
compare the latest run with the one before it.

Examples:
  resonator history              # Runs for the current directory
  resonator history --limit=50   # More rows
  resonator history --all        # Runs for every recorded root`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := ""
		if len(args) == 1 {
			root = args[0]
		}
		if err := runHistory(cmd.Context(), root, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to show")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "Show runs for every root")
}

func runHistory(ctx context.Context, root string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := loadSettings(root)
	if err != nil {
		return err
	}
	defer func() { _ = s.logger.Sync() }()

	path := s.config.MetricsPath(s.root)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(w, "No runs recorded yet (expected database at %s)\n", path)
		return nil
	}

	store, err := metrics.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	filterRoot := s.root
	if historyAll {
		filterRoot = ""
	}
	runs, err := store.History(ctx, filterRoot, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet")
		return nil
	}
	if err := printRuns(w, runs, historyAll); err != nil {
		return err
	}

	if historyAll {
		return nil
	}
	trend, err := store.LatestTrend(ctx, s.root)
	if err != nil {
		return err
	}
	printTrend(w, trend)
	return nil
}

func printRuns(w io.Writer, runs []metrics.Run, withRoot bool) error {
	table := tablewriter.NewWriter(w)
	header := []string{"Recorded", "Files", "Strength", "Impact", "Consensus", "Duration"}
	if withRoot {
		header = append(header, "Root")
	}
	table.Header(header)
	for _, r := range runs {
		row := []string{
			r.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.FilesAnalyzed),
			strconv.FormatFloat(r.ResonanceStrength, 'f', 3, 64),
			strconv.FormatFloat(r.TotalImpact, 'f', 4, 64),
			strconv.Itoa(r.ConsensusCount),
			r.Duration.String(),
		}
		if withRoot {
			row = append(row, r.Root)
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("rendering history: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering history: %w", err)
	}
	return nil
}

func printTrend(w io.Writer, t metrics.Trend) {
	if t.Previous == nil {
		fmt.Fprintln(w, "\nOnly one run recorded; no trend yet")
		return
	}
	var paint func(a ...interface{}) string
	switch t.Direction {
	case metrics.DirectionImproving:
		paint = color.New(color.FgGreen).SprintFunc()
	case metrics.DirectionDeclining:
		paint = color.New(color.FgRed).SprintFunc()
	default:
		paint = color.New(color.FgYellow).SprintFunc()
	}
	fmt.Fprintf(w, "\nTrend: %s (strength %+.3f, impact %+.4f)\n", paint(t.Direction), t.StrengthDelta, t.ImpactDelta)
}
