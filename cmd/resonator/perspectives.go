package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/resonator/internal/perspectives"
)

var perspectivesVerbose bool

var perspectivesCmd = &cobra.Command{
	Use:   "perspectives",
	Short: "List the registered perspectives",
	Long: `List every registered perspective in run order with its philosophy and
scope. With --verbose, pattern-based perspectives also list their rules.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		registry, err := perspectives.DefaultRegistry()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		listPerspectives(os.Stdout, registry, perspectivesVerbose)
	},
}

func init() {
	rootCmd.AddCommand(perspectivesCmd)
	perspectivesCmd.Flags().BoolVarP(&perspectivesVerbose, "verbose", "v", false, "Show detection rules")
}

type ruleLister interface {
	Rules() []perspectives.Rule
}

func listPerspectives(w io.Writer, registry *perspectives.Registry, verbose bool) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "%d perspectives:\n\n", registry.Len())
	for _, a := range registry.All() {
		fmt.Fprintf(w, "%s\n", cyan(a.Perspective()))
		fmt.Fprintf(w, "  Philosophy: %s\n", a.Philosophy())
		fmt.Fprintf(w, "  Scope:      %s\n", a.Scope())

		lister, ok := a.(ruleLister)
		if !verbose || !ok {
			fmt.Fprintln(w)
			continue
		}
		for _, r := range lister.Rules() {
			fmt.Fprintf(w, "  - %-20s %s\n", r.Kind, gray(r.Pattern.String()))
		}
		fmt.Fprintln(w)
	}
}
