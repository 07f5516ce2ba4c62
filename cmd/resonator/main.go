package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "resonator",
	Short: "Multi-perspective static analysis",
	Long: `resonator scans a source tree from six independent perspectives
(syntax, semantic, security, performance, architecture, evolution) and
reports the issues where they resonate.

Settings come from .resonator.yaml in the scanned root, RESONATOR_*
environment variables and flags, in increasing precedence.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: <root>/.resonator.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
