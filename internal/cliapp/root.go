// Package cliapp provides the command-line interface for corekb.
//
// Grounded on the teacher's internal/cli package: a root cobra.Command
// with persistent flags (--database, --limit, --format, --no-color,
// --verbose) that defaults to running search when invoked with no
// subcommand, plus a handful of subcommands. Generalized from WTF's
// shell-command database to the search engine's document corpus, and
// from cmd/wtf's bare fmt.Fprintf logging to structured log/slog, per
// the pack's own convention for that concern.
package cliapp

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mainframekb/corekb/internal/version"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "cliapp")

var rootCmd = &cobra.Command{
	Use:     "corekb [query]",
	Short:   "corekb searches a mainframe operations knowledge base",
	Version: version.Version,
	Long: `corekb indexes a knowledge base of mainframe incident writeups, runbooks,
and reference material, and searches it with boolean operators, exact
phrases, and fuzzy-tolerant terms.

Run with no subcommand to search directly:

  corekb "S0C7 data exception"
  corekb search --limit 5 "vsam status 35"`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return searchCmd.RunE(cmd, args)
	},
}

// Execute runs the root command and handles all CLI interactions.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(correctCmd)
	rootCmd.AddCommand(statsCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("corpus", "c", "corpus.yaml", "Path to the knowledge base YAML corpus")
	rootCmd.PersistentFlags().IntP("limit", "l", 10, "Maximum number of results to display")
	rootCmd.PersistentFlags().String("algorithm", "", "Ranking algorithm: bm25|tfidf|combined|custom (default: engine config)")

	rootCmd.PersistentFlags().String("format", "list", "Output format: list|table|json")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output (or set NO_COLOR env)")
}
