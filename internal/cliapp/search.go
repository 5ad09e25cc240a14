package cliapp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mainframekb/corekb/internal/config"
	"github.com/mainframekb/corekb/internal/engine"
	"github.com/mainframekb/corekb/internal/ranking"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base using natural language, booleans, or exact phrases",
	Long: `Search the knowledge base corpus.

Examples:
  corekb search "S0C7 data exception"
  corekb search "VSAM AND status NOT 37"
  corekb search "\"file not found\""
  corekb search --limit 5 --format json "db2 timeout"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		flags := readFlags(cmd)

		e, err := loadEngine(flags)
		if err != nil {
			return err
		}
		defer e.Shutdown()

		opts := engine.DefaultSearchOptions()
		opts.Limit = flags.limit
		if alg := flags.algorithm; alg != "" {
			opts.Algorithm = ranking.Algorithm(alg)
		}

		start := time.Now()
		resp, err := e.Search(context.Background(), query, opts)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		elapsed := time.Since(start)

		if len(resp.Results) == 0 {
			fmt.Printf("No documents found matching %q.\n", query)
			if len(resp.Corrections) > 0 {
				fmt.Printf("\nDid you mean:\n")
				for _, c := range resp.Corrections {
					fmt.Printf("  %s\n", c)
				}
			}
			return nil
		}

		renderResults(resp, flags)

		if flags.verbose {
			fmt.Printf("\nSearch completed in %v (cache hit: %v)\n", elapsed, resp.Metrics.CacheHit)
		}
		return nil
	},
}

type cliFlags struct {
	verbose   bool
	corpus    string
	limit     int
	algorithm string
	format    string
	noColor   bool
}

func readFlags(cmd *cobra.Command) cliFlags {
	var f cliFlags
	f.verbose, _ = cmd.Flags().GetBool("verbose")
	f.corpus, _ = cmd.Flags().GetString("corpus")
	f.limit, _ = cmd.Flags().GetInt("limit")
	f.algorithm, _ = cmd.Flags().GetString("algorithm")
	f.format, _ = cmd.Flags().GetString("format")
	f.noColor, _ = cmd.Flags().GetBool("no-color")
	if !f.noColor {
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			f.noColor = true
		}
	}
	return f
}

// loadEngine builds and initializes a SearchEngine from flags.corpus.
// A fresh engine per invocation matches this CLI's one-shot usage; a
// long-lived server would instead build one at startup.
func loadEngine(flags cliFlags) (*engine.SearchEngine, error) {
	docs, err := loadCorpus(flags.corpus)
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		logger.Info("loaded corpus", "path", flags.corpus, "documents", len(docs))
	}

	e := engine.New(config.DefaultConfig(), nil)
	if err := e.Initialize(docs); err != nil {
		return nil, fmt.Errorf("failed to initialize search engine: %w", err)
	}
	return e, nil
}

func color(code string, disabled bool) string {
	if disabled {
		return ""
	}
	return code
}

func renderResults(resp *engine.Response, flags cliFlags) {
	reset := color("\x1b[0m", flags.noColor)
	bold := color("\x1b[1m", flags.noColor)
	cyan := color("\x1b[36m", flags.noColor)
	yellow := color("\x1b[33m", flags.noColor)
	gray := color("\x1b[90m", flags.noColor)

	switch strings.ToLower(flags.format) {
	case "json":
		type outItem struct {
			ID       string   `json:"id"`
			Title    string   `json:"title"`
			Category string   `json:"category"`
			Score    float64  `json:"score"`
			Tags     []string `json:"tags,omitempty"`
		}
		out := make([]outItem, 0, len(resp.Results))
		for _, r := range resp.Results {
			out = append(out, outItem{
				ID:       r.Document.ID,
				Title:    r.Document.Title,
				Category: string(r.Document.Category),
				Score:    r.Score,
				Tags:     r.Document.Tags,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)

	case "table":
		fmt.Printf("%s%-3s %-40s %-12s %-8s%s\n", bold, "#", "Title", "Category", "Score", reset)
		fmt.Printf("%s%s%s\n", gray, strings.Repeat("-", 70), reset)
		for i, r := range resp.Results {
			title := r.Document.Title
			if len(title) > 40 {
				title = title[:37] + "..."
			}
			fmt.Printf("%-3d %-40s %-12s %-8.2f\n", i+1, title, r.Document.Category, r.Score)
		}

	default: // list
		fmt.Printf("Found %d matching document(s):\n\n", resp.Total)
		for i, r := range resp.Results {
			fmt.Printf("%s%d.%s %s%s%s\n", bold, i+1, reset, cyan, r.Document.Title, reset)
			fmt.Printf("   %sCategory:%s %s\n", yellow, reset, r.Document.Category)
			if r.Document.Problem != "" {
				fmt.Printf("   %sProblem:%s %s\n", yellow, reset, r.Document.Problem)
			}
			if r.Document.Solution != "" {
				fmt.Printf("   %sSolution:%s %s\n", yellow, reset, r.Document.Solution)
			}
			if flags.verbose {
				fmt.Printf("   %sScore:%s %.3f\n", yellow, reset, r.Score)
			}
			fmt.Println()
		}
	}

	if len(resp.Facets) > 0 {
		fmt.Printf("%sFacets:%s\n", yellow, reset)
		for facet, counts := range resp.Facets {
			fmt.Printf("  %s: ", facet)
			first := true
			for value, count := range counts {
				if !first {
					fmt.Print(", ")
				}
				fmt.Printf("%s(%d)", value, count)
				first = false
			}
			fmt.Println()
		}
	}

	if len(resp.Suggestions) > 0 {
		fmt.Printf("%sSuggestions:%s %s\n", yellow, reset, strings.Join(resp.Suggestions, ", "))
	}
}
