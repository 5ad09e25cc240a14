// corekb is a natural-language search tool for a mainframe operations
// knowledge base. It features:
//   - Boolean, phrase, and fuzzy-tolerant query parsing
//   - BM25/TF-IDF/combined/custom ranking with field weighting
//   - Autocomplete suggestions and spelling correction
//   - A tiered in-process cache with warm-up and document-level invalidation
//
// Usage:
//
//	corekb "S0C7 data exception"
//	corekb search --limit 5 "vsam status 35"
//	corekb stats
package main

import (
	"fmt"
	"os"

	"github.com/mainframekb/corekb/internal/cliapp"
)

func main() {
	if err := cliapp.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
