package cliapp

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print engine and index statistics for the loaded corpus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := readFlags(cmd)
		e, err := loadEngine(flags)
		if err != nil {
			return err
		}
		defer e.Shutdown()

		s := e.Stats()
		fmt.Printf("Documents:       %d\n", s.Index.TotalDocuments)
		fmt.Printf("Unique terms:    %d\n", s.Index.UniqueTerms)
		fmt.Printf("Total terms:     %d\n", s.Index.TotalTerms)
		fmt.Printf("Avg doc length:  %.1f\n", s.Index.AverageDocumentLength)
		fmt.Printf("Index size:      %d bytes\n", s.Index.EstimatedByteSize)
		fmt.Printf("Last indexed:    %s\n", s.Index.LastUpdated.Format("2006-01-02 15:04:05"))
		fmt.Printf("Total searches:  %d\n", s.TotalSearches)
		fmt.Printf("Avg response:    %s\n", s.AverageResponseTime)
		fmt.Printf("Cache hit rate:  %.1f%%\n", s.CacheHitRate*100)
		fmt.Printf("Error rate:      %.1f%%\n", s.ErrorRate*100)
		return nil
	},
}
