package cliapp

import (
	"fmt"
	"os"

	"github.com/mainframekb/corekb/internal/corpus"
	"github.com/mainframekb/corekb/internal/document"
)

// loadCorpus reads the YAML corpus at path, falling back to a small
// built-in sample when the file does not exist so the CLI has
// something to search against out of the box.
func loadCorpus(path string) ([]document.Document, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return sampleCorpus(), nil
		}
		return nil, fmt.Errorf("failed to stat corpus %s: %w", path, err)
	}
	return corpus.Load(path)
}

func sampleCorpus() []document.Document {
	return []document.Document{
		{
			ID:       "s0c7",
			Title:    "S0C7 Data Exception",
			Problem:  "abend in batch job while processing numeric data",
			Solution: "check for uninitialized or non-numeric COMP-3 fields feeding the arithmetic statement",
			Category: document.CategoryIncident,
			Tags:     []string{"abend", "cobol", "batch"},
		},
		{
			ID:       "vsam-35",
			Title:    "VSAM Status 35 file not found",
			Problem:  "dataset cannot be opened, vsam returns status code 35",
			Solution: "verify the catalog entry and dataset name in the JCL DD statement",
			Category: document.CategoryIncident,
			Tags:     []string{"vsam", "jcl"},
		},
		{
			ID:       "db2-timeout",
			Title:    "DB2 connection timeout to subsystem",
			Problem:  "application threads hang waiting on a db2 connection, eventually timing out",
			Solution: "check the subsystem's thread pool and increase the connection timeout threshold",
			Category: document.CategoryIncident,
			Tags:     []string{"db2", "timeout"},
		},
	}
}
