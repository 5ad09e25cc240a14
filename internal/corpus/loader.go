// Package corpus loads a knowledge-base corpus from disk into the
// document records the engine indexes.
//
// Grounded on the teacher's internal/database/loader.go (a single
// os.ReadFile plus yaml.Unmarshal into a flat slice), generalized from
// a Command list to a Document list.
package corpus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mainframekb/corekb/internal/document"
)

// Load reads path as a YAML list of documents.
func Load(path string) ([]document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: failed to read %s: %w", path, err)
	}

	var docs []document.Document
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("corpus: failed to parse %s: %w", path, err)
	}
	return docs, nil
}
