package ranking

import (
	"testing"
	"time"

	"github.com/mainframekb/corekb/internal/clock"
	"github.com/mainframekb/corekb/internal/document"
	"github.com/mainframekb/corekb/internal/index"
	"github.com/mainframekb/corekb/internal/queryparser"
	"github.com/mainframekb/corekb/internal/textproc"
)

func fixedClock() clock.Clock {
	return clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func buildFixture(t *testing.T) (*index.InvertedIndex, map[string]document.Document) {
	t.Helper()
	idx := index.New(textproc.New(), fixedClock())
	docs := map[string]document.Document{
		"1": {ID: "1", Title: "S0C7 Data Exception", Problem: "abend in batch job processing", Category: document.CategoryIncident, UsageCount: 50, SuccessCount: 8, FailureCount: 2, UpdatedAt: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)},
		"2": {ID: "2", Title: "VSAM Status 35 file not found", Problem: "dataset cannot be opened", Category: document.CategoryIncident, UsageCount: 5, UpdatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		"3": {ID: "3", Title: "General batch tips", Problem: "batch job scheduling guidance", Category: document.CategoryReference},
	}
	for _, d := range docs {
		if err := idx.Add(d); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	return idx, docs
}

func rankQuery(t *testing.T, idx *index.InvertedIndex, docs map[string]document.Document, query string, opts Options) []RankingScore {
	t.Helper()
	parsed := queryparser.Parse(query, queryparser.DefaultOptions())
	extracted := queryparser.ExtractSearchTerms(parsed)
	allTerms := append(append(append([]string{}, extracted.Required...), extracted.Optional...), extracted.Prohibited...)
	postings := idx.Search(allTerms)

	candidateSet := map[string]bool{}
	for _, list := range postings {
		for docID := range list.Docs {
			candidateSet[docID] = true
		}
	}
	var candidates []string
	for docID := range candidateSet {
		candidates = append(candidates, docID)
	}

	indexed := map[string]*index.IndexedDocument{}
	for docID := range candidateSet {
		if d, ok := idx.Get(docID); ok {
			indexed[docID] = d
		}
	}

	engine := New(textproc.New(), fixedClock())
	return engine.Rank(candidates, parsed, postings, indexed, docs, idx.Stats(), opts)
}

func TestRankEmptyQueryProducesNoResults(t *testing.T) {
	idx, docs := buildFixture(t)
	out := rankQuery(t, idx, docs, "", DefaultOptions())
	if out != nil {
		t.Errorf("expected nil ranking for an empty query, got %+v", out)
	}
}

func TestRankNoMatchesProducesNoResults(t *testing.T) {
	idx, docs := buildFixture(t)
	out := rankQuery(t, idx, docs, "nonexistentterm", DefaultOptions())
	if len(out) != 0 {
		t.Errorf("expected no results for an unmatched term, got %+v", out)
	}
}

func TestRankBM25OrdersRelevantDocFirst(t *testing.T) {
	idx, docs := buildFixture(t)
	opts := DefaultOptions()
	opts.Algorithm = AlgorithmBM25
	out := rankQuery(t, idx, docs, "vsam", opts)
	if len(out) == 0 || out[0].DocID != "2" {
		t.Fatalf("expected doc 2 to rank first for 'vsam', got %+v", out)
	}
}

func TestRankProhibitedTermExcludesDoc(t *testing.T) {
	idx, docs := buildFixture(t)
	out := rankQuery(t, idx, docs, "batch -vsam", DefaultOptions())
	for _, r := range out {
		if r.DocID == "2" {
			t.Errorf("expected prohibited term to exclude doc 2, got %+v", out)
		}
	}
}

func TestRankIsStableOrderOnTies(t *testing.T) {
	idx, docs := buildFixture(t)
	out1 := rankQuery(t, idx, docs, "batch", DefaultOptions())
	out2 := rankQuery(t, idx, docs, "batch", DefaultOptions())
	if len(out1) != len(out2) {
		t.Fatalf("expected stable result count, got %d vs %d", len(out1), len(out2))
	}
	for i := range out1 {
		if out1[i].DocID != out2[i].DocID {
			t.Errorf("expected stable order at %d, got %q vs %q", i, out1[i].DocID, out2[i].DocID)
		}
	}
}

func TestRankTFIDFProducesScores(t *testing.T) {
	idx, docs := buildFixture(t)
	opts := DefaultOptions()
	opts.Algorithm = AlgorithmTFIDF
	out := rankQuery(t, idx, docs, "batch", opts)
	if len(out) == 0 {
		t.Fatal("expected at least one ranked result")
	}
	for _, r := range out {
		if r.Score < 0 {
			t.Errorf("expected non-negative tfidf score, got %v for %q", r.Score, r.DocID)
		}
	}
}

func TestRankCustomBoostsErrorCodeMatch(t *testing.T) {
	idx, docs := buildFixture(t)
	opts := DefaultOptions()
	opts.Algorithm = AlgorithmCustom
	out := rankQuery(t, idx, docs, "s0c7", opts)
	if len(out) == 0 || out[0].DocID != "1" {
		t.Fatalf("expected doc 1 (S0C7) to rank first under the custom scorer, got %+v", out)
	}
	found := false
	for _, c := range out[0].Components {
		if c.Factor == "domain_multiplier" {
			found = true
		}
	}
	if !found {
		t.Error("expected a domain_multiplier component for an error-code match")
	}
}

func TestRankComponentsAreAuditable(t *testing.T) {
	idx, docs := buildFixture(t)
	out := rankQuery(t, idx, docs, "batch", DefaultOptions())
	if len(out) == 0 {
		t.Fatal("expected at least one result")
	}
	if len(out[0].Components) == 0 {
		t.Error("expected at least one score component")
	}
}

func TestRankMissingDocumentIsSkipped(t *testing.T) {
	idx, docs := buildFixture(t)
	delete(docs, "2")
	out := rankQuery(t, idx, docs, "vsam", DefaultOptions())
	for _, r := range out {
		if r.DocID == "2" {
			t.Error("expected a candidate missing from the document collection to be skipped")
		}
	}
}
