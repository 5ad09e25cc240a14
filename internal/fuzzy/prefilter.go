package fuzzy

import (
	"github.com/sahilm/fuzzy"
)

// prefilter narrows a large vocabulary down to a cheap subsequence
// match before the expensive multi-algorithm scoring runs, the way
// the teacher's FuzzySearcher uses sahilm/fuzzy for "did you mean"
// suggestions over the full command set.
type prefilter struct {
	maxCandidates int
}

func newPrefilter(maxCandidates int) *prefilter {
	if maxCandidates <= 0 {
		maxCandidates = 200
	}
	return &prefilter{maxCandidates: maxCandidates}
}

// narrow returns the subset of vocabulary most likely to contain a
// good match for term, capped at maxCandidates entries. Vocabularies
// smaller than the cap pass through unchanged.
func (p *prefilter) narrow(term string, vocabulary []string) []string {
	if len(vocabulary) <= p.maxCandidates {
		return vocabulary
	}
	matches := fuzzy.Find(term, vocabulary)
	limit := p.maxCandidates
	if limit > len(matches) {
		limit = len(matches)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = vocabulary[matches[i].Index]
	}
	return out
}

// FindMatchesPrefiltered runs the prefilter over large vocabularies
// before scoring, avoiding O(n) expensive comparisons against every
// vocabulary entry when n is large. prefilter is set once in New and
// never reassigned, so concurrent callers (Suggest/Correct run outside
// the search concurrency cap, per spec) never race on it.
func (m *Matcher) FindMatchesPrefiltered(term string, vocabulary []string, opts Options) []Match {
	narrowed := m.prefilter.narrow(term, vocabulary)
	return m.FindMatches(term, narrowed, opts)
}
