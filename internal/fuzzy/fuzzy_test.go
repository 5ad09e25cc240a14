package fuzzy

import "testing"

func TestSimilarityIdenticalStringsIsOne(t *testing.T) {
	m := New()
	for _, algo := range allAlgorithms {
		if s := m.Similarity("mainframe", "mainframe", algo); s != 1.0 {
			t.Errorf("algorithm %s: expected similarity 1.0 for identical strings, got %v", algo, s)
		}
	}
}

func TestSimilarityIsWithinUnitRange(t *testing.T) {
	m := New()
	pairs := [][2]string{
		{"abend", "abemd"},
		{"dataset", "datasett"},
		{"vsam", "vtam"},
		{"cobol", "xyz"},
	}
	for _, algo := range allAlgorithms {
		for _, p := range pairs {
			s := m.Similarity(p[0], p[1], algo)
			if s < 0 || s > 1 {
				t.Errorf("algorithm %s: similarity(%q,%q) = %v out of [0,1]", algo, p[0], p[1], s)
			}
		}
	}
}

func TestLevenshteinSimilarityDecreasesWithDistance(t *testing.T) {
	m := New()
	close := m.Similarity("abend", "abemd", AlgorithmLevenshtein)
	far := m.Similarity("abend", "xyzqr", AlgorithmLevenshtein)
	if close <= far {
		t.Errorf("expected closer string to score higher: close=%v far=%v", close, far)
	}
}

func TestFindMatchesOrdersByDescendingSimilarity(t *testing.T) {
	m := New()
	vocab := []string{"abend", "abemd", "dataset", "cobol", "vsam"}
	matches := m.FindMatches("abend", vocab, Options{MaxDistance: 5, MinSimilarity: 0, Algorithms: allAlgorithms, Weights: defaultWeights})
	for i := 1; i < len(matches); i++ {
		if matches[i-1].Similarity < matches[i].Similarity {
			t.Errorf("matches not sorted by descending similarity at index %d", i)
		}
	}
	if len(matches) == 0 || matches[0].Term != "abemd" {
		t.Errorf("expected closest match 'abemd' first, got %+v", matches)
	}
}

func TestFindMatchesExcludesExactTermItself(t *testing.T) {
	m := New()
	vocab := []string{"abend", "abemd"}
	matches := m.FindMatches("abend", vocab, DefaultOptions())
	for _, match := range matches {
		if match.Term == "abend" {
			t.Error("expected exact term to be excluded from candidate results")
		}
	}
}

func TestSuggestReturnsAtMostK(t *testing.T) {
	m := New()
	vocab := []string{"abend", "abemd", "abnd", "abenddd"}
	suggestions := m.Suggest("abend", vocab, 2)
	if len(suggestions) > 2 {
		t.Errorf("expected at most 2 suggestions, got %d", len(suggestions))
	}
}

func TestConfidenceWithinUnitRange(t *testing.T) {
	m := New()
	match := m.combined("abend", "abemd", DefaultOptions())
	if match.Confidence < 0 || match.Confidence > 1 {
		t.Errorf("expected confidence in [0,1], got %v", match.Confidence)
	}
}

func TestAreVariantsListedSynonym(t *testing.T) {
	m := New()
	if !m.AreVariants("abend", "error") {
		t.Error("expected abend/error to be recognized as listed variants")
	}
	if !m.AreVariants("dsn", "dataset") {
		t.Error("expected dsn/dataset to be recognized as listed variants")
	}
}

func TestAreVariantsUnrelatedFalse(t *testing.T) {
	m := New()
	if m.AreVariants("cobol", "zebra") {
		t.Error("expected unrelated terms not to be flagged as variants")
	}
}

func TestSoundexCacheMemoizes(t *testing.T) {
	m := New()
	first := m.soundex("robert")
	second := m.soundex("robert")
	if first != second {
		t.Errorf("expected memoized soundex code to be stable, got %q then %q", first, second)
	}
	if _, ok := m.soundexCache["robert"]; !ok {
		t.Error("expected soundex result to be memoized")
	}
}

func TestPrefilterNarrowsLargeVocabulary(t *testing.T) {
	p := newPrefilter(3)
	vocab := []string{"abend", "abemd", "dataset", "cobol", "vsam", "jcl", "cics"}
	narrowed := p.narrow("abend", vocab)
	if len(narrowed) > 3 {
		t.Errorf("expected prefilter to cap at 3 candidates, got %d", len(narrowed))
	}
}

func TestPrefilterPassesThroughSmallVocabulary(t *testing.T) {
	p := newPrefilter(10)
	vocab := []string{"abend", "abemd"}
	narrowed := p.narrow("abend", vocab)
	if len(narrowed) != len(vocab) {
		t.Errorf("expected pass-through for vocabulary under cap, got %d", len(narrowed))
	}
}
