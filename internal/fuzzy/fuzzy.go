// Package fuzzy provides multi-algorithm approximate string matching
// over a vocabulary: Levenshtein, Damerau-Levenshtein, Jaro,
// Jaro-Winkler, Soundex, and Metaphone, combined into a single scored
// match with a confidence estimate.
//
// Grounded on other_examples/.../foundry-similarity-distance_v2.go,
// which wraps github.com/antzucaro/matchr for the same distance and
// similarity algorithms; the teacher's internal/search/fuzzy.go
// contributes the package shape (a *Searcher/*Matcher holding a
// vocabulary, returning ranked matches) and its sahilm/fuzzy dependency,
// kept here as a cheap pre-filter (see prefilter.go).
package fuzzy

import (
	"math"
	"sort"
	"sync"

	"github.com/antzucaro/matchr"

	"github.com/mainframekb/corekb/internal/domain"
)

// Algorithm names an individual matching algorithm.
type Algorithm string

const (
	AlgorithmLevenshtein      Algorithm = "levenshtein"
	AlgorithmDamerauLevenshtein Algorithm = "damerau_levenshtein"
	AlgorithmJaro             Algorithm = "jaro"
	AlgorithmJaroWinkler      Algorithm = "jaro_winkler"
	AlgorithmSoundex          Algorithm = "soundex"
	AlgorithmMetaphone        Algorithm = "metaphone"
)

var allAlgorithms = []Algorithm{
	AlgorithmLevenshtein,
	AlgorithmDamerauLevenshtein,
	AlgorithmJaro,
	AlgorithmJaroWinkler,
	AlgorithmSoundex,
	AlgorithmMetaphone,
}

// defaultWeights weight each algorithm's contribution to the combined
// score; edit-distance and Jaro family members carry more weight than
// the binary phonetic checks.
var defaultWeights = map[Algorithm]float64{
	AlgorithmLevenshtein:        1.0,
	AlgorithmDamerauLevenshtein: 1.0,
	AlgorithmJaro:               0.8,
	AlgorithmJaroWinkler:        0.8,
	AlgorithmSoundex:            0.5,
	AlgorithmMetaphone:          0.5,
}

// Options configures a FindMatches/Suggest call.
type Options struct {
	MaxDistance   int
	MinSimilarity float64
	Algorithms    []Algorithm
	Weights       map[Algorithm]float64
}

// DefaultOptions mirrors the query parser's default fuzzy distance of 2 and a
// permissive similarity floor, narrowed by callers that need precision.
func DefaultOptions() Options {
	return Options{
		MaxDistance:   2,
		MinSimilarity: 0.4,
		Algorithms:    allAlgorithms,
		Weights:       defaultWeights,
	}
}

// Match is one scored vocabulary candidate.
type Match struct {
	Term            string
	Distance        int
	Similarity      float64
	Confidence      float64
	Algorithm       string
	Transformations []string
	perAlgo         map[Algorithm]float64
}

// Matcher runs the multi-algorithm comparison with bounded
// memoization for the expensive per-term computations (stem cache
// lives in textproc; this one covers soundex/metaphone codes only).
type Matcher struct {
	mu            sync.Mutex
	soundexCache  map[string]string
	metaphoneCache map[string]string
	maxCacheSize  int
	prefilter     *prefilter
}

// New returns a ready-to-use Matcher.
func New() *Matcher {
	return &Matcher{
		soundexCache:   make(map[string]string),
		metaphoneCache: make(map[string]string),
		maxCacheSize:   10000,
		prefilter:      newPrefilter(200),
	}
}

// Similarity computes the similarity of a single named algorithm
// directly, per spec's `similarity(a, b, algorithm)` contract.
func (m *Matcher) Similarity(a, b string, algo Algorithm) float64 {
	switch algo {
	case AlgorithmLevenshtein:
		return levenshteinSimilarity(a, b)
	case AlgorithmDamerauLevenshtein:
		return damerauSimilarity(a, b)
	case AlgorithmJaro:
		return matchr.Jaro(a, b)
	case AlgorithmJaroWinkler:
		return matchr.JaroWinkler(a, b, false)
	case AlgorithmSoundex:
		return binarySimilarity(m.soundex(a), m.soundex(b))
	case AlgorithmMetaphone:
		return binarySimilarity(m.metaphone(a), m.metaphone(b))
	default:
		return 0
	}
}

func levenshteinSimilarity(a, b string) float64 {
	d := matchr.Levenshtein(a, b)
	return 1.0 - float64(d)/float64(maxLen(a, b))
}

func damerauSimilarity(a, b string) float64 {
	d := matchr.DamerauLevenshtein(a, b)
	return 1.0 - float64(d)/float64(maxLen(a, b))
}

func maxLen(a, b string) int {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 1
	}
	if la > lb {
		return la
	}
	return lb
}

func binarySimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return 0.0
}

func (m *Matcher) soundex(term string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if code, ok := m.soundexCache[term]; ok {
		return code
	}
	code := matchr.Soundex(term)
	m.cacheInsert(m.soundexCache, term, code)
	return code
}

func (m *Matcher) metaphone(term string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if code, ok := m.metaphoneCache[term]; ok {
		return code
	}
	primary, _ := matchr.DoubleMetaphone(term)
	if len(primary) > 4 {
		primary = primary[:4]
	}
	m.cacheInsert(m.metaphoneCache, term, primary)
	return primary
}

// cacheInsert stores a value, resetting the map wholesale once it hits
// maxCacheSize; called with m.mu already held.
func (m *Matcher) cacheInsert(cache map[string]string, key, value string) {
	if len(cache) >= m.maxCacheSize {
		for k := range cache {
			delete(cache, k)
		}
	}
	cache[key] = value
}

// combined computes the per-algorithm scores, weighted mean, and
// confidence (1 - sqrt(variance)) for a single candidate term.
func (m *Matcher) combined(term, candidate string, opts Options) Match {
	weights := opts.Weights
	if weights == nil {
		weights = defaultWeights
	}
	algos := opts.Algorithms
	if len(algos) == 0 {
		algos = allAlgorithms
	}

	scores := make(map[Algorithm]float64, len(algos))
	var weightedSum, weightSum float64
	for _, algo := range algos {
		s := m.Similarity(term, candidate, algo)
		scores[algo] = s
		w := weights[algo]
		if w == 0 {
			w = 1.0
		}
		weightedSum += s * w
		weightSum += w
	}
	combinedScore := 0.0
	if weightSum > 0 {
		combinedScore = weightedSum / weightSum
	}

	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	var variance float64
	for _, s := range scores {
		d := s - mean
		variance += d * d
	}
	variance /= float64(len(scores))
	confidence := 1.0 - math.Sqrt(variance)
	if confidence < 0 {
		confidence = 0
	}

	dist := matchr.DamerauLevenshtein(term, candidate)

	return Match{
		Term:       candidate,
		Distance:   dist,
		Similarity: combinedScore,
		Confidence: confidence,
		Algorithm:  "combined",
		perAlgo:    scores,
	}
}

// FindMatches scores term against every entry in vocabulary, filters
// by MaxDistance and MinSimilarity, and returns candidates ordered by
// descending similarity, ties broken by descending confidence.
func (m *Matcher) FindMatches(term string, vocabulary []string, opts Options) []Match {
	if opts.MaxDistance == 0 && opts.MinSimilarity == 0 && opts.Algorithms == nil {
		opts = DefaultOptions()
	}

	results := make([]Match, 0, len(vocabulary))
	for _, candidate := range vocabulary {
		if candidate == term {
			continue
		}
		match := m.combined(term, candidate, opts)
		if match.Distance > opts.MaxDistance && opts.MaxDistance > 0 {
			continue
		}
		if match.Similarity < opts.MinSimilarity {
			continue
		}
		results = append(results, match)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

// Suggest returns the top-k matching terms by similarity.
func (m *Matcher) Suggest(term string, vocabulary []string, k int) []string {
	matches := m.FindMatches(term, vocabulary, DefaultOptions())
	if k <= 0 || k > len(matches) {
		k = len(matches)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = matches[i].Term
	}
	return out
}

// AreVariants reports whether a and b are domain synonym variants of
// one another, or similar enough by Jaro-Winkler to be treated as
// typo-variants of the same term (spec's are_variants short-circuit).
func (m *Matcher) AreVariants(a, b string) bool {
	if domain.AreListedVariants(a, b) {
		return true
	}
	return matchr.JaroWinkler(a, b, false) > 0.8
}
