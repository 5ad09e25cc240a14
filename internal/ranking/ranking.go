// Package ranking scores a candidate set of documents against a
// parsed query: BM25, TF-IDF (three normalizations), a weighted
// Combined blend, and a domain-aware Custom scorer layering field,
// phrase, popularity and freshness signals on top of BM25.
//
// Grounded on the teacher's internal/database/universal_index.go
// (Okapi BM25 idf, per-field BM25 term scoring, the k1/b parameter
// shape), generalized from its fixed BM25F fields into the plain BM25
// plus a separately-scored Custom signal stack.
package ranking

import (
	"math"
	"sort"

	"github.com/mainframekb/corekb/internal/clock"
	"github.com/mainframekb/corekb/internal/document"
	"github.com/mainframekb/corekb/internal/domain"
	"github.com/mainframekb/corekb/internal/index"
	"github.com/mainframekb/corekb/internal/queryparser"
	"github.com/mainframekb/corekb/internal/textproc"
)

// Algorithm selects a scoring strategy.
type Algorithm string

const (
	AlgorithmBM25     Algorithm = "bm25"
	AlgorithmTFIDF    Algorithm = "tfidf"
	AlgorithmCombined Algorithm = "combined"
	AlgorithmCustom   Algorithm = "custom"
)

// TFIDFNormalization selects how raw tf-idf weights are normalized.
type TFIDFNormalization string

const (
	NormNone    TFIDFNormalization = "none"
	NormCosine  TFIDFNormalization = "cosine"
	NormPivoted TFIDFNormalization = "pivoted"
)

// BM25Params are the RankingEngine's own constants, distinct from the
// index's field-weight table: k1/b shape term-frequency and length
// normalization, k3 shapes query term-frequency saturation. k2 is
// carried for API completeness with the classic Robertson/Sparck-Jones
// formulation but only has an effect under relevance feedback (a
// judged-relevant-document set); this engine never has one, so k2 is
// accepted and stored but does not change a score. See DESIGN.md.
type BM25Params struct {
	K1, B, K2, K3 float64
}

// DefaultBM25Params mirrors spec.md §4.5.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.5, B: 0.75, K2: 100, K3: 8}
}

// CombinedWeights blends BM25 and TF-IDF in the Combined algorithm.
type CombinedWeights struct {
	BM25  float64
	TFIDF float64
}

// Options configures a single Rank call.
type Options struct {
	Algorithm         Algorithm
	BM25              BM25Params
	TFIDFNorm         TFIDFNormalization
	Combined          CombinedWeights
	PopularityWeight  float64
	SuccessWeight     float64
	FreshnessHalfLife float64 // days
	FreshnessMaxBoost float64
}

// DefaultOptions mirrors spec.md §4.5's defaults.
func DefaultOptions() Options {
	return Options{
		Algorithm:         AlgorithmBM25,
		BM25:              DefaultBM25Params(),
		TFIDFNorm:         NormCosine,
		Combined:          CombinedWeights{BM25: 0.6, TFIDF: 0.4},
		PopularityWeight:  0.5,
		SuccessWeight:     0.5,
		FreshnessHalfLife: 30,
		FreshnessMaxBoost: 1.5,
	}
}

// ScoreComponent is one auditable contribution to a RankingScore.
type ScoreComponent struct {
	Factor       string
	Value        float64
	Weight       float64
	Contribution float64
}

// RankingScore is a single candidate's final score plus the component
// breakdown that produced it.
type RankingScore struct {
	DocID      string
	Score      float64
	Components []ScoreComponent
}

// Engine ranks candidate document ids against a parsed query.
type Engine struct {
	processor *textproc.Processor
	clock     clock.Clock
}

// New returns a ready-to-use Engine. processor must tokenize the same
// way the index that produced postings does, so phrase-proximity
// checks see the same term positions.
func New(processor *textproc.Processor, clk clock.Clock) *Engine {
	return &Engine{processor: processor, clock: clk}
}

const fieldMatchTitle = 2.0
const fieldMatchProblem = 1.5
const fieldMatchTags = 1.2
const exactPhraseBonus = 2.0

// Rank scores candidates against parsed using postings (from
// index.Search over parsed's non-phrase terms) and docs (the source
// records for popularity/freshness signals). A candidate missing from
// docs is skipped; an empty candidate list or term list yields a nil
// ranking. Ties are broken by ascending doc id for a stable order.
func (e *Engine) Rank(candidates []string, parsed *queryparser.ParsedQuery, postings map[string]*index.PostingList, indexed map[string]*index.IndexedDocument, docs map[string]document.Document, stats index.IndexStats, opts Options) []RankingScore {
	if len(candidates) == 0 || len(parsed.Terms) == 0 {
		return nil
	}
	if opts.Algorithm == "" {
		opts = DefaultOptions()
	}

	extracted := queryparser.ExtractSearchTerms(parsed)
	scoreTerms := e.normalizeTerms(append(append([]string{}, extracted.Required...), extracted.Optional...))
	prohibitedTerms := e.normalizeTerms(extracted.Prohibited)

	var results []RankingScore
	for _, docID := range candidates {
		doc, ok := docs[docID]
		if !ok {
			continue
		}
		idoc, ok := indexed[docID]
		if !ok {
			continue
		}
		if termInAny(docID, prohibitedTerms, postings) {
			continue
		}

		var components []ScoreComponent
		var base float64

		switch opts.Algorithm {
		case AlgorithmTFIDF:
			base = e.tfidf(docID, scoreTerms, postings, idoc, stats, opts.TFIDFNorm, &components)
		case AlgorithmCombined:
			bm25 := e.bm25(docID, scoreTerms, postings, idoc, stats, opts.BM25, &components)
			tfidf := e.tfidf(docID, scoreTerms, postings, idoc, stats, opts.TFIDFNorm, &components)
			base = opts.Combined.BM25*bm25 + opts.Combined.TFIDF*tfidf
			components = append(components, ScoreComponent{Factor: "combined", Value: base, Weight: 1, Contribution: base})
		case AlgorithmCustom:
			base = e.custom(docID, scoreTerms, extracted, postings, idoc, doc, stats, opts, &components)
		default:
			base = e.bm25(docID, scoreTerms, postings, idoc, stats, opts.BM25, &components)
		}

		results = append(results, RankingScore{DocID: docID, Score: base, Components: components})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	return results
}

func (e *Engine) bm25(docID string, terms []string, postings map[string]*index.PostingList, idoc *index.IndexedDocument, stats index.IndexStats, p BM25Params, components *[]ScoreComponent) float64 {
	avgdl := stats.AverageDocumentLength
	if avgdl <= 0 {
		avgdl = 1
	}
	dl := float64(idoc.TotalTerms)
	norm := (1 - p.B) + p.B*(dl/avgdl)

	var total float64
	for _, term := range terms {
		list, ok := postings[term]
		if !ok {
			continue
		}
		entry, ok := list.Docs[docID]
		if !ok {
			continue
		}
		tf := float64(entry.TermFrequency)
		qtf := float64(queryTermFrequency(terms, term))
		idf := bm25IDF(float64(stats.TotalDocuments), len(list.Docs))

		tfComponent := (tf * (p.K1 + 1)) / (tf + p.K1*norm)
		qtfComponent := (qtf * (p.K3 + 1)) / (qtf + p.K3)
		contribution := idf * tfComponent * qtfComponent * entry.Boost

		total += contribution
		*components = append(*components, ScoreComponent{
			Factor:       "bm25:" + term,
			Value:        tf,
			Weight:       idf,
			Contribution: contribution,
		})
	}
	return total
}

func bm25IDF(n float64, df int) float64 {
	return math.Log((n - float64(df) + 0.5) / (float64(df) + 0.5))
}

func queryTermFrequency(terms []string, term string) int {
	count := 0
	for _, t := range terms {
		if t == term {
			count++
		}
	}
	return count
}

func (e *Engine) tfidf(docID string, terms []string, postings map[string]*index.PostingList, idoc *index.IndexedDocument, stats index.IndexStats, norm TFIDFNormalization, components *[]ScoreComponent) float64 {
	weights := make([]float64, 0, len(terms))
	var total float64
	for _, term := range terms {
		list, ok := postings[term]
		if !ok {
			continue
		}
		entry, ok := list.Docs[docID]
		if !ok {
			continue
		}
		tf := float64(entry.TermFrequency)
		idf := math.Log(float64(stats.TotalDocuments) / float64(len(list.Docs)))

		var weight float64
		switch norm {
		case NormPivoted:
			avgdl := stats.AverageDocumentLength
			if avgdl <= 0 {
				avgdl = 1
			}
			const slope = 0.2
			pivotedTF := (1 + math.Log(tf)) / ((1-slope)+slope*(float64(idoc.TotalTerms)/avgdl))
			weight = pivotedTF * idf
		default:
			weight = tf * idf
		}

		weights = append(weights, weight)
		total += weight * entry.Boost
		*components = append(*components, ScoreComponent{
			Factor:       "tfidf:" + term,
			Value:        tf,
			Weight:       idf,
			Contribution: weight * entry.Boost,
		})
	}

	if norm == NormCosine {
		magnitude := 0.0
		for _, w := range weights {
			magnitude += w * w
		}
		if magnitude > 0 {
			total /= math.Sqrt(magnitude)
		}
	}
	return total
}

func (e *Engine) custom(docID string, terms []string, extracted queryparser.ExtractedTerms, postings map[string]*index.PostingList, idoc *index.IndexedDocument, doc document.Document, stats index.IndexStats, opts Options, components *[]ScoreComponent) float64 {
	base := e.bm25(docID, terms, postings, idoc, stats, opts.BM25, components)

	multiplier := 1.0
	switch {
	case anyMatches(terms, domain.MatchesErrorCode):
		multiplier = 3.0
	case anySet(terms, domain.SystemNames):
		multiplier = 2.0
	case anySet(terms, domain.MainframeTerms):
		multiplier = 1.5
	}
	if multiplier != 1.0 {
		bonus := base * (multiplier - 1.0)
		base += bonus
		*components = append(*components, ScoreComponent{Factor: "domain_multiplier", Value: multiplier, Weight: 1, Contribution: bonus})
	}

	fieldBonus := 0.0
	if termInField(docID, terms, postings, "title") {
		fieldBonus += fieldMatchTitle
	}
	if termInField(docID, terms, postings, "problem") {
		fieldBonus += fieldMatchProblem
	}
	if termInField(docID, terms, postings, "tags") {
		fieldBonus += fieldMatchTags
	}
	if fieldBonus > 0 {
		base += fieldBonus
		*components = append(*components, ScoreComponent{Factor: "field_match", Value: fieldBonus, Weight: 1, Contribution: fieldBonus})
	}

	matchedPhrases := 0
	for _, phrase := range extracted.Phrases {
		if e.phraseMatches(docID, phrase, postings) {
			matchedPhrases++
		}
	}
	if matchedPhrases > 0 {
		bonus := exactPhraseBonus * float64(matchedPhrases)
		base += bonus
		*components = append(*components, ScoreComponent{Factor: "exact_phrase", Value: float64(matchedPhrases), Weight: exactPhraseBonus, Contribution: bonus})
	}

	popularity := e.popularitySignal(doc, opts)
	if popularity != 0 {
		base += popularity
		*components = append(*components, ScoreComponent{Factor: "popularity", Value: popularity, Weight: 1, Contribution: popularity})
	}

	freshness := e.freshnessSignal(doc, opts)
	base *= freshness
	*components = append(*components, ScoreComponent{Factor: "freshness", Value: freshness, Weight: 1, Contribution: base - base/freshness})

	return base
}

// normalizeTerms runs raw query atoms through the same tokenize/stem
// pipeline the index applies to document text, so they line up with
// postings map keys (which are always stemmed, lowercased terms)
// regardless of the case or inflection the query used.
func (e *Engine) normalizeTerms(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, tok := range e.processor.Process(r, "query", textproc.DefaultOptions()) {
			out = append(out, tok.Stemmed)
		}
	}
	return out
}

func anyMatches(terms []string, pred func(string) bool) bool {
	for _, t := range terms {
		if pred(t) {
			return true
		}
	}
	return false
}

func anySet(terms []string, set map[string]bool) bool {
	for _, t := range terms {
		if set[t] {
			return true
		}
	}
	return false
}

func termInAny(docID string, terms []string, postings map[string]*index.PostingList) bool {
	for _, term := range terms {
		if list, ok := postings[term]; ok {
			if _, ok := list.Docs[docID]; ok {
				return true
			}
		}
	}
	return false
}

func termInField(docID string, terms []string, postings map[string]*index.PostingList, field string) bool {
	for _, term := range terms {
		list, ok := postings[term]
		if !ok {
			continue
		}
		if entry, ok := list.Docs[docID]; ok && entry.Fields[field] {
			return true
		}
	}
	return false
}

// phraseMatches reports whether phrase's stemmed words occur in docID
// at consecutive index positions, using the same per-term Positions
// list the index maintains.
func (e *Engine) phraseMatches(docID, phrase string, postings map[string]*index.PostingList) bool {
	tokens := e.processor.Process(phrase, "phrase", textproc.DefaultOptions())
	if len(tokens) < 2 {
		if len(tokens) == 1 {
			list, ok := postings[tokens[0].Stemmed]
			return ok && list.Docs[docID] != nil
		}
		return false
	}

	var runs [][]int
	for _, tok := range tokens {
		list, ok := postings[tok.Stemmed]
		if !ok {
			return false
		}
		entry, ok := list.Docs[docID]
		if !ok {
			return false
		}
		runs = append(runs, entry.Positions)
	}

	for _, start := range runs[0] {
		ok := true
		for i := 1; i < len(runs); i++ {
			if !containsInt(runs[i], start+i) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func (e *Engine) popularitySignal(doc document.Document, opts Options) float64 {
	usage := math.Log(1+float64(doc.UsageCount)) / math.Log(101) * opts.PopularityWeight
	successRate := 0.5
	if total := doc.SuccessCount + doc.FailureCount; total > 0 {
		successRate = float64(doc.SuccessCount) / float64(total)
	}
	return usage + successRate*opts.SuccessWeight
}

func (e *Engine) freshnessSignal(doc document.Document, opts Options) float64 {
	updated := doc.UpdatedAt
	if updated.IsZero() {
		updated = doc.CreatedAt
	}
	if updated.IsZero() {
		return 1.0
	}
	ageDays := e.clock.Now().Sub(updated).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	halfLife := opts.FreshnessHalfLife
	if halfLife <= 0 {
		halfLife = 30
	}
	boost := 1 + math.Pow(0.5, ageDays/halfLife)
	if boost > opts.FreshnessMaxBoost {
		boost = opts.FreshnessMaxBoost
	}
	return boost
}
