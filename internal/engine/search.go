package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mainframekb/corekb/internal/cache"
	"github.com/mainframekb/corekb/internal/document"
	corekberrors "github.com/mainframekb/corekb/internal/errors"
	"github.com/mainframekb/corekb/internal/index"
	"github.com/mainframekb/corekb/internal/queryparser"
	"github.com/mainframekb/corekb/internal/ranking"
	"github.com/mainframekb/corekb/internal/textproc"
)

// SearchOptions configures a single Search call. The zero value returns
// the first 10 results under the engine's default ranking, with
// suggestions and corrections disabled; DefaultSearchOptions enables
// them.
type SearchOptions struct {
	Limit             int
	Offset            int
	Timeout           time.Duration
	Algorithm         ranking.Algorithm
	EnableSuggestions bool
	EnableCorrections bool
}

// DefaultSearchOptions mirrors the defaults a bare query should get.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Limit:             10,
		EnableSuggestions: true,
		EnableCorrections: true,
	}
}

// ResultView pairs a matched document with its ranking score and the
// auditable component breakdown that produced it.
type ResultView struct {
	Document   document.Document
	Score      float64
	Components []ranking.ScoreComponent
}

// ResponseMetrics carries the per-call metrics spec.md §4.7 asks a
// response to surface.
type ResponseMetrics struct {
	CacheHit bool
	Duration time.Duration
}

// Response is what Search returns: the matched, ranked, sliced page
// of results, plus facets, suggestions, corrections, and metrics.
type Response struct {
	Query       string
	Parsed      *queryparser.ParsedQuery
	Results     []ResultView
	Total       int
	Facets      map[string]map[string]int
	Suggestions []string
	Corrections []string
	Metrics     ResponseMetrics
}

type cacheOptionsKey struct {
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
	Algorithm ranking.Algorithm `json:"algorithm"`
}

func (e *SearchEngine) cacheKey(query string, opts SearchOptions) string {
	return cache.QueryKey(query, cacheOptionsKey{Limit: opts.Limit, Offset: opts.Offset, Algorithm: opts.Algorithm})
}

// Search runs the full pipeline: validate, enqueue against the
// concurrency cap, consult the cache, parse, fetch postings, rank,
// materialize, attach suggestions/corrections, and cache the result.
// It is bounded by opts.Timeout (or the engine's default timeout) and
// never caches a result for a query that timed out.
func (e *SearchEngine) Search(ctx context.Context, query string, opts SearchOptions) (*Response, error) {
	start := e.clock.Now()

	if err := e.checkReady(); err != nil {
		e.recordError()
		return nil, err
	}

	opts = e.fillDefaults(opts)
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := e.cfg.EffectiveTimeout(opts.Timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.recordError()
		return nil, corekberrors.Timeout(query, timeout.String())
	}
	defer e.sem.Release(1)

	// A search that waited for a slot while the engine shut down fails
	// here instead of running.
	if err := e.checkReady(); err != nil {
		e.recordError()
		return nil, err
	}

	key := e.cacheKey(query, opts)

	if e.cfg.CacheEnabled {
		if cached, ok := e.cache.Get(key); ok {
			resp := cloneResponse(cached.(*Response))
			resp.Metrics.CacheHit = true
			resp.Metrics.Duration = e.clock.Now().Sub(start)
			e.recordSearch(resp.Metrics.Duration, true, len(resp.Results) == 0)
			return resp, nil
		}
	}

	type outcome struct {
		resp *Response
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err, _ := e.sf.Do(key, func() (interface{}, error) {
			return e.execute(ctx, query, opts, key)
		})
		if err != nil {
			ch <- outcome{nil, err}
			return
		}
		ch <- outcome{v.(*Response), nil}
	}()

	select {
	case <-ctx.Done():
		e.recordError()
		return nil, corekberrors.Timeout(query, timeout.String())
	case o := <-ch:
		if o.err != nil {
			e.recordError()
			return nil, o.err
		}
		resp := cloneResponse(o.resp)
		resp.Metrics.Duration = e.clock.Now().Sub(start)
		e.recordSearch(resp.Metrics.Duration, false, len(resp.Results) == 0)
		return resp, nil
	}
}

func (e *SearchEngine) fillDefaults(opts SearchOptions) SearchOptions {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Limit > e.cfg.MaxResults {
		opts.Limit = e.cfg.MaxResults
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Algorithm == "" {
		opts.Algorithm = toRankingAlgorithm(e.cfg.RankingAlgorithm)
	}
	return opts
}

// execute runs the parse-through-cache-store portion of the pipeline.
// It is the function singleflight dedups concurrent identical misses
// onto.
func (e *SearchEngine) execute(ctx context.Context, query string, opts SearchOptions, key string) (*Response, error) {
	parsed := queryparser.Parse(query, queryparser.DefaultOptions())
	if len(parsed.Errors) > 0 {
		return nil, corekberrors.New(corekberrors.CodeInvalidQuery, strings.Join(parsed.Errors, "; "))
	}

	resp := &Response{Query: query, Parsed: parsed}

	// rankParsed may replace fuzzy-marked terms with their best indexed
	// match; resp.Parsed keeps the user's original terms (fuzzy flag
	// and proximity intact) for introspection.
	rankParsed := e.applyFuzzyCorrections(parsed)
	extracted := queryparser.ExtractSearchTerms(rankParsed)
	searchTerms := e.resolveTerms(extracted)
	if len(searchTerms) == 0 {
		e.attachAssist(resp, opts, nil)
		e.store(ctx, key, resp, query)
		return resp, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, corekberrors.Wrap(corekberrors.CodeSearchTimeout, "search deadline elapsed", err)
	}
	postings := e.index.Search(searchTerms)
	if len(postings) == 0 {
		e.attachAssist(resp, opts, searchTerms)
		e.store(ctx, key, resp, query)
		return resp, nil
	}

	candidates := candidateDocIDs(postings)

	e.mu.RLock()
	docs := make(map[string]document.Document, len(candidates))
	for _, id := range candidates {
		if d, ok := e.documents[id]; ok {
			docs[id] = d
		}
	}
	e.mu.RUnlock()

	indexed := make(map[string]*index.IndexedDocument, len(candidates))
	for _, id := range candidates {
		if idoc, ok := e.index.Get(id); ok {
			indexed[id] = idoc
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, corekberrors.Wrap(corekberrors.CodeSearchTimeout, "search deadline elapsed", err)
	}
	rankOpts := ranking.DefaultOptions()
	rankOpts.Algorithm = opts.Algorithm
	scores := e.ranker.Rank(candidates, rankParsed, postings, indexed, docs, e.index.Stats(), rankOpts)

	resp.Total = len(scores)
	resp.Results = materialize(scores, docs, opts)
	resp.Facets = facetsByCategory(scores, docs)

	e.attachAssist(resp, opts, searchTerms)
	e.store(ctx, key, resp, query)
	return resp, nil
}

// resolveTerms runs every required/optional/prohibited/phrase atom
// through the same tokenize-and-stem pipeline the index applies to
// document text, so the index.Search lookup hits the same posting
// keys ranking.Rank will later look for. Without this, a phrase query
// like "file not found" would fetch no postings at all: ranking.Rank
// never adds phrase words to its own scored term list, it only
// consults them via the postings map the caller supplies.
func (e *SearchEngine) resolveTerms(extracted queryparser.ExtractedTerms) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(raw string) {
		for _, tok := range e.processor.Process(raw, "query", textproc.DefaultOptions()) {
			if tok.Stemmed == "" || seen[tok.Stemmed] {
				continue
			}
			seen[tok.Stemmed] = true
			out = append(out, tok.Stemmed)
		}
	}
	for _, t := range extracted.Required {
		add(t)
	}
	for _, t := range extracted.Optional {
		add(t)
	}
	for _, t := range extracted.Prohibited {
		add(t)
	}
	for _, p := range extracted.Phrases {
		add(p)
	}
	return out
}

func candidateDocIDs(postings map[string]*index.PostingList) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range postings {
		for id := range list.Docs {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}

func materialize(scores []ranking.RankingScore, docs map[string]document.Document, opts SearchOptions) []ResultView {
	start := opts.Offset
	if start > len(scores) {
		start = len(scores)
	}
	end := start + opts.Limit
	if end > len(scores) {
		end = len(scores)
	}
	out := make([]ResultView, 0, end-start)
	for _, s := range scores[start:end] {
		out = append(out, ResultView{Document: docs[s.DocID], Score: s.Score, Components: s.Components})
	}
	return out
}

// facetsByCategory counts categories across the full ranked candidate
// set (not just the returned page), included only when more than one
// distinct value appears, per spec.md §4.7.
func facetsByCategory(scores []ranking.RankingScore, docs map[string]document.Document) map[string]map[string]int {
	counts := map[string]int{}
	for _, s := range scores {
		if d, ok := docs[s.DocID]; ok {
			counts[string(d.Category)]++
		}
	}
	if len(counts) <= 1 {
		return nil
	}
	return map[string]map[string]int{"category": counts}
}

// store caches resp under key with a TTL derived from the query's
// token-count shape. It refuses to cache once ctx has already expired,
// so a search that raced its own timeout never leaves a stale entry
// behind for a caller to observe later.
func (e *SearchEngine) store(ctx context.Context, key string, resp *Response, query string) {
	if !e.cfg.CacheEnabled || ctx.Err() != nil {
		return
	}
	tokens := textproc.TokenizeQuery(query)
	ttl := 10 * time.Minute
	switch {
	case len(tokens) <= 1:
		ttl = time.Minute
	case len(tokens) > 5:
		ttl = time.Hour
	}
	e.cache.Set(key, resp, ttl)
	e.indexResultKeys(key, resp)
}

// indexResultKeys records, per document id in resp.Results, that key
// holds a cached response depending on it, so Add/Remove can evict
// exactly those entries later.
func (e *SearchEngine) indexResultKeys(key string, resp *Response) {
	if len(resp.Results) == 0 {
		return
	}
	e.docKeysMu.Lock()
	defer e.docKeysMu.Unlock()
	for _, r := range resp.Results {
		set, ok := e.docKeys[r.Document.ID]
		if !ok {
			set = make(map[string]bool)
			e.docKeys[r.Document.ID] = set
		}
		set[key] = true
	}
}

// popDocKeys removes and returns every cache key on record as holding
// a response that included docID.
func (e *SearchEngine) popDocKeys(docID string) []string {
	e.docKeysMu.Lock()
	defer e.docKeysMu.Unlock()
	set, ok := e.docKeys[docID]
	if !ok {
		return nil
	}
	delete(e.docKeys, docID)
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func cloneResponse(r *Response) *Response {
	clone := *r
	return &clone
}
