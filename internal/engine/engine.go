// Package engine implements the SearchEngine orchestrator: the single
// entry point that wires the query parser, inverted index, ranking
// engine, fuzzy matcher, and tiered cache into the initialize/search/
// suggest/correct/add/remove/optimize/shutdown contract the rest of
// the system calls.
//
// The teacher has no single orchestrator of this shape (WTF's CLI
// calls its database/search packages directly); this is built new, in
// the teacher's idiom of a thin coordinating struct holding its
// collaborators by pointer (see cmd/wtf's own App struct), with
// concurrency control grounded on golang.org/x/sync (semaphore for the
// cooperative concurrency cap, singleflight for in-flight dedup) and
// metrics grounded on prometheus/client_golang, both already present in
// the pack's dependency set.
package engine

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mainframekb/corekb/internal/cache"
	"github.com/mainframekb/corekb/internal/clock"
	"github.com/mainframekb/corekb/internal/config"
	"github.com/mainframekb/corekb/internal/document"
	corekberrors "github.com/mainframekb/corekb/internal/errors"
	"github.com/mainframekb/corekb/internal/fuzzy"
	"github.com/mainframekb/corekb/internal/index"
	"github.com/mainframekb/corekb/internal/ranking"
	"github.com/mainframekb/corekb/internal/textproc"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

type state int32

const (
	stateUninitialized state = iota
	stateReady
	stateShutdown
)

// SearchEngine is the orchestrator described by spec.md §4.7: it owns
// the index, ranker, fuzzy matcher, and cache, and exposes the full
// initialize/search/suggest/correct/add/remove/optimize/shutdown
// contract.
type SearchEngine struct {
	st int32

	cfg       *config.Config
	clock     clock.Clock
	processor *textproc.Processor
	index     *index.InvertedIndex
	ranker    *ranking.Engine
	fuzzy     *fuzzy.Matcher
	cache     *cache.TieredCache

	mu        sync.RWMutex
	documents map[string]document.Document

	// docKeys maps a document id to the cache keys of every query
	// response that included it, so Add/Remove can evict those entries
	// directly. InvalidateDocument's substring match never fires against
	// the opaque SHA256 keys QueryKey produces, so this index (plus the
	// full query-cache drop in Add) is how a document mutation reaches
	// the query cache.
	docKeysMu sync.Mutex
	docKeys   map[string]map[string]bool

	sem *semaphore.Weighted
	sf  singleflight.Group

	metrics *engineMetrics

	statsMu       sync.Mutex
	totalSearches int64
	totalErrors   int64
	cacheHits     int64
	totalDuration time.Duration
}

// New returns an unintialized SearchEngine. cfg and clk may be nil, in
// which case config.DefaultConfig() and clock.NewReal() are used.
func New(cfg *config.Config, clk clock.Clock) *SearchEngine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if clk == nil {
		clk = clock.NewReal()
	}
	proc := textproc.New()

	concurrency := int64(cfg.Performance.MaxConcurrentSearches)
	if concurrency <= 0 {
		concurrency = 1
	}

	reg := prometheus.NewRegistry()
	e := &SearchEngine{
		cfg:       cfg,
		clock:     clk,
		processor: proc,
		index:     index.New(proc, clk),
		ranker:    ranking.New(proc, clk),
		fuzzy:     fuzzy.New(),
		cache:     cache.New(cache.DefaultOptions(), clk),
		documents: make(map[string]document.Document),
		docKeys:   make(map[string]map[string]bool),
		sem:       semaphore.NewWeighted(concurrency),
		metrics:   newEngineMetrics(reg),
	}
	atomic.StoreInt32(&e.st, int32(stateUninitialized))
	return e
}

// Initialize builds the index and document store from docs and seeds
// the cache's popular-query warm-up set. It may be called again to
// rebuild from a new corpus.
func (e *SearchEngine) Initialize(docs []document.Document) error {
	if err := e.cfg.Validate(); err != nil {
		return corekberrors.Wrap(corekberrors.CodeSearchInitError, "invalid configuration", err)
	}

	e.mu.Lock()
	e.documents = make(map[string]document.Document, len(docs))
	for _, d := range docs {
		e.documents[d.ID] = d
	}
	e.mu.Unlock()

	e.docKeysMu.Lock()
	e.docKeys = make(map[string]map[string]bool)
	e.docKeysMu.Unlock()

	if err := e.index.Build(docs); err != nil {
		return corekberrors.Wrap(corekberrors.CodeSearchInitError, "failed to build index", err)
	}

	atomic.StoreInt32(&e.st, int32(stateReady))
	e.warmUp()

	stats := e.index.Stats()
	e.metrics.indexSize.Set(float64(stats.EstimatedByteSize))
	return nil
}

func (e *SearchEngine) checkReady() error {
	switch state(atomic.LoadInt32(&e.st)) {
	case stateUninitialized:
		return corekberrors.NotInitialized()
	case stateShutdown:
		return corekberrors.ShutdownError()
	}
	return nil
}

// Add indexes doc, replacing any existing document with the same id
// (last-writer-wins), and invalidates every cached query response.
// Add is not counted toward the search concurrency cap.
func (e *SearchEngine) Add(doc document.Document) error {
	if err := e.checkReady(); err != nil {
		return err
	}
	if doc.ID == "" {
		return corekberrors.New(corekberrors.CodeInvalidQuery, "document id must not be empty")
	}

	e.mu.Lock()
	e.documents[doc.ID] = doc
	e.mu.Unlock()

	if err := e.index.Add(doc); err != nil {
		return corekberrors.Wrap(corekberrors.CodeSearchExecutionError, "failed to index document", err)
	}

	for _, key := range e.popDocKeys(doc.ID) {
		e.cache.Delete(key)
	}
	// A new or changed document can belong in responses it was not part
	// of before, so no cached query response stays valid.
	e.cache.DeletePattern("query:*")

	tags := make([]string, 0, len(doc.Tags)+1)
	tags = append(tags, "category:"+string(doc.Category))
	for _, t := range doc.Tags {
		tags = append(tags, "tag:"+strings.ToLower(t))
	}
	e.cache.InvalidateDocument(doc.ID, tags...)
	return nil
}

// Remove deletes docID from the index and document store, reporting
// whether it was present. Not counted toward the search concurrency
// cap.
func (e *SearchEngine) Remove(docID string) (bool, error) {
	if err := e.checkReady(); err != nil {
		return false, err
	}
	e.mu.Lock()
	delete(e.documents, docID)
	e.mu.Unlock()

	found := e.index.Remove(docID)
	for _, key := range e.popDocKeys(docID) {
		e.cache.Delete(key)
	}
	e.cache.InvalidateDocument(docID)
	return found, nil
}

// Optimize compacts the underlying index.
func (e *SearchEngine) Optimize() error {
	if err := e.checkReady(); err != nil {
		return err
	}
	e.index.Optimize()
	return nil
}

// Shutdown moves the engine into a rejecting state: later searches,
// and searches still queued for a concurrency slot once they obtain
// it, fail with a shutdown error, and the cache's persistence
// hooks (the optional L3 layer) are flushed and closed.
func (e *SearchEngine) Shutdown() error {
	atomic.StoreInt32(&e.st, int32(stateShutdown))
	return e.cache.Close()
}

// Stats is a point-in-time snapshot of engine-level metrics, per
// spec.md §4.7.
type Stats struct {
	TotalSearches       int64
	AverageResponseTime time.Duration
	CacheHitRate        float64
	ErrorRate           float64
	Index               index.IndexStats
	LastIndexUpdate     time.Time
}

// Stats returns the running counters alongside a fresh index snapshot.
func (e *SearchEngine) Stats() Stats {
	e.statsMu.Lock()
	total := e.totalSearches
	var avg time.Duration
	if total > 0 {
		avg = e.totalDuration / time.Duration(total)
	}
	var cacheRate, errRate float64
	if total > 0 {
		cacheRate = float64(e.cacheHits) / float64(total)
		errRate = float64(e.totalErrors) / float64(total)
	}
	e.statsMu.Unlock()

	idxStats := e.index.Stats()
	e.metrics.indexSize.Set(float64(idxStats.EstimatedByteSize))
	e.metrics.cacheHitRatio.Set(cacheRate)

	return Stats{
		TotalSearches:       total,
		AverageResponseTime: avg,
		CacheHitRate:        cacheRate,
		ErrorRate:           errRate,
		Index:               idxStats,
		LastIndexUpdate:     idxStats.LastUpdated,
	}
}

func (e *SearchEngine) recordSearch(d time.Duration, cacheHit bool, empty bool) {
	e.statsMu.Lock()
	e.totalSearches++
	e.totalDuration += d
	if cacheHit {
		e.cacheHits++
	}
	e.statsMu.Unlock()

	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	if empty {
		outcome = "empty"
	}
	e.metrics.searchesTotal.WithLabelValues(outcome).Inc()
	e.metrics.searchDuration.Observe(d.Seconds())
}

func (e *SearchEngine) recordError() {
	e.statsMu.Lock()
	e.totalSearches++
	e.totalErrors++
	e.statsMu.Unlock()
	e.metrics.searchesTotal.WithLabelValues("error").Inc()
}

func toRankingAlgorithm(a config.RankingAlgorithm) ranking.Algorithm {
	switch a {
	case config.RankingTFIDF:
		return ranking.AlgorithmTFIDF
	case config.RankingCombined:
		return ranking.AlgorithmCombined
	case config.RankingCustom:
		return ranking.AlgorithmCustom
	default:
		return ranking.AlgorithmBM25
	}
}
