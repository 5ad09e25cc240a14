// Package cache implements the search engine's tiered result cache:
// L1 (hot, small, fast eviction), L2 (warm, larger), and an optional
// L3 distributed layer, each pluggable across five eviction
// strategies, with promotion/demotion between layers and glob-style
// pattern invalidation.
//
// Grounded on the teacher's internal/cache package (CacheItem/TTL
// shape here, the hit/miss/eviction counters and substring
// InvalidatePattern in search_cache.go, the CacheEntry metadata -
// CreatedAt/AccessedAt/AccessCount - in lru_cache.go), generalized
// from a single fixed LRU layer into a tiered, strategy-pluggable
// stack.
package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mainframekb/corekb/internal/clock"
)

// Strategy selects how a tier picks an eviction victim.
type Strategy string

const (
	StrategyLRU      Strategy = "lru"
	StrategyLFU      Strategy = "lfu"
	StrategyTTL      Strategy = "ttl"
	StrategySize     Strategy = "size"
	StrategyAdaptive Strategy = "adaptive"
)

// Entry is one cached value plus the metadata eviction strategies and
// promotion/demotion rules read.
type Entry struct {
	Value       interface{}
	Compressed  []byte
	CreatedAt   time.Time
	AccessedAt  time.Time
	ExpiresAt   time.Time
	AccessCount int64
	SizeBytes   int
}

func (e *Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

func (e *Entry) value() interface{} {
	if e.Compressed != nil {
		v, err := decompress(e.Compressed)
		if err == nil {
			return v
		}
	}
	return e.Value
}

func (e *Entry) remainingTTL(now time.Time) time.Duration {
	if e.ExpiresAt.IsZero() {
		return 0
	}
	return e.ExpiresAt.Sub(now)
}

func cloneEntry(e *Entry, ttl time.Duration, now time.Time) *Entry {
	clone := *e
	if ttl > 0 {
		clone.ExpiresAt = now.Add(ttl)
	}
	return &clone
}

// Stats holds one tier's performance counters.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	HitRatio  float64 `json:"hit_ratio"`
}

func (s Stats) String() string {
	return fmt.Sprintf("hits=%d misses=%d evictions=%d size=%d/%d hit_ratio=%.2f%%",
		s.Hits, s.Misses, s.Evictions, s.Size, s.Capacity, s.HitRatio*100)
}

// DistributedCache is the optional L3 layer's contract: a byte-
// serialized, glob-addressable remote cache.
type DistributedCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// Options configures a TieredCache.
type Options struct {
	L1Capacity int
	L1TTL      time.Duration
	L1Strategy Strategy

	L2Capacity int
	L2TTL      time.Duration
	L2Strategy Strategy

	L3    DistributedCache
	L3TTL time.Duration

	PromotionAccessThreshold    int64
	PromotionSizeThresholdBytes int
	DemotionL1AccessThreshold   int64
	DemotionL2AccessThreshold   int64
	CompressionThresholdBytes   int
}

// DefaultOptions mirrors spec.md §4.6's layer defaults.
func DefaultOptions() Options {
	return Options{
		L1Capacity:                  1000,
		L1TTL:                       time.Minute,
		L1Strategy:                  StrategyLFU,
		L2Capacity:                  5000,
		L2TTL:                       7 * time.Minute,
		L2Strategy:                  StrategyLRU,
		L3:                          nil,
		L3TTL:                       time.Hour,
		PromotionAccessThreshold:    5,
		PromotionSizeThresholdBytes: 10 * 1024,
		DemotionL1AccessThreshold:   1,
		DemotionL2AccessThreshold:   0,
		CompressionThresholdBytes:   4 * 1024,
	}
}

// TieredCache composes the L1/L2/optional L3 layers described by
// spec.md §4.6.
type TieredCache struct {
	mu    sync.Mutex
	l1    tier
	l2    tier
	l3    DistributedCache
	l3ttl time.Duration
	clock clock.Clock
	opts  Options
}

// New constructs a ready-to-use TieredCache.
func New(opts Options, clk clock.Clock) *TieredCache {
	tc := &TieredCache{clock: clk, l3: opts.L3, l3ttl: opts.L3TTL, opts: opts}
	tc.l2 = tc.newTierFor(opts.L2Strategy, opts.L2Capacity, opts.L2TTL, tc.onL2Evict)
	tc.l1 = tc.newTierFor(opts.L1Strategy, opts.L1Capacity, opts.L1TTL, tc.onL1Evict)
	return tc
}

// onL1Evict implements the L1-eviction demotion rule: an entry with
// access_count > threshold demotes to L2.
func (tc *TieredCache) onL1Evict(key string, e *Entry) {
	if e.AccessCount > tc.opts.DemotionL1AccessThreshold {
		tc.l2.put(key, cloneEntry(e, tc.opts.L2TTL, tc.clock.Now()))
	}
}

// onL2Evict implements the L2-eviction demotion rule: an entry with
// access_count > threshold writes through to L3 if enabled.
func (tc *TieredCache) onL2Evict(key string, e *Entry) {
	if tc.l3 == nil || e.AccessCount <= tc.opts.DemotionL2AccessThreshold {
		return
	}
	data, err := json.Marshal(e.value())
	if err != nil {
		return
	}
	_ = tc.l3.Set(context.Background(), key, data, tc.l3ttl)
}

// Get looks up key across L1, then L2 (promoting on a hit that meets
// the promotion rule), then L3 (repopulating L2 on a hit).
func (tc *TieredCache) Get(key string) (interface{}, bool) {
	now := tc.clock.Now()

	if e, ok := tc.l1.get(key); ok {
		if e.expired(now) {
			tc.l1.delete(key)
		} else {
			return e.value(), true
		}
	}

	if e, ok := tc.l2.get(key); ok {
		if e.expired(now) {
			tc.l2.delete(key)
		} else {
			if tc.shouldPromote(e, key) {
				tc.mu.Lock()
				tc.l2.delete(key)
				tc.l1.put(key, cloneEntry(e, tc.opts.L1TTL, now))
				tc.mu.Unlock()
			}
			return e.value(), true
		}
	}

	if tc.l3 != nil {
		data, found, err := tc.l3.Get(context.Background(), key)
		if err == nil && found {
			var value interface{}
			if jsonErr := json.Unmarshal(data, &value); jsonErr == nil {
				tc.l2.put(key, newEntry(value, tc.opts.L2TTL, now, tc.opts.CompressionThresholdBytes))
				return value, true
			}
		}
	}

	return nil, false
}

func (tc *TieredCache) shouldPromote(e *Entry, key string) bool {
	if e.AccessCount > tc.opts.PromotionAccessThreshold {
		return true
	}
	return e.SizeBytes <= tc.opts.PromotionSizeThresholdBytes && strings.HasPrefix(key, "query:")
}

// Set stores a value in L1 with the given ttl (L1's default ttl if
// zero). Fresh writes land hot, consistent with the teacher's
// write-through Put semantics in lru_cache.go.
//
// Unlike Get's promotion path, Set doesn't take tc.mu: it writes only
// to L1, whose own internal lock makes a single put atomic. A put that
// evicts from L1 can demote the victim into L2 through onL1Evict; that
// write is guarded by L2's own lock.
func (tc *TieredCache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = tc.opts.L1TTL
	}
	tc.l1.put(key, newEntry(value, ttl, tc.clock.Now(), tc.opts.CompressionThresholdBytes))
}

// Has reports whether key is present and unexpired in any layer.
func (tc *TieredCache) Has(key string) bool {
	_, ok := tc.Get(key)
	return ok
}

// Delete removes key from every layer, reporting whether it was
// found in any of them.
func (tc *TieredCache) Delete(key string) bool {
	found := tc.l1.delete(key)
	if tc.l2.delete(key) {
		found = true
	}
	if tc.l3 != nil {
		if err := tc.l3.Delete(context.Background(), key); err == nil {
			found = true
		}
	}
	return found
}

// DeletePattern removes every key matching a glob-style pattern
// ("*", "?", and character classes, per path.Match) from L1, L2, and
// L3 if enabled. Grounded on the teacher's InvalidatePattern, widened
// from a plain substring match to a true glob.
func (tc *TieredCache) DeletePattern(pattern string) int {
	removed := 0
	for _, key := range tc.matchingKeys(pattern) {
		if tc.Delete(key) {
			removed++
		}
	}
	if tc.l3 != nil {
		if n, err := tc.l3.DeletePattern(context.Background(), pattern); err == nil {
			removed += n
		}
	}
	return removed
}

// InvalidateContains removes every key containing substr, the
// teacher's own InvalidatePattern matching rule, kept as a cheaper
// alternative to a full glob match for the common "contains a doc id"
// case.
func (tc *TieredCache) InvalidateContains(substr string) int {
	removed := 0
	for _, key := range append(tc.l1.keys(), tc.l2.keys()...) {
		if strings.Contains(key, substr) {
			if tc.Delete(key) {
				removed++
			}
		}
	}
	return removed
}

// InvalidateDocument applies spec.md §4.6's document-mutation rule:
// delete keys containing the doc id, plus any category:X/tag:Y keys
// the caller names.
func (tc *TieredCache) InvalidateDocument(docID string, categoryTags ...string) int {
	removed := tc.InvalidateContains(docID)
	for _, tag := range categoryTags {
		removed += tc.InvalidateContains(tag)
	}
	return removed
}

func (tc *TieredCache) matchingKeys(pattern string) []string {
	seen := map[string]bool{}
	var out []string
	for _, key := range append(tc.l1.keys(), tc.l2.keys()...) {
		if seen[key] {
			continue
		}
		if ok, err := path.Match(pattern, key); err == nil && ok {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// Close releases the optional L3 layer's resources, if configured.
// Part of the shutdown contract: the engine calls this so any
// persistence hook the distributed layer holds gets flushed.
func (tc *TieredCache) Close() error {
	if tc.l3 != nil {
		return tc.l3.Close()
	}
	return nil
}

// Clear empties every layer.
func (tc *TieredCache) Clear() {
	tc.l1.clear()
	tc.l2.clear()
}

// Expire updates key's remaining TTL in whichever layer holds it.
func (tc *TieredCache) Expire(key string, ttl time.Duration) bool {
	now := tc.clock.Now()
	if e, ok := tc.l1.get(key); ok {
		e.ExpiresAt = now.Add(ttl)
		return true
	}
	if e, ok := tc.l2.get(key); ok {
		e.ExpiresAt = now.Add(ttl)
		return true
	}
	return false
}

// Keys returns every key matching pattern ("*" for all) across L1/L2.
func (tc *TieredCache) Keys(pattern string) []string {
	if pattern == "" {
		pattern = "*"
	}
	keys := tc.matchingKeys(pattern)
	sort.Strings(keys)
	return keys
}

// GetStats returns per-layer statistics.
func (tc *TieredCache) GetStats() map[string]Stats {
	stats := map[string]Stats{
		"l1": tc.l1.stats(),
		"l2": tc.l2.stats(),
	}
	if tc.l3 != nil {
		stats["l3"] = Stats{}
	}
	return stats
}

// Warm seeds L1 with a precomputed data set (e.g. the engine's
// popular-query warm-up at initialize time).
func (tc *TieredCache) Warm(data map[string]interface{}) {
	now := tc.clock.Now()
	for key, value := range data {
		tc.l1.put(key, newEntry(value, tc.opts.L1TTL, now, tc.opts.CompressionThresholdBytes))
	}
}

// QueryKey deterministically derives a cache key for a query plus its
// search options, grounded on the teacher's generateCacheKey (SHA256
// over a normalized-query/options JSON struct).
func QueryKey(query string, options interface{}) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	keyData := struct {
		Query   string      `json:"query"`
		Options interface{} `json:"options"`
	}{Query: normalized, Options: options}

	data, err := json.Marshal(keyData)
	if err != nil {
		return fmt.Sprintf("query:%s", normalized)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("query:%x", hash)
}

// TermKey derives a cache key for a single index term lookup.
func TermKey(term string) string {
	return "term:" + strings.ToLower(strings.TrimSpace(term))
}

// IndexKey derives a cache key for an index-level snapshot or stat.
func IndexKey(name string) string {
	return "index:" + name
}

func newEntry(value interface{}, ttl time.Duration, now time.Time, compressionThreshold int) *Entry {
	e := &Entry{Value: value, CreatedAt: now, AccessedAt: now, AccessCount: 1}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	e.SizeBytes = estimateSize(value)
	if compressionThreshold > 0 && e.SizeBytes > compressionThreshold {
		if compressed, ok := tryCompress(value); ok {
			e.Compressed = compressed
			e.Value = nil
		}
	}
	return e
}

func estimateSize(value interface{}) int {
	switch v := value.(type) {
	case []byte:
		return len(v)
	case string:
		return len(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return 64
		}
		return len(data)
	}
}

// tryCompress gzip-compresses string/[]byte values above the
// configured threshold. Other value shapes are left uncompressed;
// compressing arbitrary interface{} payloads would require a codec
// this cache doesn't otherwise need.
func tryCompress(value interface{}) ([]byte, bool) {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return nil, false
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func decompress(data []byte) (interface{}, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

// tier is the internal storage/eviction contract shared by L1 and L2.
type tier interface {
	get(key string) (*Entry, bool)
	put(key string, e *Entry)
	delete(key string) bool
	keys() []string
	clear()
	stats() Stats
}

func (tc *TieredCache) newTierFor(strategy Strategy, capacity int, ttl time.Duration, onEvict func(string, *Entry)) tier {
	if capacity <= 0 {
		capacity = 100
	}
	if strategy == StrategyLRU {
		return newLRUTier(capacity, ttl, onEvict, tc.clock)
	}
	return newScoredTier(strategy, capacity, ttl, onEvict, tc.clock)
}

// lruTier wraps github.com/hashicorp/golang-lru/v2, the library a
// pack example (Aman-CERP-amanmcp's internal/embed/cached.go) already
// exercises for exactly this shape: a generic, eviction-callback-aware
// LRU keyed by string.
type lruTier struct {
	mu     sync.Mutex
	cap    int
	ttl    time.Duration
	inner  *lru.Cache[string, *Entry]
	clock  clock.Clock
	hits   int64
	misses int64
	// evictions is incremented from the lru.Cache's onEvicted callback,
	// which golang-lru invokes synchronously from inside Add/Remove/
	// Purge while t.mu is already held by this tier's own put/delete/
	// clear. Counting it atomically (instead of taking t.mu again inside
	// the callback) avoids a self-deadlock on that non-reentrant mutex.
	evictions atomic.Int64
}

func newLRUTier(capacity int, ttl time.Duration, onEvict func(string, *Entry), clk clock.Clock) *lruTier {
	t := &lruTier{cap: capacity, ttl: ttl, clock: clk}
	inner, _ := lru.NewWithEvict[string, *Entry](capacity, func(key string, e *Entry) {
		t.evictions.Add(1)
		if onEvict != nil {
			onEvict(key, e)
		}
	})
	t.inner = inner
	return t
}

func (t *lruTier) get(key string) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.inner.Get(key)
	if !ok {
		t.misses++
		return nil, false
	}
	e.AccessedAt = t.clock.Now()
	e.AccessCount++
	t.hits++
	return e, true
}

func (t *lruTier) put(key string, e *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inner.Add(key, e)
}

func (t *lruTier) delete(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inner.Remove(key)
}

func (t *lruTier) keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inner.Keys()
}

func (t *lruTier) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inner.Purge()
	t.hits, t.misses = 0, 0
	t.evictions.Store(0)
}

func (t *lruTier) stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := t.hits + t.misses
	var ratio float64
	if total > 0 {
		ratio = float64(t.hits) / float64(total)
	}
	return Stats{Hits: t.hits, Misses: t.misses, Evictions: t.evictions.Load(), Size: t.inner.Len(), Capacity: t.cap, HitRatio: ratio}
}
