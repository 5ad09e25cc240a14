package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mainframekb/corekb/internal/clock"
)

func fixedClock() *clock.Fake {
	return clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func newTestCache(clk *clock.Fake) *TieredCache {
	opts := DefaultOptions()
	opts.L1Capacity = 3
	opts.L2Capacity = 5
	return New(opts, clk)
}

func TestSetGetRoundTrips(t *testing.T) {
	tc := newTestCache(fixedClock())
	tc.Set("a", "value-a", time.Minute)
	v, ok := tc.Get("a")
	if !ok || v != "value-a" {
		t.Fatalf("expected to get back value-a, got %v ok=%v", v, ok)
	}
}

func TestGetMissReturnsFalse(t *testing.T) {
	tc := newTestCache(fixedClock())
	if _, ok := tc.Get("missing"); ok {
		t.Error("expected a miss on an absent key")
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	tc := newTestCache(fixedClock())
	tc.Set("a", "v", time.Minute)
	if !tc.Delete("a") {
		t.Error("expected Delete to report the key was found")
	}
	if _, ok := tc.Get("a"); ok {
		t.Error("expected key to be gone after Delete")
	}
}

func TestClearEmptiesAllLayers(t *testing.T) {
	tc := newTestCache(fixedClock())
	tc.Set("a", "v", time.Minute)
	tc.Clear()
	if _, ok := tc.Get("a"); ok {
		t.Error("expected Clear to empty the cache")
	}
}

func TestTTLExpiry(t *testing.T) {
	clk := fixedClock()
	tc := newTestCache(clk)
	tc.Set("a", "v", time.Second)
	clk.Advance(2 * time.Second)
	if _, ok := tc.Get("a"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestExpireUpdatesTTL(t *testing.T) {
	clk := fixedClock()
	tc := newTestCache(clk)
	tc.Set("a", "v", time.Second)
	if !tc.Expire("a", time.Hour) {
		t.Fatal("expected Expire to find the key")
	}
	clk.Advance(2 * time.Second)
	if _, ok := tc.Get("a"); !ok {
		t.Error("expected extended TTL to keep the entry alive")
	}
}

func TestDeletePatternGlob(t *testing.T) {
	tc := newTestCache(fixedClock())
	tc.Set("query:abc", "1", time.Minute)
	tc.Set("query:def", "2", time.Minute)
	tc.Set("term:xyz", "3", time.Minute)
	removed := tc.DeletePattern("query:*")
	if removed != 2 {
		t.Errorf("expected 2 keys removed, got %d", removed)
	}
	if _, ok := tc.Get("term:xyz"); !ok {
		t.Error("expected non-matching key to survive")
	}
}

func TestInvalidateDocumentRemovesByIDAndTag(t *testing.T) {
	tc := newTestCache(fixedClock())
	tc.Set("query:doc-123-results", "v", time.Minute)
	tc.Set("category:incident", "v", time.Minute)
	tc.Set("unrelated", "v", time.Minute)
	removed := tc.InvalidateDocument("doc-123", "category:incident")
	if removed != 2 {
		t.Errorf("expected 2 keys invalidated, got %d", removed)
	}
	if _, ok := tc.Get("unrelated"); !ok {
		t.Error("expected unrelated key to survive invalidation")
	}
}

func TestWarmSeedsL1(t *testing.T) {
	tc := newTestCache(fixedClock())
	tc.Warm(map[string]interface{}{"query:hot": "warmed"})
	v, ok := tc.Get("query:hot")
	if !ok || v != "warmed" {
		t.Errorf("expected warmed entry, got %v ok=%v", v, ok)
	}
}

func TestQueryKeyIsDeterministic(t *testing.T) {
	k1 := QueryKey("  VSAM Status  ", map[string]int{"limit": 10})
	k2 := QueryKey("vsam status", map[string]int{"limit": 10})
	if k1 != k2 {
		t.Errorf("expected case/whitespace-insensitive determinism, got %q vs %q", k1, k2)
	}
	k3 := QueryKey("vsam status", map[string]int{"limit": 20})
	if k1 == k3 {
		t.Error("expected different options to produce a different key")
	}
}

func TestTermKeyAndIndexKeyPrefixes(t *testing.T) {
	if got := TermKey("ABEND"); got != "term:abend" {
		t.Errorf("expected term:abend, got %q", got)
	}
	if got := IndexKey("primary"); got != "index:primary" {
		t.Errorf("expected index:primary, got %q", got)
	}
}

func TestL1EvictionDemotesToL2(t *testing.T) {
	clk := fixedClock()
	opts := DefaultOptions()
	opts.L1Capacity = 2
	opts.L1Strategy = StrategyLFU
	opts.L2Capacity = 5
	tc := New(opts, clk)

	tc.Set("a", "va", time.Hour)
	tc.Get("a")
	tc.Get("a")
	tc.Set("b", "vb", time.Hour)
	tc.Get("b")
	tc.Get("b")
	tc.Get("b")
	tc.Set("c", "vc", time.Hour)

	if _, ok := tc.l2.get("a"); !ok {
		t.Error("expected evicted entry 'a' (access count 3 > 1) to be demoted to L2")
	}
	if _, ok := tc.Get("a"); !ok {
		t.Error("expected demoted entry 'a' to still be served by the cache")
	}
}

func TestL2PromotionOnHighAccessCount(t *testing.T) {
	clk := fixedClock()
	opts := DefaultOptions()
	opts.L1Capacity = 1
	opts.L2Capacity = 5
	opts.PromotionAccessThreshold = 2
	tc := New(opts, clk)

	// A key without the "query:" prefix, so only the access-count rule
	// can promote it.
	tc.l2.put("hot", newEntry("v", opts.L2TTL, clk.Now(), opts.CompressionThresholdBytes))
	for i := 0; i < 4; i++ {
		tc.Get("hot")
	}
	if _, ok := tc.l1.get("hot"); !ok {
		t.Error("expected a frequently accessed L2 entry to be promoted to L1")
	}
}

type fakeL3 struct {
	data map[string][]byte
}

func newFakeL3() *fakeL3 { return &fakeL3{data: map[string][]byte{}} }

func (f *fakeL3) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := f.data[key]
	return v, ok, nil
}
func (f *fakeL3) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.data[key] = value
	return nil
}
func (f *fakeL3) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}
func (f *fakeL3) DeletePattern(ctx context.Context, pattern string) (int, error) {
	n := 0
	for k := range f.data {
		if pattern == "*" || k == pattern {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}
func (f *fakeL3) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.data[key]
	return ok, nil
}
func (f *fakeL3) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }
func (f *fakeL3) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	for k := range f.data {
		out = append(out, k)
	}
	return out, nil
}
func (f *fakeL3) Close() error { return nil }

func TestL2EvictionWritesThroughToL3(t *testing.T) {
	clk := fixedClock()
	l3 := newFakeL3()
	opts := DefaultOptions()
	opts.L1Capacity = 1
	opts.L2Capacity = 1
	opts.L2Strategy = StrategyLRU
	opts.L3 = l3
	opts.DemotionL2AccessThreshold = 0
	tc := New(opts, clk)

	tc.l2.put("a", newEntry("va", opts.L2TTL, clk.Now(), opts.CompressionThresholdBytes))
	tc.l2.get("a")
	tc.l2.put("b", newEntry("vb", opts.L2TTL, clk.Now(), opts.CompressionThresholdBytes))

	if len(l3.data) == 0 {
		t.Error("expected an evicted, accessed L2 entry to write through to L3")
	}
}

func TestEvictionStrategies(t *testing.T) {
	strategies := []Strategy{StrategyLFU, StrategyTTL, StrategySize, StrategyAdaptive}
	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			clk := fixedClock()
			var evicted []string
			tier := newScoredTier(s, 2, time.Minute, func(key string, e *Entry) {
				evicted = append(evicted, key)
			}, clk)

			tier.put("a", newEntry("va", time.Minute, clk.Now(), 0))
			tier.put("b", newEntry("vb", time.Minute, clk.Now(), 0))
			tier.put("c", newEntry("vc", time.Minute, clk.Now(), 0))

			if len(evicted) != 1 {
				t.Fatalf("expected exactly one eviction over capacity, got %v", evicted)
			}
			if tier.stats().Evictions != 1 {
				t.Error("expected eviction counter to track the eviction")
			}
		})
	}
}

func TestStatsHitRatio(t *testing.T) {
	tc := newTestCache(fixedClock())
	tc.Set("a", "v", time.Minute)
	tc.Get("a")
	tc.Get("missing")
	stats := tc.GetStats()
	l1 := stats["l1"]
	if l1.Hits == 0 {
		t.Errorf("expected at least one L1 hit, got %+v", l1)
	}
}

func TestCompressionRoundTripsLargeString(t *testing.T) {
	tc := newTestCache(fixedClock())
	opts := tc.opts
	opts.CompressionThresholdBytes = 8
	tc.opts = opts

	big := ""
	for i := 0; i < 100; i++ {
		big += "mainframe batch abend "
	}
	tc.Set("big", big, time.Minute)
	v, ok := tc.Get("big")
	if !ok || v != big {
		t.Errorf("expected compressed value to round-trip unchanged")
	}
}
