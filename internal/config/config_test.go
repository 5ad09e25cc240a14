package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxResults != 100 {
		t.Errorf("expected MaxResults 100, got %d", cfg.MaxResults)
	}
	if cfg.DefaultTimeout != 1000*time.Millisecond {
		t.Errorf("expected DefaultTimeout 1000ms, got %s", cfg.DefaultTimeout)
	}
	if !cfg.CacheEnabled {
		t.Error("expected CacheEnabled to default true")
	}
	if !cfg.FuzzyEnabled {
		t.Error("expected FuzzyEnabled to default true")
	}
	if cfg.RankingAlgorithm != RankingBM25 {
		t.Errorf("expected default ranking bm25, got %s", cfg.RankingAlgorithm)
	}
	if cfg.Performance.SearchTimeout != 800*time.Millisecond {
		t.Errorf("expected search_timeout 800ms leaving 200ms safety margin, got %s", cfg.Performance.SearchTimeout)
	}
}

func TestOptimizationPresets(t *testing.T) {
	fast := DefaultConfig().WithOptimizationLevel(OptimizationFast)
	if fast.RankingAlgorithm != RankingTFIDF {
		t.Errorf("expected fast preset to select tfidf, got %s", fast.RankingAlgorithm)
	}
	if fast.Performance.SearchTimeout != 400*time.Millisecond {
		t.Errorf("expected fast preset search_timeout 400ms, got %s", fast.Performance.SearchTimeout)
	}

	accurate := DefaultConfig().WithOptimizationLevel(OptimizationAccurate)
	if accurate.RankingAlgorithm != RankingCombined {
		t.Errorf("expected accurate preset to select combined, got %s", accurate.RankingAlgorithm)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}

	cfg.MaxResults = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero MaxResults")
	}

	cfg = DefaultConfig()
	cfg.RankingAlgorithm = "bogus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown ranking algorithm")
	}
}

func TestEffectiveTimeout(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.EffectiveTimeout(0); got != cfg.DefaultTimeout {
		t.Errorf("expected fallback to DefaultTimeout, got %s", got)
	}
	if got := cfg.EffectiveTimeout(50 * time.Millisecond); got != 50*time.Millisecond {
		t.Errorf("expected override to win, got %s", got)
	}
}
