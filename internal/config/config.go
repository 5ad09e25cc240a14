// Package config provides the engine's configuration surface: result
// limits, timeouts, ranking algorithm choice, optimization presets, and
// the feature/performance option trees spec'd at the search boundary.
//
// Grounded on internal teacher convention (Config struct + DefaultConfig
// + Validate, see the original internal/config/config.go), generalized
// from file-path resolution to the richer option tree this spec needs.
package config

import (
	"fmt"
	"time"
)

// RankingAlgorithm selects which RankingEngine scorer is used.
type RankingAlgorithm string

const (
	RankingTFIDF     RankingAlgorithm = "tfidf"
	RankingBM25      RankingAlgorithm = "bm25"
	RankingCombined  RankingAlgorithm = "combined"
	RankingCustom    RankingAlgorithm = "custom"
)

// OptimizationLevel selects a pre-baked bundle of indexing/caching/
// ranking presets.
type OptimizationLevel string

const (
	OptimizationFast     OptimizationLevel = "fast"
	OptimizationBalanced OptimizationLevel = "balanced"
	OptimizationAccurate OptimizationLevel = "accurate"
)

// Features gates optional search phases.
type Features struct {
	AutoComplete       bool
	SpellCorrection    bool
	SemanticSearch     bool
	QueryExpansion     bool
	ResultClustering   bool
	PersonalizedRanking bool
}

// Performance bounds the resources a single engine instance may use.
type Performance struct {
	IndexingBatchSize    int
	SearchTimeout        time.Duration
	MaxConcurrentSearches int
	MemoryThresholdBytes int64
}

// Config is the full engine configuration.
type Config struct {
	MaxResults        int
	DefaultTimeout    time.Duration
	CacheEnabled      bool
	FuzzyEnabled      bool
	RankingAlgorithm  RankingAlgorithm
	OptimizationLevel OptimizationLevel
	Features          Features
	Performance       Performance
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() *Config {
	cfg := &Config{
		MaxResults:        100,
		DefaultTimeout:    1000 * time.Millisecond,
		CacheEnabled:      true,
		FuzzyEnabled:      true,
		RankingAlgorithm:  RankingBM25,
		OptimizationLevel: OptimizationBalanced,
		Features: Features{
			AutoComplete:    true,
			SpellCorrection: true,
		},
		Performance: Performance{
			IndexingBatchSize:     100,
			SearchTimeout:         800 * time.Millisecond,
			MaxConcurrentSearches: 10,
			MemoryThresholdBytes:  256 << 20,
		},
	}
	applyOptimizationPreset(cfg, cfg.OptimizationLevel)
	return cfg
}

// applyOptimizationPreset overwrites cfg's ranking algorithm, indexing
// batch size, and search timeout with the named preset's values, so
// callers apply the preset before overriding any individual field.
func applyOptimizationPreset(cfg *Config, level OptimizationLevel) {
	switch level {
	case OptimizationFast:
		cfg.RankingAlgorithm = RankingTFIDF
		cfg.Performance.IndexingBatchSize = 250
		cfg.Performance.SearchTimeout = 400 * time.Millisecond
	case OptimizationAccurate:
		cfg.RankingAlgorithm = RankingCombined
		cfg.Performance.IndexingBatchSize = 50
		cfg.Performance.SearchTimeout = 1500 * time.Millisecond
	case OptimizationBalanced, "":
		cfg.RankingAlgorithm = RankingBM25
		cfg.Performance.IndexingBatchSize = 100
		cfg.Performance.SearchTimeout = 800 * time.Millisecond
	}
	cfg.OptimizationLevel = level
}

// WithOptimizationLevel returns a copy of cfg with the named preset
// applied over it.
func (c *Config) WithOptimizationLevel(level OptimizationLevel) *Config {
	clone := *c
	applyOptimizationPreset(&clone, level)
	return &clone
}

// Validate checks the configuration for internally-consistent values.
func (c *Config) Validate() error {
	if c.MaxResults <= 0 {
		return fmt.Errorf("config: MaxResults must be positive, got %d", c.MaxResults)
	}
	if c.MaxResults > 10_000 {
		return fmt.Errorf("config: MaxResults too large, got %d (max 10000)", c.MaxResults)
	}
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("config: DefaultTimeout must be positive, got %s", c.DefaultTimeout)
	}
	if c.Performance.MaxConcurrentSearches <= 0 {
		return fmt.Errorf("config: Performance.MaxConcurrentSearches must be positive, got %d", c.Performance.MaxConcurrentSearches)
	}
	if c.Performance.IndexingBatchSize <= 0 {
		return fmt.Errorf("config: Performance.IndexingBatchSize must be positive, got %d", c.Performance.IndexingBatchSize)
	}
	switch c.RankingAlgorithm {
	case RankingTFIDF, RankingBM25, RankingCombined, RankingCustom:
	default:
		return fmt.Errorf("config: unknown RankingAlgorithm %q", c.RankingAlgorithm)
	}
	return nil
}

// EffectiveTimeout resolves the per-search timeout: an explicit
// override wins, otherwise DefaultTimeout, per spec §4.7.
func (c *Config) EffectiveTimeout(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return 1000 * time.Millisecond
}
