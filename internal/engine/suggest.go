package engine

import (
	"context"
	"strings"
	"time"

	"github.com/mainframekb/corekb/internal/fuzzy"
	"github.com/mainframekb/corekb/internal/queryparser"
	"github.com/mainframekb/corekb/internal/textproc"
)

// Suggest returns up to limit indexed terms starting with prefix,
// ordered by descending global frequency. Not counted toward the
// search concurrency cap.
func (e *SearchEngine) Suggest(prefix string, limit int) ([]string, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	return e.index.Prefix(strings.ToLower(strings.TrimSpace(prefix)), limit), nil
}

// Correct returns spelling-corrected replacements for query's tokens
// that the index's vocabulary doesn't already contain, one suggestion
// per unmatched token. Not counted toward the search concurrency cap.
func (e *SearchEngine) Correct(query string) ([]string, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}
	if !e.cfg.FuzzyEnabled {
		return nil, nil
	}

	vocabulary := e.index.Prefix("", 0)
	known := make(map[string]bool, len(vocabulary))
	for _, v := range vocabulary {
		known[v] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, tok := range textproc.TokenizeQuery(query) {
		if known[e.stemSingle(tok)] {
			continue
		}
		matches := e.fuzzy.FindMatchesPrefiltered(tok, vocabulary, fuzzy.DefaultOptions())
		if len(matches) == 0 {
			continue
		}
		if best := matches[0].Term; !seen[best] {
			seen[best] = true
			out = append(out, best)
		}
	}
	return out, nil
}

// attachAssist adds autocomplete suggestions (for the query's last
// token) and spelling corrections (for tokens with no postings among
// the terms already resolved for this search) to resp, gated by both
// the caller's opts and the engine's feature flags.
func (e *SearchEngine) attachAssist(resp *Response, opts SearchOptions, resolvedTerms []string) {
	tokens := textproc.TokenizeQuery(resp.Query)

	if opts.EnableSuggestions && e.cfg.Features.AutoComplete && len(resp.Query) >= 2 {
		last := ""
		if len(tokens) > 0 {
			last = tokens[len(tokens)-1]
		}
		resp.Suggestions = e.index.Prefix(last, 5)
	}

	if opts.EnableCorrections && e.cfg.Features.SpellCorrection && e.cfg.FuzzyEnabled {
		resp.Corrections = e.correctTokens(tokens, resolvedTerms)
	}
}

func (e *SearchEngine) correctTokens(tokens []string, resolvedTerms []string) []string {
	resolved := make(map[string]bool, len(resolvedTerms))
	for _, t := range resolvedTerms {
		resolved[t] = true
	}

	vocabulary := e.index.Prefix("", 0)
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if resolved[e.stemSingle(tok)] {
			continue
		}
		matches := e.fuzzy.FindMatchesPrefiltered(tok, vocabulary, fuzzy.DefaultOptions())
		if len(matches) == 0 {
			continue
		}
		if best := matches[0].Term; !seen[best] {
			seen[best] = true
			out = append(out, best)
		}
	}
	return out
}

func (e *SearchEngine) stemSingle(raw string) string {
	toks := e.processor.Process(raw, "query", textproc.DefaultOptions())
	if len(toks) == 0 {
		return strings.ToLower(raw)
	}
	return toks[0].Stemmed
}

// applyFuzzyCorrections substitutes the text of any fuzzy-marked,
// non-phrase term that has no postings of its own with its best
// vocabulary match, returning a copy of parsed for the ranking and
// posting-lookup machinery to use. parsed itself is left untouched so
// the response can still report the user's original terms (fuzzy flag
// and proximity included).
func (e *SearchEngine) applyFuzzyCorrections(parsed *queryparser.ParsedQuery) *queryparser.ParsedQuery {
	if !e.cfg.FuzzyEnabled {
		return parsed
	}

	var vocabulary []string
	terms := make([]queryparser.QueryTerm, len(parsed.Terms))
	copy(terms, parsed.Terms)
	changed := false

	for i, t := range terms {
		if !t.Fuzzy || t.Operator == queryparser.OpPhrase {
			continue
		}
		if found := e.index.Search([]string{e.stemSingle(t.Text)}); len(found) > 0 {
			continue
		}
		if vocabulary == nil {
			vocabulary = e.index.Prefix("", 0)
		}
		opts := fuzzy.DefaultOptions()
		if t.Proximity > 0 {
			opts.MaxDistance = t.Proximity
		}
		matches := e.fuzzy.FindMatchesPrefiltered(t.Text, vocabulary, opts)
		if len(matches) == 0 {
			continue
		}
		terms[i].Text = matches[0].Term
		changed = true
	}

	if !changed {
		return parsed
	}
	adjusted := *parsed
	adjusted.Terms = terms
	return &adjusted
}

// warmUp computes the 100 most frequent stemmed tokens across the
// corpus just indexed and runs each through the search pipeline once,
// seeding the cache with their responses ahead of any real traffic.
func (e *SearchEngine) warmUp() {
	popular := e.index.Prefix("", 100)
	opts := e.fillDefaults(DefaultSearchOptions())
	for _, term := range popular {
		key := e.cacheKey(term, opts)
		if resp, err := e.execute(context.Background(), term, opts, key); err == nil {
			e.cache.Set(key, resp, time.Hour)
			e.indexResultKeys(key, resp)
		}
	}
}
