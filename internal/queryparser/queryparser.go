// Package queryparser implements the search engine's query language: a
// quote-aware, paren-aware lexer feeding a recursive-descent parser
// that produces a ParsedQuery of flat, operator-tagged terms plus a
// normalized echo of the input.
//
// The teacher has no query grammar of its own (WTF searches on raw
// keyword slices); this component is built new, in the teacher's
// idiom (a small hand-written lexer/parser, errors reported as strings
// on the ParsedQuery, table-driven tests), following the token-class conventions (phrase,
// field, fuzzy, boost, wildcard, required/prohibited) common to the
// small boolean/fielded query languages retrieved alongside the
// inverted-index examples.
package queryparser

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator tags how a term combines with the terms before it.
type Operator string

const (
	OpAnd    Operator = "AND"
	OpOr     Operator = "OR"
	OpNot    Operator = "NOT"
	OpPhrase Operator = "PHRASE"
)

// QueryType classifies the overall shape of a parsed query.
type QueryType string

const (
	TypeSimple  QueryType = "simple"
	TypeBoolean QueryType = "boolean"
	TypePhrase  QueryType = "phrase"
	TypeField   QueryType = "field"
	TypeMixed   QueryType = "mixed"
)

// QueryTerm is one atom of the parsed query.
type QueryTerm struct {
	Text       string
	Field      string
	Operator   Operator
	Boost      float64
	Fuzzy      bool
	Proximity  int
	Required   bool
	Prohibited bool
}

// QueryFilter is a field-scoped constraint extracted alongside the
// term list (e.g. `category:incident`), for callers that want to
// apply field filters separately from relevance scoring.
type QueryFilter struct {
	Field string
	Value string
}

// Options configures a Parse call. FieldBoosts must track
// internal/index.FieldWeights; duplicated here rather than imported to
// keep the parser free of a dependency on the index package.
type Options struct {
	DefaultOperator Operator
	FuzzyDistance   int
	FieldBoosts     map[string]float64
}

// DefaultOptions mirrors spec.md §4.4's defaults.
func DefaultOptions() Options {
	return Options{
		DefaultOperator: OpOr,
		FuzzyDistance:   2,
		FieldBoosts: map[string]float64{
			"title":    3.0,
			"problem":  2.0,
			"solution": 1.8,
			"tags":     1.5,
			"category": 1.2,
		},
	}
}

// ParsedQuery is the parser's output: never fails outright — malformed
// input produces an empty or partial term list with Errors attached.
type ParsedQuery struct {
	Type       QueryType
	Terms      []QueryTerm
	Filters    []QueryFilter
	Options    Options
	Original   string
	Normalized string
	Errors     []string
	Warnings   []string
}

// Validate exposes the parser's errors and warnings separately, per
// spec.md §4.4.
func (p *ParsedQuery) Validate() (errors []string, warnings []string) {
	return p.Errors, p.Warnings
}

const maxQueryLength = 1000

// Parse lexes and parses query, returning a ParsedQuery that is always
// non-nil. Malformed input (unmatched quotes/parens, a trailing
// operator) is reported via Errors rather than a panic or a returned
// error.
func Parse(query string, opts Options) *ParsedQuery {
	if opts.DefaultOperator == "" {
		opts = DefaultOptions()
	}

	pq := &ParsedQuery{Original: query, Options: opts}
	if len(query) > maxQueryLength {
		pq.Warnings = append(pq.Warnings, fmt.Sprintf("query exceeds %d characters", maxQueryLength))
	}

	tokens, lexErr := tokenize(query)
	if lexErr != nil {
		pq.Errors = append(pq.Errors, lexErr.Error())
		pq.Normalized = strings.TrimSpace(query)
		return pq
	}

	p := &parser{tokens: tokens, opts: opts}
	terms := p.parseSequence(opts.DefaultOperator)
	if p.depth != 0 || p.pos < len(p.tokens) {
		p.errors = append(p.errors, "unmatched parenthesis")
	}
	if p.trailingOperator {
		p.errors = append(p.errors, "query ends with a trailing operator")
	}

	pq.Terms = terms
	pq.Errors = append(pq.Errors, p.errors...)
	pq.Normalized = normalize(tokens)
	pq.Filters = extractFilters(terms)
	pq.Type = classify(terms)
	return pq
}

func classify(terms []QueryTerm) QueryType {
	if len(terms) == 0 {
		return TypeSimple
	}
	hasPhrase, hasField, hasBoolean := false, false, false
	for _, t := range terms {
		switch t.Operator {
		case OpPhrase:
			hasPhrase = true
		case OpAnd, OpNot:
			hasBoolean = true
		}
		if t.Field != "" {
			hasField = true
		}
		if t.Required || t.Prohibited {
			hasBoolean = true
		}
	}
	switch {
	case hasPhrase && (hasField || hasBoolean):
		return TypeMixed
	case hasPhrase:
		return TypePhrase
	case hasField && hasBoolean:
		return TypeMixed
	case hasField:
		return TypeField
	case hasBoolean:
		return TypeBoolean
	case len(terms) == 1:
		return TypeSimple
	default:
		return TypeBoolean
	}
}

func extractFilters(terms []QueryTerm) []QueryFilter {
	var filters []QueryFilter
	for _, t := range terms {
		if t.Field != "" {
			filters = append(filters, QueryFilter{Field: t.Field, Value: t.Text})
		}
	}
	return filters
}

// ExtractedTerms partitions a parsed query's terms for the index.
type ExtractedTerms struct {
	Required  []string
	Optional  []string
	Prohibited []string
	Phrases   []string
}

// ExtractSearchTerms partitions parsed terms into required, optional,
// prohibited, and phrase buckets, per spec.md §4.4.
func ExtractSearchTerms(p *ParsedQuery) ExtractedTerms {
	var out ExtractedTerms
	for _, t := range p.Terms {
		switch {
		case t.Operator == OpPhrase:
			out.Phrases = append(out.Phrases, t.Text)
		case t.Prohibited || t.Operator == OpNot:
			out.Prohibited = append(out.Prohibited, t.Text)
		case t.Required || t.Operator == OpAnd:
			out.Required = append(out.Required, t.Text)
		default:
			out.Optional = append(out.Optional, t.Text)
		}
	}
	return out
}

// parser consumes a token stream and produces a flat term list. Groups
// in parentheses flatten into the surrounding sequence; the operator
// that preceded the opening paren tags only the group's first term, and
// later terms in the group take their own operator or the default
// operator. The data model carries a
// flat []QueryTerm rather than a nested tree, so nesting is modeled as
// inherited connective rather than structural precedence.
type parser struct {
	tokens            []token
	pos               int
	opts              Options
	depth             int
	errors            []string
	trailingOperator  bool
}

func (p *parser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

// parseSequence consumes atoms and nested groups until it hits a
// closing paren or EOF, returning the flattened term list.
func (p *parser) parseSequence(defaultOp Operator) []QueryTerm {
	var terms []QueryTerm
	pending := defaultOp
	sawOperatorToken := false

	for {
		tok := p.peek()
		switch tok.kind {
		case tokEOF:
			p.trailingOperator = sawOperatorToken
			return terms
		case tokRParen:
			p.trailingOperator = sawOperatorToken
			return terms
		case tokLParen:
			p.next()
			p.depth++
			inner := p.parseSequence(pending)
			if p.peek().kind == tokRParen {
				p.next()
				p.depth--
			}
			terms = append(terms, inner...)
			pending = p.opts.DefaultOperator
			sawOperatorToken = false
		case tokAnd:
			p.next()
			pending = OpAnd
			sawOperatorToken = true
		case tokOr:
			p.next()
			pending = OpOr
			sawOperatorToken = true
		case tokNot:
			p.next()
			pending = OpNot
			sawOperatorToken = true
		case tokAtom:
			p.next()
			term, err := parseAtom(tok.text, p.opts)
			if err != nil {
				p.errors = append(p.errors, err.Error())
				continue
			}
			if term.Operator != OpPhrase {
				if term.Prohibited {
					term.Operator = OpNot
				} else if term.Required {
					term.Operator = OpAnd
				} else {
					term.Operator = pending
				}
			}
			terms = append(terms, term)
			pending = p.opts.DefaultOperator
			sawOperatorToken = false
		default:
			p.next()
		}
	}
}

// parseAtom decomposes one raw atom string (as produced by the lexer)
// into a QueryTerm: required/prohibited prefix, field prefix, phrase
// quoting, trailing boost, trailing fuzzy marker.
func parseAtom(raw string, opts Options) (QueryTerm, error) {
	term := QueryTerm{Boost: 1.0, Proximity: opts.FuzzyDistance}

	if strings.HasPrefix(raw, "+") {
		term.Required = true
		raw = raw[1:]
	} else if strings.HasPrefix(raw, "-") {
		term.Prohibited = true
		raw = raw[1:]
	}

	if idx := strings.IndexByte(raw, ':'); idx > 0 && !strings.HasPrefix(raw, "\"") {
		field := raw[:idx]
		if isFieldName(field) {
			term.Field = field
			raw = raw[idx+1:]
		}
	}

	if strings.HasPrefix(raw, "\"") {
		end := strings.LastIndexByte(raw, '"')
		if end <= 0 {
			return term, fmt.Errorf("unterminated phrase: %q", raw)
		}
		term.Text = raw[1:end]
		term.Operator = OpPhrase
		return term, nil
	}

	if strings.Contains(raw, "^") {
		idx := strings.LastIndexByte(raw, '^')
		if boost, err := strconv.ParseFloat(raw[idx+1:], 64); err == nil {
			term.Boost = boost
			raw = raw[:idx]
		}
	}

	if idx := strings.LastIndexByte(raw, '~'); idx >= 0 {
		term.Fuzzy = true
		if n := raw[idx+1:]; n != "" {
			if dist, err := strconv.Atoi(n); err == nil {
				term.Proximity = dist
			}
		}
		raw = raw[:idx]
	}

	term.Text = raw
	return term, nil
}

func isFieldName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
