// Package textproc normalizes and classifies free-text fields into
// tokens the inverted index and ranking engine can consume. It lowercases,
// splits on whitespace/punctuation while preserving dotted identifiers,
// hyphens and underscores, filters by length and stop words, classifies
// each token against the mainframe vocabulary in internal/domain, and
// stems non-code, non-error tokens with a Porter-style stemmer.
//
// Grounded on the teacher's internal/database/universal_index.go
// tokenizer and internal/nlp/processor.go classification passes,
// generalized into the full pipeline spec.md §4.1 describes.
package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mainframekb/corekb/internal/domain"
)

// TokenType classifies a token's role for boost and stemming decisions.
type TokenType string

const (
	TypeWord     TokenType = "word"
	TypeNumber   TokenType = "number"
	TypeCode     TokenType = "code"
	TypeError    TokenType = "error"
	TypeCompound TokenType = "compound"
	TypeAcronym  TokenType = "acronym"
)

// Token is the result of processing one field's text.
type Token struct {
	Text       string
	Position   int
	Field      string
	Stemmed    string
	Normalized string
	Type       TokenType
	Boost      float64
}

// Options configures a single Process call.
type Options struct {
	PreserveCase bool
	MinLength    int
	MaxLength    int
	DropStop     bool
}

// DefaultOptions returns spec.md §4.1's documented bounds.
func DefaultOptions() Options {
	return Options{
		PreserveCase: false,
		MinLength:    2,
		MaxLength:    50,
		DropStop:     true,
	}
}

const maxTokensPerField = 1000

var splitFunc = func(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_' {
		return false
	}
	return true
}

// Processor runs the text processing pipeline. It is safe for
// concurrent use: stemming results are memoized behind a mutex.
type Processor struct {
	stemmer *porterStemmer
}

// New returns a ready-to-use Processor.
func New() *Processor {
	return &Processor{stemmer: newPorterStemmer()}
}

// Process runs the full pipeline (spec.md §4.1 steps 1-7) over text
// belonging to field, returning never more than maxTokensPerField
// tokens; overflow truncates the tail deterministically.
func (p *Processor) Process(text string, field string, opts Options) []Token {
	if text == "" {
		return nil
	}
	if opts.MinLength == 0 && opts.MaxLength == 0 {
		opts = DefaultOptions()
	}

	raw := text
	if !opts.PreserveCase {
		raw = strings.ToLower(raw)
	}

	words := strings.FieldsFunc(raw, splitFunc)

	tokens := make([]Token, 0, len(words))
	pos := 0
	for _, w := range words {
		w = strings.Trim(w, ".-_")
		if w == "" {
			continue
		}
		if len(w) < opts.MinLength || len(w) > opts.MaxLength {
			continue
		}
		lower := strings.ToLower(w)
		if opts.DropStop && domain.StopWords[lower] {
			continue
		}

		typ := classify(w)
		boost := boostFor(typ)
		stemmed := w
		if typ != TypeError && typ != TypeCode && len(w) >= 3 {
			stemmed = p.stemmer.stem(lower)
		}

		tokens = append(tokens, Token{
			Text:       w,
			Position:   pos,
			Field:      field,
			Stemmed:    stemmed,
			Normalized: lower,
			Type:       typ,
			Boost:      boost,
		})
		pos++
		if len(tokens) >= maxTokensPerField {
			break
		}
	}
	return tokens
}

// boostFor returns the per-token boost multiplier from spec.md §4.1
// step 6: errors x3.0, codes x1.8, acronyms x1.4, else 1.0.
func boostFor(t TokenType) float64 {
	switch t {
	case TypeError:
		return 3.0
	case TypeCode:
		return 1.8
	case TypeAcronym:
		return 1.4
	default:
		return 1.0
	}
}

var numberPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// classify applies spec.md §4.1 step 5's classification order: error
// code patterns first, then domain keyword lists, then acronym,
// number, compound (hyphen/underscore-joined parts), and finally plain
// word.
func classify(token string) TokenType {
	if domain.MatchesErrorCode(token) {
		return TypeError
	}
	if domain.CodeKeywords[strings.ToLower(token)] {
		return TypeCode
	}
	if isAcronym(token) {
		return TypeAcronym
	}
	if numberPattern.MatchString(token) {
		return TypeNumber
	}
	if strings.ContainsAny(token, "-_") && len(strings.FieldsFunc(token, func(r rune) bool { return r == '-' || r == '_' })) > 1 {
		return TypeCompound
	}
	return TypeWord
}

func isAcronym(token string) bool {
	if len(token) < 2 {
		return false
	}
	hasLetter := false
	for _, r := range token {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// TokenizeQuery splits a raw query string into lowercased words for the
// engine's search, suggest and correct paths, applying the same whitespace/punctuation rules as
// Process but without classification or stemming.
func TokenizeQuery(query string) []string {
	lower := strings.ToLower(query)
	words := strings.FieldsFunc(lower, splitFunc)
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".-_")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Stem exposes the memoized Porter stemmer directly, for a stem without
// running the full Process pipeline.
func (p *Processor) Stem(word string) string {
	return p.stemmer.stem(strings.ToLower(word))
}

// SpecialTerms is the result of ExtractSpecial.
type SpecialTerms struct {
	ErrorCodes     []string
	MainframeTerms []string
	SystemNames    []string
}

// ExtractSpecial scans text for error codes and domain vocabulary
// without running the full tokenization pipeline.
func ExtractSpecial(text string) SpecialTerms {
	var out SpecialTerms
	seen := make(map[string]bool)
	for _, w := range strings.FieldsFunc(text, splitFunc) {
		w = strings.Trim(w, ".-_")
		if w == "" || seen[w] {
			continue
		}
		lower := strings.ToLower(w)
		if domain.MatchesErrorCode(w) {
			out.ErrorCodes = append(out.ErrorCodes, w)
			seen[w] = true
			continue
		}
		if domain.MainframeTerms[lower] {
			out.MainframeTerms = append(out.MainframeTerms, lower)
			seen[w] = true
		}
		if domain.SystemNames[lower] {
			out.SystemNames = append(out.SystemNames, lower)
			seen[w] = true
		}
	}
	return out
}
