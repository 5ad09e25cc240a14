package textproc

import (
	"strings"
	"sync"
)

// porterStemmer implements the Porter stemming algorithm (steps 1a
// through 5b, spec.md §4.1) with memoized results, since the same
// term recurs across many documents during indexing.
type porterStemmer struct {
	mu    sync.RWMutex
	cache map[string]string
}

func newPorterStemmer() *porterStemmer {
	return &porterStemmer{cache: make(map[string]string)}
}

func (p *porterStemmer) stem(word string) string {
	p.mu.RLock()
	if s, ok := p.cache[word]; ok {
		p.mu.RUnlock()
		return s
	}
	p.mu.RUnlock()

	stemmed := stemWord(word)

	p.mu.Lock()
	p.cache[word] = stemmed
	p.mu.Unlock()
	return stemmed
}

func isVowel(r byte) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// isConsonant reports whether the rune at index i of w is a
// consonant, treating 'y' as a consonant only when not preceded by
// another consonant (the Porter definition).
func isConsonant(w string, i int) bool {
	c := w[i]
	if isVowel(c) {
		return false
	}
	if c != 'y' {
		return true
	}
	if i == 0 {
		return true
	}
	return !isConsonant(w, i-1)
}

// measure computes Porter's "m": the number of consonant-vowel
// sequences in the word, i.e. [C](VC)^m[V].
func measure(w string) int {
	n := len(w)
	i := 0
	for i < n && isConsonant(w, i) {
		i++
	}
	m := 0
	for i < n {
		for i < n && !isConsonant(w, i) {
			i++
		}
		if i >= n {
			break
		}
		for i < n && isConsonant(w, i) {
			i++
		}
		m++
	}
	return m
}

func measureAtLeast(w string, m int) bool {
	return measure(w) >= m
}

// containsVowel reports whether w has a vowel anywhere in its stem.
func containsVowel(w string) bool {
	for i := range w {
		if !isConsonant(w, i) {
			return true
		}
	}
	return false
}

func endsDoubleConsonant(w string) bool {
	n := len(w)
	if n < 2 {
		return false
	}
	if w[n-1] != w[n-2] {
		return false
	}
	return isConsonant(w, n-1)
}

// endsCVC reports the *o condition: ends consonant-vowel-consonant,
// where the final consonant is not w, x, or y.
func endsCVC(w string) bool {
	n := len(w)
	if n < 3 {
		return false
	}
	if !isConsonant(w, n-3) || isConsonant(w, n-2) || !isConsonant(w, n-1) {
		return false
	}
	switch w[n-1] {
	case 'w', 'x', 'y':
		return false
	}
	return true
}

type suffixRule struct {
	suffix      string
	replacement string
	check       func(stem string) bool
}

func replaceSuffix(w, suffix, replacement string, check func(string) bool) (string, bool) {
	if !strings.HasSuffix(w, suffix) {
		return w, false
	}
	stem := w[:len(w)-len(suffix)]
	if check != nil && !check(stem) {
		return w, false
	}
	return stem + replacement, true
}

func applyFirstMatch(w string, rules []suffixRule) string {
	for _, r := range rules {
		if out, ok := replaceSuffix(w, r.suffix, r.replacement, r.check); ok {
			return out
		}
	}
	return w
}

func stemWord(w string) string {
	if len(w) <= 2 {
		return w
	}
	w = step1a(w)
	w = step1b(w)
	w = step1c(w)
	w = step2(w)
	w = step3(w)
	w = step4(w)
	w = step5a(w)
	w = step5b(w)
	return w
}

// step1a handles plurals: sses->ss, ies->i, ss->ss, s->"".
func step1a(w string) string {
	switch {
	case strings.HasSuffix(w, "sses"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ies"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"):
		return w
	case strings.HasSuffix(w, "s") && len(w) > 1:
		return w[:len(w)-1]
	}
	return w
}

// step1b handles -eed/-ed/-ing with the vowel check, spec.md §4.1.
func step1b(w string) string {
	switch {
	case strings.HasSuffix(w, "eed"):
		stem := w[:len(w)-3]
		if measureAtLeast(stem, 1) {
			return stem + "ee"
		}
		return w
	case strings.HasSuffix(w, "ed"):
		stem := w[:len(w)-2]
		if containsVowel(stem) {
			return fixup1b(stem)
		}
		return w
	case strings.HasSuffix(w, "ing"):
		stem := w[:len(w)-3]
		if containsVowel(stem) {
			return fixup1b(stem)
		}
		return w
	}
	return w
}

func fixup1b(stem string) string {
	switch {
	case strings.HasSuffix(stem, "at"), strings.HasSuffix(stem, "bl"), strings.HasSuffix(stem, "iz"):
		return stem + "e"
	case endsDoubleConsonant(stem) && !strings.HasSuffix(stem, "l") && !strings.HasSuffix(stem, "s") && !strings.HasSuffix(stem, "z"):
		return stem[:len(stem)-1]
	case measure(stem) == 1 && endsCVC(stem):
		return stem + "e"
	}
	return stem
}

// step1c turns a trailing y into i when preceded by a consonant and
// the stem already contains a vowel.
func step1c(w string) string {
	if strings.HasSuffix(w, "y") && len(w) > 1 {
		stem := w[:len(w)-1]
		if isConsonant(w, len(w)-2) && containsVowel(stem) {
			return stem + "i"
		}
	}
	return w
}

var step2Rules = []suffixRule{
	{"ational", "ate", func(s string) bool { return measureAtLeast(s, 1) }},
	{"tional", "tion", func(s string) bool { return measureAtLeast(s, 1) }},
	{"enci", "ence", func(s string) bool { return measureAtLeast(s, 1) }},
	{"anci", "ance", func(s string) bool { return measureAtLeast(s, 1) }},
	{"izer", "ize", func(s string) bool { return measureAtLeast(s, 1) }},
	{"abli", "able", func(s string) bool { return measureAtLeast(s, 1) }},
	{"alli", "al", func(s string) bool { return measureAtLeast(s, 1) }},
	{"entli", "ent", func(s string) bool { return measureAtLeast(s, 1) }},
	{"eli", "e", func(s string) bool { return measureAtLeast(s, 1) }},
	{"ousli", "ous", func(s string) bool { return measureAtLeast(s, 1) }},
	{"ization", "ize", func(s string) bool { return measureAtLeast(s, 1) }},
	{"ation", "ate", func(s string) bool { return measureAtLeast(s, 1) }},
	{"ator", "ate", func(s string) bool { return measureAtLeast(s, 1) }},
	{"alism", "al", func(s string) bool { return measureAtLeast(s, 1) }},
	{"iveness", "ive", func(s string) bool { return measureAtLeast(s, 1) }},
	{"fulness", "ful", func(s string) bool { return measureAtLeast(s, 1) }},
	{"ousness", "ous", func(s string) bool { return measureAtLeast(s, 1) }},
	{"aliti", "al", func(s string) bool { return measureAtLeast(s, 1) }},
	{"iviti", "ive", func(s string) bool { return measureAtLeast(s, 1) }},
	{"biliti", "ble", func(s string) bool { return measureAtLeast(s, 1) }},
}

func step2(w string) string { return applyFirstMatch(w, step2Rules) }

var step3Rules = []suffixRule{
	{"icate", "ic", func(s string) bool { return measureAtLeast(s, 1) }},
	{"ative", "", func(s string) bool { return measureAtLeast(s, 1) }},
	{"alize", "al", func(s string) bool { return measureAtLeast(s, 1) }},
	{"iciti", "ic", func(s string) bool { return measureAtLeast(s, 1) }},
	{"ical", "ic", func(s string) bool { return measureAtLeast(s, 1) }},
	{"ful", "", func(s string) bool { return measureAtLeast(s, 1) }},
	{"ness", "", func(s string) bool { return measureAtLeast(s, 1) }},
}

func step3(w string) string { return applyFirstMatch(w, step3Rules) }

var step4Rules = []suffixRule{
	{"al", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ance", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ence", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"er", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ic", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"able", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ible", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ant", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ement", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ment", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ent", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ion", "", func(s string) bool {
		return measureAtLeast(s, 2) && len(s) > 0 && (s[len(s)-1] == 's' || s[len(s)-1] == 't')
	}},
	{"ou", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ism", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ate", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"iti", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ous", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ive", "", func(s string) bool { return measureAtLeast(s, 2) }},
	{"ize", "", func(s string) bool { return measureAtLeast(s, 2) }},
}

func step4(w string) string { return applyFirstMatch(w, step4Rules) }

// step5a drops a trailing e when m>1, or m==1 and not *o.
func step5a(w string) string {
	if !strings.HasSuffix(w, "e") {
		return w
	}
	stem := w[:len(w)-1]
	m := measure(stem)
	if m > 1 {
		return stem
	}
	if m == 1 && !endsCVC(stem) {
		return stem
	}
	return w
}

// step5b collapses a trailing double l to single l when m>1.
func step5b(w string) string {
	if measure(w) > 1 && strings.HasSuffix(w, "ll") {
		return w[:len(w)-1]
	}
	return w
}
