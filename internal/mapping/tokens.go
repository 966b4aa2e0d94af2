// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mapping

import (
	"strings"
	"unicode"
)

// stopWords are dropped before similarity scoring.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "any": true, "can": true, "had": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true, "have": true,
	"his": true, "how": true, "its": true, "may": true, "new": true, "now": true,
	"old": true, "see": true, "two": true, "who": true, "did": true, "get": true,
	"let": true, "put": true, "say": true, "she": true, "too": true, "use": true,
	"with": true, "from": true, "this": true, "that": true, "they": true, "will": true,
	"what": true, "when": true, "where": true, "which": true, "while": true, "your": true,
	"into": true, "than": true, "then": true, "them": true, "these": true, "those": true,
	"their": true, "there": true, "been": true, "being": true, "were": true, "would": true,
	"could": true, "should": true, "about": true, "also": true, "more": true, "most": true,
	"some": true, "such": true, "only": true, "over": true, "very": true, "just": true,
	"does": true, "each": true, "other": true, "after": true, "before": true, "why": true,
}

// normalizeText lowercases s and collapses every run of non-alphanumeric
// characters into a single space.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenize returns the scoring tokens of s in order: lowercase words longer
// than two characters that are not stop words.
func tokenize(s string) []string {
	var tokens []string
	for _, w := range strings.Fields(normalizeText(s)) {
		if len([]rune(w)) <= 2 || stopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

type set map[string]struct{}

func (s set) has(k string) bool {
	_, ok := s[k]
	return ok
}

// tokenSet collects the scoring tokens of every fragment.
func tokenSet(fragments []string) set {
	out := set{}
	for _, f := range fragments {
		for _, t := range tokenize(f) {
			out[t] = struct{}{}
		}
	}
	return out
}

// phraseSet collects n-word phrases within each fragment. Phrases never
// span two fragments.
func phraseSet(fragments []string, n int) set {
	out := set{}
	for _, f := range fragments {
		tokens := tokenize(f)
		for i := 0; i+n <= len(tokens); i++ {
			out[strings.Join(tokens[i:i+n], " ")] = struct{}{}
		}
	}
	return out
}

// wordSet collects every normalized word, stop words included.
func wordSet(fragments []string) set {
	out := set{}
	for _, f := range fragments {
		for _, w := range strings.Fields(normalizeText(f)) {
			out[w] = struct{}{}
		}
	}
	return out
}

func intersectionSize(a, b set) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if b.has(k) {
			n++
		}
	}
	return n
}

func jaccard(a, b set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := intersectionSize(a, b)
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// containsPhrase reports whether the normalized phrase appears in the
// normalized text on word boundaries.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// Tokenize returns the scoring tokens of s: lowercase words longer than two
// characters, stop words removed.
func Tokenize(s string) []string {
	return tokenize(s)
}
