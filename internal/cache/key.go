// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// Namespace prefixes every outline cache key.
const Namespace = "outline:"

const keywordHashLen = 16

// keyMaterial is the normalized request that determines an outline.
type keyMaterial struct {
	Keywords           []string `json:"keywords"`
	Industry           string   `json:"industry"`
	Audience           string   `json:"audience"`
	WordCount          int      `json:"wordCount"`
	CustomInstructions string   `json:"customInstructions"`
	PersonaFingerprint string   `json:"personaFingerprint"`
}

// NormalizeKeywords trims, lowercases, deduplicates, and sorts keywords,
// dropping blanks.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// KeywordPrefix returns the key prefix shared by every cached outline for
// the given keywords, regardless of the other request fields. Pass it to
// Invalidate to drop all of them.
func KeywordPrefix(keywords []string) string {
	sum := sha256.Sum256([]byte(strings.Join(NormalizeKeywords(keywords), "\x00")))
	return Namespace + hex.EncodeToString(sum[:])[:keywordHashLen] + ":"
}

// Key derives the content-addressed cache key for a request. Requests that
// differ only in keyword order, keyword case, duplicate keywords, or
// surrounding whitespace share a key.
func Key(req types.OutlineRequest) string {
	m := keyMaterial{
		Keywords:           NormalizeKeywords(req.Keywords),
		Industry:           strings.ToLower(strings.TrimSpace(req.Industry)),
		Audience:           strings.ToLower(strings.TrimSpace(req.Audience)),
		WordCount:          req.WordCount,
		CustomInstructions: strings.TrimSpace(req.CustomInstructions),
		PersonaFingerprint: strings.TrimSpace(req.PersonaFingerprint),
	}
	// Marshaling a struct of strings, a string slice, and an int cannot fail.
	data, _ := json.Marshal(m)
	sum := sha256.Sum256(data)
	return KeywordPrefix(req.Keywords) + hex.EncodeToString(sum[:])
}
