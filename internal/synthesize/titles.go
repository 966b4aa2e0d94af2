// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/outline-engine/pkg/types"
)

// FallbackTitles builds deterministic title options from the request's
// primary keyword, for when the model returns none.
func FallbackTitles(req types.OutlineRequest) []string {
	kw := ""
	for _, k := range req.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kw = titleCase(k)
			break
		}
	}
	if kw == "" {
		return []string{}
	}

	titles := []string{
		fmt.Sprintf("The Complete Guide to %s", kw),
		fmt.Sprintf("%s: What %s Need to Know", kw, titleCase(orDefault(req.Audience, "teams"))),
	}
	if industry := strings.TrimSpace(req.Industry); industry != "" {
		titles = append(titles, fmt.Sprintf("%s Best Practices for %s", kw, titleCase(industry)))
	}
	return append(titles, fmt.Sprintf("How to Get %s Right", kw))
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
