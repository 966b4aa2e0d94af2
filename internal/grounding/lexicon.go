// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package grounding

import "regexp"

// Authority lexicons are matched against the lowercased host and title of a
// grounding chunk. Each tier pairs content words with well-known hosts.
var (
	highAuthorityTerms = []string{
		"research", "study", "studies", "analysis", "journal", "academic", "institute",
		"university", ".gov", ".edu", ".ac.uk", "who.int", "nature.com", "science.org",
		"ieee.org", "acm.org", "arxiv.org", "springer.com", "sciencedirect.com", "oecd.org",
	}
	mediumAuthorityTerms = []string{
		"guide", "best practices", "expert", "whitepaper", "report", "documentation",
		"wikipedia.org", "reuters.com", "hbr.org", "mckinsey.com", "gartner.com",
		"techcrunch.com", "wired.com", "arstechnica.com", "economist.com", "github.com",
	}
	lowAuthorityTerms = []string{
		"blog", "opinion", "personal", "forum", "sponsored",
		"medium.com", "reddit.com", "quora.com", "tumblr.com", "pinterest.", "facebook.com", "tiktok.com",
	}
)

// Temporal markers classify evidence text as recent or evergreen.
var (
	recentTerms = []string{
		"recent", "recently", "latest", "this year", "currently", "emerging",
		"new study", "newly", "trend", "trending", "announced", "just released", "update",
	}
	evergreenTerms = []string{
		"fundamental", "fundamentals", "principle", "principles", "classic", "history",
		"historically", "traditional", "timeless", "foundation", "foundational",
		"established", "long-standing", "always", "basics",
	}

	recentYearRe = regexp.MustCompile(`\b20[2-9][0-9]\b`)
)

// gapTerms mark sentences that describe missing or thin coverage.
var gapTerms = []string{
	"lack", "lacks", "lacking", "missing", "gap", "gaps", "limited research",
	"little research", "few studies", "unclear", "not yet", "under-explored",
	"underexplored", "overlooked", "unknown", "insufficient", "needs more", "remains open",
}

// Search intent markers, matched as whole words against the lowercased query.
var (
	comparisonTerms = []string{
		"vs", "versus", "compare", "compared", "comparison", "best", "top",
		"alternative", "alternatives", "review", "reviews", "difference", "better", "ranking",
	}
	transactionalTerms = []string{
		"buy", "price", "prices", "pricing", "cost", "cheap", "discount", "deal",
		"deals", "purchase", "order", "hire", "subscribe", "subscription", "download", "coupon",
	}
)

// conceptRe matches runs of capitalized words, such as "Kubernetes" or
// "Horizontal Pod Autoscaler".
var conceptRe = regexp.MustCompile(`\b[A-Z][A-Za-z0-9]+(?:[ \t]+[A-Z][A-Za-z0-9]+)*\b`)

// conceptStopWords are capitalized words that are not concepts on their own.
var conceptStopWords = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true, "There": true,
	"However": true, "While": true, "When": true, "Where": true, "What": true, "Why": true,
	"How": true, "And": true, "But": true, "For": true, "With": true, "From": true,
	"According": true, "Many": true, "Most": true, "Some": true, "Our": true, "Their": true,
	"Its": true, "Also": true, "Other": true, "More": true, "Research": true, "Studies": true,
}

const sentenceSplitChars = ".!?\n"
