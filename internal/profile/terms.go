// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// termCacheSize bounds the compiled term patterns kept in memory. Terms
// come from model output too, so the set is open-ended.
const termCacheSize = 1024

var termCache = newTermCache()

func newTermCache() *lru.Cache[string, *regexp.Regexp] {
	// lru.New only errors on a non-positive size.
	c, _ := lru.New[string, *regexp.Regexp](termCacheSize)
	return c
}

// geographyPriority orders regions from most to least decision-useful.
var geographyPriority = []string{
	"Spain", "USA", "UK", "Germany", "France", "Poland", "Italy", "Europe", "LATAM", "Global",
}

// Mentions reports whether text contains term as a whole word or phrase,
// ignoring case.
func Mentions(text, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}
	return termPattern(term).MatchString(text)
}

func termPattern(term string) *regexp.Regexp {
	key := strings.ToLower(term)
	if re, ok := termCache.Get(key); ok {
		return re
	}

	// \b only works next to word characters; "C++" or "@handle" fall back
	// to whitespace and edge anchors.
	pattern := regexp.QuoteMeta(key)
	if isWordChar(key[0]) {
		pattern = `\b` + pattern
	} else {
		pattern = `(?:^|\s)` + pattern
	}
	if isWordChar(key[len(key)-1]) {
		pattern += `\b`
	} else {
		pattern += `(?:$|\s)`
	}
	re := regexp.MustCompile(`(?i)` + pattern)
	termCache.Add(key, re)
	return re
}

func isWordChar(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// MentionedEntities returns the disambiguation keys that appear in text,
// sorted for deterministic output.
func MentionedEntities(text string, p types.ContextProfile) []string {
	var out []string
	for name := range p.Disambiguation {
		if Mentions(text, name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// PreferredGeography picks the most specific region in the profile, or
// "" when there is none. Generic labels are used only when nothing else
// is available.
func PreferredGeography(p types.ContextProfile) string {
	if len(p.Geography) == 0 {
		return ""
	}
	var specific []string
	for _, g := range p.Geography {
		if !genericGeography[g] {
			specific = append(specific, g)
		}
	}
	if len(specific) == 0 {
		specific = p.Geography
	}
	for _, want := range geographyPriority {
		for _, g := range specific {
			if strings.EqualFold(g, want) {
				return want
			}
		}
	}
	return specific[0]
}
