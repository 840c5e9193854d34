// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"strings"
	"unicode"
)

// synonyms drives the swap-terms strategy. Each word maps to one
// alternative; a single pass is applied so chains never loop.
var synonyms = map[string]string{
	"market":      "industry",
	"markets":     "industries",
	"position":    "standing",
	"positioning": "standing",
	"growth":      "expansion",
	"trends":      "outlook",
	"trend":       "outlook",
	"size":        "value",
	"competitors": "rivals",
	"competition": "rivalry",
	"share":       "penetration",
	"strategy":    "plan",
	"revenue":     "sales",
	"forecast":    "projection",
	"analysis":    "assessment",
	"regulation":  "policy",
	"investment":  "funding",
	"leaders":     "incumbents",
	"players":     "companies",
	"outlook":     "prospects",
}

// SwapTerms replaces known words with their synonym, keeping leading
// capitalisation. Words not in the table are left as-is.
func SwapTerms(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		core := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) })
		if core == "" {
			continue
		}
		alt, ok := synonyms[strings.ToLower(core)]
		if !ok {
			continue
		}
		if unicode.IsUpper([]rune(core)[0]) {
			r := []rune(alt)
			r[0] = unicode.ToUpper(r[0])
			alt = string(r)
		}
		words[i] = strings.Replace(w, core, alt, 1)
	}
	return strings.Join(words, " ")
}
