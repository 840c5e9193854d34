// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// noiseSelectors are page elements that never carry evidence.
const noiseSelectors = "script, style, noscript, nav, header, footer, aside, form, iframe, svg"

var (
	htmlTag        = regexp.MustCompile(`(?i)<(?:html|body|div|p|article|section|span|table)\b`)
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	wordSplit      = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true, "that": true,
	"this": true, "are": true, "was": true, "its": true, "into": true, "about": true,
	"how": true, "what": true, "why": true, "who": true, "our": true, "their": true,
	"de": true, "la": true, "el": true, "los": true, "las": true, "en": true, "del": true,
}

// Excerpt reduces a result to the evidence sent to a scorer: the raw
// content's paragraphs that share a token with the topic, capped at
// maxChars. HTML content is cleaned first. Results without raw content,
// or without a matching paragraph, fall back to the snippet.
func Excerpt(topic string, r types.SearchResult, maxChars int) string {
	paragraphs := paragraphsOf(r.RawContent)
	tokens := tokenSet(topic)

	var kept []string
	size := 0
	for _, p := range paragraphs {
		if !sharesToken(p, tokens) {
			continue
		}
		kept = append(kept, p)
		size += len(p) + 2
		if maxChars > 0 && size >= maxChars {
			break
		}
	}

	text := strings.Join(kept, "\n\n")
	if text == "" {
		text = strings.TrimSpace(r.Snippet)
	}
	if text == "" && len(paragraphs) > 0 {
		text = strings.Join(paragraphs, "\n\n")
	}
	return truncateRunes(text, maxChars)
}

// ExcerptHash identifies an excerpt in cache keys.
func ExcerptHash(excerpt string) string {
	sum := sha256.Sum256([]byte(excerpt))
	return hex.EncodeToString(sum[:])[:16]
}

func paragraphsOf(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if htmlTag.MatchString(raw) {
		if ps := htmlParagraphs(raw); len(ps) > 0 {
			return ps
		}
	}
	var out []string
	for _, p := range paragraphBreak.Split(raw, -1) {
		if p = collapseSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 1 {
		// Single-block text: fall back to line breaks.
		out = out[:0]
		for _, line := range strings.Split(raw, "\n") {
			if line = collapseSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}

func htmlParagraphs(raw string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil
	}
	doc.Find(noiseSelectors).Remove()

	var out []string
	doc.Find("h1, h2, h3, p, li, td, blockquote").Each(func(_ int, s *goquery.Selection) {
		if s.Find("p, li").Length() > 0 {
			return
		}
		if text := collapseSpace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	if len(out) == 0 {
		if text := collapseSpace(doc.Find("body").Text()); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func tokenSet(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range wordSplit.Split(strings.ToLower(text), -1) {
		if len([]rune(w)) >= 3 && !stopwords[w] {
			out[w] = true
		}
	}
	return out
}

func sharesToken(text string, tokens map[string]bool) bool {
	for w := range tokenSet(text) {
		if tokens[w] {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
