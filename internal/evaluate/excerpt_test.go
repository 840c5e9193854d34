// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/topic-scout/pkg/types"
)

func TestExcerptCleansHTML(t *testing.T) {
	raw := `<html><head><style>.x{}</style></head><body>
<nav><p>Home ACS Menu</p></nav>
<article>
<h1>ACS construction results</h1>
<p>Weather was mild this quarter.</p>
<p>The ACS group grew its backlog in Spain.</p>
<script>var acs = 1;</script>
</article>
<footer><p>ACS footer links</p></footer>
</body></html>`
	got := Excerpt("ACS backlog", types.SearchResult{RawContent: raw}, 2000)

	assert.Equal(t, "ACS construction results\n\nThe ACS group grew its backlog in Spain.", got)
	assert.NotContains(t, got, "var acs")
	assert.NotContains(t, got, "Menu")
}

func TestExcerptPlainText(t *testing.T) {
	raw := "Intro about markets.\n\nACS won a tunnel contract.\n\nCookie policy.\n\nAnalysts expect ACS margins to rise."
	got := Excerpt("ACS outlook", types.SearchResult{RawContent: raw}, 2000)
	assert.Equal(t, "ACS won a tunnel contract.\n\nAnalysts expect ACS margins to rise.", got)
}

func TestExcerptCapsLength(t *testing.T) {
	raw := strings.Repeat("ACS paragraph with words.\n\n", 200)
	got := Excerpt("ACS", types.SearchResult{RawContent: raw}, 100)
	assert.Len(t, []rune(got), 100)
}

func TestExcerptFallsBackToSnippet(t *testing.T) {
	r := types.SearchResult{Snippet: "  short snippet  "}
	assert.Equal(t, "short snippet", Excerpt("ACS", r, 2000))

	r.RawContent = "Nothing relevant.\n\nAt all."
	assert.Equal(t, "short snippet", Excerpt("ACS", r, 2000))
}

func TestExcerptHash(t *testing.T) {
	h := ExcerptHash("evidence")
	assert.Len(t, h, 16)
	assert.Equal(t, h, ExcerptHash("evidence"))
	assert.NotEqual(t, h, ExcerptHash("other evidence"))
}

func TestComputePriors(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	r := types.SearchResult{Title: "ACS market position", Snippet: "Results for 2024 and 2025; forecast 2030"}

	p := ComputePriors("ACS market position", r, "", now)
	assert.Equal(t, 2025, p.Year, "future years are ignored")
	assert.Equal(t, 8.0, p.Currency)
	assert.Greater(t, p.Relevance, 0.0)
	assert.LessOrEqual(t, p.Relevance, 10.0)

	none := ComputePriors("quantum sensors", types.SearchResult{Title: "Cooking tips"}, "", now)
	assert.Zero(t, none.Relevance)
	assert.Zero(t, none.Year)
	assert.Zero(t, none.Currency)
}

func TestOverlapRelevance(t *testing.T) {
	assert.Equal(t, 10.0, overlapRelevance("acs market", "ACS market"))
	// {acs, market, position} vs {acs, news}: 1 shared of 4.
	assert.Equal(t, 6.3, overlapRelevance("acs market position", "acs news"))
}
