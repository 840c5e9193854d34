// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rerank filters namesake collisions out of a merged result set
// and orders what remains by domain tier, contextual boost, and backend
// rank.
package rerank

import (
	"sort"

	"github.com/pdiddy/topic-scout/internal/profile"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// Weights are the boost added when a profile term appears in a result's
// title or snippet. Each category counts at most once per field.
type Weights struct {
	SectorTitle, SectorSnippet         float64
	GeographyTitle, GeographySnippet   float64
	CompetitorTitle, CompetitorSnippet float64
	ClientTitle, ClientSnippet         float64
}

// DefaultWeights favour the client company, then competitors, then the
// sector, then geography.
var DefaultWeights = Weights{
	SectorTitle: 3, SectorSnippet: 1.5,
	GeographyTitle: 1.5, GeographySnippet: 0.75,
	CompetitorTitle: 4, CompetitorSnippet: 2,
	ClientTitle: 6, ClientSnippet: 3,
}

// Output is the result of Apply.
type Output struct {
	Results []types.SearchResult
	Boosts  map[string]float64
	Dropped []types.SearchResult
}

// Apply filters results for topic and reranks the survivors.
func Apply(topic string, results []types.SearchResult, p types.ContextProfile, w Weights) Output {
	kept, dropped := Filter(topic, results, p)
	ranked, boosts := Rerank(kept, p, w)
	return Output{Results: ranked, Boosts: boosts, Dropped: dropped}
}

// Filter drops results whose title or snippet matches a negative pattern
// of an entity named in the topic, or a sector-level negative keyword.
// A matching positive pattern keeps the result. Input order is preserved.
func Filter(topic string, results []types.SearchResult, p types.ContextProfile) (kept, dropped []types.SearchResult) {
	entities := profile.MentionedEntities(topic, p)

	var positives []string
	for _, e := range entities {
		positives = append(positives, p.Disambiguation[e].Positive...)
	}

	for _, r := range results {
		text := r.Title + " " + r.Snippet
		if collides(text, entities, positives, p) {
			dropped = append(dropped, r)
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}

func collides(text string, entities, positives []string, p types.ContextProfile) bool {
	for _, e := range entities {
		entry := p.Disambiguation[e]
		if anyMention(text, entry.Negative) && !anyMention(text, entry.Positive) {
			return true
		}
	}
	if anyMention(text, p.NegativeKeywords) {
		return !anyMention(text, positives) && !anyMention(text, p.SectorKeywords)
	}
	return false
}

// Rerank returns a copy of results stable-sorted by tier (elite first),
// then boost descending, then original rank. It also returns the boost
// computed for each URL.
func Rerank(results []types.SearchResult, p types.ContextProfile, w Weights) ([]types.SearchResult, map[string]float64) {
	out := make([]types.SearchResult, len(results))
	copy(out, results)
	boosts := make(map[string]float64, len(out))
	for _, r := range out {
		boosts[r.URL] = Boost(r, p, w)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := a.Tier.SortRank(), b.Tier.SortRank(); ra != rb {
			return ra < rb
		}
		if ba, bb := boosts[a.URL], boosts[b.URL]; ba != bb {
			return ba > bb
		}
		return a.Rank < b.Rank
	})
	return out, boosts
}

// Boost scores how strongly a result matches the profile.
func Boost(r types.SearchResult, p types.ContextProfile, w Weights) float64 {
	sector := append([]string(nil), p.SectorKeywords...)
	if p.Sector != "" && p.Sector != "other" {
		sector = append(sector, p.Sector)
	}
	var client []string
	if p.ClientCompany != "" {
		client = []string{p.ClientCompany}
	}

	var boost float64
	add := func(terms []string, title, snippet float64) {
		if anyMention(r.Title, terms) {
			boost += title
		}
		if anyMention(r.Snippet, terms) {
			boost += snippet
		}
	}
	add(sector, w.SectorTitle, w.SectorSnippet)
	add(p.Geography, w.GeographyTitle, w.GeographySnippet)
	add(p.Competitors, w.CompetitorTitle, w.CompetitorSnippet)
	add(client, w.ClientTitle, w.ClientSnippet)
	return boost
}

func anyMention(text string, terms []string) bool {
	for _, t := range terms {
		if profile.Mentions(text, t) {
			return true
		}
	}
	return false
}
