// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query builds search-query variants for a topic from its context
// profile. Variants come out in the fixed order precise, disambiguated,
// broad so that a downstream cap drops the least targeted ones last.
package query

import (
	"strings"

	"github.com/pdiddy/topic-scout/internal/profile"
	"github.com/pdiddy/topic-scout/pkg/types"
)

const (
	maxCompetitorAnchors = 3
	maxPositiveAnchors   = 2
)

// Build returns up to max variants for topic. A non-empty topic always
// yields a broad variant, whatever the profile holds. An empty topic
// yields nothing.
func Build(topic string, p types.ContextProfile, hint types.StrategyHint, max int) []types.QueryVariant {
	origin := normalizeSpace(topic)
	if origin == "" {
		return nil
	}

	base := origin
	if hint == types.HintSwapTerms {
		base = SwapTerms(base)
	}

	var out []types.QueryVariant
	add := func(text string, kind types.VariantKind) {
		text = normalizeSpace(text)
		if text == "" {
			return
		}
		for _, v := range out {
			if strings.EqualFold(v.Text, text) {
				return
			}
		}
		out = append(out, types.QueryVariant{Text: text, Kind: kind, OriginTopic: origin})
	}

	if !p.IsEmpty() {
		if anchors := preciseAnchors(base, p, hint); len(anchors) > 0 {
			add(base+" AND "+strings.Join(anchors, " AND "), types.VariantPrecise)
		}
	}
	if exclusions := exclusionTerms(base, p); len(exclusions) > 0 {
		add(base+" -("+strings.Join(exclusions, " OR ")+")", types.VariantDisambiguated)
	}

	broad := base
	if hint == types.HintBroaden {
		broad = strings.ReplaceAll(broad, `"`, "")
	}
	add(broad, types.VariantBroad)

	return truncate(out, max)
}

// preciseAnchors returns the AND-joined terms for the precise variant.
func preciseAnchors(topic string, p types.ContextProfile, hint types.StrategyHint) []string {
	var anchors []string
	if p.Sector != "" && p.Sector != "other" {
		anchors = append(anchors, quote(p.Sector))
	}
	if hint == types.HintBroaden {
		return anchors
	}

	if geo := profile.PreferredGeography(p); geo != "" && !profile.Mentions(topic, geo) {
		anchors = append(anchors, quote(geo))
	}

	var comps []string
	for _, c := range p.Competitors {
		if len(comps) == maxCompetitorAnchors {
			break
		}
		if !profile.Mentions(topic, c) {
			comps = append(comps, quote(c))
		}
	}
	if len(comps) == 1 {
		anchors = append(anchors, comps[0])
	} else if len(comps) > 1 {
		anchors = append(anchors, "("+strings.Join(comps, " OR ")+")")
	}

	if hint == types.HintNarrow {
		if p.ClientCompany != "" && !profile.Mentions(topic, p.ClientCompany) {
			anchors = append(anchors, quote(p.ClientCompany))
		}
		for _, name := range profile.MentionedEntities(topic, p) {
			positives := p.Disambiguation[name].Positive
			for i := 0; i < len(positives) && i < maxPositiveAnchors; i++ {
				anchors = append(anchors, quote(positives[i]))
			}
		}
	}
	return dedupe(anchors)
}

// exclusionTerms collects the negative patterns of every ambiguous entity
// the topic mentions.
func exclusionTerms(topic string, p types.ContextProfile) []string {
	var terms []string
	for _, name := range profile.MentionedEntities(topic, p) {
		for _, neg := range p.Disambiguation[name].Negative {
			terms = append(terms, quote(neg))
		}
	}
	return dedupe(terms)
}

// truncate caps variants at max while always keeping the broad one.
func truncate(variants []types.QueryVariant, max int) []types.QueryVariant {
	if max <= 0 || len(variants) <= max {
		return variants
	}
	broad := variants[len(variants)-1]
	out := append([]types.QueryVariant(nil), variants[:max-1]...)
	return append(out, broad)
}

func quote(term string) string {
	term = strings.TrimSpace(term)
	if strings.ContainsAny(term, " \t-") {
		return `"` + strings.Trim(term, `"`) + `"`
	}
	return term
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
