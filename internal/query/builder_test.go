// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topic-scout/internal/profile"
	"github.com/pdiddy/topic-scout/pkg/types"
)

func kinds(vs []types.QueryVariant) []types.VariantKind {
	out := make([]types.VariantKind, len(vs))
	for i, v := range vs {
		out[i] = v.Kind
	}
	return out
}

func find(vs []types.QueryVariant, k types.VariantKind) (types.QueryVariant, bool) {
	for _, v := range vs {
		if v.Kind == k {
			return v, true
		}
	}
	return types.QueryVariant{}, false
}

func TestBuildDisambiguatesACS(t *testing.T) {
	p := profile.FromPatterns("Competitor: ACS (construction)")
	vs := Build("ACS market position", p, types.HintNone, 5)

	require.Equal(t, []types.VariantKind{
		types.VariantPrecise, types.VariantDisambiguated, types.VariantBroad,
	}, kinds(vs))

	d, _ := find(vs, types.VariantDisambiguated)
	assert.Equal(t, `ACS market position -("American Chemical Society" OR chemistry OR "chemical society")`, d.Text)

	pr, _ := find(vs, types.VariantPrecise)
	assert.Equal(t, "ACS market position AND infrastructure", pr.Text)

	for _, v := range vs {
		assert.Equal(t, "ACS market position", v.OriginTopic)
	}
}

func TestBuildEmptyContextYieldsBroad(t *testing.T) {
	for _, topic := range []string{"European rail tenders", "  spaced   topic  ", "x"} {
		vs := Build(topic, types.ContextProfile{}, types.HintNone, 5)
		require.Len(t, vs, 1, topic)
		assert.Equal(t, types.VariantBroad, vs[0].Kind)
		assert.NotEmpty(t, vs[0].Text)
		assert.Equal(t, strings.Join(strings.Fields(topic), " "), vs[0].Text)
	}
}

func TestBuildEmptyTopic(t *testing.T) {
	assert.Empty(t, Build("   ", types.ContextProfile{Sector: "energy"}, types.HintNone, 5))
}

func TestBuildPreciseAnchors(t *testing.T) {
	p := profile.FromPatterns("Study for Ferrovial\nCompetitors: ACS, Sacyr, Vinci, Skanska\nSpain and Europe")
	vs := Build("toll road concessions", p, types.HintNone, 5)

	pr, ok := find(vs, types.VariantPrecise)
	require.True(t, ok)
	assert.Equal(t, `toll road concessions AND infrastructure AND Spain AND (ACS OR Sacyr OR Vinci)`, pr.Text)

	_, ok = find(vs, types.VariantDisambiguated)
	assert.False(t, ok, "no ambiguous entity in topic")
}

func TestBuildHints(t *testing.T) {
	p := profile.FromPatterns("Study for Ferrovial\nCompetitor: ACS (construction)\nSpain")

	broaden := Build(`ACS "market position"`, p, types.HintBroaden, 5)
	pr, _ := find(broaden, types.VariantPrecise)
	assert.Equal(t, `ACS "market position" AND infrastructure`, pr.Text)
	b, _ := find(broaden, types.VariantBroad)
	assert.Equal(t, "ACS market position", b.Text)

	narrow := Build("ACS market position", p, types.HintNarrow, 5)
	pr, _ = find(narrow, types.VariantPrecise)
	assert.Equal(t, "ACS market position AND infrastructure AND Spain AND Ferrovial AND construction AND Dragados", pr.Text)

	swapped := Build("ACS market position", p, types.HintSwapTerms, 5)
	b, _ = find(swapped, types.VariantBroad)
	assert.Equal(t, "ACS industry standing", b.Text)
	assert.Equal(t, "ACS market position", b.OriginTopic)
	d, ok := find(swapped, types.VariantDisambiguated)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(d.Text, "ACS industry standing -("))
}

func TestBuildTruncationKeepsBroad(t *testing.T) {
	p := profile.FromPatterns("Competitor: ACS (construction)")

	vs := Build("ACS market position", p, types.HintNone, 2)
	assert.Equal(t, []types.VariantKind{types.VariantPrecise, types.VariantBroad}, kinds(vs))

	vs = Build("ACS market position", p, types.HintNone, 1)
	assert.Equal(t, []types.VariantKind{types.VariantBroad}, kinds(vs))
}

func TestSwapTerms(t *testing.T) {
	assert.Equal(t, "Industry expansion", SwapTerms("Market growth"))
	assert.Equal(t, "EV industry expansion, 2025", SwapTerms("EV market growth, 2025"))
	assert.Equal(t, "unchanged words", SwapTerms("unchanged words"))
}
