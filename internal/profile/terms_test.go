// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/topic-scout/pkg/types"
)

func TestMentions(t *testing.T) {
	tests := []struct {
		text, term string
		want       bool
	}{
		{"ACS market position", "ACS", true},
		{"acs market position", "ACS", true},
		{"TRACS annual report", "ACS", false},
		{"American Chemical Society journal", "chemical society", true},
		{"growth in C++ tooling", "C++", true},
		{"anything", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mentions(tt.text, tt.term), "%q in %q", tt.term, tt.text)
	}
}

func TestTermCacheIsBounded(t *testing.T) {
	for i := range termCacheSize + 50 {
		Mentions("supplier 7 report", fmt.Sprintf("supplier %d", i))
	}
	assert.LessOrEqual(t, termCache.Len(), termCacheSize)
	assert.True(t, Mentions("supplier 7 report", "supplier 7"), "evicted terms compile again")
}

func TestMentionedEntities(t *testing.T) {
	p := types.ContextProfile{Disambiguation: map[string]types.DisambiguationEntry{
		"Vinci": {}, "ACS": {}, "Thales": {},
	}}
	assert.Equal(t, []string{"ACS", "Vinci"}, MentionedEntities("ACS vs Vinci margins", p))
	assert.Empty(t, MentionedEntities("steel prices", p))
}

func TestPreferredGeography(t *testing.T) {
	assert.Equal(t, "", PreferredGeography(types.ContextProfile{}))
	assert.Equal(t, "Spain", PreferredGeography(types.ContextProfile{Geography: []string{"Global", "Europe", "Spain"}}))
	assert.Equal(t, "Global", PreferredGeography(types.ContextProfile{Geography: []string{"Global"}}))
	assert.Equal(t, "Norway", PreferredGeography(types.ContextProfile{Geography: []string{"Norway", "Global"}}))
}
