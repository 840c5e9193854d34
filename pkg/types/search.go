// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the topic-scout
// retrieval loop: context profiles, query variants, search results,
// evaluation verdicts, gate decisions, and the run configuration.
package types

// Provider identifies the search backend that produced a result.
type Provider string

const (
	ProviderTavily Provider = "tavily"
	ProviderExa    Provider = "exa"

	// ProviderMerged marks a result returned by more than one backend.
	ProviderMerged Provider = "merged"
)

// Layer identifies the orchestrator layer that produced a result.
type Layer string

const (
	LayerPrimary  Layer = "primary"
	LayerSemantic Layer = "semantic"
	LayerElite    Layer = "elite"
)

// Tier is the precomputed authority tier of a domain. Lower values rank
// higher; TierNone is used for domains outside the elite list.
type Tier int

const (
	TierNone    Tier = 0
	TierElite   Tier = 1
	TierPremium Tier = 2
	TierTrusted Tier = 3
)

// String returns the tier label used in logs and run files.
func (t Tier) String() string {
	switch t {
	case TierElite:
		return "elite"
	case TierPremium:
		return "premium"
	case TierTrusted:
		return "trusted"
	default:
		return "standard"
	}
}

// Authoritative reports whether the tier counts as elite: such sources
// satisfy the gate's elite requirement and skip model scoring.
func (t Tier) Authoritative() bool {
	return t == TierElite || t == TierPremium
}

// SortRank returns the rank used when ordering results: elite first,
// unknown domains last.
func (t Tier) SortRank() int {
	if t == TierNone {
		return 4
	}
	return int(t)
}

// SearchResult is a deduplicated candidate source. URL is always in
// canonical form and is unique within one topic's result set.
type SearchResult struct {
	// URL is the canonical URL used as the deduplication key.
	URL string `json:"url" yaml:"url"`

	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`

	// RawContent is the page text returned by the backend, if any.
	RawContent string `json:"raw_content,omitempty" yaml:"raw_content,omitempty"`

	// Provider is the backend that returned the result, or ProviderMerged
	// when several backends returned the same canonical URL.
	Provider Provider `json:"provider" yaml:"provider"`

	// Layer is the orchestrator layer that first returned the result.
	Layer Layer `json:"layer" yaml:"layer"`

	// Tier is the authority tier of the result's domain.
	Tier Tier `json:"tier" yaml:"tier"`

	// Rank is the position of the result in the merged backend output.
	Rank int `json:"rank" yaml:"rank"`

	// Query is the variant text that first returned the result.
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
}
