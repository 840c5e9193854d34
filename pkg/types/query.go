// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// VariantKind tags how targeted a query variant is.
type VariantKind string

const (
	VariantPrecise       VariantKind = "precise"
	VariantDisambiguated VariantKind = "disambiguated"
	VariantBroad         VariantKind = "broad"
)

// QueryVariant is one search string derived from a topic.
type QueryVariant struct {
	Text        string      `json:"text" yaml:"text"`
	Kind        VariantKind `json:"kind" yaml:"kind"`
	OriginTopic string      `json:"origin_topic" yaml:"origin_topic"`
}

// StrategyHint tells the variant builder how to mutate its output on a
// retry iteration.
type StrategyHint string

const (
	HintNone      StrategyHint = ""
	HintBroaden   StrategyHint = "broaden"
	HintNarrow    StrategyHint = "narrow"
	HintSwapTerms StrategyHint = "swap-terms"
)
