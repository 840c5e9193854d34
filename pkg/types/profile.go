// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "slices"

// DisambiguationEntry holds the phrase patterns used to resolve an
// ambiguous named entity. Positive patterns co-occur with the intended
// sense; negative patterns indicate a namesake collision.
type DisambiguationEntry struct {
	Positive []string `json:"positive" yaml:"positive"`
	Negative []string `json:"negative" yaml:"negative"`
}

// ContextProfile is the structured form of a project's free-text context.
// A profile is built once per research run and treated as read-only by
// every component that receives it.
type ContextProfile struct {
	// Sector is the dominant industry sector, empty when unknown.
	Sector string `json:"sector,omitempty" yaml:"sector,omitempty"`

	Geography   []string `json:"geography,omitempty" yaml:"geography,omitempty"`
	Competitors []string `json:"competitors,omitempty" yaml:"competitors,omitempty"`

	// ClientCompany is the company the research is being done for.
	ClientCompany string `json:"client_company,omitempty" yaml:"client_company,omitempty"`

	// Disambiguation maps an ambiguous entity name to its patterns.
	Disambiguation map[string]DisambiguationEntry `json:"disambiguation,omitempty" yaml:"disambiguation,omitempty"`

	// SectorKeywords are terms that signal the sector in titles and snippets.
	SectorKeywords []string `json:"sector_keywords,omitempty" yaml:"sector_keywords,omitempty"`

	// NegativeKeywords are sector-level terms that mark off-topic results.
	NegativeKeywords []string `json:"negative_keywords,omitempty" yaml:"negative_keywords,omitempty"`
}

// IsEmpty reports whether the profile carries no usable context.
func (p ContextProfile) IsEmpty() bool {
	return p.Sector == "" && len(p.Geography) == 0 && len(p.Competitors) == 0 && p.ClientCompany == ""
}

// Clone returns a deep copy so callers can derive a new profile without
// touching a shared one.
func (p ContextProfile) Clone() ContextProfile {
	out := ContextProfile{
		Sector:           p.Sector,
		Geography:        slices.Clone(p.Geography),
		Competitors:      slices.Clone(p.Competitors),
		ClientCompany:    p.ClientCompany,
		SectorKeywords:   slices.Clone(p.SectorKeywords),
		NegativeKeywords: slices.Clone(p.NegativeKeywords),
	}
	if p.Disambiguation != nil {
		out.Disambiguation = make(map[string]DisambiguationEntry, len(p.Disambiguation))
		for k, v := range p.Disambiguation {
			out.Disambiguation[k] = DisambiguationEntry{
				Positive: slices.Clone(v.Positive),
				Negative: slices.Clone(v.Negative),
			}
		}
	}
	return out
}
