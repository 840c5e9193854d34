// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// Override is a user-supplied correction merged over an extracted profile.
// Nil or empty fields leave the extracted value in place.
type Override struct {
	Sector           *string                              `json:"sector,omitempty"`
	Geography        []string                             `json:"geography,omitempty"`
	ClientCompany    *string                              `json:"client_company,omitempty"`
	Competitors      []string                             `json:"competitors,omitempty"`
	AddCompetitors   []string                             `json:"add_competitors,omitempty"`
	NegativeKeywords []string                             `json:"negative_keywords,omitempty"`
	Disambiguation   map[string]types.DisambiguationEntry `json:"disambiguation,omitempty"`
}

// ParseOverride decodes an override document. Unknown fields are rejected
// so typos surface instead of being ignored.
func ParseOverride(data []byte) (Override, error) {
	var o Override
	if len(bytes.TrimSpace(data)) == 0 {
		return o, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&o); err != nil {
		return Override{}, fmt.Errorf("parsing context override: %w", err)
	}
	return o, nil
}

// Apply returns a new profile with the override merged over p. Derived
// fields are rebuilt so new competitors get disambiguation entries.
func (o Override) Apply(p types.ContextProfile) types.ContextProfile {
	out := p.Clone()
	if o.Sector != nil {
		out.Sector = *o.Sector
		out.SectorKeywords = nil
	}
	if len(o.Geography) > 0 {
		out.Geography = dedupeFold(o.Geography)
	}
	if o.ClientCompany != nil {
		out.ClientCompany = *o.ClientCompany
	}
	if len(o.Competitors) > 0 {
		out.Competitors = nil
		out.Disambiguation = nil
		for _, c := range o.Competitors {
			out.Competitors = append(out.Competitors, canonicalName(c))
		}
	}
	for _, c := range o.AddCompetitors {
		out.Competitors = append(out.Competitors, canonicalName(c))
	}
	out.Competitors = dedupeFold(out.Competitors)
	out.NegativeKeywords = dedupeFold(append(out.NegativeKeywords, o.NegativeKeywords...))

	out = finalize(out, nil)
	for k, v := range o.Disambiguation {
		if out.Disambiguation == nil {
			out.Disambiguation = make(map[string]types.DisambiguationEntry)
		}
		out.Disambiguation[k] = v
	}
	return out
}
