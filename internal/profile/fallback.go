// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/topic-scout/internal/llm"
	"github.com/pdiddy/topic-scout/pkg/types"
)

const (
	sampleChars       = 6000
	sampleLeadChars   = 1000
	sampleBeforeChars = 2000
	sampleAfterChars  = 4000

	maxGeography   = 8
	maxCompetitors = 25
	maxNegatives   = 30
)

var extractionPromptTmpl = template.Must(template.New("profile").Parse(`Analyze this project context document and extract structured information.

Return a JSON object with exactly these fields:
{
  "sector": "defense|infrastructure|energy|technology|healthcare|other",
  "geography": ["relevant countries or regions"],
  "client_company": "main company the project is for",
  "competitors": ["every company named as a competitor or peer"],
  "negative_keywords": ["terms from unrelated fields that should be filtered out"]
}

Look for sections titled competitors, peer set, or competition, including tables and lists separated by semicolons.
Do not include any text outside the JSON object.

Document:
{{.Sample}}
`))

// stringList decodes either a JSON string or an array of strings. Null
// and null elements are skipped; any other shape is an error.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var one *string
	if err := json.Unmarshal(b, &one); err == nil {
		if one != nil && strings.TrimSpace(*one) != "" {
			*l = stringList{strings.TrimSpace(*one)}
		}
		return nil
	}
	var many []*string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("expected a string or a list of strings, got %s", truncate(b, 40))
	}
	for _, v := range many {
		if v != nil && strings.TrimSpace(*v) != "" {
			*l = append(*l, strings.TrimSpace(*v))
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

type llmProfile struct {
	Sector           string     `json:"sector"`
	Geography        stringList `json:"geography"`
	ClientCompany    string     `json:"client_company"`
	Competitors      stringList `json:"competitors"`
	NegativeKeywords stringList `json:"negative_keywords"`
}

func (e *Extractor) fromLLM(ctx context.Context, text string) (types.ContextProfile, error) {
	var buf bytes.Buffer
	if err := extractionPromptTmpl.Execute(&buf, struct{ Sample string }{sampleText(text)}); err != nil {
		return types.ContextProfile{}, fmt.Errorf("rendering prompt: %w", err)
	}

	out, err := e.llm.Complete(ctx, llm.Request{
		Model:     e.model,
		Prompt:    buf.String(),
		MaxTokens: 1000,
		JSON:      true,
	})
	if err != nil {
		return types.ContextProfile{}, fmt.Errorf("calling model: %w", err)
	}

	var lp llmProfile
	if err := llm.DecodeJSON(out, &lp); err != nil {
		return types.ContextProfile{}, err
	}
	return validateLLMProfile(lp), nil
}

// validateLLMProfile normalises model output and rebuilds the derived
// fields with the same rules the pattern path uses.
func validateLLMProfile(lp llmProfile) types.ContextProfile {
	sector := strings.ToLower(strings.TrimSpace(lp.Sector))
	if sector != "" && !allowedSectors[sector] {
		sector = "other"
	}

	client := strings.TrimSpace(lp.ClientCompany)
	if client != "" {
		client = canonicalName(client)
	}

	var competitors []string
	for _, c := range lp.Competitors {
		c = canonicalName(strings.TrimSpace(c))
		if !strings.EqualFold(c, client) {
			competitors = append(competitors, c)
		}
	}

	p := types.ContextProfile{
		Sector:           sector,
		Geography:        limit(dedupeFold(lp.Geography), maxGeography),
		ClientCompany:    client,
		Competitors:      limit(dedupeFold(competitors), maxCompetitors),
		NegativeKeywords: limit(dedupeFold(lp.NegativeKeywords), maxNegatives),
	}
	return finalize(p, nil)
}

// sampleText bounds the prompt. When the document has a competitor
// section, the sample centres on it and keeps the document opening.
func sampleText(text string) string {
	lower := strings.ToLower(text)
	start := -1
	for _, marker := range []string{"competitors", "peer set", "competition"} {
		if i := strings.Index(lower, marker); i >= 0 {
			start = i
			break
		}
	}
	if start < 0 {
		if len(text) > sampleChars {
			return text[:sampleChars]
		}
		return text
	}

	from := max(0, start-sampleBeforeChars)
	to := min(len(text), start+sampleAfterChars)
	sample := text[from:to]
	if from > 0 {
		sample = text[:min(sampleLeadChars, from)] + "\n\n[...]\n\n" + sample
	}
	return sample
}

func limit(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
