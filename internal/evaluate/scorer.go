// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"

	"github.com/pdiddy/topic-scout/internal/llm"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// ErrMalformedResponse marks a scoring response that could not be decoded
// or carried no usable score.
var ErrMalformedResponse = errors.New("malformed scoring response")

// ScoreRequest is everything a scorer sees about one source.
type ScoreRequest struct {
	Topic   string
	Profile types.ContextProfile
	Result  types.SearchResult
	Excerpt string
	Priors  Priors
}

// ScoreResponse is a scorer's answer. Nil dimensions were missing from
// the response.
type ScoreResponse struct {
	Authenticity *float64
	Reliability  *float64
	Relevance    *float64
	Currency     *float64

	// Accept is the model's own draft verdict; the acceptance rule decides.
	Accept *bool

	Confidence string
	Reasoning  string
}

// Missing reports whether any dimension is absent.
func (r ScoreResponse) Missing() bool {
	return r.Authenticity == nil || r.Reliability == nil || r.Relevance == nil || r.Currency == nil
}

// Empty reports whether no dimension is present.
func (r ScoreResponse) Empty() bool {
	return r.Authenticity == nil && r.Reliability == nil && r.Relevance == nil && r.Currency == nil
}

// Scorer rates a source on the four quality dimensions.
type Scorer interface {
	Name() string
	Score(ctx context.Context, req ScoreRequest) (ScoreResponse, error)
}

// LLMScorer scores sources with a chat model.
type LLMScorer struct {
	name      string
	completer llm.Completer
	model     string
	maxTokens int
}

// NewLLMScorer returns a scorer named name ("cheap" or "strong") backed by
// model.
func NewLLMScorer(name string, completer llm.Completer, model string, maxTokens int) *LLMScorer {
	return &LLMScorer{name: name, completer: completer, model: model, maxTokens: maxTokens}
}

// Name returns the scorer's role.
func (s *LLMScorer) Name() string { return s.name }

const scoringSystem = "You are a research analyst grading sources for a strategy consulting team. " +
	"You answer with a single JSON object and nothing else."

var scoringPromptTmpl = template.Must(template.New("score").Parse(`Grade this source for the research topic.

Topic: {{.Topic}}
{{- with .Profile.Sector}}
Sector: {{.}}{{end}}
{{- with .Profile.Geography}}
Geography: {{range $i, $g := .}}{{if $i}}, {{end}}{{$g}}{{end}}{{end}}
{{- with .Profile.Competitors}}
Competitors of interest: {{range $i, $c := .}}{{if $i}}, {{end}}{{$c}}{{end}}{{end}}

URL: {{.Result.URL}}
Title: {{.Result.Title}}

Evidence:
{{.Excerpt}}

Heuristic hints (may be wrong):
- keyword overlap relevance: {{printf "%.1f" .Priors.Relevance}}/10
{{- if .Priors.Year}}
- most recent year mentioned: {{.Priors.Year}} (currency hint {{printf "%.1f" .Priors.Currency}}/10){{end}}

Score each dimension from 0 to 10:
- authenticity: is the publisher a genuine, identifiable organisation?
- reliability: is the content factual, sourced, and free of promotion?
- relevance: does the evidence address the topic in this sector and geography?
- currency: how recent is the information?

Reply with:
{"authenticity": n, "reliability": n, "relevance": n, "currency": n, "accept": true|false, "confidence": "high|medium|low|uncertain", "reasoning": "one sentence"}
`))

// Score renders the prompt, calls the model, and decodes its JSON.
func (s *LLMScorer) Score(ctx context.Context, req ScoreRequest) (ScoreResponse, error) {
	var buf bytes.Buffer
	if err := scoringPromptTmpl.Execute(&buf, req); err != nil {
		return ScoreResponse{}, fmt.Errorf("rendering scoring prompt: %w", err)
	}

	text, err := s.completer.Complete(ctx, llm.Request{
		Model:     s.model,
		System:    scoringSystem,
		Prompt:    buf.String(),
		MaxTokens: s.maxTokens,
		JSON:      true,
	})
	if err != nil {
		return ScoreResponse{}, fmt.Errorf("%s scorer: %w", s.name, err)
	}
	return parseScore(text)
}

type wireScore struct {
	Authenticity flexScore `json:"authenticity"`
	Reliability  flexScore `json:"reliability"`
	Relevance    flexScore `json:"relevance"`
	Currency     flexScore `json:"currency"`
	Accept       *bool     `json:"accept"`
	Confidence   string    `json:"confidence"`
	Reasoning    string    `json:"reasoning"`
}

// flexScore accepts 7, 7.5, "7", or "7/10". Anything else leaves it unset.
type flexScore struct {
	v *float64
}

func (f *flexScore) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.v = clamp(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	s, _, _ = strings.Cut(strings.TrimSpace(s), "/")
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		f.v = clamp(n)
	}
	return nil
}

func clamp(n float64) *float64 {
	if math.IsNaN(n) {
		return nil
	}
	n = math.Max(0, math.Min(10, n))
	return &n
}

func parseScore(text string) (ScoreResponse, error) {
	var w wireScore
	if err := llm.DecodeJSON(text, &w); err != nil {
		return ScoreResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	resp := ScoreResponse{
		Authenticity: w.Authenticity.v,
		Reliability:  w.Reliability.v,
		Relevance:    w.Relevance.v,
		Currency:     w.Currency.v,
		Accept:       w.Accept,
		Confidence:   strings.ToLower(strings.TrimSpace(w.Confidence)),
		Reasoning:    strings.TrimSpace(w.Reasoning),
	}
	if resp.Empty() {
		return resp, fmt.Errorf("%w: no scores in response", ErrMalformedResponse)
	}
	return resp, nil
}
