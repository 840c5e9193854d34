// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topic-scout/internal/llm"
	"github.com/pdiddy/topic-scout/pkg/types"
)

type recordingCompleter struct {
	out string
	err error
	req llm.Request
}

func (c *recordingCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	c.req = req
	return c.out, c.err
}

func scoreRequest() ScoreRequest {
	return ScoreRequest{
		Topic: "ACS market position",
		Profile: types.ContextProfile{
			Sector:      "infrastructure",
			Geography:   []string{"Spain", "Europe"},
			Competitors: []string{"ACS", "Sacyr"},
		},
		Result:  types.SearchResult{URL: "https://a.com/acs", Title: "ACS backlog"},
		Excerpt: "ACS reported a record backlog.",
		Priors:  Priors{Relevance: 6.3, Year: 2025, Currency: 8},
	}
}

func TestLLMScorerPrompt(t *testing.T) {
	c := &recordingCompleter{out: `{"authenticity":8,"reliability":7,"relevance":9,"currency":6,"accept":true,"confidence":"High","reasoning":" fine "}`}
	s := NewLLMScorer("cheap", c, "cheap-model", 400)

	resp, err := s.Score(context.Background(), scoreRequest())
	require.NoError(t, err)

	assert.Equal(t, "cheap-model", c.req.Model)
	assert.Equal(t, 400, c.req.MaxTokens)
	assert.True(t, c.req.JSON)
	assert.Contains(t, c.req.Prompt, "Topic: ACS market position")
	assert.Contains(t, c.req.Prompt, "Geography: Spain, Europe")
	assert.Contains(t, c.req.Prompt, "Competitors of interest: ACS, Sacyr")
	assert.Contains(t, c.req.Prompt, "ACS reported a record backlog.")
	assert.Contains(t, c.req.Prompt, "keyword overlap relevance: 6.3/10")
	assert.Contains(t, c.req.Prompt, "most recent year mentioned: 2025")

	assert.Equal(t, 9.0, *resp.Relevance)
	assert.True(t, *resp.Accept)
	assert.Equal(t, "high", resp.Confidence)
	assert.Equal(t, "fine", resp.Reasoning)
	assert.False(t, resp.Missing())
}

func TestParseScoreLenient(t *testing.T) {
	text := "Here is my grade:\n```json\n{\"authenticity\": \"8/10\", \"reliability\": 12, \"relevance\": \"7\", \"currency\": null,}\n```"
	resp, err := parseScore(text)
	require.NoError(t, err)

	assert.Equal(t, 8.0, *resp.Authenticity)
	assert.Equal(t, 10.0, *resp.Reliability, "clamped")
	assert.Equal(t, 7.0, *resp.Relevance)
	assert.Nil(t, resp.Currency)
	assert.True(t, resp.Missing())
}

func TestParseScoreMalformed(t *testing.T) {
	for _, text := range []string{"no json here", `{"confidence":"low"}`} {
		_, err := parseScore(text)
		assert.ErrorIs(t, err, ErrMalformedResponse, text)
	}
}

func TestLLMScorerTransportError(t *testing.T) {
	c := &recordingCompleter{err: &llm.APIError{StatusCode: 500, Body: "down"}}
	_, err := NewLLMScorer("strong", c, "m", 0).Score(context.Background(), scoreRequest())

	var apiErr *llm.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "strong scorer")
}
