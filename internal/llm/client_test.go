// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topic-scout/internal/httputil"
)

func withServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	old := chatCompletionsURL
	chatCompletionsURL = ts.URL
	t.Cleanup(func() {
		chatCompletionsURL = old
		ts.Close()
	})
	return ts
}

func TestCompleteSendsRequest(t *testing.T) {
	var got chatRequest
	var auth string
	ts := withServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`)
	})

	c := &Client{APIKey: "k", Client: ts.Client()}
	out, err := c.Complete(context.Background(), Request{
		Model: "cheap", System: "sys", Prompt: "hi", MaxTokens: 50, JSON: true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "Bearer k", auth)
	assert.Equal(t, "cheap", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hi", got.Messages[1].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestCompleteMissingKey(t *testing.T) {
	_, err := (&Client{}).Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCompleteAPIError(t *testing.T) {
	ts := withServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	})

	c := &Client{APIKey: "k", Client: ts.Client()}
	_, err := c.Complete(context.Background(), Request{Prompt: "x"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad key")
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	calls := 0
	ts := withServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"done"}}]}`)
	})

	c := &Client{APIKey: "k", Client: ts.Client(), Retry: httputil.Policy{Attempts: 3, BaseDelay: time.Millisecond}}
	out, err := c.Complete(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, 2, calls)
}

func TestCompleteEmptyChoices(t *testing.T) {
	ts := withServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})

	c := &Client{APIKey: "k", Client: ts.Client()}
	_, err := c.Complete(context.Background(), Request{Prompt: "x"})
	assert.ErrorContains(t, err, "empty content")
}
