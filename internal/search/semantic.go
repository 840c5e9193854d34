// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"strings"

	"github.com/pdiddy/topic-scout/internal/httputil"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// exaAPIURL is the Exa search endpoint. Declared as a var so tests can
// substitute an httptest server.
var exaAPIURL = "https://api.exa.ai/search"

// exaTextChars bounds the page text Exa returns per result.
const exaTextChars = 8000

// ExaBackend is the semantic (embedding-based) search backend used when
// keyword search comes back thin.
type ExaBackend struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
	Retry     httputil.Policy
}

// Name returns the backend identifier.
func (b *ExaBackend) Name() types.Provider { return types.ProviderExa }

// Search runs one neural Exa query with page text and highlights.
func (b *ExaBackend) Search(ctx context.Context, req Request) ([]Hit, error) {
	if b.APIKey == "" {
		return nil, &BackendError{Provider: b.Name(), Kind: KindPermanent, Err: errMissingKey}
	}

	body := exaRequest{
		Query:          req.Query,
		Type:           "neural",
		NumResults:     req.ResultCap,
		IncludeDomains: req.IncludeDomains,
		Contents: exaContents{
			Text:       &exaText{MaxCharacters: exaTextChars},
			Highlights: &exaHighlights{NumSentences: 3, HighlightsPerURL: 2},
		},
	}
	// Basic depth skips highlight extraction.
	if req.Depth == types.DepthBasic {
		body.Contents.Highlights = nil
	}
	header := http.Header{}
	header.Set("x-api-key", b.APIKey)
	if b.UserAgent != "" {
		header.Set("User-Agent", b.UserAgent)
	}

	var er exaResponse
	if err := postJSON(ctx, b.Name(), b.Client, b.Retry, exaAPIURL, header, body, &er); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(er.Results))
	for _, r := range er.Results {
		if r.URL == "" {
			continue
		}
		snippet := strings.Join(r.Highlights, " ")
		if snippet == "" {
			snippet = firstChars(r.Text, 300)
		}
		hits = append(hits, Hit{
			URL:        r.URL,
			Title:      r.Title,
			Snippet:    snippet,
			RawContent: r.Text,
			Score:      r.Score,
		})
	}
	return hits, nil
}

func firstChars(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Exa API JSON structures.
type exaRequest struct {
	Query          string      `json:"query"`
	Type           string      `json:"type"`
	NumResults     int         `json:"numResults,omitempty"`
	IncludeDomains []string    `json:"includeDomains,omitempty"`
	Contents       exaContents `json:"contents"`
}

type exaContents struct {
	Text       *exaText       `json:"text,omitempty"`
	Highlights *exaHighlights `json:"highlights,omitempty"`
}

type exaText struct {
	MaxCharacters int `json:"maxCharacters"`
}

type exaHighlights struct {
	NumSentences     int `json:"numSentences"`
	HighlightsPerURL int `json:"highlightsPerUrl"`
}

type exaResponse struct {
	RequestID string      `json:"requestId"`
	Results   []exaResult `json:"results"`
}

type exaResult struct {
	ID            string   `json:"id"`
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Score         float64  `json:"score"`
	PublishedDate string   `json:"publishedDate"`
	Text          string   `json:"text"`
	Highlights    []string `json:"highlights"`
}
