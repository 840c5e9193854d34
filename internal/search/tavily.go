// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"

	"github.com/pdiddy/topic-scout/internal/httputil"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// tavilyAPIURL is the Tavily search endpoint. Declared as a var so tests
// can substitute an httptest server.
var tavilyAPIURL = "https://api.tavily.com/search"

// TavilyBackend is the primary general-purpose web search backend.
type TavilyBackend struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
	Retry     httputil.Policy
}

// Name returns the backend identifier.
func (b *TavilyBackend) Name() types.Provider { return types.ProviderTavily }

// Search runs one Tavily query with raw page content included.
func (b *TavilyBackend) Search(ctx context.Context, req Request) ([]Hit, error) {
	if b.APIKey == "" {
		return nil, &BackendError{Provider: b.Name(), Kind: KindPermanent, Err: errMissingKey}
	}

	body := tavilyRequest{
		Query:             req.Query,
		SearchDepth:       string(req.Depth),
		MaxResults:        req.ResultCap,
		IncludeRawContent: true,
		IncludeDomains:    req.IncludeDomains,
	}
	if body.SearchDepth == "" {
		body.SearchDepth = string(types.DepthBasic)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+b.APIKey)
	if b.UserAgent != "" {
		header.Set("User-Agent", b.UserAgent)
	}

	var tr tavilyResponse
	if err := postJSON(ctx, b.Name(), b.Client, b.Retry, tavilyAPIURL, header, body, &tr); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(tr.Results))
	for _, r := range tr.Results {
		if r.URL == "" {
			continue
		}
		hits = append(hits, Hit{
			URL:        r.URL,
			Title:      r.Title,
			Snippet:    r.Content,
			RawContent: r.RawContent,
			Score:      r.Score,
		})
	}
	return hits, nil
}

// Tavily API JSON structures.
type tavilyRequest struct {
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	MaxResults        int      `json:"max_results,omitempty"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content"`
	Score      float64 `json:"score"`
}
