// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/topic-scout/internal/httputil"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// Backend is one web search provider. Search returns nil error only for a
// 200 response; every failure is a *BackendError or a context error.
type Backend interface {
	Name() types.Provider
	Search(ctx context.Context, req Request) ([]Hit, error)
}

// Request is a single backend query.
type Request struct {
	Query     string
	Depth     types.SearchDepth
	ResultCap int

	// IncludeDomains restricts results to these domains (layer 3).
	IncludeDomains []string
}

// Hit is one raw result as returned by a backend, before canonicalisation.
type Hit struct {
	URL        string
	Title      string
	Snippet    string
	RawContent string
	Score      float64
}

var errMissingKey = errors.New("API key not configured")

// postJSON sends body to endpoint and decodes a 200 response into out.
// Non-200 responses and transport failures come back classified.
func postJSON(ctx context.Context, p types.Provider, client *http.Client, retry httputil.Policy, endpoint string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", p, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", p, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := retry.Do(ctx, client, req)
	if err != nil {
		if httputil.IsCanceled(err) && ctx.Err() != nil {
			return ctx.Err()
		}
		return classifyTransport(p, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classifyStatus(p, resp.StatusCode, data)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &BackendError{Provider: p, Kind: KindMalformed, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
