// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich fetches full page content for accepted sources whose
// backend content is too short, or whose headline cites figures worth
// reading in full.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/topic-scout/internal/httputil"
	"github.com/pdiddy/topic-scout/internal/logging"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// firecrawlAPIURL is a package-level var so tests can substitute an
// httptest server.
var firecrawlAPIURL = "https://api.firecrawl.dev/v1/scrape"

// ErrEmptyPage is returned when a scrape succeeds but yields no text.
var ErrEmptyPage = errors.New("scrape returned no content")

// Scraper fetches the readable content of one page.
type Scraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// FirecrawlClient scrapes pages through the Firecrawl API.
type FirecrawlClient struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
	Retry     httputil.Policy
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
	Error string `json:"error"`
}

// Scrape returns the page at url as markdown.
func (c *FirecrawlClient) Scrape(ctx context.Context, url string) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("firecrawl API key not configured")
	}
	payload, err := json.Marshal(scrapeRequest{URL: url, Formats: []string{"markdown"}, OnlyMainContent: true})
	if err != nil {
		return "", fmt.Errorf("encoding scrape request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, firecrawlAPIURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.Retry.Do(ctx, c.Client, req)
	if err != nil {
		return "", fmt.Errorf("scraping %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("scraping %s: HTTP %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding scrape response: %w", err)
	}
	if !out.Success && out.Error != "" {
		return "", fmt.Errorf("scraping %s: %s", url, out.Error)
	}
	md := strings.TrimSpace(out.Data.Markdown)
	if md == "" {
		return "", ErrEmptyPage
	}
	return md, nil
}

// Enricher replaces short source content with scraped page content.
type Enricher struct {
	cfg     types.EnrichConfig
	scraper Scraper
	logger  *zap.Logger
}

// New returns an Enricher. A nil scraper or a disabled config makes
// Enrich a no-op.
func New(cfg types.EnrichConfig, scraper Scraper, logger *zap.Logger) *Enricher {
	return &Enricher{cfg: cfg, scraper: scraper, logger: logging.OrNop(logger)}
}

// Enrich scrapes up to MaxPages sources, ranked by candidates, and stores
// each page in Result.RawContent when it is longer than what the source
// already had. Output order matches the input. The scored excerpt is left
// untouched. A failed scrape keeps the existing content; only a cancelled
// context stops the pass early.
func (e *Enricher) Enrich(ctx context.Context, sources []types.AcceptedSource) []types.AcceptedSource {
	out := append([]types.AcceptedSource(nil), sources...)
	if e == nil || e.scraper == nil || !e.cfg.Enabled {
		return out
	}

	for _, i := range e.candidates(out) {
		if ctx.Err() != nil {
			break
		}
		page, err := e.scraper.Scrape(ctx, out[i].Result.URL)
		if err != nil {
			e.logger.Warn("enrichment failed, keeping backend content",
				zap.String("url", out[i].Result.URL), zap.Error(err))
			continue
		}
		if utf8.RuneCountInString(page) <= utf8.RuneCountInString(content(out[i])) {
			continue
		}
		out[i].Result.RawContent = page
		e.logger.Debug("source enriched",
			zap.String("url", out[i].Result.URL), zap.Int("chars", len(page)))
	}
	return out
}

// hardFacts matches figures, dates and regulatory references that make a
// full page worth fetching.
var hardFacts = regexp.MustCompile(`(?i)\d\s?%|[$€£]\s?\d|\bCAGR\b|\bregulation\b|\bdirective\b|\bISO\s\d+|\b10-K\b|\bannual report\b|\b(?:19|20)\d{2}\b`)

// HasHardFacts reports whether text cites figures or regulatory sources.
func HasHardFacts(text string) bool {
	return hardFacts.MatchString(text)
}

// candidates returns the indexes of sources to scrape, best first: short
// sources whose title or snippet cites hard facts, other short sources,
// then longer sources citing hard facts. At most MaxPages are returned.
func (e *Enricher) candidates(sources []types.AcceptedSource) []int {
	type candidate struct{ index, rank int }
	var cs []candidate
	for i, s := range sources {
		short := utf8.RuneCountInString(content(s)) < e.cfg.MinChars
		facts := HasHardFacts(s.Result.Title + " " + s.Result.Snippet)
		switch {
		case short && facts:
			cs = append(cs, candidate{i, 3})
		case short:
			cs = append(cs, candidate{i, 2})
		case facts:
			cs = append(cs, candidate{i, 1})
		}
	}
	sort.SliceStable(cs, func(a, b int) bool { return cs[a].rank > cs[b].rank })
	if e.cfg.MaxPages > 0 && len(cs) > e.cfg.MaxPages {
		cs = cs[:e.cfg.MaxPages]
	}
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.index
	}
	return out
}

func content(s types.AcceptedSource) string {
	if s.Result.RawContent != "" {
		return s.Result.RawContent
	}
	return s.Excerpt
}
