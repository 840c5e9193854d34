// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs query variants through layered web search backends
// and returns one deduplicated result set per iteration.
//
// Layer 1 is the primary keyword backend. Layer 2, the semantic backend,
// runs only when layer 1 comes back thin or without an elite domain, and
// layer 3 repeats the variants restricted to the elite domain list when
// the merged set is still insufficient. Backend failures never abort a
// search: they disable the backend for the run, or for the whole process
// when its quota is exhausted.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/topic-scout/internal/logging"
	"github.com/pdiddy/topic-scout/internal/metrics"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// Orchestrator owns the backends and the process-wide availability
// registry. It is safe for concurrent use by several topic runs.
type Orchestrator struct {
	cfg      types.Config
	primary  Backend
	semantic Backend
	avail    *Availability
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewOrchestrator returns an Orchestrator. Either backend may be nil when
// its provider is not configured; avail may be nil for a private registry.
func NewOrchestrator(cfg types.Config, primary, semantic Backend, avail *Availability, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	if avail == nil {
		avail = NewAvailability()
	}
	return &Orchestrator{
		cfg:      cfg,
		primary:  primary,
		semantic: semantic,
		avail:    avail,
		logger:   logging.OrNop(logger),
		metrics:  m,
	}
}

// Availability returns the registry shared by every run.
func (o *Orchestrator) Availability() *Availability { return o.avail }

// Run scopes backend failures to one topic: a backend that stays
// unavailable after retries is skipped for the rest of that topic only.
type Run struct {
	o     *Orchestrator
	state *runState
}

// NewRun starts a topic-scoped search session.
func (o *Orchestrator) NewRun() *Run {
	return &Run{o: o, state: newRunState()}
}

// Output is the merged result of one Search call.
type Output struct {
	// Results are unique by canonical URL, in first-seen order.
	Results []types.SearchResult

	// RawCount is the number of hits returned by every backend call,
	// before deduplication.
	RawCount int

	// Layers lists the layers that issued at least one call.
	Layers []types.Layer

	BackendErrors []string
}

// Search issues variants (truncated to the configured query cap) through
// the layers and returns the merged results. The only errors are
// ErrNoBackends, when no backend can be called at all, and context
// cancellation.
func (r *Run) Search(ctx context.Context, variants []types.QueryVariant) (Output, error) {
	o := r.o
	if max := o.cfg.Search.MaxSearchQueries; max > 0 && len(variants) > max {
		variants = variants[:max]
	}
	if !r.usable(o.primary) && !r.usable(o.semantic) {
		return Output{}, ErrNoBackends
	}
	if len(variants) == 0 {
		return Output{}, nil
	}

	set := newMergeSet(o.cfg.EliteDomains, o.cfg.BlockedDomains)
	var out Output

	if r.usable(o.primary) {
		out.Layers = append(out.Layers, types.LayerPrimary)
		reqs := r.standardRequests(variants)
		if err := r.runLayer(ctx, o.primary, types.LayerPrimary, reqs, set, &out); err != nil {
			return Output{}, err
		}
	}

	if r.insufficient(set) && r.usable(o.semantic) {
		out.Layers = append(out.Layers, types.LayerSemantic)
		reqs := r.standardRequests(variants)
		if err := r.runLayer(ctx, o.semantic, types.LayerSemantic, reqs, set, &out); err != nil {
			return Output{}, err
		}
	}

	if r.insufficient(set) {
		if b := r.firstUsable(); b != nil {
			if reqs := r.eliteRequests(variants); len(reqs) > 0 {
				out.Layers = append(out.Layers, types.LayerElite)
				if err := r.runLayer(ctx, b, types.LayerElite, reqs, set, &out); err != nil {
					return Output{}, err
				}
			}
		}
	}

	out.Results = set.results
	out.RawCount = set.raw
	return out, nil
}

// layerRequest pairs a backend request with the variant text it came from.
type layerRequest struct {
	variant string
	req     Request
}

func (r *Run) standardRequests(variants []types.QueryVariant) []layerRequest {
	cfg := r.o.cfg.Search
	reqs := make([]layerRequest, len(variants))
	for i, v := range variants {
		reqs[i] = layerRequest{
			variant: v.Text,
			req:     Request{Query: v.Text, Depth: cfg.Depth, ResultCap: cfg.ResultCap},
		}
	}
	return reqs
}

// eliteRequests restricts each variant to its own slice of the elite and
// premium domains so successive queries cover different sites.
func (r *Run) eliteRequests(variants []types.QueryVariant) []layerRequest {
	cfg := r.o.cfg.Search
	names := r.o.cfg.EliteDomains.Names(types.TierPremium)
	per := cfg.EliteDomainsPerQuery
	if len(names) == 0 || per <= 0 {
		return nil
	}
	if per > len(names) {
		per = len(names)
	}

	reqs := make([]layerRequest, len(variants))
	for i, v := range variants {
		domains := make([]string, per)
		for j := range domains {
			domains[j] = names[(i*per+j)%len(names)]
		}
		reqs[i] = layerRequest{
			variant: v.Text,
			req: Request{
				Query:          v.Text + " " + siteClause(domains),
				Depth:          cfg.Depth,
				ResultCap:      cfg.EliteResultCap,
				IncludeDomains: domains,
			},
		}
	}
	return reqs
}

func siteClause(domains []string) string {
	parts := make([]string, len(domains))
	for i, d := range domains {
		parts[i] = "site:" + d
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// runLayer issues reqs concurrently and merges the hits in request order
// once every call has finished.
func (r *Run) runLayer(ctx context.Context, b Backend, layer types.Layer, reqs []layerRequest, set *mergeSet, out *Output) error {
	o := r.o
	slots := make([][]Hit, len(reqs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if n := o.cfg.Search.Parallelism; n > 0 {
		g.SetLimit(n)
	}
	for i, lr := range reqs {
		g.Go(func() error {
			if !r.usable(b) {
				return nil
			}
			hits, err := b.Search(gctx, lr.req)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				o.metrics.ObserveSearch(string(b.Name()), string(layer), string(kindOf(err)))
				r.handleFailure(b.Name(), layer, lr.variant, err)
				mu.Lock()
				out.BackendErrors = append(out.BackendErrors, fmt.Sprintf("%s/%s: %v", layer, b.Name(), err))
				mu.Unlock()
				return nil
			}
			o.metrics.ObserveSearch(string(b.Name()), string(layer), "ok")
			slots[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, hits := range slots {
		set.add(b.Name(), layer, reqs[i].variant, hits)
	}
	o.logger.Debug("search layer complete",
		zap.String("layer", string(layer)),
		zap.String("provider", string(b.Name())),
		zap.Int("queries", len(reqs)),
		zap.Int("results", len(set.results)))
	return nil
}

// handleFailure disables the backend according to the failure class.
func (r *Run) handleFailure(p types.Provider, layer types.Layer, query string, err error) {
	o := r.o
	var be *BackendError
	errors.As(err, &be)

	switch {
	case errors.Is(err, ErrQuotaExhausted):
		if o.avail.Disable(p, err.Error()) {
			o.logger.Error("search backend quota exhausted, disabled for the rest of the process",
				zap.String("provider", string(p)), zap.Error(err))
			o.metrics.BackendDisabled(string(p), "process")
		}
	case errors.Is(err, ErrBackendUnavailable),
		be != nil && (be.StatusCode == 401 || be.StatusCode == 403 || errors.Is(be.Err, errMissingKey)):
		if r.state.disable(p) {
			o.logger.Warn("search backend unavailable, disabled for this run",
				zap.String("provider", string(p)),
				zap.String("layer", string(layer)),
				zap.Error(err))
			o.metrics.BackendDisabled(string(p), "run")
		}
	default:
		o.logger.Warn("search request rejected",
			zap.String("provider", string(p)),
			zap.String("query", query),
			zap.Error(err))
	}
}

func (r *Run) usable(b Backend) bool {
	if b == nil {
		return false
	}
	p := b.Name()
	return r.o.avail.Available(p) && !r.state.isDown(p)
}

func (r *Run) firstUsable() Backend {
	for _, b := range []Backend{r.o.primary, r.o.semantic} {
		if r.usable(b) {
			return b
		}
	}
	return nil
}

func (r *Run) insufficient(set *mergeSet) bool {
	return len(set.results) < r.o.cfg.Search.MinLayerResults || !set.hasAuthoritative()
}

// mergeSet accumulates results keyed by canonical URL.
type mergeSet struct {
	elite   types.EliteDomains
	blocked types.BlockedDomains
	index   map[string]int
	results []types.SearchResult
	raw     int
}

func newMergeSet(elite types.EliteDomains, blocked types.BlockedDomains) *mergeSet {
	return &mergeSet{elite: elite, blocked: blocked, index: make(map[string]int)}
}

// add merges hits from one call. A URL already present keeps its
// first-seen title and snippet; when another provider returns it the
// provider becomes merged and missing fields are filled in.
func (m *mergeSet) add(p types.Provider, layer types.Layer, query string, hits []Hit) {
	for _, h := range hits {
		m.raw++
		key, err := CanonicalURL(h.URL)
		if err != nil {
			continue
		}
		if idx, ok := m.index[key]; ok {
			r := &m.results[idx]
			if r.Provider != p {
				r.Provider = types.ProviderMerged
			}
			if r.Title == "" {
				r.Title = strings.TrimSpace(h.Title)
			}
			if r.Snippet == "" {
				r.Snippet = strings.TrimSpace(h.Snippet)
			}
			if r.RawContent == "" {
				r.RawContent = h.RawContent
			}
			continue
		}
		m.index[key] = len(m.results)
		m.results = append(m.results, types.SearchResult{
			URL:        key,
			Title:      strings.TrimSpace(h.Title),
			Snippet:    strings.TrimSpace(h.Snippet),
			RawContent: h.RawContent,
			Provider:   p,
			Layer:      layer,
			Tier:       m.elite.TierOf(key),
			Rank:       len(m.results) + 1,
			Query:      query,
		})
	}
}

// hasAuthoritative reports whether any usable result comes from an elite
// or premium domain. Blocked URLs never count.
func (m *mergeSet) hasAuthoritative() bool {
	for _, r := range m.results {
		if r.Tier.Authoritative() && !m.blocked.Match(r.URL) {
			return true
		}
	}
	return false
}
