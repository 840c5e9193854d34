// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pdiddy/topic-scout/internal/cache"
	"github.com/pdiddy/topic-scout/internal/enrich"
	"github.com/pdiddy/topic-scout/internal/evaluate"
	"github.com/pdiddy/topic-scout/internal/gate"
	"github.com/pdiddy/topic-scout/internal/httputil"
	"github.com/pdiddy/topic-scout/internal/llm"
	"github.com/pdiddy/topic-scout/internal/metrics"
	"github.com/pdiddy/topic-scout/internal/profile"
	"github.com/pdiddy/topic-scout/internal/research"
	"github.com/pdiddy/topic-scout/internal/search"
	"github.com/pdiddy/topic-scout/internal/secrets"
	"github.com/pdiddy/topic-scout/internal/store"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// app holds the wired components for one CLI invocation.
type app struct {
	cfg      types.Config
	store    *store.Store
	cache    *cache.Verdicts
	runner   *research.Runner
	registry *prometheus.Registry
}

// newApp builds every component from cfg and the loaded secrets.
// sufficient may be nil.
func newApp(cfg types.Config, logger *zap.Logger, sufficient gate.Sufficiency) (*app, error) {
	var st *store.Store
	if cfg.Cache.Dir != "" {
		s, err := store.Open(cfg.Cache.Dir)
		if err != nil {
			return nil, err
		}
		st = s
	}

	registry := prometheus.NewRegistry()
	m := metrics.MustNewMetrics(registry)

	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	retry := httputil.Policy{Attempts: cfg.HTTP.RetryAttempts, BaseDelay: cfg.HTTP.RetryBaseDelay}

	tavily := &search.TavilyBackend{
		Client:    client,
		APIKey:    secrets.Resolve(loadedSecrets, secrets.TavilyAPIKey),
		UserAgent: cfg.HTTP.UserAgent,
		Retry:     retry,
	}
	exa := &search.ExaBackend{
		Client:    client,
		APIKey:    secrets.Resolve(loadedSecrets, secrets.ExaAPIKey),
		UserAgent: cfg.HTTP.UserAgent,
		Retry:     retry,
	}
	if tavily.APIKey == "" && exa.APIKey == "" {
		logger.Warn("no search API key configured; set tavily-api-key or exa-api-key")
	}
	orch := search.NewOrchestrator(cfg, tavily, exa, search.NewAvailability(), logger, m)

	chat := &llm.Client{
		APIKey: secrets.Resolve(loadedSecrets, secrets.OpenRouterAPIKey),
		Client: client,
		Retry:  retry,
	}
	var extractorLLM llm.Completer = chat
	if chat.APIKey == "" {
		logger.Warn("no scoring API key configured; non-authoritative sources will fail evaluation")
		extractorLLM = nil
	}
	cheap := evaluate.NewLLMScorer("triage", chat, cfg.AI.CheapModel, cfg.AI.MaxTokens)
	strong := evaluate.NewLLMScorer("escalation", chat, cfg.AI.StrongModel, cfg.AI.MaxTokens)
	verdicts := cache.New(cfg.Cache, st, logger)
	evaluator := evaluate.NewEvaluator(cfg, cheap, strong, verdicts, logger, m)

	var scraper enrich.Scraper
	if key := secrets.Resolve(loadedSecrets, secrets.FirecrawlAPIKey); key != "" {
		scraper = &enrich.FirecrawlClient{Client: client, APIKey: key, UserAgent: cfg.HTTP.UserAgent, Retry: retry}
	}

	deps := research.Deps{
		Profiles:  profile.NewExtractor(cfg.Profile, extractorLLM, cfg.AI.CheapModel, logger),
		Search:    orch,
		Evaluator: evaluator,
		Enricher:  enrich.New(cfg.Enrich, scraper, logger),
		Logger:    logger,
		Metrics:   m,

		Sufficiency: sufficient,
	}
	if st != nil {
		deps.Archive = st
	}

	return &app{
		cfg:      cfg,
		store:    st,
		cache:    verdicts,
		runner:   research.NewRunner(cfg, deps),
		registry: registry,
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
