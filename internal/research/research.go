// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research drives the retrieval loop for one topic: extract the
// context profile, build query variants, search, filter and rerank,
// evaluate, and let the quality gate decide whether to retry.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/topic-scout/internal/evaluate"
	"github.com/pdiddy/topic-scout/internal/gate"
	"github.com/pdiddy/topic-scout/internal/logging"
	"github.com/pdiddy/topic-scout/internal/metrics"
	"github.com/pdiddy/topic-scout/internal/profile"
	"github.com/pdiddy/topic-scout/internal/query"
	"github.com/pdiddy/topic-scout/internal/rerank"
	"github.com/pdiddy/topic-scout/internal/search"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// ErrEmptyTopic is returned by Run for a blank topic.
var ErrEmptyTopic = errors.New("topic is empty")

// ProfileSource builds the context profile for a run.
type ProfileSource interface {
	Extract(ctx context.Context, text string) types.ContextProfile
}

// Enricher fetches fuller content for accepted sources.
type Enricher interface {
	Enrich(ctx context.Context, sources []types.AcceptedSource) []types.AcceptedSource
}

// Archive persists finished runs.
type Archive interface {
	SaveRun(ctx context.Context, res types.ResearchResult, at time.Time) error
}

// Request is one topic to research.
type Request struct {
	Topic string

	// Context is the free-text project context; it may be empty.
	Context string

	// Override corrects the extracted profile.
	Override *profile.Override
}

// Deps are the collaborators a Runner needs. Search and Evaluator are
// required; everything else may be nil.
type Deps struct {
	Profiles  ProfileSource
	Search    *search.Orchestrator
	Evaluator *evaluate.Evaluator
	Enricher  Enricher
	Archive   Archive

	// Sufficiency replaces gate.Default.
	Sufficiency gate.Sufficiency

	Weights *rerank.Weights
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Runner executes research runs. It is safe for concurrent use; runs
// share the verdict cache, the backend availability registry, and the
// metrics held by its collaborators.
type Runner struct {
	cfg        types.Config
	profiles   ProfileSource
	search     *search.Orchestrator
	evaluator  *evaluate.Evaluator
	enricher   Enricher
	archive    Archive
	sufficient gate.Sufficiency
	weights    rerank.Weights
	logger     *zap.Logger
	metrics    *metrics.Metrics

	// now and newID are replaced in tests.
	now   func() time.Time
	newID func() string
}

// NewRunner returns a Runner for cfg.
func NewRunner(cfg types.Config, d Deps) *Runner {
	w := rerank.DefaultWeights
	if d.Weights != nil {
		w = *d.Weights
	}
	suff := d.Sufficiency
	if suff == nil {
		suff = gate.Default
	}
	return &Runner{
		cfg:        cfg,
		profiles:   d.Profiles,
		search:     d.Search,
		evaluator:  d.Evaluator,
		enricher:   d.Enricher,
		archive:    d.Archive,
		sufficient: suff,
		weights:    w,
		logger:     logging.OrNop(d.Logger),
		metrics:    d.Metrics,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Run researches one topic. It returns an error only for an empty topic,
// when no search backend is usable on the first iteration, or when ctx is
// cancelled. Every other failure degrades the result instead.
func (r *Runner) Run(ctx context.Context, req Request) (types.ResearchResult, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return types.ResearchResult{}, ErrEmptyTopic
	}
	logger := r.logger.With(zap.String("topic", topic))

	p := r.profile(ctx, req)
	logger.Debug("context profile",
		zap.String("sector", p.Sector),
		zap.Strings("geography", p.Geography),
		zap.Strings("competitors", p.Competitors),
		zap.String("client", p.ClientCompany))

	session := r.search.NewRun()
	var (
		prev      types.GateDecision
		decisions []types.GateDecision
	)
	for {
		variants := query.Build(topic, p, prev.StrategyHint, r.cfg.Search.MaxVariants)
		if max := r.cfg.Search.MaxSearchQueries; max > 0 && len(variants) > max {
			variants = variants[:max]
		}

		out, err := session.Search(ctx, variants)
		if err != nil {
			if errors.Is(err, search.ErrNoBackends) && len(decisions) > 0 {
				last := gate.Exhaust(decisions[len(decisions)-1])
				decisions[len(decisions)-1] = last
				logger.Warn("no search backend left, stopping early",
					zap.Int("iteration", last.Iteration))
				break
			}
			return types.ResearchResult{}, fmt.Errorf("searching %q: %w", topic, err)
		}

		ranked := rerank.Apply(topic, out.Results, p, r.weights)
		if len(ranked.Dropped) > 0 {
			logger.Debug("results filtered", zap.Int("dropped", len(ranked.Dropped)))
		}
		fresh := excludeAccepted(ranked.Results, prev.AcceptedSources)

		evals, err := r.evaluator.EvaluateAll(ctx, topic, p, fresh)
		if err != nil {
			return types.ResearchResult{}, err
		}

		d := gate.Decide(prev, batchOf(variants, out.RawCount, evals), r.cfg.Gate, r.sufficient)
		decisions = append(decisions, d)
		r.metrics.ObserveGate(string(d.NextAction))
		logger.Info("iteration complete",
			zap.Int("iteration", d.Iteration),
			zap.Strings("variants", d.Stats.Variants),
			zap.Int("raw_results", d.Stats.RawResults),
			zap.Int("evaluated", d.Stats.Evaluated),
			zap.Int("accepted", d.Stats.Accepted),
			zap.Int("elite_sources", d.Stats.EliteSources),
			zap.Any("rejections", d.Stats.Rejections),
			zap.Int("quality_issues", len(d.Stats.Issues)),
			zap.String("next_action", string(d.NextAction)),
			zap.String("hint", string(d.StrategyHint)))

		if d.NextAction.Terminal() {
			break
		}
		prev = d
	}

	last := decisions[len(decisions)-1]
	sources := last.AcceptedSources
	if r.enricher != nil {
		sources = r.enricher.Enrich(ctx, sources)
	}

	res := types.ResearchResult{
		RunID:             r.newID(),
		Topic:             topic,
		Profile:           p,
		AcceptedSources:   sources,
		SufficiencyStatus: gate.Status(last),
		Confidence:        gate.Confidence(sources),
		Assessment:        gate.Assess(sources, r.cfg.Gate),
		Iterations:        decisions,
	}
	r.metrics.ObserveRun(len(sources))

	if r.archive != nil {
		if err := r.archive.SaveRun(ctx, res, r.now().UTC()); err != nil {
			logger.Warn("archiving run failed", zap.String("run_id", res.RunID), zap.Error(err))
		}
	}

	logger.Info("research complete",
		zap.String("run_id", res.RunID),
		zap.String("status", string(res.SufficiencyStatus)),
		zap.Float64("confidence", res.Confidence),
		zap.String("confidence_level", string(res.Assessment.Level)),
		zap.Int("accepted", len(sources)),
		zap.Int("iterations", len(decisions)))
	return res, nil
}

func (r *Runner) profile(ctx context.Context, req Request) types.ContextProfile {
	var p types.ContextProfile
	if r.profiles != nil {
		p = r.profiles.Extract(ctx, req.Context)
	} else {
		p = profile.FromPatterns(req.Context)
	}
	if req.Override != nil {
		p = req.Override.Apply(p)
	}
	return p
}

// excludeAccepted drops results already accepted in an earlier iteration
// so they are not scored again.
func excludeAccepted(results []types.SearchResult, accepted []types.AcceptedSource) []types.SearchResult {
	if len(accepted) == 0 {
		return results
	}
	seen := make(map[string]bool, len(accepted))
	for _, a := range accepted {
		seen[a.Result.URL] = true
	}
	out := make([]types.SearchResult, 0, len(results))
	for _, res := range results {
		if !seen[res.URL] {
			out = append(out, res)
		}
	}
	return out
}

func batchOf(variants []types.QueryVariant, raw int, evals []evaluate.Evaluation) gate.Batch {
	b := gate.Batch{RawResults: raw}
	for _, v := range variants {
		b.Variants = append(b.Variants, v.Text)
	}
	for _, ev := range evals {
		b.Scored = append(b.Scored, gate.Scored{Result: ev.Result, Verdict: ev.Verdict, Excerpt: ev.Excerpt})
	}
	return b
}
