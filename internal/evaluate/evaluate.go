// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate scores candidate sources and decides which ones are
// accepted.
//
// Each source takes one path: blocked domains are rejected outright,
// elite and premium domains are fast-tracked with fixed scores, and
// everything else is triaged by a cheap scorer. A triage result that
// fails ShouldEscalate's checks goes once to a strong scorer. Verdicts are
// cached by canonical URL and evidence hash.
package evaluate

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/topic-scout/internal/logging"
	"github.com/pdiddy/topic-scout/internal/metrics"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// Fixed relevance and currency given to fast-tracked sources.
const (
	fastTrackRelevance = 9
	fastTrackCurrency  = 8
)

// VerdictCache stores final verdicts. Implementations must be safe for
// concurrent use.
type VerdictCache interface {
	Get(ctx context.Context, key string) (types.EvaluationVerdict, bool)
	Put(ctx context.Context, key string, v types.EvaluationVerdict)
}

// CacheKey is the verdict cache key for a source and its evidence.
func CacheKey(url, excerptHash string) string {
	return url + "|" + excerptHash
}

// Evaluation is a verdict plus the evidence it was computed on.
type Evaluation struct {
	Result  types.SearchResult
	Verdict types.EvaluationVerdict
	Excerpt string
	Cached  bool
}

// Evaluator scores sources. It is safe for concurrent use.
type Evaluator struct {
	cfg     types.Config
	cheap   Scorer
	strong  Scorer
	cache   VerdictCache
	logger  *zap.Logger
	metrics *metrics.Metrics

	// now is replaced in tests.
	now func() time.Time
}

// NewEvaluator returns an Evaluator. strong and cache may be nil.
func NewEvaluator(cfg types.Config, cheap, strong Scorer, cache VerdictCache, logger *zap.Logger, m *metrics.Metrics) *Evaluator {
	return &Evaluator{
		cfg:     cfg,
		cheap:   cheap,
		strong:  strong,
		cache:   cache,
		logger:  logging.OrNop(logger),
		metrics: m,
		now:     time.Now,
	}
}

// EvaluateAll evaluates results concurrently, bounded by the configured
// parallelism, and returns evaluations in input order. It fails only when
// ctx is cancelled, in which case nothing from the batch is returned.
func (e *Evaluator) EvaluateAll(ctx context.Context, topic string, p types.ContextProfile, results []types.SearchResult) ([]Evaluation, error) {
	out := make([]Evaluation, len(results))
	g, gctx := errgroup.WithContext(ctx)
	if n := e.cfg.Evaluation.Parallelism; n > 0 {
		g.SetLimit(n)
	}
	for i, r := range results {
		g.Go(func() error {
			ev, err := e.Evaluate(gctx, topic, p, r)
			if err != nil {
				return err
			}
			out[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate produces the verdict for one result. The only error is context
// cancellation; scoring failures become evaluation_failed verdicts.
func (e *Evaluator) Evaluate(ctx context.Context, topic string, p types.ContextProfile, r types.SearchResult) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}

	excerpt := Excerpt(topic, r, e.cfg.Evaluation.ExcerptChars)
	hash := ExcerptHash(excerpt)
	ev := Evaluation{Result: r, Excerpt: excerpt}
	base := types.EvaluationVerdict{URL: r.URL, ExcerptHash: hash, EvaluatedAt: e.now().UTC()}

	if e.cfg.BlockedDomains.Match(r.URL) {
		v := base
		v.Stage = types.StageBlockedDomain
		v.RejectionReason = types.RejectBlockedDomain
		ev.Verdict = v
		e.metrics.ObserveVerdict(string(v.Stage), false)
		return ev, nil
	}

	if entry, ok := e.cfg.EliteDomains.Lookup(r.URL); ok && entry.Tier.Authoritative() {
		v := base
		v.Scores = types.Scores{
			Authenticity: entry.Authenticity,
			Reliability:  entry.Reliability,
			Relevance:    fastTrackRelevance,
			Currency:     fastTrackCurrency,
		}
		v.TotalScore = v.Scores.Total()
		v.Accepted = true
		v.Stage = types.StageFastTracked
		v.Reasoning = "authoritative domain " + entry.Domain
		ev.Verdict = v
		e.metrics.ObserveVerdict(string(v.Stage), true)
		return ev, nil
	}

	key := CacheKey(r.URL, hash)
	if e.cache != nil {
		if v, ok := e.cache.Get(ctx, key); ok {
			e.metrics.ObserveCache(true)
			ev.Verdict = v
			ev.Cached = true
			return ev, nil
		}
		e.metrics.ObserveCache(false)
	}

	req := ScoreRequest{
		Topic:   topic,
		Profile: p,
		Result:  r,
		Excerpt: excerpt,
		Priors:  ComputePriors(topic, r, excerpt, e.now()),
	}
	v, err := e.score(ctx, req, base)
	if err != nil {
		return Evaluation{}, err
	}
	ev.Verdict = v
	e.metrics.ObserveVerdict(string(v.Stage), v.Accepted)

	if e.cache != nil && v.Stage != types.StageFailed {
		e.cache.Put(ctx, key, v)
	}
	return ev, nil
}

// score runs triage and, when ShouldEscalate says so, the strong scorer.
func (e *Evaluator) score(ctx context.Context, req ScoreRequest, v types.EvaluationVerdict) (types.EvaluationVerdict, error) {
	final, err := e.call(ctx, e.cheap, req)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return v, ctxErr
	}
	v.Stage = types.StageTriaged

	if ShouldEscalate(final, err, PolicyFrom(e.cfg.Evaluation)) && e.strong != nil {
		v.Escalated = true
		strong, serr := e.call(ctx, e.strong, req)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return v, ctxErr
		}
		switch {
		case serr == nil:
			final, err = strong, nil
			v.Stage = types.StageEscalated
		case err == nil || !final.Empty():
			e.logger.Debug("strong scorer failed, keeping triage scores",
				zap.String("url", req.Result.URL), zap.Error(serr))
			err = nil
		default:
			err = errors.Join(err, serr)
		}
	}

	scores, ok := Backfill(final)
	if err != nil && final.Empty() {
		ok = false
	}
	if !ok {
		e.logger.Warn("source evaluation failed",
			zap.String("url", req.Result.URL), zap.Error(err))
		v.Stage = types.StageFailed
		v.RejectionReason = types.RejectEvaluationFailed
		return v, nil
	}

	v.Scores = scores
	v.TotalScore = scores.Total()
	v.Accepted, v.RejectionReason = Accept(scores, e.cfg.Evaluation)
	v.Reasoning = final.Reasoning
	return v, nil
}

func (e *Evaluator) call(ctx context.Context, s Scorer, req ScoreRequest) (ScoreResponse, error) {
	if s == nil {
		return ScoreResponse{}, errors.New("no scorer configured")
	}
	start := time.Now()
	resp, err := s.Score(ctx, req)
	e.metrics.ObserveScorer(s.Name(), start, err)
	return resp, err
}
