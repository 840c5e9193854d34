// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/topic-scout/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func f(v float64) *float64 { return &v }

func full(a, r, rel, c float64) ScoreResponse {
	return ScoreResponse{Authenticity: f(a), Reliability: f(r), Relevance: f(rel), Currency: f(c), Confidence: "high"}
}

type fakeScorer struct {
	name  string
	calls atomic.Int32
	fn    func(ScoreRequest) (ScoreResponse, error)
}

func (s *fakeScorer) Name() string { return s.name }

func (s *fakeScorer) Score(_ context.Context, req ScoreRequest) (ScoreResponse, error) {
	s.calls.Add(1)
	return s.fn(req)
}

func returning(resp ScoreResponse, err error) func(ScoreRequest) (ScoreResponse, error) {
	return func(ScoreRequest) (ScoreResponse, error) { return resp, err }
}

type mapCache struct {
	mu   sync.Mutex
	m    map[string]types.EvaluationVerdict
	puts int
}

func newMapCache() *mapCache { return &mapCache{m: make(map[string]types.EvaluationVerdict)} }

func (c *mapCache) Get(_ context.Context, key string) (types.EvaluationVerdict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) Put(_ context.Context, key string, v types.EvaluationVerdict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = v
	c.puts++
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEvaluator(cheap, strong Scorer, cache VerdictCache) *Evaluator {
	e := NewEvaluator(types.DefaultConfig(), cheap, strong, cache, nil, nil)
	e.now = func() time.Time { return fixedNow }
	return e
}

func result(url string) types.SearchResult {
	return types.SearchResult{
		URL:        url,
		Title:      "ACS market position in construction",
		Snippet:    "ACS construction backlog grew in 2025",
		RawContent: "ACS reported a record backlog.\n\nUnrelated footer text.",
	}
}

func TestFastTrackSkipsScorers(t *testing.T) {
	for _, url := range []string{"https://mckinsey.com/insights/acs", "https://ft.com/content/acs"} {
		cheap := &fakeScorer{name: "cheap", fn: returning(ScoreResponse{}, errors.New("must not be called"))}
		strong := &fakeScorer{name: "strong", fn: returning(ScoreResponse{}, errors.New("must not be called"))}
		e := newTestEvaluator(cheap, strong, nil)

		ev, err := e.Evaluate(context.Background(), "ACS market position", types.ContextProfile{}, result(url))
		require.NoError(t, err)

		assert.True(t, ev.Verdict.Accepted, url)
		assert.Equal(t, types.StageFastTracked, ev.Verdict.Stage)
		assert.Equal(t, 9.0, ev.Verdict.Scores.Relevance)
		assert.Equal(t, 8.0, ev.Verdict.Scores.Currency)
		assert.Equal(t, ev.Verdict.Scores.Total(), ev.Verdict.TotalScore)
		assert.Zero(t, cheap.calls.Load())
		assert.Zero(t, strong.calls.Load())
	}
}

func TestTrustedTierIsScored(t *testing.T) {
	cheap := &fakeScorer{name: "cheap", fn: returning(full(8, 8, 9, 8), nil)}
	e := newTestEvaluator(cheap, nil, nil)

	ev, err := e.Evaluate(context.Background(), "ACS", types.ContextProfile{}, result("https://statista.com/acs"))
	require.NoError(t, err)
	assert.Equal(t, types.StageTriaged, ev.Verdict.Stage)
	assert.Equal(t, int32(1), cheap.calls.Load())
}

func TestBlockedDomainRejected(t *testing.T) {
	cheap := &fakeScorer{name: "cheap", fn: returning(full(10, 10, 10, 10), nil)}
	e := newTestEvaluator(cheap, nil, nil)

	ev, err := e.Evaluate(context.Background(), "ACS", types.ContextProfile{}, result("https://linkedin.com/posts/acs-news"))
	require.NoError(t, err)
	assert.False(t, ev.Verdict.Accepted)
	assert.Equal(t, types.RejectBlockedDomain, ev.Verdict.RejectionReason)
	assert.Zero(t, cheap.calls.Load())
}

func TestClearTriageNotEscalated(t *testing.T) {
	cheap := &fakeScorer{name: "cheap", fn: returning(full(8, 8, 9, 7), nil)}
	strong := &fakeScorer{name: "strong", fn: returning(full(1, 1, 1, 1), nil)}
	e := newTestEvaluator(cheap, strong, nil)

	ev, err := e.Evaluate(context.Background(), "ACS", types.ContextProfile{}, result("https://a.com/x"))
	require.NoError(t, err)

	v := ev.Verdict
	assert.True(t, v.Accepted)
	assert.False(t, v.Escalated)
	assert.Equal(t, types.StageTriaged, v.Stage)
	assert.Equal(t, 8.0, v.TotalScore)
	assert.Zero(t, strong.calls.Load())
}

func TestUncertainBandEscalates(t *testing.T) {
	cheap := &fakeScorer{name: "cheap", fn: returning(full(6, 6, 5, 5), nil)}
	strong := &fakeScorer{name: "strong", fn: returning(full(8, 8, 8, 8), nil)}
	e := newTestEvaluator(cheap, strong, nil)

	ev, err := e.Evaluate(context.Background(), "ACS", types.ContextProfile{}, result("https://a.com/x"))
	require.NoError(t, err)

	assert.True(t, ev.Verdict.Escalated)
	assert.Equal(t, types.StageEscalated, ev.Verdict.Stage)
	assert.True(t, ev.Verdict.Accepted)
	assert.Equal(t, int32(1), strong.calls.Load())
}

func TestMalformedTriageEscalates(t *testing.T) {
	cheap := &fakeScorer{name: "cheap", fn: returning(ScoreResponse{}, fmt.Errorf("%w: garbage", ErrMalformedResponse))}
	strong := &fakeScorer{name: "strong", fn: returning(full(3, 3, 2, 3), nil)}
	e := newTestEvaluator(cheap, strong, nil)

	ev, err := e.Evaluate(context.Background(), "ACS", types.ContextProfile{}, result("https://a.com/x"))
	require.NoError(t, err)
	assert.Equal(t, types.StageEscalated, ev.Verdict.Stage)
	assert.False(t, ev.Verdict.Accepted)
	assert.Equal(t, types.RejectBelowRelevance, ev.Verdict.RejectionReason)
}

func TestStrongFailureKeepsTriageScores(t *testing.T) {
	cheap := &fakeScorer{name: "cheap", fn: returning(full(6, 6, 5, 5), nil)}
	strong := &fakeScorer{name: "strong", fn: returning(ScoreResponse{}, errors.New("timeout"))}
	e := newTestEvaluator(cheap, strong, nil)

	ev, err := e.Evaluate(context.Background(), "ACS", types.ContextProfile{}, result("https://a.com/x"))
	require.NoError(t, err)
	assert.True(t, ev.Verdict.Escalated)
	assert.Equal(t, types.StageTriaged, ev.Verdict.Stage)
	assert.Equal(t, 5.5, ev.Verdict.TotalScore)
}

func TestBothScorersFail(t *testing.T) {
	cheap := &fakeScorer{name: "cheap", fn: returning(ScoreResponse{}, errors.New("network"))}
	strong := &fakeScorer{name: "strong", fn: returning(ScoreResponse{}, fmt.Errorf("%w: empty", ErrMalformedResponse))}
	cache := newMapCache()
	e := newTestEvaluator(cheap, strong, cache)

	ev, err := e.Evaluate(context.Background(), "ACS", types.ContextProfile{}, result("https://a.com/x"))
	require.NoError(t, err)

	assert.False(t, ev.Verdict.Accepted)
	assert.Equal(t, types.StageFailed, ev.Verdict.Stage)
	assert.Equal(t, types.RejectEvaluationFailed, ev.Verdict.RejectionReason)
	assert.Zero(t, cache.puts, "failures are not cached")
}

func TestMissingRelevanceBackfilled(t *testing.T) {
	resp := ScoreResponse{Authenticity: f(9), Reliability: f(8), Currency: f(6)}
	cheap := &fakeScorer{name: "cheap", fn: returning(resp, nil)}
	strong := &fakeScorer{name: "strong", fn: returning(resp, nil)}
	e := newTestEvaluator(cheap, strong, nil)

	ev, err := e.Evaluate(context.Background(), "ACS", types.ContextProfile{}, result("https://a.com/x"))
	require.NoError(t, err)

	v := ev.Verdict
	assert.True(t, v.Escalated, "missing field escalates")
	assert.Equal(t, 8.5, v.Scores.Relevance)
	assert.Equal(t, 7.9, v.TotalScore)
	assert.True(t, v.Accepted)
}

func TestCacheHitIsIdentical(t *testing.T) {
	cheap := &fakeScorer{name: "cheap", fn: returning(full(8, 8, 9, 7), nil)}
	cache := newMapCache()
	e := newTestEvaluator(cheap, nil, cache)
	r := result("https://a.com/x")

	first, err := e.Evaluate(context.Background(), "ACS market", types.ContextProfile{}, r)
	require.NoError(t, err)
	second, err := e.Evaluate(context.Background(), "ACS market", types.ContextProfile{}, r)
	require.NoError(t, err)

	assert.Equal(t, int32(1), cheap.calls.Load())
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Verdict, second.Verdict)
}

func TestCanceledEvaluationNotCached(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cheap := &fakeScorer{name: "cheap", fn: func(ScoreRequest) (ScoreResponse, error) {
		cancel()
		return ScoreResponse{}, context.Canceled
	}}
	cache := newMapCache()
	e := newTestEvaluator(cheap, nil, cache)

	_, err := e.Evaluate(ctx, "ACS", types.ContextProfile{}, result("https://a.com/x"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, cache.puts)
}

func TestEvaluateAllKeepsInputOrder(t *testing.T) {
	cheap := &fakeScorer{name: "cheap", fn: func(req ScoreRequest) (ScoreResponse, error) {
		if req.Result.URL == "https://a.com/0" {
			time.Sleep(20 * time.Millisecond)
			return full(2, 2, 2, 2), nil
		}
		return full(8, 8, 9, 8), nil
	}}
	e := newTestEvaluator(cheap, nil, nil)

	var results []types.SearchResult
	for i := range 6 {
		results = append(results, result(fmt.Sprintf("https://a.com/%d", i)))
	}
	evs, err := e.EvaluateAll(context.Background(), "ACS", types.ContextProfile{}, results)
	require.NoError(t, err)
	require.Len(t, evs, 6)
	for i, ev := range evs {
		assert.Equal(t, results[i].URL, ev.Verdict.URL)
	}
	assert.False(t, evs[0].Verdict.Accepted)
	assert.True(t, evs[1].Verdict.Accepted)
}

func TestEvaluateAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newTestEvaluator(&fakeScorer{name: "cheap", fn: returning(full(8, 8, 8, 8), nil)}, nil, nil)

	evs, err := e.EvaluateAll(ctx, "ACS", types.ContextProfile{}, []types.SearchResult{result("https://a.com/x")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, evs)
}
