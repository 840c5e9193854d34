// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topic-scout/internal/store"
	"github.com/pdiddy/topic-scout/pkg/types"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func verdict(url string, total float64) types.EvaluationVerdict {
	return types.EvaluationVerdict{
		URL:         url,
		Scores:      types.Scores{Authenticity: total, Reliability: total, Relevance: total, Currency: total},
		TotalScore:  total,
		Accepted:    total >= 7,
		Stage:       types.StageTriaged,
		EvaluatedAt: t0,
	}
}

func newCache(t *testing.T, st *store.Store, ttl time.Duration) (*Verdicts, *clock) {
	t.Helper()
	c := New(types.CacheConfig{Size: 8, TTL: ttl}, st, nil)
	clk := &clock{t: t0}
	c.now = clk.now
	return c, clk
}

func TestMemoryHit(t *testing.T) {
	c, _ := newCache(t, nil, time.Hour)
	ctx := context.Background()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Put(ctx, "k", verdict("https://a.com", 8))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 8.0, got.TotalScore)
	assert.Equal(t, 1, c.Len())
}

func TestExpiredVerdictIsMiss(t *testing.T) {
	c, clk := newCache(t, nil, time.Hour)
	ctx := context.Background()
	c.Put(ctx, "k", verdict("https://a.com", 8))

	clk.t = t0.Add(time.Hour)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok, "a verdict past its TTL is a miss")
	assert.Equal(t, 0, c.Len())
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c, clk := newCache(t, nil, 0)
	ctx := context.Background()
	c.Put(ctx, "k", verdict("https://a.com", 8))

	clk.t = t0.Add(365 * 24 * time.Hour)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)
}

func TestStoreSurvivesRestart(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	first, _ := newCache(t, st, 24*time.Hour)
	first.Put(ctx, "k", verdict("https://a.com", 6))

	second, clk := newCache(t, st, 24*time.Hour)
	clk.t = t0.Add(time.Hour)
	got, ok := second.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 6.0, got.TotalScore)
	assert.Equal(t, 1, second.Len(), "store hit warms the memory layer")

	third, clk := newCache(t, st, 24*time.Hour)
	clk.t = t0.Add(25 * time.Hour)
	_, ok = third.Get(ctx, "k")
	assert.False(t, ok, "stored verdict past its TTL is a miss")
}

func TestPurge(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	c, clk := newCache(t, st, time.Hour)
	c.Put(ctx, "old", verdict("https://a.com/1", 8))
	clk.t = t0.Add(2 * time.Hour)
	c.Put(ctx, "new", verdict("https://a.com/2", 8))

	n, err := c.Purge(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, c.Len())

	n, err = c.Purge(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestClosedStoreDegradesToMiss(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	st.Close()
	ctx := context.Background()

	c, _ := newCache(t, st, time.Hour)
	c.Put(ctx, "k", verdict("https://a.com", 8))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok, "memory layer still answers")
	assert.Equal(t, 8.0, got.TotalScore)

	_, ok = c.Get(ctx, "other")
	assert.False(t, ok)
}
