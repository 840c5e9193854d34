// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps evaluation verdicts so the same source and evidence
// are not scored twice. An in-memory LRU sits in front of an optional
// SQLite store; entries older than the TTL are misses in both layers.
package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/topic-scout/internal/logging"
	"github.com/pdiddy/topic-scout/internal/store"
	"github.com/pdiddy/topic-scout/pkg/types"
)

const defaultSize = 4096

type entry struct {
	verdict types.EvaluationVerdict
	at      time.Time
}

// Verdicts is a two-level verdict cache. It is safe for concurrent use.
type Verdicts struct {
	mem    *lru.Cache[string, entry]
	store  *store.Store
	ttl    time.Duration
	logger *zap.Logger

	// now is replaced in tests.
	now func() time.Time
}

// New returns a cache holding up to cfg.Size verdicts in memory. st may
// be nil, in which case verdicts live only for the process. A zero TTL
// never expires entries.
func New(cfg types.CacheConfig, st *store.Store, logger *zap.Logger) *Verdicts {
	size := cfg.Size
	if size <= 0 {
		size = defaultSize
	}
	mem, _ := lru.New[string, entry](size)
	return &Verdicts{
		mem:    mem,
		store:  st,
		ttl:    cfg.TTL,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Get returns the verdict stored under key if it has not expired.
// Store errors are logged and reported as a miss.
func (c *Verdicts) Get(ctx context.Context, key string) (types.EvaluationVerdict, bool) {
	now := c.now()
	if e, ok := c.mem.Get(key); ok {
		if c.fresh(e.at, now) {
			return e.verdict, true
		}
		c.mem.Remove(key)
	}
	if c.store == nil {
		return types.EvaluationVerdict{}, false
	}

	v, ok, err := c.store.GetVerdict(ctx, key, c.cutoff(now))
	if err != nil {
		c.logger.Warn("verdict cache read failed", zap.String("key", key), zap.Error(err))
		return types.EvaluationVerdict{}, false
	}
	if ok {
		// The store does not keep its write time on the verdict, so the
		// warmed entry ages from the evaluation time.
		c.mem.Add(key, entry{verdict: v, at: v.EvaluatedAt})
	}
	return v, ok
}

// Put stores v under key in memory and, when configured, in the store.
func (c *Verdicts) Put(ctx context.Context, key string, v types.EvaluationVerdict) {
	now := c.now()
	c.mem.Add(key, entry{verdict: v, at: now})
	if c.store == nil {
		return
	}
	if err := c.store.PutVerdict(ctx, key, v, now); err != nil {
		c.logger.Warn("verdict cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Len returns the number of verdicts held in memory.
func (c *Verdicts) Len() int { return c.mem.Len() }

// Purge empties the in-memory layer and removes stored verdicts older
// than the TTL. It returns the number of stored verdicts removed.
func (c *Verdicts) Purge(ctx context.Context, all bool) (int64, error) {
	c.mem.Purge()
	if c.store == nil {
		return 0, nil
	}
	cutoff := c.cutoff(c.now())
	if all {
		cutoff = time.Time{}
	} else if cutoff.IsZero() {
		return 0, nil
	}
	return c.store.PurgeVerdicts(ctx, cutoff)
}

func (c *Verdicts) fresh(at, now time.Time) bool {
	return c.ttl <= 0 || now.Sub(at) < c.ttl
}

// cutoff is the oldest write time still valid, or zero for no expiry.
func (c *Verdicts) cutoff(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(-c.ttl)
}
