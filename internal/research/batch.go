// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/topic-scout/pkg/types"
)

const defaultBatchParallelism = 2

// BatchResult is the outcome of one topic in a batch. Err is set when the
// topic failed; Result is then zero.
type BatchResult struct {
	Request Request
	Result  types.ResearchResult
	Err     error
}

// RunBatch researches reqs concurrently, at most parallelism at a time,
// and returns one BatchResult per request in input order. A failing topic
// does not stop the others. The returned error is non-nil only when ctx
// is cancelled.
func (r *Runner) RunBatch(ctx context.Context, reqs []Request, parallelism int) ([]BatchResult, error) {
	if parallelism <= 0 {
		parallelism = defaultBatchParallelism
	}
	out := make([]BatchResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, req := range reqs {
		g.Go(func() error {
			out[i].Request = req
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			res, err := r.Run(ctx, req)
			if err != nil {
				r.logger.Error("topic failed", zap.String("topic", req.Topic), zap.Error(err))
				out[i].Err = err
				return nil
			}
			out[i].Result = res
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
