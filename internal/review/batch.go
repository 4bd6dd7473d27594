package review

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/difflens/internal/gitctx"
)

// DefaultBatchLimit bounds concurrent reviews in RunBatch.
const DefaultBatchLimit = 4

// RunBatch reviews independent diffs concurrently with at most limit in
// flight. Reports are returned in input order. The first failure cancels
// the remaining reviews.
func RunBatch(ctx context.Context, jobs []gitctx.DiffResult, e *Engine, limit int) ([]*Report, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	reports := make([]*Report, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		g.Go(func() error {
			r, err := Run(gctx, job, e)
			if err != nil {
				label := job.Range
				if label == "" {
					label = job.Mode
				}
				return fmt.Errorf("job %d (%s): %w", i, label, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
