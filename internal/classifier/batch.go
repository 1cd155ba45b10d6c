package classifier

import (
	"context"

	"golang.org/x/sync/errgroup"

	"BlogCurator/internal/domain"
)

// ClassifyBatch classifies articles on a bounded worker pool and returns results in
// input order. Classify never fails, so one article cannot abort its siblings.
func (c *Classifier) ClassifyBatch(ctx context.Context, articles []domain.Article) []domain.ClassificationResult {
	results := make([]domain.ClassificationResult, len(articles))

	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)
	for i, article := range articles {
		g.Go(func() error {
			results[i] = c.Classify(ctx, article)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
