package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"FilingDrift/internal/domain"
)

// runPool applies unit to every item with at most limit concurrent workers.
// Units never abort the batch: errors come back as failed outcomes and a
// panicking unit is reported as an internal failure. Outcomes keep item order.
func runPool[T any](ctx context.Context, limit int, items []T, ident func(T) (string, string), unit func(context.Context, T) domain.Outcome) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(items))
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			filerID, filingID := ident(item)
			if err := gctx.Err(); err != nil {
				outcomes[i] = domain.Failure(filerID, filingID, err)
				return nil
			}

			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = domain.Failure(filerID, filingID, fmt.Errorf("panic: %v", r))
				}
			}()
			outcomes[i] = unit(gctx, item)
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}
