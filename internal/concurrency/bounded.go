// Package concurrency holds the single bounded fan-out helper shared by the
// finder and catalog-backed lookups, so every caller that needs "run these
// N things with at most K in flight" goes through one place.
package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BoundedEach runs fn once per item with at most n goroutines in flight at
// a time. It returns the first error encountered (others are discarded,
// matching errgroup's usual short-circuit behavior); ctx is canceled for
// the remaining in-flight calls once one returns an error.
func BoundedEach[T any](ctx context.Context, items []T, n int, fn func(ctx context.Context, item T, index int) error) error {
	if n <= 0 {
		n = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			return fn(gctx, item, i)
		})
	}
	return g.Wait()
}
