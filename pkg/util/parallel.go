package util

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Parallel calls fn for every input using at most workerLimit goroutines.
// The first error cancels the context handed to the remaining calls and is
// returned once every call has finished. Inputs not yet started when that
// happens are skipped.
func Parallel[T any](ctx context.Context, inputs []T, workerLimit int, fn func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workerLimit, 1))

	for _, item := range inputs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error { return fn(ctx, item) })
	}
	return g.Wait()
}
