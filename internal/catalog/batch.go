// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package catalog

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cinemind/cinemind/internal/logging"
)

// mapBatches runs fn over items in sequential batches of size n, with the
// items of one batch in flight concurrently. A non-zero delay paces the start
// of every batch. Per-item failures drop the item rather than failing the
// stage; results keep input order.
func mapBatches[T, R any](ctx context.Context, items []T, n int, delay time.Duration, fn func(context.Context, T) (R, error)) ([]R, error) {
	if n <= 0 {
		n = 1
	}
	results := make([]*R, len(items))

	for start := 0; start < len(items); start += n {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+n, len(items))
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				r, err := fn(gctx, items[i])
				if err != nil {
					logging.Debug().Err(err).Msg("pipeline item dropped")
					return nil
				}
				results[i] = &r
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]R, 0, len(items))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}
