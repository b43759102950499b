package parallel

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

type result[D any] struct {
	d D
	e error
}

// Map runs mapFunc over every input element with at most limit calls in
// flight. Results are yielded in completion order. A canceled context stops
// the iteration, Iter returns once every running mapFunc has returned.
//
//	for out, err := range parallel.NewMap(ctx, 3, f).Iter(slices.Values(in)) {}
type Map[E, D any] struct {
	ctx     context.Context
	cancel  context.CancelFunc
	limit   int
	mapFunc func(context.Context, E) (D, error)
}

func NewMap[E, D any](ctx context.Context, limit int, mapFunc func(context.Context, E) (D, error)) *Map[E, D] {
	if limit < 1 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Map[E, D]{
		ctx:     ctx,
		cancel:  cancel,
		limit:   limit,
		mapFunc: mapFunc,
	}
}

// Iter consumes seq. It must be called once.
func (m *Map[E, D]) Iter(seq iter.Seq[E]) iter.Seq2[D, error] {
	return func(yield func(D, error) bool) {
		g, gctx := errgroup.WithContext(m.ctx)
		// one extra slot for the feeder
		g.SetLimit(m.limit + 1)
		mapped := make(chan result[D], m.limit)

		g.Go(func() error {
			for entry := range seq {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				g.Go(func() error {
					d, err := m.mapFunc(gctx, entry)
					select {
					case <-gctx.Done():
						return gctx.Err()
					case mapped <- result[D]{d: d, e: err}:
					}
					return nil
				})
			}
			return nil
		})

		go func() {
			_ = g.Wait() // cancellation is reported through m.ctx
			close(mapped)
		}()

		defer func() {
			m.cancel()
			// join the workers, results after a cancel or a break are dropped
			for range mapped {
			}
		}()

		for r := range mapped {
			if m.ctx.Err() != nil {
				return
			}
			if !yield(r.d, r.e) {
				return
			}
		}
	}
}
