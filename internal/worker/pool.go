package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Pool runs N workers concurrently over the same queue. Each worker is
// single-threaded with respect to one task at a time; the pool adds no
// coordination beyond starting and waiting.
type Pool struct {
	workers []*Worker
}

// NewPool builds n workers sharing the same dependencies.
func NewPool(n int, build func() *Worker) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{workers: make([]*Worker, n)}
	for i := range p.workers {
		p.workers[i] = build()
	}
	return p
}

// Run starts every worker and blocks until all have stopped.
// Returns the context error once cancelled.
func (p *Pool) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i, w := range p.workers {
		wg.Add(1)
		go func(i int, w *Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("worker stopped", "worker", i, "error", err)
			}
		}(i, w)
	}
	wg.Wait()
	return ctx.Err()
}
