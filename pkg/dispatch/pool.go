package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultWorkers is the pool size when Options.Workers is zero: at most 10
// console sessions open at once.
const DefaultWorkers = 10

// Options tunes one dispatch run.
type Options struct {
	// Workers bounds concurrent per-device tasks. Zero means DefaultWorkers;
	// 1 serializes devices.
	Workers int

	// TaskTimeout bounds one device's whole task (login plus commands).
	// Zero falls back to the device profile's Timeout.
	TaskTimeout time.Duration
}

type taskFunc func(ctx context.Context) TaskOutcome

type pool struct {
	workers int
}

func newPool(opts Options) (*pool, error) {
	workers := opts.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}
	if workers < 0 {
		return nil, &PoolInitError{Err: fmt.Errorf("worker count %d is negative", opts.Workers)}
	}
	return &pool{workers: workers}, nil
}

// run executes all tasks under the worker bound and returns their outcomes
// keyed by device. Each outcome slot is written by exactly one goroutine,
// so the slice needs no locking; the map is built after the wait.
func (p *pool) run(ctx context.Context, tasks []taskFunc) map[string]TaskOutcome {
	outcomes := make([]TaskOutcome, len(tasks))

	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task taskFunc) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[i] = task(ctx)
		}(i, task)
	}
	wg.Wait()

	byDevice := make(map[string]TaskOutcome, len(outcomes))
	for _, o := range outcomes {
		byDevice[o.DeviceName] = o
	}
	return byDevice
}
