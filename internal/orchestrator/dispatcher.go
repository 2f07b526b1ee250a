package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	apperrors "pillarscan/internal/errors"
)

// Task identifies one scan run. It carries identities only; all state lives
// in the scan record.
type Task struct {
	ScanID       string
	UserID       string
	CredentialID string
	Regions      []string
}

// Runner executes one scan task to its terminal state.
type Runner interface {
	Run(ctx context.Context, task Task)
}

// Dispatcher is the background worker pool. Each scan is dispatched exactly
// once at creation; a full queue rejects the dispatch rather than blocking
// the request path.
type Dispatcher struct {
	runner  Runner
	tasks   chan Task
	workers int
	logger  *slog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewDispatcher(runner Runner, workers, queueDepth int, log *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}
	return &Dispatcher{
		runner:  runner,
		tasks:   make(chan Task, queueDepth),
		workers: workers,
		logger:  log,
	}
}

// Start launches the worker goroutines. Workers drain the queue until Stop
// closes it; ctx is the base context every scan run derives from.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(worker int) {
			defer d.wg.Done()
			for task := range d.tasks {
				d.logger.Info("worker picked up scan",
					"worker", worker, "scan_id", task.ScanID)
				d.runner.Run(ctx, task)
			}
		}(i)
	}
}

// Dispatch enqueues one task. It never blocks; a full queue returns a
// service-unavailable error so the caller can surface back-pressure.
func (d *Dispatcher) Dispatch(task Task) error {
	select {
	case d.tasks <- task:
		return nil
	default:
		return apperrors.ErrServiceUnavailable("scan queue is full", nil)
	}
}

// Stop closes the queue and waits for in-flight scans to finish. Dispatch
// must not be called after Stop.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.tasks)
	})
	d.wg.Wait()
}
