package ritmo

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/petrijr/ritmo/internal/taskqueue"
	"github.com/petrijr/ritmo/pkg/worker"
)

// LocalRunner bundles an in-memory Engine, an in-memory task queue, and a Worker
// to provide a simple "local runner" for development and debugging.
//
// Typical usage:
//
//	runner := ritmo.NewLocalRunner()
//	_ = runner.Engine.RegisterAction("notify", notify)
//	p := ritmo.New("build finished").Notify(nil).MustCreate(ctx, runner.Engine)
//	_ = runner.Engine.ApprovePattern(ctx, p.ID)
//
//	// Synchronous execution (no queue/worker involved):
//	res, err := ritmo.Execute(ctx, runner.Engine, p.ID, "evt-1", false)
//
//	// Asynchronous execution:
//	_ = runner.StartWorkers(ctx, 2)
//	_ = runner.TriggerAsync(ctx, p.ID, "evt-2", false)
//	...
//	runner.Stop()
type LocalRunner struct {
	// Engine is the in-memory automation engine used by this runner.
	Engine Engine

	// Queue is the in-memory task queue used by the Worker.
	Queue taskqueue.Queue

	// Worker processes tasks from Queue using Engine.
	Worker *worker.Worker

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewLocalRunner constructs a LocalRunner backed by an in-memory engine,
// in-memory queue, and a Worker with default config.
//
// This is intended for local development, tests, and simple single-process
// deployments.
func NewLocalRunner() *LocalRunner {
	eng := NewInMemoryEngine()
	q := taskqueue.NewInMemoryQueue(1024)
	w := worker.New(eng, q)

	return &LocalRunner{
		Engine: eng,
		Queue:  q,
		Worker: w,
	}
}

// StartWorkers starts 'concurrency' worker goroutines that continuously call
// Worker.ProcessOne(ctx) until the context is cancelled via Stop.
//
// If StartWorkers is called more than once without Stop, it returns an error.
func (r *LocalRunner) StartWorkers(ctx context.Context, concurrency int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("ritmo: LocalRunner already started")
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer r.wg.Done()

			for {
				processed, err := r.Worker.ProcessOne(ctx)
				if err != nil {
					// For local runner we treat cancellation as a clean shutdown signal.
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return
					}
					// For other errors, log and keep going so a single bad task
					// doesn't kill the worker loop.
					log.Printf("ritmo: local runner worker error: %v", err)
					continue
				}
				if !processed {
					// This only happens if ctx was cancelled before a task was obtained.
					// Loop will exit on next Dequeue when err == context.Canceled.
					continue
				}
			}
		}()
	}

	return nil
}

// Stop cancels all worker goroutines started by StartWorkers and waits
// for them to exit.
func (r *LocalRunner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// TriggerAsync enqueues one trigger occurrence of a pattern. A worker picks
// it up and runs the execution with all the usual gates applied.
func (r *LocalRunner) TriggerAsync(ctx context.Context, patternID, triggerEventID string, userApproved bool) error {
	return r.Worker.EnqueueTrigger(ctx, patternID, triggerEventID, userApproved)
}

// CollectUndoGarbageAsync enqueues an undo garbage-collection task.
func (r *LocalRunner) CollectUndoGarbageAsync(ctx context.Context) error {
	return r.Worker.EnqueueMaintenance(ctx)
}
