package worker

import (
	"context"
	"errors"
	"time"

	"github.com/petrijr/ritmo/internal/taskqueue"
	"github.com/petrijr/ritmo/pkg/api"
)

// Config controls how a Worker handles transient failures.
type Config struct {
	// MaxAttempts bounds deliveries of a trigger task whose execution hit
	// an orchestration fault. It includes the first attempt; <= 1 means
	// no redelivery.
	//
	// Definitive outcomes (not executable, approval required, rate
	// limited, completed, partial) are never redelivered: they are
	// engine decisions, not infrastructure failures.
	MaxAttempts int

	// Backoff is the delay before a redelivery. Zero redelivers
	// immediately.
	Backoff time.Duration
}

// Worker pulls tasks from a Queue and executes them using an Engine.
type Worker struct {
	engine api.Engine
	queue  taskqueue.Queue
	cfg    Config
}

// New creates a new Worker with default config (no redelivery).
func New(engine api.Engine, queue taskqueue.Queue) *Worker {
	return NewWithConfig(engine, queue, Config{})
}

// NewWithConfig creates a new Worker with the given config.
func NewWithConfig(engine api.Engine, queue taskqueue.Queue, cfg Config) *Worker {
	return &Worker{
		engine: engine,
		queue:  queue,
		cfg:    cfg,
	}
}

// EnqueueTrigger enqueues one trigger occurrence for a pattern. It does NOT
// run the execution itself; that is done by ProcessOne.
func (w *Worker) EnqueueTrigger(ctx context.Context, patternID, triggerEventID string, userApproved bool) error {
	t := taskqueue.Task{
		Type:           taskqueue.TaskTypeTrigger,
		PatternID:      patternID,
		TriggerEventID: triggerEventID,
		UserApproved:   userApproved,
		EnqueuedAt:     time.Now(),
	}
	return w.queue.Enqueue(ctx, t)
}

// EnqueueTriggerAt enqueues a trigger that becomes eligible no earlier than
// the given time 'at'.
func (w *Worker) EnqueueTriggerAt(ctx context.Context, patternID, triggerEventID string, userApproved bool, at time.Time) error {
	t := taskqueue.Task{
		Type:           taskqueue.TaskTypeTrigger,
		PatternID:      patternID,
		TriggerEventID: triggerEventID,
		UserApproved:   userApproved,
		EnqueuedAt:     time.Now(),
		NotBefore:      at,
	}
	return w.queue.Enqueue(ctx, t)
}

// EnqueueMaintenance enqueues an undo garbage-collection task.
func (w *Worker) EnqueueMaintenance(ctx context.Context) error {
	t := taskqueue.Task{
		Type:       taskqueue.TaskTypeMaintenance,
		EnqueuedAt: time.Now(),
	}
	return w.queue.Enqueue(ctx, t)
}

// EnqueueMaintenanceAt enqueues a maintenance task that becomes eligible no
// earlier than 'at'. Callers running on a durable queue can use this to
// schedule the hourly undo sweep.
func (w *Worker) EnqueueMaintenanceAt(ctx context.Context, at time.Time) error {
	t := taskqueue.Task{
		Type:       taskqueue.TaskTypeMaintenance,
		EnqueuedAt: time.Now(),
		NotBefore:  at,
	}
	return w.queue.Enqueue(ctx, t)
}

// ProcessOne pulls a single task from the queue and processes it.
// Returns (processed, error):
//   - processed == false, err != nil: nothing processed (ctx cancelled or
//     dequeue failed)
//   - processed == true: a task was processed; err indicates whether the
//     handler succeeded.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}

	switch task.Type {
	case taskqueue.TaskTypeTrigger:
		_, runErr := w.engine.ExecuteWorkflow(ctx, task.PatternID, task.TriggerEventID, task.UserApproved)
		if runErr != nil {
			// Orchestration fault: the one retryable category. The engine
			// created no usable outcome, so redeliver if budget remains.
			if requeueErr := w.maybeRequeue(ctx, *task); requeueErr != nil {
				return true, errors.Join(runErr, requeueErr)
			}
			return true, runErr
		}
		// Any outcome, including rejections, is definitive for this
		// delivery.
		return true, nil

	case taskqueue.TaskTypeMaintenance:
		w.engine.CollectUndoGarbage(ctx)
		return true, nil

	default:
		// Unknown task type; mark as processed but return an error so this isn't silently ignored.
		return true, errors.New("unknown task type: " + string(task.Type))
	}
}

func (w *Worker) maybeRequeue(ctx context.Context, task taskqueue.Task) error {
	attempts := task.Attempts + 1
	if attempts >= w.cfg.MaxAttempts {
		return nil
	}
	task.Attempts = attempts
	if w.cfg.Backoff > 0 {
		task.NotBefore = time.Now().Add(w.cfg.Backoff)
	}
	return w.queue.Enqueue(ctx, task)
}
