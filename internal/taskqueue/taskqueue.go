// Package taskqueue delivers trigger events and maintenance ticks to
// workers, with in-memory and SQLite-backed implementations.
package taskqueue

import (
	"context"
	"time"
)

// TaskType identifies what the worker should do.
type TaskType string

const (
	// TaskTypeTrigger asks the worker to run one execution attempt for a
	// pattern. Delivery is at-least-once; the engine's outcome taxonomy
	// tells the worker whether a retry is ever appropriate.
	TaskTypeTrigger TaskType = "trigger"

	// TaskTypeMaintenance asks the worker to run periodic housekeeping
	// (undo garbage collection).
	TaskTypeMaintenance TaskType = "maintenance"
)

// Task represents a unit of work for the worker.
type Task struct {
	ID   string
	Type TaskType

	// For trigger tasks.
	PatternID      string
	TriggerEventID string
	UserApproved   bool

	// Payload is task-type specific and currently unused by the built-in
	// task types; it is kept open for custom handlers.
	Payload any

	EnqueuedAt time.Time

	// NotBefore is the earliest time this task should be eligible
	// for processing. Zero value means "immediately".
	NotBefore time.Time

	// Attempts counts prior deliveries of this task.
	Attempts int
}

// Queue is a simple async task queue interface.
type Queue interface {
	// Enqueue adds a task to the queue. It should respect ctx for cancellation.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue removes and returns the next task, blocking until one is available
	// or the context is cancelled.
	Dequeue(ctx context.Context) (*Task, error)

	// Len returns the approximate number of tasks queued.
	Len() int
}
