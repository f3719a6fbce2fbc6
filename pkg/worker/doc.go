// Package worker provides the background worker implementation used to
// deliver trigger events to the ritmo automation engine.
//
// Workers consume tasks from a task queue and dispatch them: trigger tasks
// become ExecuteWorkflow calls, maintenance tasks become undo garbage
// collection. They are designed to be lightweight and easy to embed in
// existing services, and several workers can safely operate on the same
// queue to scale processing.
//
// # Delivery Semantics
//
// Delivery is at-least-once, but retries are reserved for infrastructure
// failures. The engine's outcome taxonomy draws the line: a rejected
// attempt (pattern not executable, approval required, rate limited) is a
// decision, and redelivering the same trigger would just repeat it.
// Only an orchestration fault — an error returned by ExecuteWorkflow —
// is worth retrying, bounded by Config.MaxAttempts with Config.Backoff
// between deliveries.
//
// Most applications construct workers via helper functions in the ritmo
// package, which wire engines and queues together with sensible defaults.
package worker
