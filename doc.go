// Package ritmo provides a lightweight, embeddable workflow automation
// engine for Go.
//
// Ritmo is designed for applications that learn repetitive user behavior and
// automate it: a pattern pairs a trigger description with a sequence of
// actions, and the engine executes those actions when the trigger fires,
// subject to safety classification, rate limiting, and accuracy tracking. It
// runs fully in Go and integrates cleanly into existing codebases.
//
// # Core Concepts
//
// The Ritmo programming model is intentionally small and idiomatic:
//
//  1. Engine
//  2. Pattern
//  3. ActionFunc
//  4. Worker
//  5. LocalRunner
//
// # Engine
//
// The Engine stores patterns and their execution history, holds the action
// registry, and provides APIs to:
//   - propose, approve, suspend, reactivate, and retire patterns
//   - execute workflows when triggers fire
//   - record feedback and report per-pattern accuracy
//   - create and consume one-time undo tokens
//
// Engines can be backed by different storage systems:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//
// Undo tokens can additionally be kept in Redis so several engine instances
// honor each other's tokens.
//
// Every pattern starts as a proposal and executes nothing until a user
// approves it. Active patterns are watched: if the reviewed accuracy over the
// last ten executions falls below 80%, the engine suspends the pattern until
// a user reactivates or retires it.
//
// # Pattern
//
// A Pattern pairs a trigger description with an ordered list of actions:
//
//	type Action struct {
//	    Type   string
//	    Params map[string]string
//	}
//
// Actions are classified by destructive potential (safe, caution,
// destructive); a pattern containing a destructive action only executes with
// explicit per-execution user approval. PatternBuilder provides the ergonomic
// API for proposing patterns.
//
// # ActionFunc
//
// An ActionFunc is the fundamental executable unit of a workflow:
//
//	type ActionFunc func(ctx context.Context, action Action) error
//
// Applications register one ActionFunc per action type. During execution all
// actions run in order regardless of individual failures, and the recorded
// execution carries completed and failed counts.
//
// # Worker
//
// A Worker pulls trigger tasks from a configured queue and hands them to the
// Engine. Workers run asynchronously and can be scaled horizontally; the
// SQLite-backed WorkerBundle shares one database between engine and queue.
// Rejected attempts (unapproved destructive actions, rate limits, inactive
// patterns) are decisions, not failures, and are never retried.
//
// # LocalRunner
//
// LocalRunner bundles an in-memory engine, queue, and worker into a single,
// process-local helper useful for development and unit testing. It is
// intentionally not crash-durable, but it provides the most convenient way to
// run and debug automations during development.
//
// # Summary
//
// Ritmo's goal is to give Go developers a workflow automation engine that
// feels like Go: easy to embed, easy to test, and safe by default. Engines
// gate and record executions, Workers deliver triggers, PatternBuilder
// defines patterns, ActionFuncs contain business logic, and LocalRunner
// provides a fast, developer-friendly runtime.
package ritmo
