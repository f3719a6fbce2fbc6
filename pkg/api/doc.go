// Package api contains the core building blocks used by the ritmo workflow
// automation engine. It provides the data model for patterns and executions,
// the engine contract, and the observer hooks for logging and metrics.
//
// Most users interact with the higher-level ritmo package, which re-exports
// selected types and helpers from this package. The api package is intended
// for advanced use cases, custom integrations, or contributors extending the
// engine itself.
//
// # Concepts
//
// The api package centers around a small set of concepts:
//
//   - Patterns: persisted trigger->actions rules with a lifecycle status
//     (proposed, active, suspended, retired)
//   - Actions and action functions: the typed units of work a pattern runs
//   - Workflow executions: recorded attempts with partial-failure accounting
//   - Safety levels: the risk classification gating destructive actions
//   - Observability: observer callbacks for every engine decision
//
// # Outcomes
//
// Every ExecuteWorkflow attempt resolves to exactly one Outcome. Rejections
// (not executable, approval required, rate limited) are ordinary values on
// the result, not errors: the engine reserves errors for orchestration
// faults. Delivery layers use Outcome.Definitive to decide whether a retry
// is ever appropriate.
package api
