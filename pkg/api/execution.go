package api

import "time"

// Outcome classifies the result of one ExecuteWorkflow attempt.
// Every category is distinct so callers can render "awaiting approval"
// differently from "temporarily throttled" differently from "partially
// failed".
type Outcome string

const (
	// OutcomeCompleted: all actions ran and succeeded.
	OutcomeCompleted Outcome = "completed"

	// OutcomePartial: all actions ran, at least one failed.
	OutcomePartial Outcome = "partial"

	// OutcomeNotExecutable: the pattern is missing or not active.
	// No execution record is created.
	OutcomeNotExecutable Outcome = "not_executable"

	// OutcomeApprovalRequired: the pattern's actions are destructive and
	// the caller did not pre-approve. No action ran, no record created.
	OutcomeApprovalRequired Outcome = "approval_required"

	// OutcomeRateLimited: the trailing-hour execution budget is exhausted.
	// No action ran, no record created.
	OutcomeRateLimited Outcome = "rate_limited"

	// OutcomeFailed: an orchestration fault outside action execution
	// (for example, persisting the execution record) aborted the attempt.
	OutcomeFailed Outcome = "failed"
)

// Definitive reports whether the outcome is final for this trigger
// occurrence. Delivery layers must not retry definitive outcomes;
// they are decisions, not infrastructure failures.
func (o Outcome) Definitive() bool {
	return o != OutcomeFailed
}

// WorkflowExecution is one recorded attempt to run a pattern's actions.
// It is immutable once written, except for WasCorrect which is set at
// most once by feedback recording.
type WorkflowExecution struct {
	ID             string
	PatternID      string
	TriggerEventID string

	ActionsCompleted int
	ActionsFailed    int

	// Success is true only if every action succeeded.
	Success bool

	// Error holds the first action error encountered, if any.
	Error string

	// WasCorrect is nil until the user reviews this execution.
	WasCorrect *bool

	CreatedAt time.Time
}

// ExecutionResult is what ExecuteWorkflow returns to the caller.
// ExecutionID is empty for rejected attempts (no record was created).
type ExecutionResult struct {
	ExecutionID      string
	Outcome          Outcome
	Success          bool
	ActionsCompleted int
	ActionsFailed    int
	Error            string
}

// AccuracyReport summarizes feedback over the most recent reviewed
// executions of a pattern (up to the review window).
type AccuracyReport struct {
	PatternID     string
	TotalReviewed int
	Correct       int
	Incorrect     int

	// Accuracy is Correct/TotalReviewed; meaningless when TotalReviewed
	// is zero.
	Accuracy float64

	// AtRisk is an early warning: enough reviews exist to be meaningful
	// and accuracy is below the suspension threshold.
	AtRisk bool
}
