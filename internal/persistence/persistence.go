// Package persistence defines the storage contracts for patterns and
// workflow executions, with in-memory and SQLite implementations.
package persistence

import (
	"errors"
	"time"

	"github.com/petrijr/ritmo/pkg/api"
)

var (
	// ErrPatternNotFound is returned when a pattern is not found.
	ErrPatternNotFound = errors.New("pattern not found")

	// ErrExecutionNotFound is returned when a workflow execution is not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrFeedbackAlreadySet is returned when feedback is recorded twice
	// for the same execution.
	ErrFeedbackAlreadySet = errors.New("feedback already recorded for execution")
)

// PatternFilter is used to select patterns from the store.
// Zero status means "no filter".
type PatternFilter struct {
	Status api.PatternStatus
}

// PatternStore handles storage of patterns.
//
// UpdatePatternStatus is the only mutation after creation and must be a
// transactional read-modify-write of a single row; the engine enforces
// which transitions are legal.
type PatternStore interface {
	SavePattern(p *api.Pattern) error
	GetPattern(id string) (*api.Pattern, error)
	ListPatterns(filter PatternFilter) ([]*api.Pattern, error)
	// UpdatePatternStatus sets the status and suspension reason.
	// reason is cleared when empty.
	UpdatePatternStatus(id string, status api.PatternStatus, reason string) error
}

// ExecutionStore handles storage of workflow executions.
type ExecutionStore interface {
	SaveExecution(exec *api.WorkflowExecution) error
	GetExecution(id string) (*api.WorkflowExecution, error)

	// ListExecutions returns executions of a pattern, newest first.
	// With onlyWithFeedback, executions whose WasCorrect is unset are
	// excluded entirely. limit <= 0 means no limit.
	ListExecutions(patternID string, onlyWithFeedback bool, limit int) ([]*api.WorkflowExecution, error)

	// CountExecutionsSince counts executions created at or after 'since',
	// across all patterns. Used by the rolling-window rate limiter.
	CountExecutionsSince(since time.Time) (int, error)

	// RecordFeedback sets WasCorrect, at most once per execution.
	// Returns ErrFeedbackAlreadySet if feedback was recorded before.
	RecordFeedback(executionID string, wasCorrect bool) error
}

// Persistence bundles the stores an engine needs.
type Persistence struct {
	Patterns   PatternStore
	Executions ExecutionStore
}
