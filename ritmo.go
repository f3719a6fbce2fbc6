package ritmo

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/ritmo/internal/engine"
	"github.com/petrijr/ritmo/internal/persistence"
	"github.com/petrijr/ritmo/internal/undo"
	"github.com/petrijr/ritmo/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine               = api.Engine
	Pattern              = api.Pattern
	PatternStatus        = api.PatternStatus
	PatternListOptions   = api.PatternListOptions
	Action               = api.Action
	ActionFunc           = api.ActionFunc
	SafetyLevel          = api.SafetyLevel
	Outcome              = api.Outcome
	WorkflowExecution    = api.WorkflowExecution
	ExecutionResult      = api.ExecutionResult
	AccuracyReport       = api.AccuracyReport
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export pattern status values for convenience.

const (
	StatusProposed  = api.StatusProposed
	StatusActive    = api.StatusActive
	StatusSuspended = api.StatusSuspended
	StatusRetired   = api.StatusRetired
)

// Re-export execution outcomes.

const (
	OutcomeCompleted        = api.OutcomeCompleted
	OutcomePartial          = api.OutcomePartial
	OutcomeNotExecutable    = api.OutcomeNotExecutable
	OutcomeApprovalRequired = api.OutcomeApprovalRequired
	OutcomeRateLimited      = api.OutcomeRateLimited
	OutcomeFailed           = api.OutcomeFailed
)

// Re-export safety levels and engine defaults.

const (
	SafetySafe        = api.SafetySafe
	SafetyCaution     = api.SafetyCaution
	SafetyDestructive = api.SafetyDestructive

	MaxExecutionsPerHour = api.MaxExecutionsPerHour
	DefaultUndoTTL       = api.DefaultUndoTTL
)

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryEngine returns an Engine backed entirely by in-memory stores.
func NewInMemoryEngine() Engine {
	return engine.NewInMemoryEngine()
}

// NewInMemoryEngineWithObserver returns an in-memory Engine with the given Observer.
func NewInMemoryEngineWithObserver(obs Observer) Engine {
	return engine.NewInMemoryEngineWithObserver(obs)
}

// NewSQLiteEngine returns an Engine that persists patterns and workflow
// executions in a SQLite database. Undo tokens are kept in-memory.
func NewSQLiteEngine(db *sql.DB) (Engine, error) {
	return engine.NewSQLiteEngine(db)
}

// NewSQLiteEngineWithObserver returns a SQLite-backed Engine with the given Observer.
func NewSQLiteEngineWithObserver(db *sql.DB, obs Observer) (Engine, error) {
	return engine.NewSQLiteEngineWithObserver(db, obs)
}

// NewSQLiteEngineWithRedisUndo returns a SQLite-backed Engine whose undo
// tokens live in Redis under the given key prefix. Use this when several
// engine instances must honor each other's undo tokens.
func NewSQLiteEngineWithRedisUndo(db *sql.DB, client *redis.Client, prefix string) (Engine, error) {
	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return engine.NewEngineWithConfig(engine.Config{
		Persistence: persistence.Persistence{
			Patterns:   store,
			Executions: store,
		},
		Undo: undo.NewRedisStore(client, prefix),
	}), nil
}

// Convenience helpers that just forward to the underlying Engine.

// Execute runs one trigger occurrence of a pattern synchronously.
func Execute(ctx context.Context, eng Engine, patternID, triggerEventID string, userApproved bool) (ExecutionResult, error) {
	return eng.ExecuteWorkflow(ctx, patternID, triggerEventID, userApproved)
}

// GetPattern fetches a pattern by ID.
func GetPattern(ctx context.Context, eng Engine, id string) (*Pattern, error) {
	return eng.GetPattern(ctx, id)
}

// ListPatterns lists patterns according to the given options.
func ListPatterns(ctx context.Context, eng Engine, opts PatternListOptions) ([]*Pattern, error) {
	return eng.ListPatterns(ctx, opts)
}

// RecordFeedback records whether an execution did what the user wanted.
// The returned bool reports whether the feedback pushed the pattern's
// accuracy below the threshold and suspended it.
func RecordFeedback(ctx context.Context, eng Engine, executionID string, wasCorrect bool) (bool, error) {
	return eng.RecordFeedback(ctx, executionID, wasCorrect)
}

// Accuracy reports a pattern's accuracy over its review window.
func Accuracy(ctx context.Context, eng Engine, patternID string) (AccuracyReport, error) {
	return eng.Accuracy(ctx, patternID)
}

// CreateUndo registers an undoable group of executions and returns the
// one-time token together with its expiry.
func CreateUndo(ctx context.Context, eng Engine, executionIDs []string, ttl time.Duration) (string, time.Time, error) {
	return eng.CreateUndo(ctx, executionIDs, ttl)
}

// Undo consumes an undo token and returns the entity IDs it covered.
// ok is false when the token is unknown, expired, or already redeemed.
//
// It is typically paired with application-level compensation logic:
//
//	ids, ok := ritmo.Undo(ctx, engine, token)
func Undo(ctx context.Context, eng Engine, token string) (ids []string, ok bool) {
	return eng.Undo(ctx, token)
}

// PeekUndo returns a token's entity IDs without consuming it.
func PeekUndo(ctx context.Context, eng Engine, token string) (ids []string, ok bool) {
	return eng.PeekUndo(ctx, token)
}
