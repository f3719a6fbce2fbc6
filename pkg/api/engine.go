package api

import (
	"context"
	"time"
)

// Engine tuning constants. The rate limit bounds actual automation
// activity: rejected attempts never consume budget.
const (
	// MaxExecutionsPerHour caps how many execution records may be created
	// in the trailing one-hour rolling window.
	MaxExecutionsPerHour = 60

	// DefaultUndoTTL is how long an undo token stays redeemable.
	DefaultUndoTTL = 10 * time.Minute
)

// ActionFunc executes a single action. It is registered per action type
// via Engine.RegisterAction. A returned error marks the action as failed;
// the engine continues with the next action in the pattern.
type ActionFunc func(ctx context.Context, action Action) error

// Engine is the workflow automation engine API.
type Engine interface {
	// CreatePattern validates and stores a new pattern as StatusProposed.
	// If p.ID is empty an identifier is assigned. The stored pattern is
	// returned.
	CreatePattern(ctx context.Context, p Pattern) (*Pattern, error)

	// GetPattern looks up a pattern by ID.
	GetPattern(ctx context.Context, id string) (*Pattern, error)

	// ListPatterns returns patterns matching the given options.
	ListPatterns(ctx context.Context, opts PatternListOptions) ([]*Pattern, error)

	// ApprovePattern promotes a proposed pattern to active.
	ApprovePattern(ctx context.Context, id string) error

	// SuspendPattern moves an active pattern to suspended with the given
	// reason.
	SuspendPattern(ctx context.Context, id string, reason string) error

	// ReactivatePattern moves a suspended pattern back to active and
	// clears its suspension reason.
	ReactivatePattern(ctx context.Context, id string) error

	// RetirePattern moves a pattern to the terminal retired status.
	RetirePattern(ctx context.Context, id string) error

	// RegisterAction registers the function that executes actions of the
	// given type. Registering the same type twice is an error.
	RegisterAction(actionType string, fn ActionFunc) error

	// ExecuteWorkflow runs one execution attempt for the pattern:
	// safety gate, rate-limit gate, then all actions in order with
	// partial-failure accounting. Rejected attempts (not executable,
	// approval required, rate limited) create no execution record.
	//
	// The rate limit is a soft cap: admission counts recent records and
	// then inserts, so concurrent admissions can transiently overshoot.
	//
	// The returned error is non-nil only for orchestration faults
	// (Outcome == OutcomeFailed); rejections are reported through the
	// result alone.
	ExecuteWorkflow(ctx context.Context, patternID, triggerEventID string, userApproved bool) (ExecutionResult, error)

	// RecordFeedback marks an execution as correct or incorrect (at most
	// once) and reports whether this feedback auto-suspended the owning
	// pattern.
	RecordFeedback(ctx context.Context, executionID string, wasCorrect bool) (suspended bool, err error)

	// Accuracy computes the rolling accuracy report for a pattern.
	Accuracy(ctx context.Context, patternID string) (AccuracyReport, error)

	// CreateUndo stores the affected entity IDs of a reversible bulk
	// action and returns a single-use token. ttl <= 0 uses DefaultUndoTTL.
	CreateUndo(ctx context.Context, ids []string, ttl time.Duration) (token string, expiresAt time.Time, err error)

	// Undo redeems a token, consuming it. Only one of several concurrent
	// redemptions of the same token observes ok == true.
	Undo(ctx context.Context, token string) (ids []string, ok bool)

	// PeekUndo returns a token's IDs without consuming it.
	PeekUndo(ctx context.Context, token string) (ids []string, ok bool)

	// CollectUndoGarbage drops expired undo records and returns how many
	// were removed. Intended for periodic maintenance; the store also
	// sweeps lazily on every access.
	CollectUndoGarbage(ctx context.Context) int
}
