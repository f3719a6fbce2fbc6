// Package engine implements the workflow automation engine: pattern
// lifecycle, the safety and rate-limit gates, action execution with
// partial-failure accounting, and the undo wiring.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/ritmo/internal/accuracy"
	"github.com/petrijr/ritmo/internal/persistence"
	"github.com/petrijr/ritmo/internal/safety"
	"github.com/petrijr/ritmo/internal/undo"
	"github.com/petrijr/ritmo/pkg/api"
)

// engineImpl is a synchronous, in-process engine implementation. It is safe
// for concurrent invocation; patterns and executions are the only shared
// mutable state and all mutation goes through the stores.
type engineImpl struct {
	patterns   persistence.PatternStore
	executions persistence.ExecutionStore
	undoStore  undo.Store
	tracker    *accuracy.Tracker
	observer   api.Observer

	mu      sync.RWMutex // guards actions
	actions map[string]api.ActionFunc

	maxPerHour int
	now        func() time.Time
}

// Config describes how to construct an engineImpl.
// Only used inside this package; external callers use the helper functions.
type Config struct {
	Persistence persistence.Persistence
	Undo        undo.Store
	Observer    api.Observer

	// MaxExecutionsPerHour overrides api.MaxExecutionsPerHour when > 0.
	MaxExecutionsPerHour int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewInMemoryEngine returns an Engine backed entirely by in-memory stores.
func NewInMemoryEngine() api.Engine {
	return NewInMemoryEngineWithObserver(nil)
}

// NewInMemoryEngineWithObserver returns an in-memory Engine with the given Observer.
func NewInMemoryEngineWithObserver(obs api.Observer) api.Engine {
	mem := persistence.NewInMemoryStore()
	return NewEngineWithConfig(Config{
		Persistence: persistence.Persistence{
			Patterns:   mem,
			Executions: mem,
		},
		Observer: obs,
	})
}

// NewSQLiteEngine returns an Engine that persists patterns and executions
// in a SQLite database. Undo tokens remain in-memory: they are short-lived
// by design and carry no persistence guarantee across restarts.
func NewSQLiteEngine(db *sql.DB) (api.Engine, error) {
	return NewSQLiteEngineWithObserver(db, nil)
}

// NewSQLiteEngineWithObserver returns a SQLite-backed Engine with the given Observer.
func NewSQLiteEngineWithObserver(db *sql.DB, obs api.Observer) (api.Engine, error) {
	store, err := persistence.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return NewEngineWithConfig(Config{
		Persistence: persistence.Persistence{
			Patterns:   store,
			Executions: store,
		},
		Observer: obs,
	}), nil
}

// NewEngine returns an Engine using the given stores with defaults for
// everything else.
func NewEngine(p persistence.Persistence) api.Engine {
	return NewEngineWithConfig(Config{Persistence: p})
}

// NewEngineWithConfig creates a new Engine using the given configuration.
func NewEngineWithConfig(cfg Config) api.Engine {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	undoStore := cfg.Undo
	if undoStore == nil {
		undoStore = undo.NewMemoryStore()
	}
	maxPerHour := cfg.MaxExecutionsPerHour
	if maxPerHour <= 0 {
		maxPerHour = api.MaxExecutionsPerHour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &engineImpl{
		patterns:   cfg.Persistence.Patterns,
		executions: cfg.Persistence.Executions,
		undoStore:  undoStore,
		tracker:    accuracy.New(cfg.Persistence.Patterns, cfg.Persistence.Executions, obs),
		observer:   obs,
		actions:    make(map[string]api.ActionFunc),
		maxPerHour: maxPerHour,
		now:        now,
	}
}

func (e *engineImpl) CreatePattern(ctx context.Context, p api.Pattern) (*api.Pattern, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = api.StatusProposed
	p.SuspendReason = ""
	if p.CreatedAt.IsZero() {
		p.CreatedAt = e.now()
	}

	if err := e.patterns.SavePattern(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (e *engineImpl) GetPattern(ctx context.Context, id string) (*api.Pattern, error) {
	p, err := e.patterns.GetPattern(id)
	if err != nil {
		if errors.Is(err, persistence.ErrPatternNotFound) {
			return nil, fmt.Errorf("pattern not found: %s", id)
		}
		return nil, err
	}
	return p, nil
}

func (e *engineImpl) ListPatterns(ctx context.Context, opts api.PatternListOptions) ([]*api.Pattern, error) {
	return e.patterns.ListPatterns(persistence.PatternFilter{Status: opts.Status})
}

func (e *engineImpl) ApprovePattern(ctx context.Context, id string) error {
	return e.transition(ctx, id, api.StatusActive, "", api.StatusProposed)
}

func (e *engineImpl) SuspendPattern(ctx context.Context, id string, reason string) error {
	if reason == "" {
		reason = "suspended by operator"
	}
	return e.transition(ctx, id, api.StatusSuspended, reason, api.StatusActive)
}

func (e *engineImpl) ReactivatePattern(ctx context.Context, id string) error {
	return e.transition(ctx, id, api.StatusActive, "", api.StatusSuspended)
}

func (e *engineImpl) RetirePattern(ctx context.Context, id string) error {
	return e.transition(ctx, id, api.StatusRetired, "",
		api.StatusProposed, api.StatusActive, api.StatusSuspended)
}

// transition applies a status change after checking that the pattern's
// current status is one of 'from' and that the change is legal.
func (e *engineImpl) transition(ctx context.Context, id string, to api.PatternStatus, reason string, from ...api.PatternStatus) error {
	p, err := e.patterns.GetPattern(id)
	if err != nil {
		if errors.Is(err, persistence.ErrPatternNotFound) {
			return fmt.Errorf("pattern not found: %s", id)
		}
		return err
	}

	allowed := false
	for _, f := range from {
		if p.Status == f {
			allowed = true
			break
		}
	}
	if !allowed || !p.Status.CanTransitionTo(to) {
		return fmt.Errorf("cannot move pattern %s from %s to %s", id, p.Status, to)
	}

	if err := e.patterns.UpdatePatternStatus(id, to, reason); err != nil {
		return err
	}

	if to == api.StatusSuspended {
		p.Status = to
		p.SuspendReason = reason
		e.observer.OnPatternSuspended(ctx, p, reason)
	}
	return nil
}

func (e *engineImpl) RegisterAction(actionType string, fn api.ActionFunc) error {
	if actionType == "" {
		return errors.New("action type is required")
	}
	if fn == nil {
		return fmt.Errorf("action %q has nil function", actionType)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.actions[actionType]; ok {
		return fmt.Errorf("action already registered: %s", actionType)
	}
	e.actions[actionType] = fn
	return nil
}

// ExecuteWorkflow runs one execution attempt. See api.Engine for the
// contract; the gates run in a fixed order so that rejected attempts never
// consume rate-limit budget and never create an execution record.
func (e *engineImpl) ExecuteWorkflow(ctx context.Context, patternID, triggerEventID string, userApproved bool) (api.ExecutionResult, error) {
	p, err := e.patterns.GetPattern(patternID)
	if err != nil {
		if errors.Is(err, persistence.ErrPatternNotFound) {
			return e.reject(ctx, patternID, api.OutcomeNotExecutable), nil
		}
		return api.ExecutionResult{Outcome: api.OutcomeFailed, Error: err.Error()}, err
	}
	if p.Status != api.StatusActive {
		return e.reject(ctx, patternID, api.OutcomeNotExecutable), nil
	}

	// Safety gate: destructive actions need explicit prior approval.
	if safety.ClassifyAll(p.Actions) == api.SafetyDestructive && !userApproved {
		return e.reject(ctx, patternID, api.OutcomeApprovalRequired), nil
	}

	// Rate-limit gate: a soft cap on records created in the trailing hour.
	// Count-then-create is two steps, so concurrent admissions can
	// transiently overshoot.
	count, err := e.executions.CountExecutionsSince(e.now().Add(-time.Hour))
	if err != nil {
		return api.ExecutionResult{Outcome: api.OutcomeFailed, Error: err.Error()}, err
	}
	if count >= e.maxPerHour {
		return e.reject(ctx, patternID, api.OutcomeRateLimited), nil
	}

	e.observer.OnExecutionStart(ctx, p, triggerEventID)

	// All actions run in pattern order; a failure never stops the rest.
	completed, failed := 0, 0
	firstErr := ""
	for i, action := range p.Actions {
		start := time.Now()
		actErr := e.runAction(ctx, action)
		e.observer.OnActionCompleted(ctx, p, action, i, actErr, time.Since(start))

		if actErr != nil {
			failed++
			if firstErr == "" {
				firstErr = fmt.Sprintf("action %d (%s): %v", i, action.Type, actErr)
			}
			continue
		}
		completed++
	}

	exec := &api.WorkflowExecution{
		ID:               uuid.NewString(),
		PatternID:        p.ID,
		TriggerEventID:   triggerEventID,
		ActionsCompleted: completed,
		ActionsFailed:    failed,
		Success:          failed == 0,
		Error:            firstErr,
		CreatedAt:        e.now(),
	}
	if err := e.executions.SaveExecution(exec); err != nil {
		return api.ExecutionResult{Outcome: api.OutcomeFailed, Error: err.Error()}, err
	}

	e.observer.OnExecutionFinished(ctx, p, exec)

	outcome := api.OutcomeCompleted
	if failed > 0 {
		outcome = api.OutcomePartial
	}
	return api.ExecutionResult{
		ExecutionID:      exec.ID,
		Outcome:          outcome,
		Success:          exec.Success,
		ActionsCompleted: completed,
		ActionsFailed:    failed,
		Error:            firstErr,
	}, nil
}

func (e *engineImpl) reject(ctx context.Context, patternID string, outcome api.Outcome) api.ExecutionResult {
	e.observer.OnExecutionRejected(ctx, patternID, outcome)
	return api.ExecutionResult{Outcome: outcome}
}

// runAction dispatches a single action to its registered function. Any
// fault, including a panic, is contained at the action boundary and
// reported as that action's failure.
func (e *engineImpl) runAction(ctx context.Context, action api.Action) (err error) {
	e.mu.RLock()
	fn, ok := e.actions[action.Type]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no action registered for type %q", action.Type)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return fn(ctx, action)
}

func (e *engineImpl) RecordFeedback(ctx context.Context, executionID string, wasCorrect bool) (bool, error) {
	return e.tracker.RecordFeedback(ctx, executionID, wasCorrect)
}

func (e *engineImpl) Accuracy(ctx context.Context, patternID string) (api.AccuracyReport, error) {
	return e.tracker.Report(ctx, patternID)
}

func (e *engineImpl) CreateUndo(ctx context.Context, ids []string, ttl time.Duration) (string, time.Time, error) {
	if len(ids) == 0 {
		return "", time.Time{}, errors.New("undo requires at least one entity id")
	}
	if ttl <= 0 {
		ttl = api.DefaultUndoTTL
	}
	return e.undoStore.Create(ctx, ids, ttl)
}

func (e *engineImpl) Undo(ctx context.Context, token string) ([]string, bool) {
	return e.undoStore.Pop(ctx, token)
}

func (e *engineImpl) PeekUndo(ctx context.Context, token string) ([]string, bool) {
	return e.undoStore.Peek(ctx, token)
}

func (e *engineImpl) CollectUndoGarbage(ctx context.Context) int {
	return e.undoStore.Collect(ctx)
}
