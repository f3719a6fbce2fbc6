package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay workflow execution.
type Observer interface {
	// OnExecutionStart is called once per admitted attempt, after the
	// safety and rate-limit gates passed, before the first action runs.
	OnExecutionStart(ctx context.Context, pattern *Pattern, triggerEventID string)

	// OnExecutionFinished is called after the execution record has been
	// persisted, for both fully and partially successful attempts.
	OnExecutionFinished(ctx context.Context, pattern *Pattern, exec *WorkflowExecution)

	// OnExecutionRejected is called when an attempt is rejected before
	// any action runs (not executable, approval required, rate limited).
	OnExecutionRejected(ctx context.Context, patternID string, outcome Outcome)

	// OnActionCompleted is called after each action, for both successes
	// and failures (err != nil). index is the 0-based position in
	// Pattern.Actions.
	OnActionCompleted(ctx context.Context, pattern *Pattern, action Action, index int, err error, duration time.Duration)

	// OnPatternSuspended is called when a pattern transitions to
	// StatusSuspended, whether by operator action or auto-suspension.
	OnPatternSuspended(ctx context.Context, pattern *Pattern, reason string)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnExecutionStart(ctx context.Context, pattern *Pattern, triggerEventID string) {}
func (NoopObserver) OnExecutionFinished(ctx context.Context, pattern *Pattern, exec *WorkflowExecution) {
}
func (NoopObserver) OnExecutionRejected(ctx context.Context, patternID string, outcome Outcome) {}
func (NoopObserver) OnActionCompleted(ctx context.Context, pattern *Pattern, action Action, index int, err error, d time.Duration) {
}
func (NoopObserver) OnPatternSuspended(ctx context.Context, pattern *Pattern, reason string) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnExecutionStart(ctx context.Context, pattern *Pattern, triggerEventID string) {
	for _, o := range c.observers {
		o.OnExecutionStart(ctx, pattern, triggerEventID)
	}
}

func (c *CompositeObserver) OnExecutionFinished(ctx context.Context, pattern *Pattern, exec *WorkflowExecution) {
	for _, o := range c.observers {
		o.OnExecutionFinished(ctx, pattern, exec)
	}
}

func (c *CompositeObserver) OnExecutionRejected(ctx context.Context, patternID string, outcome Outcome) {
	for _, o := range c.observers {
		o.OnExecutionRejected(ctx, patternID, outcome)
	}
}

func (c *CompositeObserver) OnActionCompleted(ctx context.Context, pattern *Pattern, action Action, index int, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnActionCompleted(ctx, pattern, action, index, err, d)
	}
}

func (c *CompositeObserver) OnPatternSuspended(ctx context.Context, pattern *Pattern, reason string) {
	for _, o := range c.observers {
		o.OnPatternSuspended(ctx, pattern, reason)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs engine lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnExecutionStart(ctx context.Context, pattern *Pattern, triggerEventID string) {
	o.Logger.InfoContext(ctx, "execution_start",
		slog.String("pattern_id", pattern.ID),
		slog.String("trigger_event_id", triggerEventID),
	)
}

func (o *LoggingObserver) OnExecutionFinished(ctx context.Context, pattern *Pattern, exec *WorkflowExecution) {
	level := slog.LevelInfo
	if !exec.Success {
		level = slog.LevelWarn
	}
	o.Logger.Log(ctx, level, "execution_finished",
		slog.String("pattern_id", pattern.ID),
		slog.String("execution_id", exec.ID),
		slog.Bool("success", exec.Success),
		slog.Int("actions_completed", exec.ActionsCompleted),
		slog.Int("actions_failed", exec.ActionsFailed),
	)
}

func (o *LoggingObserver) OnExecutionRejected(ctx context.Context, patternID string, outcome Outcome) {
	o.Logger.InfoContext(ctx, "execution_rejected",
		slog.String("pattern_id", patternID),
		slog.String("outcome", string(outcome)),
	)
}

func (o *LoggingObserver) OnActionCompleted(ctx context.Context, pattern *Pattern, action Action, index int, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "action_completed",
		slog.String("pattern_id", pattern.ID),
		slog.String("action_type", action.Type),
		slog.Int("action_index", index),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnPatternSuspended(ctx context.Context, pattern *Pattern, reason string) {
	o.Logger.WarnContext(ctx, "pattern_suspended",
		slog.String("pattern_id", pattern.ID),
		slog.String("reason", reason),
	)
}

// BasicMetrics collects simple counters for engine activity.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	executionsStarted  atomic.Int64
	executionsFinished atomic.Int64
	executionsPartial  atomic.Int64
	rejected           atomic.Int64
	actionsFailed      atomic.Int64
	patternsSuspended  atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	ExecutionsStarted  int64
	ExecutionsFinished int64
	ExecutionsPartial  int64
	Rejected           int64
	ActionsFailed      int64
	PatternsSuspended  int64
}

func (m *BasicMetrics) OnExecutionStart(ctx context.Context, pattern *Pattern, triggerEventID string) {
	m.executionsStarted.Add(1)
}

func (m *BasicMetrics) OnExecutionFinished(ctx context.Context, pattern *Pattern, exec *WorkflowExecution) {
	m.executionsFinished.Add(1)
	if !exec.Success {
		m.executionsPartial.Add(1)
	}
}

func (m *BasicMetrics) OnExecutionRejected(ctx context.Context, patternID string, outcome Outcome) {
	m.rejected.Add(1)
}

func (m *BasicMetrics) OnActionCompleted(ctx context.Context, pattern *Pattern, action Action, index int, err error, d time.Duration) {
	if err != nil {
		m.actionsFailed.Add(1)
	}
}

func (m *BasicMetrics) OnPatternSuspended(ctx context.Context, pattern *Pattern, reason string) {
	m.patternsSuspended.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	return BasicMetricsSnapshot{
		ExecutionsStarted:  m.executionsStarted.Load(),
		ExecutionsFinished: m.executionsFinished.Load(),
		ExecutionsPartial:  m.executionsPartial.Load(),
		Rejected:           m.rejected.Load(),
		ActionsFailed:      m.actionsFailed.Load(),
		PatternsSuspended:  m.patternsSuspended.Load(),
	}
}
