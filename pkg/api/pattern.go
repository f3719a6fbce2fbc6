package api

import (
	"errors"
	"fmt"
	"time"
)

// PatternStatus represents the lifecycle state of an automation pattern.
type PatternStatus string

const (
	// StatusProposed is the initial state: the pattern was detected (or
	// created) but has not been approved for execution yet.
	StatusProposed PatternStatus = "proposed"

	// StatusActive patterns are eligible for triggering.
	StatusActive PatternStatus = "active"

	// StatusSuspended patterns are temporarily excluded from triggering,
	// either by operator action or by the accuracy tracker.
	StatusSuspended PatternStatus = "suspended"

	// StatusRetired is terminal; a retired pattern never triggers again.
	StatusRetired PatternStatus = "retired"
)

// CanTransitionTo reports whether a status change is allowed:
//
//	proposed  -> active, retired
//	active    -> suspended, retired
//	suspended -> active, retired
//	retired   -> (none)
//
// Suspension is reversible by explicit reactivation; retirement is not.
func (s PatternStatus) CanTransitionTo(next PatternStatus) bool {
	switch s {
	case StatusProposed:
		return next == StatusActive || next == StatusRetired
	case StatusActive:
		return next == StatusSuspended || next == StatusRetired
	case StatusSuspended:
		return next == StatusActive || next == StatusRetired
	default:
		return false
	}
}

// Action is a single step of a pattern: a type tag plus free-form parameters.
// The engine resolves Type against its registered ActionFuncs at execution
// time; the safety classifier inspects both Type and Params.
type Action struct {
	Type   string
	Params map[string]string
}

// Pattern is a recurring trigger->actions automation rule.
type Pattern struct {
	ID      string
	Trigger string
	Actions []Action
	Status  PatternStatus

	// SuspendReason is set when Status is StatusSuspended. For automatic
	// suspensions it is machine-generated by the accuracy tracker.
	SuspendReason string

	CreatedAt time.Time
}

// Validate checks the structural invariants of a pattern.
func (p *Pattern) Validate() error {
	if p.Trigger == "" {
		return errors.New("pattern trigger is required")
	}
	if len(p.Actions) == 0 {
		return errors.New("pattern must have at least one action")
	}
	for i, a := range p.Actions {
		if a.Type == "" {
			return fmt.Errorf("action %d has empty type", i)
		}
	}
	return nil
}

// PatternListOptions controls how patterns are listed.
// Zero values mean "no filter" for that field.
type PatternListOptions struct {
	// Status, if non-empty, limits results to patterns with the given status.
	Status PatternStatus
}
