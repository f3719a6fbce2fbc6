// Package accuracy implements the false-positive tracker: it records user
// feedback on workflow executions, computes rolling accuracy over the most
// recent reviewed executions, and auto-suspends patterns whose accuracy
// stays below threshold for a full review window.
package accuracy

import (
	"context"
	"fmt"

	"github.com/petrijr/ritmo/internal/persistence"
	"github.com/petrijr/ritmo/pkg/api"
)

const (
	// ReviewWindow is how many of the most recent reviewed executions the
	// accuracy is computed over.
	ReviewWindow = 10

	// AccuracyThreshold is the fraction of correct executions below which
	// a pattern is considered unreliable.
	AccuracyThreshold = 0.80

	// MinReviewedForRisk is the minimum number of reviewed executions
	// before AtRisk may be reported. Suspension additionally requires the
	// full ReviewWindow, so one bad result never flaps a pattern off
	// while operators still get early warning.
	MinReviewedForRisk = 3
)

// Tracker consumes execution feedback and drives auto-suspension.
// Suspension is a one-way signal: the tracker never reactivates a pattern.
type Tracker struct {
	patterns   persistence.PatternStore
	executions persistence.ExecutionStore
	observer   api.Observer
}

// New creates a Tracker. A nil observer defaults to NoopObserver.
func New(patterns persistence.PatternStore, executions persistence.ExecutionStore, obs api.Observer) *Tracker {
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &Tracker{
		patterns:   patterns,
		executions: executions,
		observer:   obs,
	}
}

// RecordFeedback marks an execution as correct or incorrect (at most once)
// and reports whether this feedback pushed the owning pattern into
// auto-suspension.
func (t *Tracker) RecordFeedback(ctx context.Context, executionID string, wasCorrect bool) (bool, error) {
	exec, err := t.executions.GetExecution(executionID)
	if err != nil {
		return false, err
	}

	if err := t.executions.RecordFeedback(executionID, wasCorrect); err != nil {
		return false, err
	}

	report, err := t.Report(ctx, exec.PatternID)
	if err != nil {
		return false, err
	}

	// Auto-suspension only fires once the full window has been reviewed.
	if report.TotalReviewed < ReviewWindow || report.Accuracy >= AccuracyThreshold {
		return false, nil
	}

	p, err := t.patterns.GetPattern(exec.PatternID)
	if err != nil {
		return false, err
	}
	if p.Status != api.StatusActive {
		// Already suspended or retired; nothing to do.
		return false, nil
	}

	reason := fmt.Sprintf(
		"auto-suspended: accuracy %.2f over last %d reviewed executions is below %.2f",
		report.Accuracy, report.TotalReviewed, AccuracyThreshold,
	)
	if err := t.patterns.UpdatePatternStatus(p.ID, api.StatusSuspended, reason); err != nil {
		return false, err
	}

	p.Status = api.StatusSuspended
	p.SuspendReason = reason
	t.observer.OnPatternSuspended(ctx, p, reason)
	return true, nil
}

// Report computes the rolling accuracy for a pattern over its most recent
// reviewed executions. Executions without feedback are excluded entirely,
// not counted as incorrect.
func (t *Tracker) Report(ctx context.Context, patternID string) (api.AccuracyReport, error) {
	execs, err := t.executions.ListExecutions(patternID, true, ReviewWindow)
	if err != nil {
		return api.AccuracyReport{}, err
	}

	report := api.AccuracyReport{PatternID: patternID}
	for _, exec := range execs {
		report.TotalReviewed++
		if exec.WasCorrect != nil && *exec.WasCorrect {
			report.Correct++
		} else {
			report.Incorrect++
		}
	}

	if report.TotalReviewed > 0 {
		report.Accuracy = float64(report.Correct) / float64(report.TotalReviewed)
	}
	report.AtRisk = report.TotalReviewed >= MinReviewedForRisk && report.Accuracy < AccuracyThreshold
	return report, nil
}
