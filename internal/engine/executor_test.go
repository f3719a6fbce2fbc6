package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/petrijr/ritmo/internal/persistence"
	"github.com/petrijr/ritmo/pkg/api"
)

func TestExecuteWorkflowAllActionsSucceed(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	var ran []string
	if err := eng.RegisterAction("notify", func(ctx context.Context, a api.Action) error {
		ran = append(ran, a.Params["msg"])
		return nil
	}); err != nil {
		t.Fatalf("RegisterAction failed: %v", err)
	}

	p := newActivePattern(t, eng,
		api.Action{Type: "notify", Params: map[string]string{"msg": "one"}},
		api.Action{Type: "notify", Params: map[string]string{"msg": "two"}},
	)

	res, err := eng.ExecuteWorkflow(ctx, p.ID, "evt-1", false)
	if err != nil {
		t.Fatalf("ExecuteWorkflow failed: %v", err)
	}
	if res.Outcome != api.OutcomeCompleted || !res.Success {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.ActionsCompleted != 2 || res.ActionsFailed != 0 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if len(ran) != 2 || ran[0] != "one" || ran[1] != "two" {
		t.Fatalf("actions did not run in order: %v", ran)
	}
	if res.ExecutionID == "" {
		t.Fatal("expected an execution record")
	}
}

func TestExecuteWorkflowPartialFailure(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	attempted := 0
	if err := eng.RegisterAction("notify", func(ctx context.Context, a api.Action) error {
		attempted++
		if a.Params["n"] == "3" {
			return errors.New("boom")
		}
		return nil
	}); err != nil {
		t.Fatalf("RegisterAction failed: %v", err)
	}

	// 5 actions, the third faults; all 5 must still be attempted.
	actions := make([]api.Action, 5)
	for i := range actions {
		actions[i] = api.Action{Type: "notify", Params: map[string]string{"n": fmt.Sprint(i + 1)}}
	}
	p := newActivePattern(t, eng, actions...)

	res, err := eng.ExecuteWorkflow(ctx, p.ID, "", false)
	if err != nil {
		t.Fatalf("ExecuteWorkflow failed: %v", err)
	}
	if attempted != 5 {
		t.Fatalf("expected all 5 actions attempted, got %d", attempted)
	}
	if res.ActionsCompleted != 4 || res.ActionsFailed != 1 || res.Success {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Outcome != api.OutcomePartial {
		t.Fatalf("expected partial outcome, got %s", res.Outcome)
	}
	if res.Error == "" {
		t.Fatal("expected the first action error to be reported")
	}
}

func TestExecuteWorkflowActionPanicContained(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	if err := eng.RegisterAction("explode", func(ctx context.Context, a api.Action) error {
		panic("kaboom")
	}); err != nil {
		t.Fatalf("RegisterAction failed: %v", err)
	}
	if err := eng.RegisterAction("notify", func(ctx context.Context, a api.Action) error {
		return nil
	}); err != nil {
		t.Fatalf("RegisterAction failed: %v", err)
	}

	p := newActivePattern(t, eng,
		api.Action{Type: "explode"},
		api.Action{Type: "notify"},
	)

	res, err := eng.ExecuteWorkflow(ctx, p.ID, "", false)
	if err != nil {
		t.Fatalf("a panicking action must not abort the attempt: %v", err)
	}
	if res.ActionsCompleted != 1 || res.ActionsFailed != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
}

func TestExecuteWorkflowUnregisteredActionFails(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	p := newActivePattern(t, eng, api.Action{Type: "notify"})

	res, err := eng.ExecuteWorkflow(ctx, p.ID, "", false)
	if err != nil {
		t.Fatalf("ExecuteWorkflow failed: %v", err)
	}
	if res.ActionsFailed != 1 || res.Success {
		t.Fatalf("unregistered action should count as failed: %+v", res)
	}
}

func TestExecuteWorkflowNotExecutable(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	// Unknown pattern.
	res, err := eng.ExecuteWorkflow(ctx, "missing", "", false)
	if err != nil {
		t.Fatalf("ExecuteWorkflow failed: %v", err)
	}
	if res.Outcome != api.OutcomeNotExecutable {
		t.Fatalf("expected not_executable, got %s", res.Outcome)
	}
	if res.ExecutionID != "" {
		t.Fatal("rejected attempt must not create a record")
	}

	// Proposed pattern (never approved).
	p, err := eng.CreatePattern(ctx, api.Pattern{
		Trigger: "t",
		Actions: []api.Action{{Type: "notify"}},
	})
	if err != nil {
		t.Fatalf("CreatePattern failed: %v", err)
	}
	res, err = eng.ExecuteWorkflow(ctx, p.ID, "", false)
	if err != nil {
		t.Fatalf("ExecuteWorkflow failed: %v", err)
	}
	if res.Outcome != api.OutcomeNotExecutable {
		t.Fatalf("expected not_executable for proposed pattern, got %s", res.Outcome)
	}
}

func TestExecuteWorkflowDestructiveNeedsApproval(t *testing.T) {
	ctx := context.Background()

	store := persistence.NewInMemoryStore()
	eng := NewEngine(persistence.Persistence{Patterns: store, Executions: store})

	ran := false
	if err := eng.RegisterAction("cleanup", func(ctx context.Context, a api.Action) error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("RegisterAction failed: %v", err)
	}

	p := newActivePattern(t, eng,
		api.Action{Type: "cleanup", Params: map[string]string{"op": "delete old captures"}},
	)

	res, err := eng.ExecuteWorkflow(ctx, p.ID, "evt-1", false)
	if err != nil {
		t.Fatalf("ExecuteWorkflow failed: %v", err)
	}
	if res.Outcome != api.OutcomeApprovalRequired {
		t.Fatalf("expected approval_required, got %s", res.Outcome)
	}
	if ran {
		t.Fatal("no action may run without approval")
	}

	// Zero execution records were created.
	execs, err := store.ListExecutions(p.ID, false, 0)
	if err != nil {
		t.Fatalf("ListExecutions failed: %v", err)
	}
	if len(execs) != 0 {
		t.Fatalf("expected no records, got %d", len(execs))
	}

	// With approval the same pattern executes.
	res, err = eng.ExecuteWorkflow(ctx, p.ID, "evt-2", true)
	if err != nil {
		t.Fatalf("ExecuteWorkflow failed: %v", err)
	}
	if res.Outcome != api.OutcomeCompleted || !ran {
		t.Fatalf("approved destructive pattern should run: %+v", res)
	}
}

func TestFeedbackThroughEngine(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	if err := eng.RegisterAction("notify", func(ctx context.Context, a api.Action) error {
		return nil
	}); err != nil {
		t.Fatalf("RegisterAction failed: %v", err)
	}
	p := newActivePattern(t, eng)

	res, err := eng.ExecuteWorkflow(ctx, p.ID, "", false)
	if err != nil {
		t.Fatalf("ExecuteWorkflow failed: %v", err)
	}

	suspended, err := eng.RecordFeedback(ctx, res.ExecutionID, true)
	if err != nil {
		t.Fatalf("RecordFeedback failed: %v", err)
	}
	if suspended {
		t.Fatal("one good review must not suspend anything")
	}

	report, err := eng.Accuracy(ctx, p.ID)
	if err != nil {
		t.Fatalf("Accuracy failed: %v", err)
	}
	if report.TotalReviewed != 1 || report.Correct != 1 || report.AtRisk {
		t.Fatalf("unexpected report: %+v", report)
	}

	if _, err := eng.RecordFeedback(ctx, res.ExecutionID, false); !errors.Is(err, persistence.ErrFeedbackAlreadySet) {
		t.Fatalf("expected ErrFeedbackAlreadySet, got %v", err)
	}
}
