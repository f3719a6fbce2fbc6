package ritmo

import (
	"context"
	"testing"
)

func TestPatternBuilderBuildsActionsInOrder(t *testing.T) {
	b := New("invoice email received").
		Action("archive_email", map[string]string{"folder": "invoices"}).
		Notify(map[string]string{"channel": "finance"})

	p := b.Pattern()
	if p.Trigger != "invoice email received" {
		t.Fatalf("unexpected trigger: %q", p.Trigger)
	}
	if len(p.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(p.Actions))
	}
	if p.Actions[0].Type != "archive_email" || p.Actions[1].Type != "notify" {
		t.Fatalf("actions out of order: %+v", p.Actions)
	}
	if p.Actions[0].Params["folder"] != "invoices" {
		t.Fatalf("params lost: %+v", p.Actions[0].Params)
	}
}

func TestPatternBuilderCopiesParams(t *testing.T) {
	params := map[string]string{"folder": "invoices"}
	b := New("t").Action("archive_email", params)

	params["folder"] = "changed-after-the-fact"

	if got := b.Pattern().Actions[0].Params["folder"]; got != "invoices" {
		t.Fatalf("stored params aliased the caller's map: %q", got)
	}
}

func TestPatternBuilderRejectsEmptyActionType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on empty action type")
		}
	}()
	New("t").Action("", nil)
}

func TestPatternBuilderCreateProposes(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	p, err := New("build finished").Notify(nil).Create(ctx, eng)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected a generated pattern ID")
	}
	if p.Status != StatusProposed {
		t.Fatalf("expected proposed status, got %s", p.Status)
	}

	// Proposed patterns do not execute.
	res, err := Execute(ctx, eng, p.ID, "evt-1", false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Outcome != OutcomeNotExecutable {
		t.Fatalf("expected not_executable before approval, got %s", res.Outcome)
	}
}
