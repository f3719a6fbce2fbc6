package engine

import (
	"context"
	"testing"
	"time"

	"github.com/petrijr/ritmo/pkg/api"
)

func newActivePattern(t *testing.T, eng api.Engine, actions ...api.Action) *api.Pattern {
	t.Helper()
	ctx := context.Background()

	if len(actions) == 0 {
		actions = []api.Action{{Type: "notify"}}
	}
	p, err := eng.CreatePattern(ctx, api.Pattern{
		Trigger: "test trigger",
		Actions: actions,
	})
	if err != nil {
		t.Fatalf("CreatePattern failed: %v", err)
	}
	if err := eng.ApprovePattern(ctx, p.ID); err != nil {
		t.Fatalf("ApprovePattern failed: %v", err)
	}
	return p
}

func TestCreatePatternStartsProposed(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	p, err := eng.CreatePattern(ctx, api.Pattern{
		Trigger: "screenshot of a receipt",
		Actions: []api.Action{{Type: "tag", Params: map[string]string{"label": "receipt"}}},
		// A caller-supplied status must be ignored.
		Status: api.StatusActive,
	})
	if err != nil {
		t.Fatalf("CreatePattern failed: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected generated pattern ID")
	}
	if p.Status != api.StatusProposed {
		t.Fatalf("expected proposed, got %q", p.Status)
	}

	got, err := eng.GetPattern(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPattern failed: %v", err)
	}
	if got.Status != api.StatusProposed {
		t.Fatalf("stored status %q, want proposed", got.Status)
	}
}

func TestCreatePatternValidates(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	if _, err := eng.CreatePattern(ctx, api.Pattern{Trigger: "t"}); err == nil {
		t.Fatal("expected error for pattern without actions")
	}
	if _, err := eng.CreatePattern(ctx, api.Pattern{Actions: []api.Action{{Type: "notify"}}}); err == nil {
		t.Fatal("expected error for pattern without trigger")
	}
}

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	p, err := eng.CreatePattern(ctx, api.Pattern{
		Trigger: "t",
		Actions: []api.Action{{Type: "notify"}},
	})
	if err != nil {
		t.Fatalf("CreatePattern failed: %v", err)
	}

	// proposed -> suspended is illegal.
	if err := eng.SuspendPattern(ctx, p.ID, "nope"); err == nil {
		t.Fatal("expected error suspending a proposed pattern")
	}

	if err := eng.ApprovePattern(ctx, p.ID); err != nil {
		t.Fatalf("ApprovePattern failed: %v", err)
	}
	// Double approval is illegal.
	if err := eng.ApprovePattern(ctx, p.ID); err == nil {
		t.Fatal("expected error approving an active pattern")
	}

	if err := eng.SuspendPattern(ctx, p.ID, "manual review"); err != nil {
		t.Fatalf("SuspendPattern failed: %v", err)
	}
	got, _ := eng.GetPattern(ctx, p.ID)
	if got.Status != api.StatusSuspended || got.SuspendReason != "manual review" {
		t.Fatalf("suspension not applied: %+v", got)
	}

	if err := eng.ReactivatePattern(ctx, p.ID); err != nil {
		t.Fatalf("ReactivatePattern failed: %v", err)
	}
	got, _ = eng.GetPattern(ctx, p.ID)
	if got.Status != api.StatusActive || got.SuspendReason != "" {
		t.Fatalf("reactivation did not clear suspension: %+v", got)
	}

	if err := eng.RetirePattern(ctx, p.ID); err != nil {
		t.Fatalf("RetirePattern failed: %v", err)
	}
	// Retired is terminal.
	if err := eng.ReactivatePattern(ctx, p.ID); err == nil {
		t.Fatal("expected error reactivating a retired pattern")
	}
	if err := eng.RetirePattern(ctx, p.ID); err == nil {
		t.Fatal("expected error retiring a retired pattern")
	}
}

func TestListPatternsByStatus(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	for i := 0; i < 3; i++ {
		p, err := eng.CreatePattern(ctx, api.Pattern{
			Trigger: "t",
			Actions: []api.Action{{Type: "notify"}},
		})
		if err != nil {
			t.Fatalf("CreatePattern failed: %v", err)
		}
		if i > 0 {
			if err := eng.ApprovePattern(ctx, p.ID); err != nil {
				t.Fatalf("ApprovePattern failed: %v", err)
			}
		}
	}

	active, err := eng.ListPatterns(ctx, api.PatternListOptions{Status: api.StatusActive})
	if err != nil {
		t.Fatalf("ListPatterns failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active patterns, got %d", len(active))
	}
	all, err := eng.ListPatterns(ctx, api.PatternListOptions{})
	if err != nil {
		t.Fatalf("ListPatterns failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 patterns, got %d", len(all))
	}
}

func TestRegisterActionDuplicate(t *testing.T) {
	eng := NewInMemoryEngine()

	fn := func(ctx context.Context, a api.Action) error { return nil }
	if err := eng.RegisterAction("notify", fn); err != nil {
		t.Fatalf("RegisterAction failed: %v", err)
	}
	if err := eng.RegisterAction("notify", fn); err == nil {
		t.Fatal("expected error on duplicate registration")
	}
	if err := eng.RegisterAction("", fn); err == nil {
		t.Fatal("expected error on empty action type")
	}
	if err := eng.RegisterAction("other", nil); err == nil {
		t.Fatal("expected error on nil function")
	}
}

func TestUndoThroughEngine(t *testing.T) {
	ctx := context.Background()
	eng := NewInMemoryEngine()

	token, expiresAt, err := eng.CreateUndo(ctx, []string{"a", "b"}, 0)
	if err != nil {
		t.Fatalf("CreateUndo failed: %v", err)
	}
	if until := time.Until(expiresAt); until < 9*time.Minute || until > 11*time.Minute {
		t.Fatalf("expected default TTL around 10m, got %v", until)
	}

	if ids, ok := eng.PeekUndo(ctx, token); !ok || len(ids) != 2 {
		t.Fatalf("PeekUndo: ok=%v ids=%v", ok, ids)
	}
	if ids, ok := eng.Undo(ctx, token); !ok || len(ids) != 2 {
		t.Fatalf("Undo: ok=%v ids=%v", ok, ids)
	}
	if _, ok := eng.Undo(ctx, token); ok {
		t.Fatal("second Undo must fail")
	}

	if _, _, err := eng.CreateUndo(ctx, nil, 0); err == nil {
		t.Fatal("expected error for empty id set")
	}
}
