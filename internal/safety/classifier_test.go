package safety

import (
	"testing"

	"github.com/petrijr/ritmo/pkg/api"
)

func TestDestructiveKeywordsNeverSafe(t *testing.T) {
	// No false negatives for the fixed keyword set: any action whose text
	// carries a destructive keyword must not classify as safe.
	for _, kw := range destructiveKeywords {
		a := api.Action{
			Type:   "custom",
			Params: map[string]string{"task": kw + " all matching items"},
		}
		if got := Classify(a); got != api.SafetyDestructive {
			t.Errorf("keyword %q: expected destructive, got %s", kw, got)
		}
	}
}

func TestCautionKeywords(t *testing.T) {
	for _, kw := range cautionKeywords {
		a := api.Action{
			Type:   "organize",
			Params: map[string]string{"op": kw},
		}
		got := Classify(a)
		if got == api.SafetySafe {
			t.Errorf("keyword %q: expected at least caution, got safe", kw)
		}
	}
}

func TestDestructiveCheckedBeforeCaution(t *testing.T) {
	// An action matching both lists takes the destructive classification.
	a := api.Action{
		Type:   "cleanup",
		Params: map[string]string{"op": "move then delete"},
	}
	if got := Classify(a); got != api.SafetyDestructive {
		t.Fatalf("expected destructive, got %s", got)
	}
}

func TestAlwaysSafeTypes(t *testing.T) {
	for typ := range alwaysSafe {
		a := api.Action{Type: typ, Params: map[string]string{"to": "user"}}
		if got := Classify(a); got != api.SafetySafe {
			t.Errorf("type %q: expected safe, got %s", typ, got)
		}
	}
}

func TestCautionFloorTypes(t *testing.T) {
	for typ := range cautionFloor {
		a := api.Action{Type: typ}
		if got := Classify(a); got == api.SafetySafe {
			t.Errorf("type %q: expected at least caution, got safe", typ)
		}
	}
}

func TestMalformedActionIsCaution(t *testing.T) {
	if got := Classify(api.Action{}); got != api.SafetyCaution {
		t.Fatalf("empty action type: expected caution, got %s", got)
	}
}

func TestUnmatchedActionIsSafe(t *testing.T) {
	a := api.Action{Type: "tag", Params: map[string]string{"label": "invoices"}}
	if got := Classify(a); got != api.SafetySafe {
		t.Fatalf("expected safe, got %s", got)
	}
}

func TestClassifyAllDestructiveDominates(t *testing.T) {
	destructive := api.Action{Type: "cleanup", Params: map[string]string{"op": "purge"}}
	benign := api.Action{Type: "tag"}
	caution := api.Action{Type: "organize", Params: map[string]string{"op": "rename"}}

	// Regardless of ordering.
	orders := [][]api.Action{
		{destructive, benign, caution},
		{benign, caution, destructive},
		{caution, destructive, benign},
	}
	for i, actions := range orders {
		if got := ClassifyAll(actions); got != api.SafetyDestructive {
			t.Errorf("order %d: expected destructive, got %s", i, got)
		}
	}

	if got := ClassifyAll([]api.Action{benign, caution}); got != api.SafetyCaution {
		t.Fatalf("expected caution, got %s", got)
	}
	if got := ClassifyAll(nil); got != api.SafetySafe {
		t.Fatalf("empty set: expected safe, got %s", got)
	}
}

func TestIsDestructive(t *testing.T) {
	if !IsDestructive(api.Action{Type: "pay_invoice", Params: map[string]string{"amount": "100"}}) {
		t.Fatal("payment action should be destructive")
	}
	if IsDestructive(api.Action{Type: "notify"}) {
		t.Fatal("notification should not be destructive")
	}
}
