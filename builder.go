package ritmo

import (
	"context"

	"github.com/petrijr/ritmo/pkg/api"
)

// PatternBuilder provides a fluent API for proposing patterns:
//
//	p, err := ritmo.New("invoice email received").
//	    Action("archive_email", map[string]string{"folder": "invoices"}).
//	    Action("notify", map[string]string{"channel": "finance"}).
//	    Create(ctx, engine)
//
// The created pattern starts in StatusProposed; approve it with
// engine.ApprovePattern before it can execute.
type PatternBuilder struct {
	pattern api.Pattern
}

// New creates a new pattern builder for the given trigger description.
func New(trigger string) *PatternBuilder {
	return &PatternBuilder{
		pattern: api.Pattern{
			Trigger: trigger,
			Actions: make([]api.Action, 0),
		},
	}
}

// Trigger returns the trigger description.
func (b *PatternBuilder) Trigger() string {
	return b.pattern.Trigger
}

// Pattern returns the pattern built so far.
// Typically used when interacting with lower-level APIs.
func (b *PatternBuilder) Pattern() Pattern {
	return b.pattern
}

// Action appends an action of the given type. Params may be nil.
func (b *PatternBuilder) Action(actionType string, params map[string]string) *PatternBuilder {
	if actionType == "" {
		panic("ritmo: action type must not be empty")
	}

	// Copy params so callers can mutate their map after the call without
	// affecting the stored pattern.
	var p map[string]string
	if len(params) > 0 {
		p = make(map[string]string, len(params))
		for k, v := range params {
			p[k] = v
		}
	}

	b.pattern.Actions = append(b.pattern.Actions, api.Action{
		Type:   actionType,
		Params: p,
	})
	return b
}

// Notify is a convenience for appending a notify action, the most common
// always-safe action type.
func (b *PatternBuilder) Notify(params map[string]string) *PatternBuilder {
	return b.Action("notify", params)
}

// Create proposes the built pattern on the given engine.
func (b *PatternBuilder) Create(ctx context.Context, eng Engine) (*Pattern, error) {
	return eng.CreatePattern(ctx, b.pattern)
}

// MustCreate is like Create but panics on error.
// Useful for initialization in main().
func (b *PatternBuilder) MustCreate(ctx context.Context, eng Engine) *Pattern {
	p, err := b.Create(ctx, eng)
	if err != nil {
		panic(err)
	}
	return p
}
