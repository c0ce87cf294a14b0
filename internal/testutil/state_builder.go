package testutil

import "github.com/hupe1980/pathway/core"

// StateBuilder constructs routed states with fluent chaining for tests.
// Example:
//
//	st := NewStateBuilder("req-1", "status?").Athlete("Michael").Output(core.NewOutput("status", "ok")).Build()
type StateBuilder struct {
	id      string
	query   string
	athlete string
	context map[string]any
	outputs []core.Output
}

// NewStateBuilder starts a state for the given request id and query.
func NewStateBuilder(id, query string) *StateBuilder {
	return &StateBuilder{id: id, query: query, context: map[string]any{}}
}

// Athlete sets the athlete and profile name (chainable).
func (b *StateBuilder) Athlete(name string) *StateBuilder {
	b.athlete = name
	return b
}

// Context sets a context value (chainable).
func (b *StateBuilder) Context(key string, val any) *StateBuilder {
	b.context[key] = val
	return b
}

// Output declares the output's agent namespace and marks it invoked (chainable).
func (b *StateBuilder) Output(out core.Output) *StateBuilder {
	b.outputs = append(b.outputs, out)
	return b
}

// Build returns the merged state. It panics on a namespace conflict, which
// only a broken test can cause.
func (b *StateBuilder) Build() *core.State {
	schema := core.NewSchema()
	for _, out := range b.outputs {
		if _, ok := schema.Lookup(out.Agent); ok {
			continue
		}
		kind := ""
		if out.Data != nil {
			kind = out.Data.Kind()
		}
		if err := schema.Declare(out.Agent, kind); err != nil {
			panic(err)
		}
	}
	st := schema.NewState(b.id, b.query, b.context, core.Profile{Name: b.athlete})
	st.Athlete = b.athlete
	for _, out := range b.outputs {
		st.Invoked = append(st.Invoked, out.Agent)
		if err := st.Apply(out.Agent, out); err != nil {
			panic(err)
		}
	}
	return st
}
