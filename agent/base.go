package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/pathway/core"
)

// Base bundles the identity helpers every agent needs. Embed it in concrete
// agent implementations and supply a Run method to satisfy core.Agent.
type Base struct {
	name        string // Namespace key and routing identifier
	description string // Detailed description of agent's purpose
}

// NewBase constructs a Base with a generated description (customizable via SetDescription).
func NewBase(name string) Base {
	return Base{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the agent's namespace key.
func (b *Base) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *Base) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *Base) SetDescription(desc string) { b.description = desc }

// Output returns an OK output stamped with this agent's name.
func (b *Base) Output(content string) core.Output { return core.NewOutput(b.name, content) }

// Degraded returns a degraded output stamped with this agent's name.
func (b *Base) Degraded(reason string) core.Output { return core.Degraded(b.name, reason) }

// Func adapts a plain function into a core.Agent.
type Func struct {
	Base
	fn core.AgentFunc
}

// NewFunc wraps fn as an agent named name.
func NewFunc(name, description string, fn core.AgentFunc) *Func {
	f := &Func{Base: NewBase(name), fn: fn}
	if description != "" {
		f.SetDescription(description)
	}
	return f
}

// Run implements core.Agent.
func (f *Func) Run(ctx context.Context, view core.View) (core.Output, error) {
	if f.fn == nil {
		return f.Degraded("no implementation"), nil
	}
	return f.fn(ctx, view)
}

var _ core.Agent = (*Func)(nil)
