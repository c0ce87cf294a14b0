package agent

import (
	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(view core.View) (string, error)
}

// ProviderFunc is a functional adapter to allow ordinary functions to be used as Providers.
type ProviderFunc func(view core.View) (string, error)

// Instruction implements Provider.
func (f ProviderFunc) Instruction(view core.View) (string, error) { return f(view) }

// Instruction represents either a static (templated) instruction string or a
// dynamic provider. Static text is rendered as a text/template against the
// view's athlete, query, profile and context.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(view core.View) (string, error)) Instruction {
	return Instruction{provider: ProviderFunc(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(view core.View) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(view)
	}
	return util.RenderTemplate(i.text, templateData(view))
}

func templateData(view core.View) map[string]any {
	p := view.Profile()
	return map[string]any{
		"athlete":  view.Athlete(),
		"query":    view.Query(),
		"division": p.TargetDivision,
		"grad":     p.GradYear,
		"home":     p.HomeCity,
		"programs": p.Programs,
	}
}
