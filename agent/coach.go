package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/logging"
	"github.com/hupe1980/pathway/model"
)

// CoachName is the namespace key of the model-backed advisor.
const CoachName = "coach"

// DefaultCoachInstruction is the system prompt used when none is configured.
const DefaultCoachInstruction = `You are an experienced swim coach advising {{ .athlete | default "a high school swimmer" }}` +
	`{{ if .division }} who is targeting {{ .division }} programs{{ end }}.` +
	` Answer briefly. List concrete recommendations as lines starting with "- ".`

const maxCoachRecommendations = 5

// CoachOptions configures a Coach instance.
type CoachOptions struct {
	Instruction     Instruction
	EnableStreaming bool
	Logger          logging.Logger
}

// Coach asks a language model for free-form advice on the query. Without a
// model, or when the model fails, it returns a degraded output.
type Coach struct {
	Base
	model model.Model
	opts  CoachOptions
}

// NewCoach creates the advisor. m may be nil.
func NewCoach(m model.Model, optFns ...func(o *CoachOptions)) *Coach {
	opts := CoachOptions{
		Instruction: NewInstructionFromText(DefaultCoachInstruction),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	c := &Coach{Base: NewBase(CoachName), model: m, opts: opts}
	c.SetDescription("Model-backed coaching advice for open questions")
	return c
}

// Run implements core.Agent.
func (c *Coach) Run(ctx context.Context, view core.View) (core.Output, error) {
	if c.model == nil {
		return c.Degraded("no data available: no language model configured"), nil
	}

	system, err := c.opts.Instruction.Resolve(view)
	if err != nil {
		return core.Output{}, fmt.Errorf("resolve coach instruction: %w", err)
	}

	req := model.Request{
		System:   system,
		Messages: []model.Message{{Role: model.RoleUser, Text: userPrompt(view)}},
		Stream:   c.opts.EnableStreaming,
	}
	text, err := model.Collect(ctx, c.model, req)
	if err != nil {
		cerr := core.NewCollaboratorError(c.model.Info().Provider, "generate", err)
		c.opts.Logger.Warn("Coach model call failed", "error", cerr.Error())
		return c.Degraded("no data available: " + cerr.Error()), nil
	}

	text = strings.TrimSpace(text)
	out := c.Output(text).Recommend(extractBullets(text, maxCoachRecommendations)...)
	return out, nil
}

func userPrompt(view core.View) string {
	var b strings.Builder
	b.WriteString(view.Query())
	keys := []string{"event", "seconds", "meet_date", "meet_location", "weight_kg"}
	for _, k := range keys {
		if v, ok := view.String(k); ok {
			fmt.Fprintf(&b, "\n%s: %s", k, v)
		}
	}
	return b.String()
}

// extractBullets returns up to limit lines formatted as "- x" or "* x".
func extractBullets(text string, limit int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, prefix := range []string{"- ", "* ", "• "} {
			if strings.HasPrefix(line, prefix) {
				if item := strings.TrimSpace(strings.TrimPrefix(line, prefix)); item != "" {
					out = append(out, item)
				}
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

var _ core.Agent = (*Coach)(nil)
