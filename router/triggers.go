package router

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/pathway/core"
)

// IntentGeneral names the intent of a query answered by the default set.
const IntentGeneral = "general"

// Trigger maps phrases to the agents they select.
type Trigger struct {
	// Name labels the intent the trigger detects. Optional.
	Name    string   `yaml:"name,omitempty" json:"name,omitempty"`
	Phrases []string `yaml:"phrases" json:"phrases"`
	Agents  []string `yaml:"agents" json:"agents"`
}

// TriggerTable is the data-driven routing configuration.
type TriggerTable struct {
	Triggers []Trigger `yaml:"triggers" json:"triggers"`
	Default  []string  `yaml:"default" json:"default"`
}

// Selection is the outcome of matching one query.
type Selection struct {
	Agents   []string
	Intents  []string
	Fallback bool
}

// Intent joins the detected intents, or IntentGeneral for a fallback.
func (s Selection) Intent() string {
	if s.Fallback || len(s.Intents) == 0 {
		return IntentGeneral
	}
	return strings.Join(s.Intents, "+")
}

// Match selects the agents for query.
func (t TriggerTable) Match(query string) Selection {
	q := strings.ToLower(query)
	seen := make(map[string]bool)
	var sel Selection
	for _, trig := range t.Triggers {
		if !trig.matches(q) {
			continue
		}
		if trig.Name != "" && !slices.Contains(sel.Intents, trig.Name) {
			sel.Intents = append(sel.Intents, trig.Name)
		}
		for _, a := range trig.Agents {
			if !seen[a] {
				seen[a] = true
				sel.Agents = append(sel.Agents, a)
			}
		}
	}
	if len(sel.Agents) == 0 {
		sel.Agents = dedupe(t.Default)
		sel.Intents = nil
		sel.Fallback = true
	}
	return sel
}

// Select returns the agents for query and whether the default set was used.
func (t TriggerTable) Select(query string) (agents []string, fallback bool) {
	sel := t.Match(query)
	return sel.Agents, sel.Fallback
}

// AgentNames lists every agent the table references, defaults first.
func (t TriggerTable) AgentNames() []string {
	names := append([]string(nil), t.Default...)
	for _, trig := range t.Triggers {
		names = append(names, trig.Agents...)
	}
	return dedupe(names)
}

// Validate checks that the table has a default set and that every
// referenced agent satisfies known.
func (t TriggerTable) Validate(known func(name string) bool) error {
	if len(t.Default) == 0 {
		return core.ErrRoutingAmbiguity
	}
	for i, trig := range t.Triggers {
		if len(trig.Agents) == 0 {
			return &core.ValidationError{Field: fmt.Sprintf("triggers[%d].agents", i), Constraint: "required"}
		}
		if len(trig.Phrases) == 0 {
			return &core.ValidationError{Field: fmt.Sprintf("triggers[%d].phrases", i), Constraint: "required"}
		}
		for _, p := range trig.Phrases {
			if strings.TrimSpace(p) == "" {
				return &core.ValidationError{Field: fmt.Sprintf("triggers[%d].phrases", i), Constraint: "non-empty phrase"}
			}
		}
	}
	if known == nil {
		return nil
	}
	for _, name := range t.AgentNames() {
		if !known(name) {
			return fmt.Errorf("trigger table references unknown agent %q", name)
		}
	}
	return nil
}

func (t Trigger) matches(lowerQuery string) bool {
	for _, p := range t.Phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(lowerQuery, p) {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
