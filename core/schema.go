package core

import (
	"fmt"
	"sync"
)

// Field names a top-level State field whose merge behaviour is declared in the Schema.
type Field string

const (
	FieldAgentOutputs    Field = "agent_outputs"
	FieldRecommendations Field = "recommendations"
	FieldActionItems     Field = "action_items"
)

// MergePolicy declares how a delta is folded into a State field.
type MergePolicy int

const (
	// Overwrite replaces the prior value (per namespace key for agent_outputs).
	Overwrite MergePolicy = iota
	// Append accumulates onto the prior value.
	Append
)

// String returns the policy name.
func (p MergePolicy) String() string {
	switch p {
	case Overwrite:
		return "OVERWRITE"
	case Append:
		return "APPEND"
	default:
		return "UNKNOWN"
	}
}

// Namespace is the registry entry of one agent: its key and payload kind.
// An empty Kind means the agent carries no typed payload.
type Namespace struct {
	Agent string
	Kind  string
}

// Schema is the registry mapping agent names to payload kinds plus the
// per-field merge policies. It fixes the State shape before any agent runs.
// Declare all namespaces during setup; the Schema is safe for concurrent reads.
type Schema struct {
	mu         sync.RWMutex
	namespaces map[string]Namespace
	order      []string
	policies   map[Field]MergePolicy
}

// NewSchema returns a Schema with the default policies: agent_outputs are
// overwritten per key, recommendations and action_items are appended.
func NewSchema() *Schema {
	return &Schema{
		namespaces: make(map[string]Namespace),
		policies: map[Field]MergePolicy{
			FieldAgentOutputs:    Overwrite,
			FieldRecommendations: Append,
			FieldActionItems:     Append,
		},
	}
}

// Declare registers the namespace for agent with its payload kind.
func (s *Schema) Declare(agent, kind string) error {
	if agent == "" {
		return &ValidationError{Field: "agent", Constraint: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.namespaces[agent]; exists {
		return fmt.Errorf("namespace %q already declared", agent)
	}
	s.namespaces[agent] = Namespace{Agent: agent, Kind: kind}
	s.order = append(s.order, agent)
	return nil
}

// SetPolicy overrides the merge policy for a field.
func (s *Schema) SetPolicy(f Field, p MergePolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[f] = p
}

// Policy returns the merge policy declared for a field.
func (s *Schema) Policy(f Field) MergePolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policies[f]
}

// Lookup returns the namespace registered for agent.
func (s *Schema) Lookup(agent string) (Namespace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, ok := s.namespaces[agent]
	return ns, ok
}

// Namespaces returns the declared agent names in declaration order.
func (s *Schema) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Check verifies that out may be merged under the agent namespace.
func (s *Schema) Check(agent string, out Output) error {
	ns, ok := s.Lookup(agent)
	if !ok {
		return fmt.Errorf("%w: namespace %q not declared", ErrNamespaceViolation, agent)
	}
	if out.Agent != "" && out.Agent != agent {
		return fmt.Errorf("%w: agent %q returned output for %q", ErrNamespaceViolation, agent, out.Agent)
	}
	if out.Data != nil && out.Data.Kind() != ns.Kind {
		return fmt.Errorf("%w: agent %q returned payload %q, declared %q", ErrNamespaceViolation, agent, out.Data.Kind(), ns.Kind)
	}
	return nil
}
