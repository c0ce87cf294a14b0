package core

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// State is the single mutable record threaded through one request. It is
// created fresh per query with every declared namespace pre-populated, owned
// exclusively by that request and discarded once the router returns.
//
// Contract:
//   - AgentOutputs always holds an entry for every declared namespace
//   - Apply is the only mutation path for agent results and honours the
//     Schema's per-field merge policies
//   - Snapshot returns a deep copy safe to hand to concurrently running agents
type State struct {
	RequestID       string            `json:"request_id"`
	Query           string            `json:"query"`
	Athlete         string            `json:"athlete,omitempty"`
	Intent          string            `json:"intent,omitempty"`
	Invoked         []string          `json:"agents_invoked"`
	Context         map[string]any    `json:"context"`
	Profile         Profile           `json:"profile"`
	AgentOutputs    map[string]Output `json:"agent_outputs"`
	Recommendations []Recommendation  `json:"recommendations"`
	ActionItems     []ActionItem      `json:"action_items"`
	Created         time.Time         `json:"created"`

	schema *Schema
	mu     sync.RWMutex
}

// NewState builds the pre-declared state shape for one request.
func (s *Schema) NewState(requestID, query string, ctx map[string]any, profile Profile) *State {
	st := &State{
		RequestID:       requestID,
		Query:           query,
		Context:         make(map[string]any, len(ctx)),
		Profile:         profile.clone(),
		AgentOutputs:    make(map[string]Output),
		Invoked:         []string{},
		Recommendations: []Recommendation{},
		ActionItems:     []ActionItem{},
		Created:         time.Now().UTC(),
		schema:          s,
	}
	for k, v := range ctx {
		st.Context[k] = v
	}
	for _, name := range s.Namespaces() {
		st.AgentOutputs[name] = emptyOutput(name)
	}
	return st
}

// Apply merges an agent's output under its namespace key. The record is
// written whole; accumulators follow the declared field policies. Apply
// rejects outputs that fail the Schema check without touching the state.
func (st *State) Apply(agent string, out Output) error {
	if st.schema == nil {
		return fmt.Errorf("state has no schema")
	}
	if err := st.schema.Check(agent, out); err != nil {
		return err
	}
	out = out.clone()
	out.Agent = agent
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}

	recs := make([]Recommendation, 0, len(out.Recommendations))
	for _, text := range out.Recommendations {
		recs = append(recs, Recommendation{Agent: agent, Text: text})
	}
	items := make([]ActionItem, 0, len(out.ActionItems))
	for i := range out.ActionItems {
		out.ActionItems[i].Agent = agent
		items = append(items, out.ActionItems[i])
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.schema.Policy(FieldAgentOutputs) == Append {
		if prev := st.AgentOutputs[agent]; prev.Ran() {
			out.Recommendations = append(append([]string{}, prev.Recommendations...), out.Recommendations...)
			out.ActionItems = append(append([]ActionItem{}, prev.ActionItems...), out.ActionItems...)
			switch {
			case prev.Content != "" && out.Content != "":
				out.Content = prev.Content + "\n" + out.Content
			case out.Content == "":
				out.Content = prev.Content
			}
		}
	}
	st.AgentOutputs[agent] = out

	if st.schema.Policy(FieldRecommendations) == Append {
		st.Recommendations = append(st.Recommendations, recs...)
	} else {
		st.Recommendations = recs
	}
	if st.schema.Policy(FieldActionItems) == Append {
		st.ActionItems = append(st.ActionItems, items...)
	} else {
		st.ActionItems = items
	}

	return nil
}

// Output returns the current record for a namespace.
func (st *State) Output(agent string) (Output, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out, ok := st.AgentOutputs[agent]
	return out.clone(), ok
}

// Snapshot returns a read-only deep copy of the state.
func (st *State) Snapshot() View {
	st.mu.RLock()
	defer st.mu.RUnlock()
	v := View{
		requestID: st.RequestID,
		query:     st.Query,
		athlete:   st.Athlete,
		profile:   st.Profile.clone(),
		context:   make(map[string]any, len(st.Context)),
		outputs:   make(map[string]Output, len(st.AgentOutputs)),
	}
	for k, val := range st.Context {
		v.context[k] = val
	}
	for k, out := range st.AgentOutputs {
		v.outputs[k] = out.clone()
	}
	return v
}

// View is the read-only state an agent receives. Every accessor returns copies.
type View struct {
	requestID string
	query     string
	athlete   string
	profile   Profile
	context   map[string]any
	outputs   map[string]Output
}

// NewView builds a View directly, mainly for agent tests.
func NewView(query string, ctx map[string]any, profile Profile) View {
	v := View{query: query, profile: profile.clone(), context: map[string]any{}, outputs: map[string]Output{}}
	for k, val := range ctx {
		v.context[k] = val
	}
	return v
}

// RequestID returns the identifier of the request being answered.
func (v View) RequestID() string { return v.requestID }

// Query returns the trimmed query text.
func (v View) Query() string { return v.query }

// Profile returns a copy of the athlete profile loaded for the request.
func (v View) Profile() Profile { return v.profile.clone() }

// Athlete returns the request's athlete, falling back to the profile name.
func (v View) Athlete() string {
	if v.athlete != "" {
		return v.athlete
	}
	return v.profile.Name
}

// QueryMentions reports whether the lower-cased query contains any of the words.
func (v View) QueryMentions(words ...string) bool {
	q := strings.ToLower(v.query)
	for _, w := range words {
		if strings.Contains(q, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// Value returns a raw context value.
func (v View) Value(key string) (any, bool) {
	val, ok := v.context[key]
	return val, ok
}

// String returns a context value rendered as a trimmed string.
func (v View) String(key string) (string, bool) {
	val, ok := v.context[key]
	if !ok || val == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(val))
	return s, s != ""
}

// Float returns a numeric context value; numeric strings are parsed.
func (v View) Float(key string) (float64, bool) {
	val, ok := v.context[key]
	if !ok {
		return 0, false
	}
	switch n := val.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Output returns another namespace's record for reading only.
func (v View) Output(agent string) (Output, bool) {
	out, ok := v.outputs[agent]
	return out.clone(), ok
}
