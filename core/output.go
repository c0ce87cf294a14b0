package core

import "time"

// Status classifies what happened to an agent namespace during one request.
type Status string

const (
	// StatusNotRun marks a pre-populated namespace whose agent was not selected.
	StatusNotRun Status = "not_run"
	// StatusOK marks a namespace written by an agent that completed normally.
	StatusOK Status = "ok"
	// StatusDegraded marks an agent that ran but lacked data or a dependency.
	StatusDegraded Status = "degraded"
	// StatusError marks an agent that failed, timed out or violated its namespace.
	StatusError Status = "error"
)

// Priority orders action items.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ActionItem is a concrete follow-up task produced by an agent.
// Agent is filled in by the router when the item is accumulated.
type ActionItem struct {
	Agent    string   `json:"agent,omitempty"`
	Task     string   `json:"task"`
	Priority Priority `json:"priority"`
}

// Recommendation is an accumulated recommendation attributed to its source agent.
type Recommendation struct {
	Agent string `json:"agent"`
	Text  string `json:"text"`
}

// Payload is the typed, agent-owned domain slot carried in Output.Data.
// Kind must match the kind declared for the agent in the Schema.
type Payload interface {
	Kind() string
}

// Output is the record an agent produces for its own namespace key.
type Output struct {
	Agent           string       `json:"agent"`
	Timestamp       time.Time    `json:"timestamp"`
	Status          Status       `json:"status"`
	Content         string       `json:"content"`
	Recommendations []string     `json:"recommendations"`
	ActionItems     []ActionItem `json:"action_items"`
	Error           string       `json:"error,omitempty"`
	Data            Payload      `json:"data,omitempty"`
}

// NewOutput returns an OK output for agent stamped with the current UTC time.
func NewOutput(agent, content string) Output {
	return Output{
		Agent:           agent,
		Timestamp:       time.Now().UTC(),
		Status:          StatusOK,
		Content:         content,
		Recommendations: []string{},
		ActionItems:     []ActionItem{},
	}
}

// Degraded returns an output for an agent that ran but could not produce data.
// The reason becomes the human-readable content.
func Degraded(agent, reason string) Output {
	out := NewOutput(agent, reason)
	out.Status = StatusDegraded
	return out
}

// ErrorOutput returns the error marker recorded when an agent fails.
func ErrorOutput(agent string, err error) Output {
	out := NewOutput(agent, "")
	out.Status = StatusError
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

// emptyOutput is the pre-populated default for a namespace.
func emptyOutput(agent string) Output {
	return Output{
		Agent:           agent,
		Status:          StatusNotRun,
		Recommendations: []string{},
		ActionItems:     []ActionItem{},
	}
}

// Recommend appends recommendation texts and returns the output for chaining.
func (o Output) Recommend(texts ...string) Output {
	o.Recommendations = append(o.Recommendations, texts...)
	return o
}

// Act appends an action item and returns the output for chaining.
func (o Output) Act(task string, p Priority) Output {
	o.ActionItems = append(o.ActionItems, ActionItem{Task: task, Priority: p})
	return o
}

// WithData attaches the typed payload.
func (o Output) WithData(p Payload) Output {
	o.Data = p
	return o
}

// Ran reports whether the agent was invoked during the request.
func (o Output) Ran() bool { return o.Status != StatusNotRun && o.Status != "" }

// Failed reports whether the namespace carries an error marker.
func (o Output) Failed() bool { return o.Status == StatusError }

// clone copies the slices so snapshots never alias the live state.
func (o Output) clone() Output {
	c := o
	c.Recommendations = append([]string{}, o.Recommendations...)
	c.ActionItems = append([]ActionItem{}, o.ActionItems...)
	return c
}
