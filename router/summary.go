package router

import (
	"fmt"
	"strings"

	"github.com/hupe1980/pathway/core"
)

// NoDataPrefix starts the section content of an agent that produced nothing.
const NoDataPrefix = "no data available"

// Section is one agent's contribution to the merged answer.
type Section struct {
	Agent   string      `json:"agent"`
	Status  core.Status `json:"status"`
	Content string      `json:"content"`
}

// Summary is the condensed view of a routed state.
type Summary struct {
	RequestID       string                `json:"request_id"`
	Query           string                `json:"query"`
	Intent          string                `json:"intent"`
	AgentsUsed      []string              `json:"agents_used"`
	PrimaryResponse string                `json:"primary_response"`
	Sections        []Section             `json:"sections"`
	Recommendations []core.Recommendation `json:"recommendations"`
	ActionItems     []core.ActionItem     `json:"action_items"`
}

// Summarize condenses st. Sections follow invocation order, which is the
// order the agents' recommendations were accumulated in. A failed agent's
// section reads "no data available: <error>". The primary response is the
// first invoked agent that completed ok, falling back to the first section.
func Summarize(st *core.State) Summary {
	s := Summary{
		RequestID:       st.RequestID,
		Query:           st.Query,
		Intent:          st.Intent,
		AgentsUsed:      []string{},
		Sections:        []Section{},
		Recommendations: append([]core.Recommendation{}, st.Recommendations...),
		ActionItems:     append([]core.ActionItem{}, st.ActionItems...),
	}

	for _, name := range st.Invoked {
		out, _ := st.Output(name)
		sec := Section{Agent: name, Status: out.Status, Content: out.Content}
		if out.Failed() {
			sec.Content = fmt.Sprintf("%s: %s", NoDataPrefix, out.Error)
		} else if strings.TrimSpace(sec.Content) == "" {
			sec.Content = NoDataPrefix
		}
		s.AgentsUsed = append(s.AgentsUsed, name)
		s.Sections = append(s.Sections, sec)
		if s.PrimaryResponse == "" && out.Status == core.StatusOK {
			s.PrimaryResponse = sec.Content
		}
	}
	if s.PrimaryResponse == "" && len(s.Sections) > 0 {
		s.PrimaryResponse = s.Sections[0].Content
	}
	return s
}

// Text renders the summary for terminals.
func (s Summary) Text() string {
	var b strings.Builder
	if s.PrimaryResponse != "" {
		b.WriteString(s.PrimaryResponse)
		b.WriteString("\n")
	}
	for _, sec := range s.Sections {
		if sec.Content == s.PrimaryResponse {
			continue
		}
		fmt.Fprintf(&b, "\n[%s] %s\n", sec.Agent, sec.Content)
	}
	if len(s.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range s.Recommendations {
			fmt.Fprintf(&b, "  - %s (%s)\n", r.Text, r.Agent)
		}
	}
	if len(s.ActionItems) > 0 {
		b.WriteString("\nAction items:\n")
		for _, it := range s.ActionItems {
			fmt.Fprintf(&b, "  [%s] %s (%s)\n", it.Priority, it.Task, it.Agent)
		}
	}
	return b.String()
}
