package swim

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/pathway/agent"
	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/store"
)

// KindStatusReport is the payload kind of the status agent.
const KindStatusReport = "status_report"

// PendingTask is a task still waiting to be done.
type PendingTask struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Domain   string `json:"domain"`
	Priority string `json:"priority"`
	DueDate  string `json:"due_date,omitempty"`
}

// StatusReport summarizes the athlete and open work.
type StatusReport struct {
	Athlete      string        `json:"athlete,omitempty"`
	PendingTasks []PendingTask `json:"pending_tasks"`
}

// Kind implements core.Payload.
func (StatusReport) Kind() string { return KindStatusReport }

var priorityRank = map[string]int{"high": 0, "medium": 1, "low": 2}

const maxStatusHighlights = 3

// Status is the general fallback agent: profile summary and pending tasks.
// Tasks tagged with a different athlete are left out; untagged tasks are shared.
type Status struct {
	agent.Base
	sink store.Sink
}

// NewStatus returns the status agent.
func NewStatus(deps Deps) *Status {
	s := &Status{Base: agent.NewBase(StatusName), sink: deps.Sink}
	s.SetDescription("General status: profile summary and pending tasks")
	return s
}

// PayloadKind implements core.Kinded.
func (s *Status) PayloadKind() string { return KindStatusReport }

// Run implements core.Agent.
func (s *Status) Run(ctx context.Context, view core.View) (core.Output, error) {
	report := StatusReport{Athlete: view.Athlete(), PendingTasks: []PendingTask{}}
	summary := profileSummary(view.Profile())

	if s.sink == nil {
		return s.Degraded(summary + " No task store configured.").WithData(report), nil
	}
	recs, err := s.sink.Query(ctx, store.TableTasks, store.Where("status", "pending"))
	if err != nil {
		return s.Degraded(summary + " no data available: " + err.Error()).WithData(report), nil
	}

	for _, r := range recs {
		if owner := r.String("athlete"); owner != "" && report.Athlete != "" && owner != report.Athlete {
			continue
		}
		report.PendingTasks = append(report.PendingTasks, PendingTask{
			ID:       r.String("id"),
			Title:    r.String("title"),
			Domain:   r.String("domain"),
			Priority: r.String("priority"),
			DueDate:  r.String("due_date"),
		})
	}
	sort.SliceStable(report.PendingTasks, func(i, j int) bool {
		return rank(report.PendingTasks[i].Priority) < rank(report.PendingTasks[j].Priority)
	})

	out := s.Output(fmt.Sprintf("%s %d pending tasks.", summary, len(report.PendingTasks)))
	for i, t := range report.PendingTasks {
		if i == maxStatusHighlights {
			break
		}
		line := "Next up: " + t.Title
		if t.DueDate != "" {
			line += " (due " + t.DueDate + ")"
		}
		out = out.Recommend(line)
	}
	return out.WithData(report), nil
}

func rank(p string) int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

func profileSummary(p core.Profile) string {
	if p.IsZero() {
		return "No profile loaded."
	}
	parts := []string{p.Name}
	if p.GradYear != 0 {
		parts = append(parts, fmt.Sprintf("class of %d", p.GradYear))
	}
	if p.TargetDivision != "" {
		parts = append(parts, "targeting "+p.TargetDivision)
	}
	if len(p.Programs) > 0 {
		parts = append(parts, fmt.Sprintf("%d programs tracked", len(p.Programs)))
	}
	return strings.Join(parts, ", ") + "."
}

var (
	_ core.Agent  = (*Status)(nil)
	_ core.Kinded = (*Status)(nil)
)
