package swim

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/pathway/agent"
	"github.com/hupe1980/pathway/core"
)

// KindMeetPlan is the payload kind of the meet preparation agent.
const KindMeetPlan = "meet_plan"

// Training phases relative to the meet.
const (
	PhaseBuild   = "build"
	PhaseTaper   = "taper"
	PhaseSharpen = "sharpen"
	PhaseRaceDay = "race_day"
	PhasePast    = "past"
)

// MeetPlan locates today within the meet cycle.
type MeetPlan struct {
	MeetDate string `json:"meet_date"`
	DaysOut  int    `json:"days_out"`
	Phase    string `json:"phase"`
}

// Kind implements core.Payload.
func (MeetPlan) Kind() string { return KindMeetPlan }

// PhaseFor maps days until the meet to a training phase.
func PhaseFor(daysOut int) string {
	switch {
	case daysOut < 0:
		return PhasePast
	case daysOut == 0:
		return PhaseRaceDay
	case daysOut <= 6:
		return PhaseSharpen
	case daysOut <= 14:
		return PhaseTaper
	default:
		return PhaseBuild
	}
}

var phaseChecklist = map[string][]string{
	PhaseBuild:   {"Log weekly yardage", "Schedule a time trial"},
	PhaseTaper:   {"Reduce yardage 30-50%", "Confirm meet entries"},
	PhaseSharpen: {"Rehearse race-pace 25s", "Check suit and goggles", "Confirm travel"},
	PhaseRaceDay: {"Arrive 90 minutes before warm-up", "Review heat sheet"},
	PhasePast:    {"Record results in the times log"},
}

var phaseAdvice = map[string]string{
	PhaseBuild:   "Training block: keep volume up and focus on aerobic base.",
	PhaseTaper:   "Taper window: cut volume, keep intensity, prioritize sleep.",
	PhaseSharpen: "Final sharpening: short race-pace work and plenty of rest.",
	PhaseRaceDay: "Race day: trust the taper, stick to the warm-up routine.",
	PhasePast:    "The meet is over: log results and plan recovery.",
}

// MeetPrep turns a meet date into a phase and checklist.
type MeetPrep struct {
	agent.Base
	now func() time.Time
}

// NewMeetPrep returns the meet preparation agent.
func NewMeetPrep(deps Deps) *MeetPrep {
	m := &MeetPrep{Base: agent.NewBase(MeetPrepName), now: deps.now}
	m.SetDescription("Taper phase and checklist from the upcoming meet date")
	return m
}

// PayloadKind implements core.Kinded.
func (m *MeetPrep) PayloadKind() string { return KindMeetPlan }

// Run implements core.Agent. It expects meet_date (YYYY-MM-DD) in the context.
func (m *MeetPrep) Run(_ context.Context, view core.View) (core.Output, error) {
	raw, ok := view.String("meet_date")
	if !ok {
		return m.Degraded("no data available: no meet_date provided").
			Recommend("Add the next meet date to get a taper plan"), nil
	}
	meet, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return core.Output{}, &core.ValidationError{Field: "meet_date", Constraint: "date in YYYY-MM-DD format", Value: raw}
	}

	now := m.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(meet.Sub(today).Hours() / 24)
	phase := PhaseFor(days)

	priority := core.PriorityMedium
	if days >= 0 && days <= 2 {
		priority = core.PriorityHigh
	}

	var content string
	switch {
	case days > 0:
		content = fmt.Sprintf("%d days until the meet on %s. %s", days, raw, phaseAdvice[phase])
	default:
		content = phaseAdvice[phase]
	}

	out := m.Output(content).Recommend(phaseAdvice[phase])
	for _, task := range phaseChecklist[phase] {
		out = out.Act(task, priority)
	}
	return out.WithData(MeetPlan{MeetDate: raw, DaysOut: days, Phase: phase}), nil
}

var (
	_ core.Agent  = (*MeetPrep)(nil)
	_ core.Kinded = (*MeetPrep)(nil)
)
