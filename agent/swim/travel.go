package swim

import (
	"context"
	"fmt"
	"math"

	"github.com/hupe1980/pathway/agent"
	"github.com/hupe1980/pathway/core"
)

// KindTravelPlan is the payload kind of the travel agent.
const KindTravelPlan = "travel_plan"

// Travel planning constants.
const (
	DriveSpeedKMH      = 90.0
	FlyThresholdKM     = 600.0
	DayBeforeThreshold = 4.0 // hours on the road
)

// Travel modes.
const (
	ModeDrive = "drive"
	ModeFly   = "fly"
)

// TravelPlan is the logistics recommendation for one meet.
type TravelPlan struct {
	Destination     string  `json:"destination,omitempty"`
	DistanceKM      float64 `json:"distance_km"`
	DriveHours      float64 `json:"drive_hours"`
	Mode            string  `json:"mode"`
	ArriveDayBefore bool    `json:"arrive_day_before"`
}

// Kind implements core.Payload.
func (TravelPlan) Kind() string { return KindTravelPlan }

// PlanTravel derives mode and arrival from distance.
func PlanTravel(destination string, distanceKM float64) TravelPlan {
	hours := math.Round(distanceKM/DriveSpeedKMH*10) / 10
	mode := ModeDrive
	if distanceKM > FlyThresholdKM {
		mode = ModeFly
	}
	return TravelPlan{
		Destination:     destination,
		DistanceKM:      distanceKM,
		DriveHours:      hours,
		Mode:            mode,
		ArriveDayBefore: hours > DayBeforeThreshold,
	}
}

// Travel plans meet logistics.
type Travel struct {
	agent.Base
}

// NewTravel returns the travel agent.
func NewTravel() *Travel {
	t := &Travel{Base: agent.NewBase(TravelName)}
	t.SetDescription("Drive or fly and arrival timing for away meets")
	return t
}

// PayloadKind implements core.Kinded.
func (t *Travel) PayloadKind() string { return KindTravelPlan }

// Run implements core.Agent. It expects distance_km and optionally meet_location.
func (t *Travel) Run(_ context.Context, view core.View) (core.Output, error) {
	dist, ok := view.Float("distance_km")
	if !ok || dist <= 0 {
		return t.Degraded("no data available: distance_km to the meet is unknown"), nil
	}
	dest, _ := view.String("meet_location")
	plan := PlanTravel(dest, dist)

	where := dest
	if where == "" {
		where = "the meet"
	}
	var out core.Output
	if plan.Mode == ModeFly {
		out = t.Output(fmt.Sprintf("%s is %.0f km away (%.1f h by car): fly.", where, dist, plan.DriveHours)).
			Recommend("Book flights early; team fares sell out before championship meets").
			Act("Book flights to "+where, core.PriorityHigh)
	} else {
		out = t.Output(fmt.Sprintf("%s is %.0f km away: about %.1f h by car.", where, dist, plan.DriveHours)).
			Recommend("Plan a stretch break every two hours of driving")
	}
	if plan.ArriveDayBefore {
		out = out.Recommend("Arrive the day before so travel does not eat into warm-up").
			Act("Book a hotel near "+where+" for the night before", core.PriorityHigh)
	}
	return out.WithData(plan), nil
}

var (
	_ core.Agent  = (*Travel)(nil)
	_ core.Kinded = (*Travel)(nil)
)
