package swim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hupe1980/pathway/agent"
	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/store"
)

// KindTimesReport is the payload kind of the times agent.
const KindTimesReport = "times_report"

// DefaultStandards are approximate D1 men's short course yards cuts, in seconds.
var DefaultStandards = map[string]float64{
	"50 free":    20.5,
	"100 free":   44.9,
	"200 free":   98.5,
	"500 free":   265.0,
	"100 back":   48.5,
	"100 breast": 54.5,
	"100 fly":    48.0,
	"200 im":     108.0,
}

// EventBest is the athlete's best time in one event against its standard.
type EventBest struct {
	Event         string  `json:"event"`
	Seconds       float64 `json:"seconds"`
	Course        string  `json:"course,omitempty"`
	Standard      float64 `json:"standard,omitempty"`
	GapSeconds    float64 `json:"gap_seconds,omitempty"` // positive when slower than the standard
	MeetsStandard bool    `json:"meets_standard"`
}

// TimesReport lists bests per event.
type TimesReport struct {
	Athlete string      `json:"athlete"`
	Bests   []EventBest `json:"bests"`
}

// Kind implements core.Payload.
func (TimesReport) Kind() string { return KindTimesReport }

// Times reads recorded swims, optionally records a fresh one, and compares
// bests to recruiting standards.
type Times struct {
	agent.Base
	sink      store.Sink
	standards map[string]float64
}

// NewTimes returns the times agent.
func NewTimes(deps Deps) *Times {
	std := deps.Standards
	if len(std) == 0 {
		std = DefaultStandards
	}
	normalized := make(map[string]float64, len(std))
	for k, v := range std {
		normalized[NormalizeEvent(k)] = v
	}
	t := &Times{Base: agent.NewBase(TimesName), sink: deps.Sink, standards: normalized}
	t.SetDescription("Best times per event and gaps to recruiting standards")
	return t
}

// PayloadKind implements core.Kinded.
func (t *Times) PayloadKind() string { return KindTimesReport }

// NormalizeEvent lower-cases and collapses whitespace ("100  Free" -> "100 free").
func NormalizeEvent(e string) string {
	return strings.Join(strings.Fields(strings.ToLower(e)), " ")
}

// Run implements core.Agent.
func (t *Times) Run(ctx context.Context, view core.View) (core.Output, error) {
	athlete := view.Athlete()
	if athlete == "" {
		return t.Degraded("no data available: no athlete given"), nil
	}
	if t.sink == nil {
		return t.Degraded("no data available: no times store configured"), nil
	}

	if event, ok := view.String("event"); ok {
		secs, ok := view.Float("seconds")
		if !ok || math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
			raw, _ := view.Value("seconds")
			return core.Output{}, &core.ValidationError{Field: "seconds", Constraint: "positive number", Value: raw}
		}
		rec := store.Record{"athlete": athlete, "event": NormalizeEvent(event), "seconds": secs}
		if course, ok := view.String("course"); ok {
			rec["course"] = strings.ToUpper(course)
		}
		if err := t.sink.Insert(ctx, store.TableSwimTimes, rec); err != nil {
			if core.IsValidation(err) {
				return core.Output{}, err
			}
			return t.Degraded("no data available: " + err.Error()), nil
		}
	}

	recs, err := t.sink.Query(ctx, store.TableSwimTimes, store.Where("athlete", athlete))
	if err != nil {
		return t.Degraded("no data available: " + err.Error()), nil
	}
	if len(recs) == 0 {
		return t.Degraded("no data available: no times recorded for "+athlete).
			Recommend("Log recent meet results to track progress"), nil
	}

	report := TimesReport{Athlete: athlete, Bests: t.bests(recs)}
	if len(report.Bests) == 0 {
		return t.Degraded("no data available: no valid times recorded for "+athlete).
			Recommend("Log recent meet results to track progress"), nil
	}
	out := t.Output(summarizeBests(athlete, report.Bests))

	closest := -1
	for i, b := range report.Bests {
		if b.Standard == 0 || b.MeetsStandard {
			continue
		}
		if closest < 0 || b.GapSeconds < report.Bests[closest].GapSeconds {
			closest = i
		}
	}
	for _, b := range report.Bests {
		if b.MeetsStandard {
			out = out.Recommend(fmt.Sprintf("%s %s meets the D1 standard; highlight it in coach emails", b.Event, formatTime(b.Seconds)))
		}
	}
	if closest >= 0 {
		b := report.Bests[closest]
		out = out.Recommend(fmt.Sprintf("Focus on the %s: %.2fs off the standard", b.Event, b.GapSeconds)).
			Act(fmt.Sprintf("Plan race-pace sets for the %s", b.Event), core.PriorityMedium)
	}
	return out.WithData(report), nil
}

func (t *Times) bests(recs []store.Record) []EventBest {
	best := map[string]EventBest{}
	for _, r := range recs {
		secs, ok := r.Float("seconds")
		if !ok || secs <= 0 {
			continue
		}
		event := NormalizeEvent(r.String("event"))
		if event == "" {
			continue
		}
		if cur, seen := best[event]; seen && cur.Seconds <= secs {
			continue
		}
		best[event] = EventBest{Event: event, Seconds: secs, Course: r.String("course")}
	}

	out := make([]EventBest, 0, len(best))
	for event, b := range best {
		if std, ok := t.standards[event]; ok {
			b.Standard = std
			b.GapSeconds = roundHundredth(b.Seconds - std)
			b.MeetsStandard = b.Seconds <= std
			if b.MeetsStandard {
				b.GapSeconds = 0
			}
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Event < out[j].Event })
	return out
}

func summarizeBests(athlete string, bests []EventBest) string {
	parts := make([]string, 0, len(bests))
	for _, b := range bests {
		parts = append(parts, fmt.Sprintf("%s %s", b.Event, formatTime(b.Seconds)))
	}
	return fmt.Sprintf("Best times for %s: %s.", athlete, strings.Join(parts, ", "))
}

// formatTime renders seconds as ss.hh or m:ss.hh.
func formatTime(secs float64) string {
	if secs < 60 {
		return fmt.Sprintf("%.2f", secs)
	}
	m := int(secs) / 60
	return fmt.Sprintf("%d:%05.2f", m, secs-float64(m*60))
}

func roundHundredth(v float64) float64 { return math.Round(v*100) / 100 }

var (
	_ core.Agent  = (*Times)(nil)
	_ core.Kinded = (*Times)(nil)
)
