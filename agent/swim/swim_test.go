package swim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/source/web"
	"github.com/hupe1980/pathway/store"
	"github.com/hupe1980/pathway/store/memory"
)

var today = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func fixedDeps(sink store.Sink) Deps {
	return Deps{Sink: sink, Now: func() time.Time { return today }}
}

func view(query string, ctx map[string]any, p core.Profile) core.View {
	return core.NewView(query, ctx, p)
}

func TestAgentsRegistry(t *testing.T) {
	agents := Agents(Deps{})
	names := make([]string, 0, len(agents))
	for _, a := range agents {
		names = append(names, a.Name())
		k, ok := a.(core.Kinded)
		require.True(t, ok, a.Name())
		assert.NotEmpty(t, k.PayloadKind())
		assert.NotEmpty(t, a.Description())
	}
	assert.Equal(t, []string{DietName, MeetPrepName, TimesName, TravelName, RecruitingName, StatusName}, names)
}

func TestDietPreRace(t *testing.T) {
	out, err := NewDiet().Run(context.Background(), view("What should Michael eat before the meet?", nil, core.Profile{Name: "Michael", WeightKG: 70}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, out.Status)

	plan, ok := out.Data.(NutritionPlan)
	require.True(t, ok)
	assert.Equal(t, PhasePreRace, plan.Phase)
	assert.Equal(t, 140.0, plan.CarbsG)
	assert.Equal(t, 21.0, plan.ProteinG)
	assert.Equal(t, 500.0, plan.FluidML)
	assert.NotEmpty(t, out.Recommendations)
	assert.Equal(t, core.PriorityHigh, out.ActionItems[0].Priority)
}

func TestDietRecoveryUsesContextWeight(t *testing.T) {
	out, err := NewDiet().Run(context.Background(), view("what to eat after racing", map[string]any{"weight_kg": "80"}, core.Profile{WeightKG: 60}))
	require.NoError(t, err)

	plan := out.Data.(NutritionPlan)
	assert.Equal(t, PhaseRecovery, plan.Phase)
	assert.Equal(t, 80.0, plan.WeightKG)
	assert.Equal(t, 96.0, plan.CarbsG)
	assert.Equal(t, 32.0, plan.ProteinG)
	assert.Equal(t, 750.0, plan.FluidML)
}

func TestDietWithoutWeightDegrades(t *testing.T) {
	out, err := NewDiet().Run(context.Background(), view("eat", nil, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)
	assert.Nil(t, out.Data)
}

func TestPhaseFor(t *testing.T) {
	tests := map[int]string{
		-3: PhasePast, 0: PhaseRaceDay, 1: PhaseSharpen, 6: PhaseSharpen,
		7: PhaseTaper, 14: PhaseTaper, 15: PhaseBuild, 60: PhaseBuild,
	}
	for days, want := range tests {
		assert.Equal(t, want, PhaseFor(days), "days=%d", days)
	}
}

func TestMeetPrep(t *testing.T) {
	agent := NewMeetPrep(fixedDeps(nil))

	out, err := agent.Run(context.Background(), view("meet", map[string]any{"meet_date": "2026-03-12"}, core.Profile{}))
	require.NoError(t, err)
	plan := out.Data.(MeetPlan)
	assert.Equal(t, 2, plan.DaysOut)
	assert.Equal(t, PhaseSharpen, plan.Phase)
	require.NotEmpty(t, out.ActionItems)
	for _, it := range out.ActionItems {
		assert.Equal(t, core.PriorityHigh, it.Priority)
	}

	out, err = agent.Run(context.Background(), view("meet", map[string]any{"meet_date": "2026-03-20"}, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, PhaseTaper, out.Data.(MeetPlan).Phase)
	assert.Equal(t, core.PriorityMedium, out.ActionItems[0].Priority)
}

func TestMeetPrepInputs(t *testing.T) {
	agent := NewMeetPrep(fixedDeps(nil))

	out, err := agent.Run(context.Background(), view("meet", nil, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)

	_, err = agent.Run(context.Background(), view("meet", map[string]any{"meet_date": "next friday"}, core.Profile{}))
	assert.True(t, core.IsValidation(err))
}

func TestPlanTravel(t *testing.T) {
	near := PlanTravel("Austin", 180)
	assert.Equal(t, ModeDrive, near.Mode)
	assert.Equal(t, 2.0, near.DriveHours)
	assert.False(t, near.ArriveDayBefore)

	mid := PlanTravel("Dallas", 450)
	assert.Equal(t, ModeDrive, mid.Mode)
	assert.True(t, mid.ArriveDayBefore)

	far := PlanTravel("Indianapolis", 1500)
	assert.Equal(t, ModeFly, far.Mode)
	assert.True(t, far.ArriveDayBefore)
}

func TestTravelAgent(t *testing.T) {
	out, err := NewTravel().Run(context.Background(), view("travel", map[string]any{"meet_location": "Indianapolis", "distance_km": 1500}, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, ModeFly, out.Data.(TravelPlan).Mode)
	require.Len(t, out.ActionItems, 2)

	out, err = NewTravel().Run(context.Background(), view("travel", nil, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)
}

func TestTimes(t *testing.T) {
	ctx := context.Background()
	sink := store.NewValidating(memory.New(), nil)
	for _, r := range []store.Record{
		{"athlete": "Michael", "event": "100 free", "seconds": 46.9},
		{"athlete": "Michael", "event": "100 Free", "seconds": 46.1},
		{"athlete": "Michael", "event": "50 free", "seconds": 20.4},
		{"athlete": "Jane", "event": "100 free", "seconds": 44.0},
	} {
		require.NoError(t, sink.Insert(ctx, store.TableSwimTimes, r))
	}

	agent := NewTimes(fixedDeps(sink))
	out, err := agent.Run(ctx, view("my best times", map[string]any{"event": "200 free", "seconds": 101.3}, core.Profile{Name: "Michael"}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, out.Status)

	report := out.Data.(TimesReport)
	require.Len(t, report.Bests, 3)
	assert.Equal(t, EventBest{Event: "100 free", Seconds: 46.1, Course: "SCY", Standard: 44.9, GapSeconds: 1.2}, report.Bests[0])
	assert.Equal(t, "200 free", report.Bests[1].Event)
	assert.Equal(t, 2.8, report.Bests[1].GapSeconds)
	assert.Equal(t, "50 free", report.Bests[2].Event)
	assert.True(t, report.Bests[2].MeetsStandard)
	assert.Zero(t, report.Bests[2].GapSeconds)
	assert.Contains(t, out.Content, "200 free 1:41.30")
	assert.Contains(t, out.Recommendations, "Focus on the 100 free: 1.20s off the standard")
}

func TestTimesDegradedAndInvalid(t *testing.T) {
	ctx := context.Background()

	out, err := NewTimes(Deps{}).Run(ctx, view("times", nil, core.Profile{Name: "Michael"}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)

	out, err = NewTimes(fixedDeps(store.NewValidating(memory.New(), nil))).Run(ctx, view("times", nil, core.Profile{Name: "Michael"}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)

	_, err = NewTimes(fixedDeps(store.NewValidating(memory.New(), nil))).Run(ctx,
		view("times", map[string]any{"event": "100 free", "seconds": 50, "course": "yards"}, core.Profile{Name: "Michael"}))
	assert.True(t, core.IsValidation(err))
}

func TestTimesRejectsBadSeconds(t *testing.T) {
	ctx := context.Background()
	sink := store.NewValidating(memory.New(), nil)
	agent := NewTimes(fixedDeps(sink))

	for _, secs := range []any{-5.0, 0, "abc", nil} {
		_, err := agent.Run(ctx, view("log my swim", map[string]any{"event": "100 free", "seconds": secs}, core.Profile{Name: "Michael"}))
		var ve *core.ValidationError
		require.True(t, errors.As(err, &ve), "%v", secs)
		assert.Equal(t, "seconds", ve.Field)
		assert.Equal(t, "positive number", ve.Constraint)
	}

	_, err := agent.Run(ctx, view("log my swim", map[string]any{"event": "100 free"}, core.Profile{Name: "Michael"}))
	assert.True(t, core.IsValidation(err))

	recs, err := sink.Query(ctx, store.TableSwimTimes, store.Where("athlete", "Michael"))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestTimesWithoutUsableRecordsDegrades(t *testing.T) {
	ctx := context.Background()
	sink := memory.New()
	for _, r := range []store.Record{
		{"athlete": "Michael", "event": "100 free", "seconds": -5.0},
		{"athlete": "Michael", "event": "", "seconds": 47.0},
	} {
		require.NoError(t, sink.Insert(ctx, store.TableSwimTimes, r))
	}

	out, err := NewTimes(fixedDeps(sink)).Run(ctx, view("my best times", nil, core.Profile{Name: "Michael"}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)
	assert.Contains(t, out.Content, "no data available")
	assert.Nil(t, out.Data)
}

type fakePages map[string]web.Page

func (f fakePages) FetchPage(_ context.Context, url string) (web.Page, error) {
	p, ok := f[url]
	if !ok {
		return web.Page{}, core.NewCollaboratorError("web", "fetch", errors.New("HTTP 503"))
	}
	return p, nil
}

func TestRecruiting(t *testing.T) {
	sink := memory.New()
	pages := fakePages{
		"https://state.edu/swim": {URL: "https://state.edu/swim", Title: "State Swimming", Text: "Recruiting questionnaire open"},
		"https://tech.edu/swim":  {URL: "https://tech.edu/swim", Text: "summer camp"},
	}
	agent := NewRecruiting(Deps{Sink: sink, Pages: pages})

	profile := core.Profile{Name: "Michael", Programs: []string{"https://state.edu/swim", "https://down.edu/swim"}}
	out, err := agent.Run(context.Background(), view("recruiting", map[string]any{"program_url": "https://tech.edu/swim"}, profile))
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, out.Status)

	report := out.Data.(RecruitingReport)
	require.Len(t, report.Programs, 3)
	assert.Equal(t, "State Swimming", report.Programs[0].Title)
	assert.NotEmpty(t, report.Programs[1].Error)
	assert.True(t, report.Programs[2].Partial)
	assert.Equal(t, "https://tech.edu/swim", report.Programs[2].Title)

	assert.Contains(t, out.Content, "no data available")
	assert.Contains(t, out.Recommendations, "Fill out the recruiting questionnaire for State Swimming")
	assert.Len(t, out.ActionItems, 2)
	assert.Equal(t, 2, sink.Len(store.TableContentItems))
}

func TestRecruitingAllFailing(t *testing.T) {
	agent := NewRecruiting(Deps{Pages: fakePages{}})
	out, err := agent.Run(context.Background(), view("recruiting", nil, core.Profile{Programs: []string{"https://a.edu"}}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)

	out, err = agent.Run(context.Background(), view("recruiting", nil, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	sink := store.NewValidating(memory.New(), nil)
	for _, r := range []store.Record{
		{"title": "Update times log", "domain": "swim", "priority": "low"},
		{"title": "Email State coach", "domain": "recruiting", "priority": "high", "due_date": "2026-03-15"},
		{"title": "Done already", "domain": "general", "status": "done"},
		{"title": "Email Stanford", "domain": "recruiting", "priority": "high", "athlete": "Jane"},
		{"title": "Book hotel", "domain": "travel", "priority": "medium", "athlete": "Michael"},
	} {
		require.NoError(t, sink.Insert(ctx, store.TableTasks, r))
	}

	out, err := NewStatus(fixedDeps(sink)).Run(ctx, view("hello", nil, core.Profile{Name: "Michael", GradYear: 2027}))
	require.NoError(t, err)
	assert.Equal(t, "Michael, class of 2027. 3 pending tasks.", out.Content)
	assert.Equal(t, []string{"Next up: Email State coach (due 2026-03-15)", "Next up: Book hotel", "Next up: Update times log"}, out.Recommendations)
	for _, task := range out.Data.(StatusReport).PendingTasks {
		assert.NotEqual(t, "Email Stanford", task.Title)
	}

	out, err = NewStatus(Deps{}).Run(ctx, view("hello", nil, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)
}
