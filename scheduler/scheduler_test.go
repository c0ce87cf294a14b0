package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/internal/testutil"
	"github.com/hupe1980/pathway/router"
	"github.com/hupe1980/pathway/store"
	"github.com/hupe1980/pathway/store/memory"
)

type fakeRouter struct {
	mu       sync.Mutex
	requests []router.Request
	err      error
}

func (f *fakeRouter) Route(_ context.Context, req router.Request) (*core.State, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	st := testutil.NewStateBuilder("req-1", req.Query).
		Athlete(req.Athlete).
		Output(core.NewOutput("status", "3 pending tasks.")).
		Build()
	return st, nil
}

func (f *fakeRouter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func TestNewRejectsInvalidJobs(t *testing.T) {
	r := &fakeRouter{}
	tests := []struct {
		name string
		job  Job
		want string
	}{
		{"spec", Job{Name: "x", Spec: "every tuesday", Query: "status"}, "jobs[0].spec"},
		{"name", Job{Spec: "@daily", Query: "status"}, "jobs[0].name"},
		{"query", Job{Name: "x", Spec: "@daily"}, "jobs[0].query"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(r, []Job{tt.job})
			require.Error(t, err)
			assert.True(t, core.IsValidation(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := New(r, []Job{{Name: "a", Spec: "@daily", Query: "q"}, {Name: "a", Spec: "@hourly", Query: "q"}})
	assert.ErrorContains(t, err, "unique")

	_, err = New(nil, nil)
	assert.Error(t, err)
}

func TestRunJobRecordsLog(t *testing.T) {
	r := &fakeRouter{}
	sink := store.NewValidating(memory.New(), nil)
	s, err := New(r, []Job{{Name: "morning", Spec: "0 7 * * *", Query: "status update", Athlete: "Michael"}},
		func(o *Options) { o.Sink = sink })
	require.NoError(t, err)

	run, err := s.RunJob(context.Background(), "morning")
	require.NoError(t, err)
	assert.Equal(t, "morning", run.Job)
	assert.Equal(t, "3 pending tasks.", run.Summary.PrimaryResponse)
	assert.Equal(t, "Michael", r.requests[0].Athlete)

	logs, err := sink.Query(context.Background(), store.TableAgentLogs, store.Where("agent", AgentName))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "ok", logs[0].String("status"))
	assert.Equal(t, "req-1", logs[0].String("request_id"))
	assert.Equal(t, "[morning] 3 pending tasks.", logs[0].String("content"))

	_, err = s.RunJob(context.Background(), "evening")
	assert.ErrorContains(t, err, "unknown job")
}

func TestRunAllRecordsFailures(t *testing.T) {
	r := &fakeRouter{err: errors.New("router unavailable")}
	sink := memory.New()
	var seen []Run
	s, err := New(r, []Job{
		{Name: "a", Spec: "@daily", Query: "one"},
		{Name: "b", Spec: "@hourly", Query: "two"},
	}, func(o *Options) {
		o.Sink = sink
		o.OnRun = func(run Run) { seen = append(seen, run) }
	})
	require.NoError(t, err)

	runs, err := s.RunAll(context.Background())
	assert.ErrorContains(t, err, "job a: router unavailable")
	require.Len(t, runs, 2)
	assert.Len(t, seen, 2)
	assert.Equal(t, 2, sink.Len(store.TableAgentLogs))

	logs, err := sink.Query(context.Background(), store.TableAgentLogs, store.Where("status", "error"))
	require.NoError(t, err)
	assert.Len(t, logs, 2)
	assert.Equal(t, "router unavailable", logs[0].String("error"))
}

func TestStartFiresJobs(t *testing.T) {
	r := &fakeRouter{}
	s, err := New(r, []Job{{Name: "tick", Spec: "@every 1s", Query: "status"}})
	require.NoError(t, err)
	assert.Equal(t, []Job{{Name: "tick", Spec: "@every 1s", Query: "status"}}, s.Jobs())

	s.Start(context.Background())
	defer s.Stop()
	assert.False(t, s.Next("tick").IsZero())

	assert.Eventually(t, func() bool { return r.calls() > 0 }, 5*time.Second, 50*time.Millisecond)
}

func TestStopWithoutStart(t *testing.T) {
	s, err := New(&fakeRouter{}, nil)
	require.NoError(t, err)
	s.Stop()
	assert.True(t, s.Next("missing").IsZero())
}
