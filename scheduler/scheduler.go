// Package scheduler runs configured queries on cron schedules through the
// router and records every run in the agent_logs table.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/logging"
	"github.com/hupe1980/pathway/router"
	"github.com/hupe1980/pathway/store"
)

// AgentName is the agent column value of scheduler log records.
const AgentName = "scheduler"

// DefaultJobTimeout bounds one scheduled run.
const DefaultJobTimeout = 2 * time.Minute

// Router answers queries. *router.Router satisfies it.
type Router interface {
	Route(ctx context.Context, req router.Request) (*core.State, error)
}

// Job is one recurring query.
type Job struct {
	Name    string
	Spec    string // standard cron spec, e.g. "0 7 * * *" or "@every 1h"
	Query   string
	Athlete string
	Context map[string]any
}

// Run is the outcome of one job execution.
type Run struct {
	Job      string
	Started  time.Time
	Duration time.Duration
	Summary  router.Summary
	Err      error
}

// Options configures a Scheduler.
type Options struct {
	// Sink receives one agent_logs record per run. Optional.
	Sink     store.Sink
	Logger   logging.Logger
	Timeout  time.Duration
	Location *time.Location
	// OnRun observes every completed run.
	OnRun func(Run)
}

// Scheduler owns a cron instance with one entry per job.
type Scheduler struct {
	cron    *cron.Cron
	router  Router
	sink    store.Sink
	logger  *logging.StructuredLogger
	timeout time.Duration
	onRun   func(Run)

	jobs    map[string]Job
	order   []string
	entries map[string]cron.EntryID

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// New validates every job spec and registers the jobs. Nothing runs until Start.
func New(r Router, jobs []Job, optFns ...func(o *Options)) (*Scheduler, error) {
	if r == nil {
		return nil, fmt.Errorf("scheduler requires a router")
	}
	opts := Options{Logger: logging.NoOpLogger{}, Timeout: DefaultJobTimeout, Location: time.Local}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultJobTimeout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	logger := logging.NewStructured(opts.Logger).WithComponent("scheduler")
	cl := cronLogger{logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(opts.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		router:  r,
		sink:    opts.Sink,
		logger:  logger,
		timeout: opts.Timeout,
		onRun:   opts.OnRun,
		jobs:    make(map[string]Job, len(jobs)),
		entries: make(map[string]cron.EntryID, len(jobs)),
		ctx:     context.Background(),
	}

	for i, j := range jobs {
		j.Name = strings.TrimSpace(j.Name)
		if j.Name == "" {
			return nil, &core.ValidationError{Field: fmt.Sprintf("jobs[%d].name", i), Constraint: "required"}
		}
		if _, dup := s.jobs[j.Name]; dup {
			return nil, &core.ValidationError{Field: fmt.Sprintf("jobs[%d].name", i), Constraint: "unique", Value: j.Name}
		}
		if strings.TrimSpace(j.Query) == "" {
			return nil, &core.ValidationError{Field: fmt.Sprintf("jobs[%d].query", i), Constraint: "required"}
		}
		if _, err := cron.ParseStandard(j.Spec); err != nil {
			return nil, &core.ValidationError{Field: fmt.Sprintf("jobs[%d].spec", i), Constraint: "valid cron spec: " + err.Error(), Value: j.Spec}
		}
		name := j.Name
		id, err := s.cron.AddFunc(j.Spec, func() { s.fire(name) })
		if err != nil {
			return nil, fmt.Errorf("register job %s: %w", name, err)
		}
		s.jobs[name] = j
		s.order = append(s.order, name)
		s.entries[name] = id
	}
	return s, nil
}

// Jobs returns the registered jobs in registration order.
func (s *Scheduler) Jobs() []Job {
	out := make([]Job, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.jobs[name])
	}
	return out
}

// Next returns the next activation of a job; zero before Start.
func (s *Scheduler) Next(name string) time.Time {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Start begins firing jobs in the background. Runs inherit ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.logger.Warn("Scheduler already started")
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.order))
}

// Stop halts the schedule, cancels in-flight runs and waits for them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	cancel()
	<-done.Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob executes one job synchronously.
func (s *Scheduler) RunJob(ctx context.Context, name string) (Run, error) {
	j, ok := s.jobs[name]
	if !ok {
		return Run{}, fmt.Errorf("unknown job %q", name)
	}
	run := s.execute(ctx, j)
	return run, run.Err
}

// RunAll executes every job once in registration order and returns the
// first error after all have run.
func (s *Scheduler) RunAll(ctx context.Context) ([]Run, error) {
	runs := make([]Run, 0, len(s.order))
	var first error
	for _, name := range s.order {
		run := s.execute(ctx, s.jobs[name])
		runs = append(runs, run)
		if run.Err != nil && first == nil {
			first = fmt.Errorf("job %s: %w", name, run.Err)
		}
	}
	return runs, first
}

func (s *Scheduler) fire(name string) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	_ = s.execute(ctx, s.jobs[name])
}

func (s *Scheduler) execute(ctx context.Context, j Job) Run {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	run := Run{Job: j.Name, Started: time.Now()}
	st, err := s.router.Route(ctx, router.Request{Query: j.Query, Athlete: j.Athlete, Context: j.Context})
	run.Duration = time.Since(run.Started)
	if st != nil {
		run.Summary = router.Summarize(st)
	}
	run.Err = err

	log := s.logger.With("job", j.Name)
	if err != nil {
		log.Warn("Scheduled run failed", "duration", run.Duration, "error", err.Error())
	} else {
		log.Info("Scheduled run completed", "duration", run.Duration, "agents", strings.Join(run.Summary.AgentsUsed, ","))
	}
	s.record(ctx, j, run)
	if s.onRun != nil {
		s.onRun(run)
	}
	return run
}

func (s *Scheduler) record(ctx context.Context, j Job, run Run) {
	if s.sink == nil {
		return
	}
	rec := store.Record{
		"agent":       AgentName,
		"status":      string(core.StatusOK),
		"query":       j.Query,
		"content":     fmt.Sprintf("[%s] %s", j.Name, run.Summary.PrimaryResponse),
		"duration_ms": run.Duration.Milliseconds(),
	}
	if run.Summary.RequestID != "" {
		rec["request_id"] = run.Summary.RequestID
	}
	if run.Err != nil {
		rec["status"] = string(core.StatusError)
		rec["error"] = run.Err.Error()
	}
	// A cancelled run still gets logged.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
	}
	if err := s.sink.Insert(ctx, store.TableAgentLogs, rec); err != nil {
		s.logger.Warn("Recording scheduled run failed", "job", j.Name, "error", err.Error())
	}
}

// cronLogger adapts the structured logger to cron.Logger.
type cronLogger struct {
	l *logging.StructuredLogger
}

func (c cronLogger) Info(msg string, kv ...any) { c.l.Debug(msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error(msg, append(kv, "error", err.Error())...)
}
