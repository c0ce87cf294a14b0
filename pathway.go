// Package pathway assembles the swim-recruiting assistant from configuration.
// Most applications interact with this package by:
//  1. Loading a config.Config (file plus PATHWAY_* environment overrides)
//  2. Creating an App via New(), optionally overriding collaborators
//  3. Asking queries (Ask) or routing them for the full state (Route)
//
// The App wires the persistence sink, fetchers, optional language model,
// domain agents and router. Scheduler and Server expose the same router to
// cron jobs and HTTP clients.
package pathway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/pathway/agent"
	"github.com/hupe1980/pathway/agent/scout"
	"github.com/hupe1980/pathway/agent/swim"
	"github.com/hupe1980/pathway/api"
	"github.com/hupe1980/pathway/config"
	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/logging"
	"github.com/hupe1980/pathway/model"
	"github.com/hupe1980/pathway/model/anthropic"
	"github.com/hupe1980/pathway/model/openai"
	"github.com/hupe1980/pathway/router"
	"github.com/hupe1980/pathway/scheduler"
	"github.com/hupe1980/pathway/scoring"
	"github.com/hupe1980/pathway/source/github"
	"github.com/hupe1980/pathway/source/web"
	"github.com/hupe1980/pathway/store"
	"github.com/hupe1980/pathway/store/memory"
	"github.com/hupe1980/pathway/store/postgres"
	"github.com/hupe1980/pathway/store/supabase"
)

// Options overrides collaborators that New would otherwise build from the
// configuration. Every field is optional.
type Options struct {
	Logger logging.Logger
	// Sink replaces the configured backend. It is still wrapped in a
	// store.Validating.
	Sink  store.Sink
	Repos scout.RepoFetcher
	Pages swim.PageFetcher
	Model model.Model
	// Now is the clock used by the date-aware agents and the scorer.
	Now func() time.Time
	// LogOutput receives slog output. Defaults to stderr.
	LogOutput io.Writer
}

// App is the assembled assistant.
type App struct {
	cfg     *config.Config
	logger  logging.Logger
	sink    *store.Validating
	router  *router.Router
	scout   *scout.Scout
	closers []func() error
}

// DefaultTriggers returns the built-in routing table. Unmatched queries go
// to the status agent.
func DefaultTriggers() router.TriggerTable {
	return router.TriggerTable{
		Triggers: []router.Trigger{
			{Name: "nutrition", Phrases: []string{"eat", "diet", "nutrition", "meal", "carb", "protein", "hydrat"}, Agents: []string{swim.DietName}},
			{Name: "meet", Phrases: []string{"meet", "race", "taper", "warm-up", "warmup"}, Agents: []string{swim.MeetPrepName}},
			{Name: "times", Phrases: []string{"time", "cut", "standard", "split", "swam", "best"}, Agents: []string{swim.TimesName}},
			{Name: "travel", Phrases: []string{"travel", "drive", "flight", "hotel", "trip"}, Agents: []string{swim.TravelName}},
			{Name: "recruiting", Phrases: []string{"recruit", "coach email", "college", "program", "d1", "questionnaire", "visit"}, Agents: []string{swim.RecruitingName}},
			{Name: "repos", Phrases: []string{"github", "repo", "repository"}, Agents: []string{scout.Name}},
			{Name: "coach", Phrases: []string{"advice", "should i", "how do i", "technique"}, Agents: []string{agent.CoachName}},
		},
		Default: []string{swim.StatusName},
	}
}

// New builds an App from cfg. A nil cfg uses config.Default().
func New(cfg *config.Config, optFns ...func(o *Options)) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	app := &App{cfg: cfg}

	logger := opts.Logger
	if logger == nil {
		l, closer, err := NewLogger(cfg.Logging, opts.LogOutput)
		if err != nil {
			return nil, err
		}
		logger = l
		if closer != nil {
			app.closers = append(app.closers, closer)
		}
	}
	app.logger = logger

	raw := opts.Sink
	driver := cfg.Store.Driver
	if raw == nil {
		s, closer, err := openSink(cfg.Store)
		if err != nil {
			return nil, err
		}
		raw = s
		if closer != nil {
			app.closers = append(app.closers, closer)
		}
	} else {
		driver = "custom"
	}
	app.sink = store.NewValidating(raw, nil, store.WithLogger(logger), store.WithName(driver))

	if err := app.seedProfile(context.Background(), cfg.Athlete); err != nil {
		app.Close()
		return nil, err
	}

	repos := opts.Repos
	if repos == nil {
		ghOpts := []github.Option{github.WithTimeout(cfg.GitHubTimeout())}
		if cfg.GitHub.BaseURL != "" {
			ghOpts = append(ghOpts, github.WithBaseURL(cfg.GitHub.BaseURL))
		}
		repos = github.New(cfg.GitHub.Token, ghOpts...)
	}
	pages := opts.Pages
	if pages == nil {
		pages = web.New(nil, cfg.WebTimeout())
	}
	m := opts.Model
	if m == nil {
		m = NewModel(cfg.Model)
	}

	var scorerOpts []scoring.Option
	if opts.Now != nil {
		scorerOpts = append(scorerOpts, scoring.WithClock(opts.Now))
	}
	app.scout = scout.New(repos, scoring.NewScorer(cfg.Scoring.Keywords, scorerOpts...), func(o *scout.Options) {
		o.Sink = app.sink
		o.Logger = logger
	})

	agents := swim.Agents(swim.Deps{
		Sink:      app.sink,
		Pages:     pages,
		Standards: cfg.Swim.Standards,
		Now:       opts.Now,
		Logger:    logger,
	})
	agents = append(agents, app.scout, agent.NewCoach(m, func(o *agent.CoachOptions) {
		o.EnableStreaming = cfg.Model.Streaming
		o.Logger = logger
	}))

	mode, err := router.ParseMode(cfg.Router.Mode)
	if err != nil {
		return nil, err
	}
	table := DefaultTriggers()
	if cfg.Triggers != nil {
		table = *cfg.Triggers
	}
	r, err := router.New(table, agents,
		router.WithTimeout(cfg.RouterTimeout()),
		router.WithMode(mode),
		router.WithMaxConcurrency(cfg.Router.MaxConcurrency),
		router.WithLogger(logger),
		router.WithProfileLoader(func(ctx context.Context, name string) (core.Profile, error) {
			return store.LoadProfile(ctx, app.sink, name)
		}),
		router.WithHooks(agentLogHooks(app.sink)),
	)
	if err != nil {
		return nil, err
	}
	app.router = r
	return app, nil
}

// NewLogger builds the configured logging backend. The returned closer, if
// any, flushes buffered output.
func NewLogger(cfg config.LoggingConfig, out io.Writer) (logging.Logger, func() error, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Backend == "zap" {
		z, err := logging.NewZap(level)
		if err != nil {
			return nil, nil, fmt.Errorf("create zap logger: %w", err)
		}
		// Sync on stderr reports EINVAL on some platforms.
		return z, func() error { _ = z.Sync(); return nil }, nil
	}
	return logging.New(logging.Config{Level: level, Format: cfg.Format, Output: out}), nil, nil
}

// NewModel returns the configured language model, or nil for provider "none".
func NewModel(cfg config.ModelConfig) model.Model {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(cfg.MaxTokens)
			}
		})
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.MaxTokens)
			}
		})
	default:
		return nil
	}
}

func openSink(cfg config.StoreConfig) (store.Sink, func() error, error) {
	switch cfg.Driver {
	case "postgres":
		s, err := postgres.New(cfg.PostgresURL, store.DefaultCatalog())
		if err != nil {
			return nil, nil, core.NewCollaboratorError("postgres", "connect", err)
		}
		return s, s.Close, nil
	case "supabase":
		timeout, _ := time.ParseDuration(cfg.Timeout)
		s, err := supabase.New(supabase.Config{URL: cfg.SupabaseURL, Key: cfg.SupabaseKey, Timeout: timeout})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		return memory.New(), nil, nil
	}
}

// seedProfile stores the configured athlete profile unless one already exists.
func (a *App) seedProfile(ctx context.Context, ac config.AthleteConfig) error {
	if ac.Name == "" {
		return nil
	}
	existing, err := store.LoadProfile(ctx, a.sink, ac.Name)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if !existing.IsZero() {
		return nil
	}
	if err := a.sink.Insert(ctx, store.TableProfiles, store.ProfileRecord(athleteProfile(ac))); err != nil {
		return fmt.Errorf("seed profile: %w", err)
	}
	a.logger.Debug("Seeded athlete profile", "athlete", ac.Name)
	return nil
}

func athleteProfile(a config.AthleteConfig) core.Profile {
	return core.Profile{
		Name:           a.Name,
		GradYear:       a.GradYear,
		WeightKG:       a.WeightKG,
		TargetDivision: a.TargetDivision,
		HomeCity:       a.HomeCity,
		Programs:       append([]string(nil), a.Programs...),
	}
}

// agentLogHooks records every merged agent output in agent_logs.
func agentLogHooks(sink store.Sink) router.Hooks {
	return router.Hooks{
		AfterAgent: func(ctx context.Context, name string, out core.Output, dur time.Duration) error {
			rec := store.Record{
				"agent":       name,
				"status":      string(out.Status),
				"content":     out.Content,
				"duration_ms": dur.Milliseconds(),
			}
			if id := core.RequestIDFromContext(ctx); id != "" {
				rec["request_id"] = id
			}
			if out.Error != "" {
				rec["error"] = out.Error
			}
			return sink.Insert(ctx, store.TableAgentLogs, rec)
		},
	}
}

// Ask routes req and summarizes the result.
func (a *App) Ask(ctx context.Context, req router.Request) (router.Summary, error) {
	st, err := a.Route(ctx, req)
	if st == nil {
		return router.Summary{}, err
	}
	return router.Summarize(st), err
}

// Route routes req and returns the full state. An empty athlete uses the
// configured default.
func (a *App) Route(ctx context.Context, req router.Request) (*core.State, error) {
	if req.Athlete == "" {
		req.Athlete = a.cfg.Athlete.Name
	}
	return a.router.Route(ctx, req)
}

// Score fetches, scores and records one repository.
func (a *App) Score(ctx context.Context, repo string) (scout.RepoScore, error) {
	return a.scout.Score(ctx, repo)
}

// AddTask validates and inserts a task, returning the stored record.
func (a *App) AddTask(ctx context.Context, rec store.Record) (store.Record, error) {
	if _, ok := rec["athlete"]; !ok && a.cfg.Athlete.Name != "" {
		rec = rec.Clone()
		rec["athlete"] = a.cfg.Athlete.Name
	}
	return a.sink.InsertRecord(ctx, store.TableTasks, rec)
}

// Tasks lists tasks matching f.
func (a *App) Tasks(ctx context.Context, f store.Filter) ([]store.Record, error) {
	return a.sink.Query(ctx, store.TableTasks, f)
}

// Router returns the underlying router.
func (a *App) Router() *router.Router { return a.router }

// Sink returns the validating sink.
func (a *App) Sink() *store.Validating { return a.sink }

// Logger returns the configured logger.
func (a *App) Logger() logging.Logger { return a.logger }

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Scheduler builds a scheduler for the configured jobs.
func (a *App) Scheduler() (*scheduler.Scheduler, error) {
	jobs := make([]scheduler.Job, 0, len(a.cfg.Schedule.Jobs))
	for _, j := range a.cfg.Schedule.Jobs {
		athlete := j.Athlete
		if athlete == "" {
			athlete = a.cfg.Athlete.Name
		}
		jobs = append(jobs, scheduler.Job{Name: j.Name, Spec: j.Spec, Query: j.Query, Athlete: athlete})
	}
	return scheduler.New(a.router, jobs, func(o *scheduler.Options) {
		o.Sink = a.sink
		o.Logger = a.logger
	})
}

// Server builds the HTTP API.
func (a *App) Server() *api.Server {
	return api.NewServer(a.router, func(o *api.Options) {
		o.Scorer = a.scout
		o.Sink = a.sink
		o.Logger = a.logger
		o.DefaultAthlete = a.cfg.Athlete.Name
		o.RequestTimeout = a.cfg.HTTPWriteTimeout()
	})
}

// Close releases the sink connection and flushes the logger.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
