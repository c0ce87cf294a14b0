package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/logging"
)

// DefaultTimeout bounds a single agent invocation.
const DefaultTimeout = 30 * time.Second

var (
	// ErrAgentTimeout marks an agent that exceeded its per-agent timeout.
	ErrAgentTimeout = errors.New("agent timed out")
	// ErrAgentPanic marks an agent that panicked.
	ErrAgentPanic = errors.New("agent panicked")
)

// Mode selects how the selected agents are invoked.
type Mode int

const (
	// Sequential runs agents one after another in selection order.
	Sequential Mode = iota
	// Concurrent fans agents out, bounded by MaxConcurrency.
	Concurrent
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// ParseMode parses "sequential" or "concurrent" (empty means sequential).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequential":
		return Sequential, nil
	case "concurrent", "parallel":
		return Concurrent, nil
	default:
		return Sequential, &core.ValidationError{Field: "router.mode", Constraint: "one of [sequential concurrent]", Value: s}
	}
}

// ProfileLoader fetches the stored profile for an athlete. An unknown athlete
// returns a zero profile and no error.
type ProfileLoader func(ctx context.Context, athlete string) (core.Profile, error)

// Options configures a Router.
type Options struct {
	// Timeout bounds each agent invocation. Zero or negative uses DefaultTimeout.
	Timeout time.Duration
	Mode    Mode
	// MaxConcurrency limits simultaneous agents in Concurrent mode; 0 means no limit.
	MaxConcurrency int
	Logger         logging.Logger
	ProfileLoader  ProfileLoader
	Hooks          Hooks
	// Schema receives the agent namespaces. Nil creates a fresh schema.
	Schema *core.Schema
	// NewID generates request identifiers.
	NewID func() string
}

// WithTimeout sets the per-agent timeout.
func WithTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.Timeout = d }
}

// WithMode sets the invocation mode.
func WithMode(m Mode) func(o *Options) {
	return func(o *Options) { o.Mode = m }
}

// WithMaxConcurrency limits concurrent agents.
func WithMaxConcurrency(n int) func(o *Options) {
	return func(o *Options) { o.MaxConcurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithProfileLoader sets the profile source consulted for every request.
func WithProfileLoader(fn ProfileLoader) func(o *Options) {
	return func(o *Options) { o.ProfileLoader = fn }
}

// WithHooks installs lifecycle hooks.
func WithHooks(h Hooks) func(o *Options) {
	return func(o *Options) { o.Hooks = h }
}

// WithSchema declares namespaces into an existing schema, e.g. one with
// custom merge policies.
func WithSchema(s *core.Schema) func(o *Options) {
	return func(o *Options) { o.Schema = s }
}

// Request is one inbound query.
type Request struct {
	Query   string         `json:"query"`
	Athlete string         `json:"athlete,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// Router is the supervisor. It is immutable after New and safe for concurrent use.
type Router struct {
	table   TriggerTable
	agents  map[string]core.Agent
	order   []string
	schema  *core.Schema
	timeout time.Duration
	mode    Mode
	limit   int
	loader  ProfileLoader
	hooks   Hooks
	newID   func() string
	logger  *logging.StructuredLogger
}

// New builds a Router over agents. It fails with core.ErrRoutingAmbiguity
// when the table has no default set, and when the table references an agent
// that is not registered or two agents share a name.
func New(table TriggerTable, agents []core.Agent, optFns ...func(o *Options)) (*Router, error) {
	opts := Options{
		Timeout: DefaultTimeout,
		Mode:    Sequential,
		Logger:  logging.NoOpLogger{},
		NewID:   core.NewID,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Schema == nil {
		opts.Schema = core.NewSchema()
	}
	if opts.NewID == nil {
		opts.NewID = core.NewID
	}

	r := &Router{
		table:   table,
		agents:  make(map[string]core.Agent, len(agents)),
		schema:  opts.Schema,
		timeout: opts.Timeout,
		mode:    opts.Mode,
		limit:   opts.MaxConcurrency,
		loader:  opts.ProfileLoader,
		hooks:   opts.Hooks,
		newID:   opts.NewID,
		logger:  logging.NewStructured(opts.Logger).WithComponent("router"),
	}

	for _, a := range agents {
		if a == nil {
			return nil, fmt.Errorf("nil agent")
		}
		name := a.Name()
		if _, dup := r.agents[name]; dup {
			return nil, fmt.Errorf("agent %q registered twice", name)
		}
		kind := ""
		if k, ok := a.(core.Kinded); ok {
			kind = k.PayloadKind()
		}
		if ns, ok := r.schema.Lookup(name); ok {
			if ns.Kind != kind {
				return nil, fmt.Errorf("%w: agent %q declared with payload %q, implements %q", core.ErrNamespaceViolation, name, ns.Kind, kind)
			}
		} else if err := r.schema.Declare(name, kind); err != nil {
			return nil, err
		}
		r.agents[name] = a
		r.order = append(r.order, name)
	}

	if err := table.Validate(func(name string) bool { _, ok := r.agents[name]; return ok }); err != nil {
		return nil, err
	}
	return r, nil
}

// Schema returns the namespace registry.
func (r *Router) Schema() *core.Schema { return r.schema }

// Table returns the trigger table.
func (r *Router) Table() TriggerTable { return r.table }

// Agents returns the registered agent names in registration order.
func (r *Router) Agents() []string { return append([]string(nil), r.order...) }

// Agent returns a registered agent by name.
func (r *Router) Agent(name string) (core.Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

type slot struct {
	out core.Output
	dur time.Duration
}

// Route answers one query. The returned state has an entry for every
// declared namespace; invoked agents carry their output or an error marker.
// An empty query fails with a *core.ValidationError naming "query" before any
// agent runs. If ctx is cancelled mid-request, the partially merged state is
// returned together with ctx.Err().
func (r *Router) Route(ctx context.Context, req Request) (*core.State, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, &core.ValidationError{Field: "query", Constraint: "required"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := r.newID()
	ctx = core.ContextWithRequestID(ctx, id)
	log := r.logger.WithRequest(id)
	athlete := strings.TrimSpace(req.Athlete)

	st := r.schema.NewState(id, query, req.Context, r.loadProfile(ctx, athlete, log))
	st.Athlete = athlete

	sel := r.table.Match(query)
	st.Intent = sel.Intent()
	st.Invoked = append([]string(nil), sel.Agents...)
	log.LogRoute(query, sel.Agents, sel.Fallback)

	slots := make([]slot, len(sel.Agents))
	if r.mode == Concurrent && len(sel.Agents) > 1 {
		var g errgroup.Group
		if r.limit > 0 {
			g.SetLimit(r.limit)
		}
		for i, name := range sel.Agents {
			g.Go(func() error {
				slots[i] = r.run(ctx, name, st.Snapshot(), log)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, name := range sel.Agents {
			slots[i] = r.run(ctx, name, st.Snapshot(), log)
		}
	}

	for i, name := range sel.Agents {
		out := slots[i].out
		if err := st.Apply(name, out); err != nil {
			log.Warn("Agent output rejected", "agent", name, "error", err.Error())
			out = core.ErrorOutput(name, err)
			if err := st.Apply(name, out); err != nil {
				return st, fmt.Errorf("record error marker for %s: %w", name, err)
			}
		}
		if r.hooks.AfterAgent != nil {
			merged, _ := st.Output(name)
			if err := r.hooks.AfterAgent(ctx, name, merged, slots[i].dur); err != nil {
				log.Warn("AfterAgent hook failed", "agent", name, "error", err.Error())
			}
		}
	}

	if r.hooks.OnRouted != nil {
		if err := r.hooks.OnRouted(ctx, st); err != nil {
			log.Warn("OnRouted hook failed", "error", err.Error())
		}
	}
	return st, ctx.Err()
}

// run invokes one agent and converts every failure into an error marker.
func (r *Router) run(ctx context.Context, name string, view core.View, log *logging.StructuredLogger) slot {
	start := time.Now()
	if r.hooks.BeforeAgent != nil {
		if err := r.hooks.BeforeAgent(ctx, name); err != nil {
			log.Warn("BeforeAgent hook failed", "agent", name, "error", err.Error())
		}
	}

	out, err := r.invoke(ctx, r.agents[name], view)
	dur := time.Since(start)
	if err != nil {
		out = core.ErrorOutput(name, err)
	}
	if out.Status == "" || out.Status == core.StatusNotRun {
		out.Status = core.StatusOK
	}
	log.LogAgentRun(name, string(out.Status), dur, err)
	return slot{out: out, dur: dur}
}

func (r *Router) invoke(parent context.Context, a core.Agent, view core.View) (core.Output, error) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	type result struct {
		out core.Output
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("%w: %v", ErrAgentPanic, p)}
			}
		}()
		out, err := a.Run(ctx, view)
		done <- result{out: out, err: err}
	}()

	select {
	case res := <-done:
		return res.out, res.err
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			return core.Output{}, err
		}
		return core.Output{}, fmt.Errorf("%w after %s", ErrAgentTimeout, r.timeout)
	}
}

func (r *Router) loadProfile(ctx context.Context, athlete string, log *logging.StructuredLogger) core.Profile {
	if r.loader == nil || athlete == "" {
		return core.Profile{Name: athlete}
	}
	p, err := r.loader(ctx, athlete)
	if err != nil {
		if !errors.Is(err, core.ErrCollaboratorUnavailable) {
			err = core.NewCollaboratorError("store", "load profile", err)
		}
		log.Warn("Profile unavailable, continuing without it", "athlete", athlete, "error", err.Error())
		return core.Profile{Name: athlete}
	}
	if p.Name == "" {
		p.Name = athlete
	}
	return p
}
