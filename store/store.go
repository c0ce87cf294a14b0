package store

import (
	"context"
	"errors"
)

// Table names known to the default catalog.
const (
	TableTasks        = "tasks"
	TableAgentLogs    = "agent_logs"
	TableSwimTimes    = "swim_times"
	TableProfiles     = "profiles"
	TableRepoScores   = "repo_scores"
	TableContentItems = "content_items"
)

// ErrUnknownTable is returned for a table missing from the catalog.
var ErrUnknownTable = errors.New("unknown table")

// Record is one row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// String returns a column as a string ("" when absent or not a string).
func (r Record) String(col string) string {
	s, _ := r[col].(string)
	return s
}

// Float returns a numeric column.
func (r Record) Float(col string) (float64, bool) {
	return Number(r[col])
}

// Filter narrows a Query. Eq matches columns by equality; OrderBy sorts by a
// column (descending when Desc). Limit <= 0 means no limit.
type Filter struct {
	Eq      map[string]any
	OrderBy string
	Desc    bool
	Limit   int
}

// Where returns a Filter matching col = value.
func Where(col string, value any) Filter {
	return Filter{Eq: map[string]any{col: value}}
}

// And adds an equality condition.
func (f Filter) And(col string, value any) Filter {
	eq := make(map[string]any, len(f.Eq)+1)
	for k, v := range f.Eq {
		eq[k] = v
	}
	eq[col] = value
	f.Eq = eq
	return f
}

// Sink is the persistence collaborator shared across requests. Each call is
// an atomic single-record insert or a read; no multi-step transactions.
type Sink interface {
	Insert(ctx context.Context, table string, rec Record) error
	Query(ctx context.Context, table string, f Filter) ([]Record, error)
}

// Number converts the numeric Go types a backend may return to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
