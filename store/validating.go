package store

import (
	"context"
	"time"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/logging"
)

// Validating wraps a Sink so every insert is validated against the catalog
// first. Invalid records are rejected locally and never reach the backend.
// Backend failures are reported as *core.CollaboratorError.
type Validating struct {
	next    Sink
	catalog *Catalog
	name    string
	logger  *logging.StructuredLogger
}

// ValidatingOption configures a Validating sink.
type ValidatingOption func(*Validating)

// WithLogger sets the logger used for store call logging.
func WithLogger(l logging.Logger) ValidatingOption {
	return func(v *Validating) { v.logger = logging.NewStructured(l).WithComponent("store") }
}

// WithName sets the collaborator name reported in errors (default "store").
func WithName(name string) ValidatingOption {
	return func(v *Validating) { v.name = name }
}

// NewValidating wraps next. A nil catalog uses DefaultCatalog.
func NewValidating(next Sink, catalog *Catalog, opts ...ValidatingOption) *Validating {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	v := &Validating{next: next, catalog: catalog, name: "store", logger: logging.NewStructured(nil)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Catalog returns the catalog used for validation.
func (v *Validating) Catalog() *Catalog { return v.catalog }

// Insert validates rec, fills defaults and generated columns, then forwards it.
func (v *Validating) Insert(ctx context.Context, table string, rec Record) error {
	_, err := v.InsertRecord(ctx, table, rec)
	return err
}

// InsertRecord is Insert returning the record as it was written.
func (v *Validating) InsertRecord(ctx context.Context, table string, rec Record) (Record, error) {
	prepared, err := v.catalog.Prepare(table, rec)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	err = v.next.Insert(ctx, table, prepared)
	v.logger.LogStoreCall("insert", table, time.Since(start), err)
	if err != nil {
		return nil, core.NewCollaboratorError(v.name, "insert "+table, err)
	}
	return prepared, nil
}

// Query checks the table and filter columns, then forwards the query.
func (v *Validating) Query(ctx context.Context, table string, f Filter) ([]Record, error) {
	t, ok := v.catalog.Table(table)
	if !ok {
		return nil, &core.ValidationError{Field: "table", Constraint: "unknown table", Value: table}
	}
	for col := range f.Eq {
		if _, ok := t.Column(col); !ok {
			return nil, &core.ValidationError{Table: table, Field: col, Constraint: "unknown column"}
		}
	}
	if f.OrderBy != "" {
		if _, ok := t.Column(f.OrderBy); !ok {
			return nil, &core.ValidationError{Table: table, Field: f.OrderBy, Constraint: "unknown column"}
		}
	}
	start := time.Now()
	recs, err := v.next.Query(ctx, table, f)
	v.logger.LogStoreCall("query", table, time.Since(start), err)
	if err != nil {
		return nil, core.NewCollaboratorError(v.name, "query "+table, err)
	}
	return recs, nil
}

// LoadProfile reads the named athlete profile. A missing profile yields a
// zero Profile and no error.
func LoadProfile(ctx context.Context, s Sink, name string) (core.Profile, error) {
	if name == "" {
		return core.Profile{}, nil
	}
	recs, err := s.Query(ctx, TableProfiles, Filter{Eq: map[string]any{"name": name}, Limit: 1})
	if err != nil {
		return core.Profile{}, err
	}
	if len(recs) == 0 {
		return core.Profile{}, nil
	}
	return ProfileFromRecord(recs[0]), nil
}

// ProfileFromRecord converts a profiles row.
func ProfileFromRecord(r Record) core.Profile {
	p := core.Profile{
		Name:           r.String("name"),
		TargetDivision: r.String("target_division"),
		HomeCity:       r.String("home_city"),
	}
	if y, ok := r.Float("grad_year"); ok {
		p.GradYear = int(y)
	}
	if w, ok := r.Float("weight_kg"); ok {
		p.WeightKG = w
	}
	switch progs := r["programs"].(type) {
	case []string:
		p.Programs = append([]string(nil), progs...)
	case []any:
		for _, v := range progs {
			if s, ok := v.(string); ok {
				p.Programs = append(p.Programs, s)
			}
		}
	}
	return p
}

// ProfileRecord converts a profile for insertion.
func ProfileRecord(p core.Profile) Record {
	r := Record{"name": p.Name}
	if p.GradYear != 0 {
		r["grad_year"] = p.GradYear
	}
	if p.WeightKG != 0 {
		r["weight_kg"] = p.WeightKG
	}
	if p.TargetDivision != "" {
		r["target_division"] = p.TargetDivision
	}
	if p.HomeCity != "" {
		r["home_city"] = p.HomeCity
	}
	if len(p.Programs) > 0 {
		r["programs"] = append([]string(nil), p.Programs...)
	}
	return r
}
