// Package memory provides an in-process store.Sink, used by default and in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/pathway/store"
)

// Sink keeps rows per table in insertion order.
type Sink struct {
	mu     sync.RWMutex
	tables map[string][]store.Record
}

// New returns an empty Sink.
func New() *Sink {
	return &Sink{tables: make(map[string][]store.Record)}
}

// Insert appends a copy of rec to table.
func (s *Sink) Insert(ctx context.Context, table string, rec store.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], rec.Clone())
	return nil
}

// Query returns copies of the rows matching f.
func (s *Sink) Query(ctx context.Context, table string, f store.Filter) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	rows := s.tables[table]
	out := make([]store.Record, 0, len(rows))
	for _, r := range rows {
		if matches(r, f.Eq) {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()

	if f.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(out[i][f.OrderBy], out[j][f.OrderBy])
			if f.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Len returns the number of rows stored in table.
func (s *Sink) Len(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

func matches(r store.Record, eq map[string]any) bool {
	for k, want := range eq {
		got, ok := r[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func compare(a, b any) int {
	if fa, ok := store.Number(a); ok {
		if fb, ok := store.Number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}
