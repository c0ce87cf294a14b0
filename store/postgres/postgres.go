// Package postgres implements store.Sink on PostgreSQL through the pgx
// database/sql driver. Table and column names are sanitized as identifiers;
// values are always bound as parameters.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hupe1980/pathway/store"
)

// Sink writes records into same-named tables.
type Sink struct {
	db *sql.DB
}

var openDB = sql.Open

// New opens and pings the database and verifies that every catalog table exists.
func New(conn string, catalog *store.Catalog) (*Sink, error) {
	db, err := openDB("pgx", conn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if catalog != nil {
		if err := verifySchema(ctx, db, catalog.Tables()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &Sink{db: db}, nil
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sql.DB) *Sink {
	return &Sink{db: db}
}

// Close releases the connection pool.
func (s *Sink) Close() error { return s.db.Close() }

func verifySchema(ctx context.Context, db *sql.DB, tables []string) error {
	for _, table := range tables {
		var regclass sql.NullString
		if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)", fmt.Sprintf("public.%s", table)).Scan(&regclass); err != nil {
			return err
		}
		if !regclass.Valid {
			return fmt.Errorf("database schema missing: %s table not found", table)
		}
	}
	return nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Insert writes one row. Lists and maps are stored as JSON.
func (s *Sink) Insert(ctx context.Context, table string, rec store.Record) error {
	cols := sortedKeys(rec)
	if len(cols) == 0 {
		return fmt.Errorf("insert %s: empty record", table)
	}
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		names[i] = ident(c)
		params[i] = fmt.Sprintf("$%d", i+1)
		v, err := encodeValue(rec[c])
		if err != nil {
			return fmt.Errorf("insert %s.%s: %w", table, c, err)
		}
		args[i] = v
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", ident(table), strings.Join(names, ", "), strings.Join(params, ", "))
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Query selects rows matching f.
func (s *Sink) Query(ctx context.Context, table string, f store.Filter) ([]store.Record, error) {
	query, args := buildSelect(table, f)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []store.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(store.Record, len(cols))
		for i, c := range cols {
			rec[c] = decodeValue(vals[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func buildSelect(table string, f store.Filter) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(ident(table))

	cols := make([]string, 0, len(f.Eq))
	for c := range f.Eq {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	args := make([]any, 0, len(cols))
	for i, c := range cols {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s = $%d", ident(c), i+1)
		args = append(args, f.Eq[c])
	}
	if f.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(ident(f.OrderBy))
		if f.Desc {
			b.WriteString(" DESC")
		}
	}
	if f.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", f.Limit)
	}
	return b.String(), args
}

func sortedKeys(rec store.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeValue(v any) (any, error) {
	switch v.(type) {
	case []string, []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return v, nil
	}
}

func decodeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return decodeText(string(t))
	case string:
		return decodeText(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

// decodeText turns JSON arrays and objects back into Go values.
func decodeText(s string) any {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return s
}
