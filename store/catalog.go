package store

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/pathway/core"
)

// ColumnType constrains the Go values accepted for a column.
type ColumnType int

const (
	TypeAny ColumnType = iota
	TypeString
	TypeNumber
	TypeBool
	TypeList
)

// Column declares one column of a table.
type Column struct {
	Name     string
	Type     ColumnType
	Required bool
	Default  any      // applied when the column is absent; nil means no default
	Enum     []string // allowed values for categorical columns
	// Generated columns are filled in by the catalog on insert (id, created_at).
	Generated bool
}

// TableSchema is the fixed, pre-declared shape of one table.
type TableSchema struct {
	Name    string
	Columns []Column
}

// Column returns the named column declaration.
func (t TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames lists the declared columns in declaration order.
func (t TableSchema) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Catalog maps table names to schemas.
type Catalog struct {
	tables map[string]TableSchema
	now    func() time.Time
}

// NewCatalog builds a catalog from the given schemas.
func NewCatalog(tables ...TableSchema) *Catalog {
	c := &Catalog{tables: make(map[string]TableSchema, len(tables)), now: time.Now}
	for _, t := range tables {
		c.tables[t.Name] = t
	}
	return c
}

// Table returns the schema for name.
func (c *Catalog) Table(name string) (TableSchema, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// Tables returns the table names in sorted order.
func (c *Catalog) Tables() []string {
	names := make([]string, 0, len(c.tables))
	for n := range c.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate checks rec against the table schema without modifying it:
// unknown columns, required presence, column types and enum membership.
// The first violation is returned as a *core.ValidationError.
func (c *Catalog) Validate(table string, rec Record) error {
	t, ok := c.tables[table]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	unknown := make([]string, 0)
	for k := range rec {
		if _, ok := t.Column(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &core.ValidationError{Table: table, Field: unknown[0], Constraint: "unknown column"}
	}

	for _, col := range t.Columns {
		v, present := rec[col.Name]
		if !present || v == nil || isBlank(v) {
			if col.Required {
				return &core.ValidationError{Table: table, Field: col.Name, Constraint: "required"}
			}
			continue
		}
		if err := checkType(table, col, v); err != nil {
			return err
		}
		if len(col.Enum) > 0 {
			s, _ := v.(string)
			if !slices.Contains(col.Enum, s) {
				return &core.ValidationError{
					Table:      table,
					Field:      col.Name,
					Constraint: "one of [" + strings.Join(col.Enum, " ") + "]",
					Value:      v,
				}
			}
		}
	}
	return nil
}

// Prepare validates rec and returns a copy with defaults and generated
// columns filled in. A record returned by Prepare always passes Validate.
func (c *Catalog) Prepare(table string, rec Record) (Record, error) {
	if err := c.Validate(table, rec); err != nil {
		return nil, err
	}
	t := c.tables[table]
	out := rec.Clone()
	for _, col := range t.Columns {
		if v, ok := out[col.Name]; ok && v != nil && !isBlank(v) {
			continue
		}
		switch {
		case col.Generated && col.Name == "id":
			out[col.Name] = core.NewID()
		case col.Generated && col.Name == "created_at":
			out[col.Name] = c.now().UTC().Format(time.RFC3339)
		case col.Default != nil:
			out[col.Name] = col.Default
		}
	}
	return out, nil
}

func isBlank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func checkType(table string, col Column, v any) error {
	ok := true
	switch col.Type {
	case TypeString:
		_, ok = v.(string)
	case TypeNumber:
		_, ok = Number(v)
	case TypeBool:
		_, ok = v.(bool)
	case TypeList:
		switch v.(type) {
		case []string, []any:
		default:
			ok = false
		}
	}
	if !ok {
		return &core.ValidationError{Table: table, Field: col.Name, Constraint: "invalid type " + typeName(col.Type), Value: v}
	}
	return nil
}

func typeName(t ColumnType) string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeList:
		return "list"
	default:
		return "any"
	}
}

// Enumerations shared with the agents and the HTTP surface.
var (
	TaskStatuses   = []string{"pending", "in_progress", "done", "blocked"}
	TaskDomains    = []string{"swim", "recruiting", "travel", "nutrition", "repos", "content", "general"}
	TaskPriorities = []string{"low", "medium", "high"}
	AgentStatuses  = []string{"not_run", "ok", "degraded", "error"}
	Courses        = []string{"SCY", "LCM", "SCM"}
	Verdicts       = []string{"AUTO_ADD", "REVIEW", "SKIP"}
	Risks          = []string{"LOW", "MEDIUM", "HIGH"}
	ContentStates  = []string{"new", "reviewed", "archived"}
)

func idCols() []Column {
	return []Column{
		{Name: "id", Type: TypeString, Generated: true},
		{Name: "created_at", Type: TypeString, Generated: true},
	}
}

// DefaultCatalog returns the schemas of every table pathway writes.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		TableSchema{Name: TableTasks, Columns: append(idCols(),
			Column{Name: "title", Type: TypeString, Required: true},
			Column{Name: "domain", Type: TypeString, Required: true, Enum: TaskDomains},
			Column{Name: "status", Type: TypeString, Default: "pending", Enum: TaskStatuses},
			Column{Name: "priority", Type: TypeString, Default: "medium", Enum: TaskPriorities},
			Column{Name: "athlete", Type: TypeString},
			Column{Name: "due_date", Type: TypeString},
			Column{Name: "notes", Type: TypeString},
			Column{Name: "source_agent", Type: TypeString},
		)},
		TableSchema{Name: TableAgentLogs, Columns: append(idCols(),
			Column{Name: "agent", Type: TypeString, Required: true},
			Column{Name: "status", Type: TypeString, Required: true, Enum: AgentStatuses},
			Column{Name: "request_id", Type: TypeString},
			Column{Name: "query", Type: TypeString},
			Column{Name: "content", Type: TypeString},
			Column{Name: "error", Type: TypeString},
			Column{Name: "duration_ms", Type: TypeNumber},
		)},
		TableSchema{Name: TableSwimTimes, Columns: append(idCols(),
			Column{Name: "athlete", Type: TypeString, Required: true},
			Column{Name: "event", Type: TypeString, Required: true},
			Column{Name: "seconds", Type: TypeNumber, Required: true},
			Column{Name: "course", Type: TypeString, Default: "SCY", Enum: Courses},
			Column{Name: "meet", Type: TypeString},
			Column{Name: "swum_on", Type: TypeString},
		)},
		TableSchema{Name: TableProfiles, Columns: append(idCols(),
			Column{Name: "name", Type: TypeString, Required: true},
			Column{Name: "grad_year", Type: TypeNumber},
			Column{Name: "weight_kg", Type: TypeNumber},
			Column{Name: "target_division", Type: TypeString},
			Column{Name: "home_city", Type: TypeString},
			Column{Name: "programs", Type: TypeList},
		)},
		TableSchema{Name: TableRepoScores, Columns: append(idCols(),
			Column{Name: "repo", Type: TypeString, Required: true},
			Column{Name: "total", Type: TypeNumber, Required: true},
			Column{Name: "recommendation", Type: TypeString, Required: true, Enum: Verdicts},
			Column{Name: "risk", Type: TypeString, Enum: Risks},
			Column{Name: "stars", Type: TypeNumber},
			Column{Name: "recency", Type: TypeNumber},
			Column{Name: "readme", Type: TypeNumber},
			Column{Name: "license", Type: TypeNumber},
			Column{Name: "relevance", Type: TypeNumber},
		)},
		TableSchema{Name: TableContentItems, Columns: append(idCols(),
			Column{Name: "title", Type: TypeString, Required: true},
			Column{Name: "url", Type: TypeString, Required: true},
			Column{Name: "source", Type: TypeString, Required: true},
			Column{Name: "summary", Type: TypeString},
			Column{Name: "status", Type: TypeString, Default: "new", Enum: ContentStates},
		)},
	)
}
