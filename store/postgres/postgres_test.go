package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pathway/store"
)

func newMockSink(t *testing.T) (*Sink, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestInsert(t *testing.T) {
	s, mock := newMockSink(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "profiles" ("name", "programs") VALUES ($1, $2)`)).
		WithArgs("Michael", `["https://a.edu"]`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Insert(context.Background(), "profiles", store.Record{"name": "Michael", "programs": []string{"https://a.edu"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSanitizesIdentifiers(t *testing.T) {
	s, mock := newMockSink(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tasks; DROP TABLE x" ("a""b") VALUES ($1)`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Insert(context.Background(), "tasks; DROP TABLE x", store.Record{`a"b`: 1})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertError(t *testing.T) {
	s, mock := newMockSink(t)
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("duplicate key"))

	err := s.Insert(context.Background(), "tasks", store.Record{"title": "x"})
	assert.EqualError(t, err, "duplicate key")

	assert.Error(t, s.Insert(context.Background(), "tasks", store.Record{}))
}

func TestQuery(t *testing.T) {
	s, mock := newMockSink(t)
	swum := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"athlete", "event", "seconds", "created_at"}).
		AddRow("Michael", "100 free", 46.8, swum).
		AddRow("Michael", "100 free", 47.2, swum)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "swim_times" WHERE "athlete" = $1 AND "event" = $2 ORDER BY "seconds" LIMIT 5`)).
		WithArgs("Michael", "100 free").
		WillReturnRows(rows)

	f := store.Where("athlete", "Michael").And("event", "100 free")
	f.OrderBy = "seconds"
	f.Limit = 5
	recs, err := s.Query(context.Background(), "swim_times", f)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 46.8, recs[0]["seconds"])
	assert.Equal(t, "2026-03-01T00:00:00Z", recs[0]["created_at"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryDecodesJSON(t *testing.T) {
	s, mock := newMockSink(t)
	rows := sqlmock.NewRows([]string{"name", "programs"}).AddRow("Michael", []byte(`["https://a.edu"]`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles" ORDER BY "name" DESC`)).WillReturnRows(rows)

	recs, err := s.Query(context.Background(), "profiles", store.Filter{OrderBy: "name", Desc: true})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []any{"https://a.edu"}, recs[0]["programs"])
	assert.Equal(t, []string{"https://a.edu"}, store.ProfileFromRecord(recs[0]).Programs)
}

func TestQueryRowsErr(t *testing.T) {
	s, mock := newMockSink(t)
	rows := sqlmock.NewRows([]string{"title"}).AddRow("a").AddRow("b")
	rows.RowError(1, errors.New("row error"))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	_, err := s.Query(context.Background(), "tasks", store.Filter{})
	assert.Error(t, err)
}

func TestVerifySchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT to_regclass").WithArgs("public.tasks").
		WillReturnRows(sqlmock.NewRows([]string{"to_regclass"}).AddRow("tasks"))
	mock.ExpectQuery("SELECT to_regclass").WithArgs("public.agent_logs").
		WillReturnRows(sqlmock.NewRows([]string{"to_regclass"}).AddRow(nil))

	err = verifySchema(context.Background(), db, []string{"tasks", "agent_logs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent_logs")
}

func TestNewOpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("bad dsn") }

	_, err := New("postgres://", nil)
	assert.EqualError(t, err, "bad dsn")
}
