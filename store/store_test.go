package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/store"
	"github.com/hupe1980/pathway/store/memory"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Insert(ctx context.Context, table string, rec store.Record) error {
	args := m.Called(ctx, table, rec)
	return args.Error(0)
}

func (m *mockSink) Query(ctx context.Context, table string, f store.Filter) ([]store.Record, error) {
	args := m.Called(ctx, table, f)
	recs, _ := args.Get(0).([]store.Record)
	return recs, args.Error(1)
}

func TestTaskMissingDomainNeverReachesSink(t *testing.T) {
	sink := &mockSink{}
	v := store.NewValidating(sink, nil)

	err := v.Insert(context.Background(), store.TableTasks, store.Record{"title": "Email coach"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain")

	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "domain", ve.Field)
	assert.Equal(t, "required", ve.Constraint)

	sink.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateConstraints(t *testing.T) {
	c := store.DefaultCatalog()
	tests := []struct {
		name      string
		table     string
		rec       store.Record
		wantField string
	}{
		{"valid task", store.TableTasks, store.Record{"title": "t", "domain": "swim"}, ""},
		{"blank title", store.TableTasks, store.Record{"title": "  ", "domain": "swim"}, "title"},
		{"bad enum", store.TableTasks, store.Record{"title": "t", "domain": "golf"}, "domain"},
		{"bad status", store.TableTasks, store.Record{"title": "t", "domain": "swim", "status": "later"}, "status"},
		{"unknown column", store.TableTasks, store.Record{"title": "t", "domain": "swim", "colour": "red"}, "colour"},
		{"wrong type", store.TableSwimTimes, store.Record{"athlete": "a", "event": "e", "seconds": "fast"}, "seconds"},
		{"valid swim time", store.TableSwimTimes, store.Record{"athlete": "a", "event": "e", "seconds": 50}, ""},
		{"bad course", store.TableSwimTimes, store.Record{"athlete": "a", "event": "e", "seconds": 50.0, "course": "XYZ"}, "course"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.table, tt.rec)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}

	err := c.Validate("nope", store.Record{})
	assert.ErrorIs(t, err, store.ErrUnknownTable)
}

func TestPrepareFillsDefaults(t *testing.T) {
	c := store.DefaultCatalog()
	rec, err := c.Prepare(store.TableTasks, store.Record{"title": "Book hotel", "domain": "travel"})
	require.NoError(t, err)

	assert.Equal(t, "pending", rec["status"])
	assert.Equal(t, "medium", rec["priority"])
	assert.NotEmpty(t, rec["id"])
	assert.NotEmpty(t, rec["created_at"])
	assert.NoError(t, c.Validate(store.TableTasks, rec))
}

func TestValidateThenInsertNeverFailsValidation(t *testing.T) {
	ctx := context.Background()
	c := store.DefaultCatalog()
	v := store.NewValidating(memory.New(), c)

	records := []struct {
		table string
		rec   store.Record
	}{
		{store.TableTasks, store.Record{"title": "a", "domain": "general"}},
		{store.TableAgentLogs, store.Record{"agent": "diet", "status": "ok", "duration_ms": 12}},
		{store.TableSwimTimes, store.Record{"athlete": "m", "event": "50 free", "seconds": 21.4}},
		{store.TableProfiles, store.Record{"name": "m", "programs": []string{"https://example.edu"}}},
		{store.TableRepoScores, store.Record{"repo": "a/b", "total": 40, "recommendation": "REVIEW"}},
		{store.TableContentItems, store.Record{"title": "t", "url": "https://x", "source": "web"}},
	}
	for _, r := range records {
		require.NoError(t, c.Validate(r.table, r.rec))
		assert.NoError(t, v.Insert(ctx, r.table, r.rec), r.table)
	}
}

func TestBackendFailureIsCollaboratorError(t *testing.T) {
	sink := &mockSink{}
	sink.On("Insert", mock.Anything, store.TableTasks, mock.Anything).Return(errors.New("connection reset"))
	sink.On("Query", mock.Anything, store.TableTasks, mock.Anything).Return(nil, errors.New("timeout"))
	v := store.NewValidating(sink, nil, store.WithName("postgres"))

	err := v.Insert(context.Background(), store.TableTasks, store.Record{"title": "t", "domain": "swim"})
	assert.ErrorIs(t, err, core.ErrCollaboratorUnavailable)
	assert.Contains(t, err.Error(), "postgres")

	_, err = v.Query(context.Background(), store.TableTasks, store.Filter{})
	assert.ErrorIs(t, err, core.ErrCollaboratorUnavailable)
	sink.AssertExpectations(t)
}

func TestQueryRejectsUnknownColumns(t *testing.T) {
	sink := &mockSink{}
	v := store.NewValidating(sink, nil)

	_, err := v.Query(context.Background(), store.TableTasks, store.Where("colour", "red"))
	assert.True(t, core.IsValidation(err))

	_, err = v.Query(context.Background(), "nope", store.Filter{})
	assert.True(t, core.IsValidation(err))
	sink.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoadProfile(t *testing.T) {
	ctx := context.Background()
	sink := memory.New()
	want := core.Profile{Name: "Michael", GradYear: 2027, WeightKG: 72, TargetDivision: "D1", Programs: []string{"https://a.edu"}}
	require.NoError(t, sink.Insert(ctx, store.TableProfiles, store.ProfileRecord(want)))

	got, err := store.LoadProfile(ctx, sink, "Michael")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	missing, err := store.LoadProfile(ctx, sink, "Nobody")
	require.NoError(t, err)
	assert.True(t, missing.IsZero())
}
