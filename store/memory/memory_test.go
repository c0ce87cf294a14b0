package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pathway/store"
)

func TestInsertAndQuery(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Insert(ctx, "swim_times", store.Record{"athlete": "Michael", "event": "100 free", "seconds": 47.9}))
	require.NoError(t, s.Insert(ctx, "swim_times", store.Record{"athlete": "Michael", "event": "100 free", "seconds": 46.8}))
	require.NoError(t, s.Insert(ctx, "swim_times", store.Record{"athlete": "Jane", "event": "100 free", "seconds": 52.1}))

	recs, err := s.Query(ctx, "swim_times", store.Filter{Eq: map[string]any{"athlete": "Michael"}, OrderBy: "seconds"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 46.8, recs[0]["seconds"])

	recs, err = s.Query(ctx, "swim_times", store.Filter{OrderBy: "seconds", Desc: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Jane", recs[0]["athlete"])

	assert.Equal(t, 3, s.Len("swim_times"))
}

func TestQueryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Insert(ctx, "tasks", store.Record{"title": "x"}))

	recs, err := s.Query(ctx, "tasks", store.Filter{})
	require.NoError(t, err)
	recs[0]["title"] = "changed"

	again, err := s.Query(ctx, "tasks", store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "x", again[0]["title"])
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, New().Insert(ctx, "tasks", store.Record{}))
}
