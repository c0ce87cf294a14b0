package scout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/scoring"
	"github.com/hupe1980/pathway/store"
	"github.com/hupe1980/pathway/store/memory"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	repos map[string]scoring.Repo
	calls []string
}

func (f *fakeFetcher) FetchRepo(_ context.Context, repo string) (scoring.Repo, error) {
	f.calls = append(f.calls, repo)
	r, ok := f.repos[repo]
	if !ok {
		return scoring.Repo{}, core.NewCollaboratorError("github", "get repository", errors.New("404 Not Found"))
	}
	return r, nil
}

func newScout(t *testing.T, sink store.Sink) (*Scout, *fakeFetcher) {
	t.Helper()
	f := &fakeFetcher{repos: map[string]scoring.Repo{
		"acme/swim-tools": {FullName: "acme/swim-tools"},
		"acme/swimkit": {
			FullName:    "acme/swimkit",
			Description: "swim meet results toolkit",
			Stars:       1500,
			LastUpdated: now.AddDate(0, 0, -3).Format(time.RFC3339),
			HasReadme:   true,
			License:     "MIT",
		},
	}}
	scorer := scoring.NewScorer([]string{"swim"}, scoring.WithClock(func() time.Time { return now }))
	return New(f, scorer, func(o *Options) { o.Sink = sink }), f
}

func TestRepoFromQuery(t *testing.T) {
	tests := map[string]string{
		"score acme/swimkit please":             "acme/swimkit",
		"is https://github.com/acme/tool good?": "acme/tool",
		"what about swimcloud/meet-results.":    "swimcloud/meet-results",
	}
	for q, want := range tests {
		got, ok := RepoFromQuery(q)
		require.True(t, ok, q)
		assert.Equal(t, want, got)
	}
	for _, q := range []string{"score my repo", "repo for d1/d2 programs", "a 50/50 split", "D1/II programs"} {
		_, ok := RepoFromQuery(q)
		assert.False(t, ok, q)
	}

	got, ok := RepoFromQuery("d1/d2 programs, see github.com/acme/d2 and acme/tool")
	require.True(t, ok)
	assert.Equal(t, "acme/d2", got)
}

func TestRunAutoAdd(t *testing.T) {
	sink := store.NewValidating(memory.New(), nil)
	s, _ := newScout(t, sink)

	out, err := s.Run(context.Background(), core.NewView("score acme/swimkit", nil, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, out.Status)

	scored := out.Data.(RepoScore)
	assert.Equal(t, 79, scored.Result.Total)
	assert.Equal(t, scoring.AutoAdd, scored.Result.Recommendation)
	assert.Contains(t, out.Content, "acme/swimkit scored 79/100")
	require.Len(t, out.ActionItems, 1)

	rows, err := sink.Query(context.Background(), store.TableRepoScores, store.Where("repo", "acme/swimkit"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AUTO_ADD", rows[0].String("recommendation"))
}

func TestRunZeroSignalFromContext(t *testing.T) {
	s, f := newScout(t, nil)

	out, err := s.Run(context.Background(), core.NewView("rate this", map[string]any{"repo": "acme/swim-tools"}, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/swim-tools"}, f.calls)

	res := out.Data.(RepoScore).Result
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, scoring.Skip, res.Recommendation)
	assert.Equal(t, scoring.RiskHigh, res.Risk)
	assert.Empty(t, out.ActionItems)
	assert.Contains(t, out.Recommendations, "No README found; check the docs before relying on it")
}

func TestRunDegraded(t *testing.T) {
	s, _ := newScout(t, nil)

	out, err := s.Run(context.Background(), core.NewView("score my repo", nil, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)

	out, err = s.Run(context.Background(), core.NewView("score ghost/repo", nil, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)
	assert.Contains(t, out.Content, "404 Not Found")

	out, err = New(nil, nil).Run(context.Background(), core.NewView("score acme/swimkit", nil, core.Profile{}))
	require.NoError(t, err)
	assert.Equal(t, core.StatusDegraded, out.Status)
}

func TestScoreCollaboratorError(t *testing.T) {
	s, _ := newScout(t, nil)
	_, err := s.Score(context.Background(), "ghost/repo")
	assert.ErrorIs(t, err, core.ErrCollaboratorUnavailable)
}

func TestRecordPassesCatalog(t *testing.T) {
	s, _ := newScout(t, nil)
	scored, err := s.Score(context.Background(), "acme/swimkit")
	require.NoError(t, err)
	assert.NoError(t, store.DefaultCatalog().Validate(store.TableRepoScores, Record(scored.Result)))
}
