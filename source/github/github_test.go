package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pathway/core"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		in          string
		owner, name string
		wantErr     bool
	}{
		{"swimcloud/meet-results", "swimcloud", "meet-results", false},
		{"https://github.com/mudler/LocalAGI", "mudler", "LocalAGI", false},
		{"github.com/go-chi/chi.git", "go-chi", "chi", false},
		{"https://github.com/a/b/", "a", "b", false},
		{"just-a-name", "", "", true},
		{"a/b/c", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, name, err := ParseRepo(tt.in)
			if tt.wantErr {
				assert.True(t, core.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.name, name)
		})
	}
}

func newServer(t *testing.T, readmeStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/agent-kit", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"full_name": "acme/agent-kit",
			"description": "LLM agent toolkit",
			"stargazers_count": 1234,
			"pushed_at": "2026-05-30T10:00:00Z",
			"language": "Go",
			"topics": ["agents", "llm"],
			"license": {"spdx_id": "Apache-2.0"}
		}`))
	})
	mux.HandleFunc("/repos/acme/agent-kit/readme", func(w http.ResponseWriter, r *http.Request) {
		if readmeStatus != http.StatusOK {
			w.WriteHeader(readmeStatus)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"README.md","type":"file"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRepo(t *testing.T) {
	srv := newServer(t, http.StatusOK)
	f := New("", WithBaseURL(srv.URL))

	repo, err := f.FetchRepo(context.Background(), "acme/agent-kit")
	require.NoError(t, err)
	assert.Equal(t, "acme/agent-kit", repo.FullName)
	assert.Equal(t, 1234, repo.Stars)
	assert.Equal(t, "Apache-2.0", repo.License)
	assert.Equal(t, "2026-05-30T10:00:00Z", repo.LastUpdated)
	assert.Equal(t, []string{"agents", "llm"}, repo.Topics)
	assert.True(t, repo.HasReadme)
}

func TestFetchRepoWithoutReadme(t *testing.T) {
	srv := newServer(t, http.StatusNotFound)
	f := New("token", WithBaseURL(srv.URL))

	repo, err := f.FetchRepo(context.Background(), "acme/agent-kit")
	require.NoError(t, err)
	assert.False(t, repo.HasReadme)
}

func TestFetchRepoFailures(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError)
	f := New("", WithBaseURL(srv.URL))

	_, err := f.FetchRepo(context.Background(), "acme/agent-kit")
	assert.ErrorIs(t, err, core.ErrCollaboratorUnavailable)

	_, err = f.FetchRepo(context.Background(), "acme/missing")
	assert.ErrorIs(t, err, core.ErrCollaboratorUnavailable)

	_, err = f.FetchRepo(context.Background(), "not a repo")
	assert.True(t, core.IsValidation(err))
}
