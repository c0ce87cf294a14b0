// Package github fetches repository signals for scoring through the GitHub REST API.
package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	gh "github.com/google/go-github/v69/github"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/scoring"
)

var segment = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ParseRepo extracts owner and name from "owner/name" or a github.com URL.
func ParseRepo(s string) (owner, name string, err error) {
	raw := s
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"https://", "http://", "www.", "github.com/"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	parts := strings.Split(s, "/")
	if len(parts) != 2 || !segment.MatchString(parts[0]) || !segment.MatchString(parts[1]) {
		return "", "", &core.ValidationError{Field: "repo", Constraint: "expected owner/name", Value: raw}
	}
	return parts[0], parts[1], nil
}

// Fetcher reads repository metadata.
type Fetcher struct {
	client  *gh.Client
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL points the client at another API root (GitHub Enterprise, tests).
func WithBaseURL(u string) Option {
	return func(f *Fetcher) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		if parsed, err := url.Parse(u); err == nil {
			f.client.BaseURL = parsed
		}
	}
}

// WithTimeout bounds each FetchRepo call.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// New returns a Fetcher. An empty token uses unauthenticated requests.
func New(token string, opts ...Option) *Fetcher {
	client := gh.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	f := &Fetcher{client: client, timeout: 15 * time.Second}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchRepo returns the scoring signals of one repository. A missing README
// is reported as HasReadme=false, not as an error. API failures are
// *core.CollaboratorError values.
func (f *Fetcher) FetchRepo(ctx context.Context, repo string) (scoring.Repo, error) {
	owner, name, err := ParseRepo(repo)
	if err != nil {
		return scoring.Repo{}, err
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	r, _, err := f.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return scoring.Repo{}, core.NewCollaboratorError("github", "get repository", err)
	}

	out := scoring.Repo{
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		Stars:       r.GetStargazersCount(),
		License:     r.GetLicense().GetSPDXID(),
		Topics:      append([]string(nil), r.Topics...),
		Language:    r.GetLanguage(),
	}
	if out.FullName == "" {
		out.FullName = owner + "/" + name
	}
	if pushed := r.GetPushedAt(); !pushed.IsZero() {
		out.LastUpdated = pushed.UTC().Format(time.RFC3339)
	} else if updated := r.GetUpdatedAt(); !updated.IsZero() {
		out.LastUpdated = updated.UTC().Format(time.RFC3339)
	}

	_, resp, err := f.client.Repositories.GetReadme(ctx, owner, name, nil)
	switch {
	case err == nil:
		out.HasReadme = true
	case isNotFound(resp, err):
		out.HasReadme = false
	default:
		return out, core.NewCollaboratorError("github", "get readme", err)
	}
	return out, nil
}

func isNotFound(resp *gh.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var er *gh.ErrorResponse
	return errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound
}
