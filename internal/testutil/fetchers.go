package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/scoring"
	"github.com/hupe1980/pathway/source/web"
)

// ErrNotFound is returned by the fakes for unknown keys.
var ErrNotFound = errors.New("not found")

// Pages is an in-memory page fetcher keyed by URL.
type Pages struct {
	mu    sync.Mutex
	pages map[string]web.Page
	calls []string
}

// NewPages returns a fetcher serving pages by URL.
func NewPages(pages ...web.Page) *Pages {
	p := &Pages{pages: make(map[string]web.Page, len(pages))}
	for _, pg := range pages {
		p.pages[pg.URL] = pg
	}
	return p
}

// FetchPage returns the stored page or a collaborator error.
func (p *Pages) FetchPage(_ context.Context, url string) (web.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, url)
	pg, ok := p.pages[url]
	if !ok {
		return web.Page{}, core.NewCollaboratorError("web", "fetch "+url, ErrNotFound)
	}
	return pg, nil
}

// Calls returns the requested URLs in order.
func (p *Pages) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Repos is an in-memory repository fetcher keyed by full name.
type Repos struct {
	mu    sync.Mutex
	repos map[string]scoring.Repo
	err   error
}

// NewRepos returns a fetcher serving repos by FullName.
func NewRepos(repos ...scoring.Repo) *Repos {
	r := &Repos{repos: make(map[string]scoring.Repo, len(repos))}
	for _, repo := range repos {
		r.repos[repo.FullName] = repo
	}
	return r
}

// FailWith makes every subsequent fetch fail with err.
func (r *Repos) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// FetchRepo returns the stored repo or a collaborator error.
func (r *Repos) FetchRepo(_ context.Context, repo string) (scoring.Repo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return scoring.Repo{}, core.NewCollaboratorError("github", "get "+repo, r.err)
	}
	got, ok := r.repos[repo]
	if !ok {
		return scoring.Repo{}, core.NewCollaboratorError("github", "get "+repo, ErrNotFound)
	}
	return got, nil
}
