// Package scout provides the repository scouting agent: it fetches a GitHub
// repository's signals and rates them with the scoring heuristics.
package scout

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/pathway/agent"
	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/logging"
	"github.com/hupe1980/pathway/scoring"
	"github.com/hupe1980/pathway/store"
)

// Name is the namespace key of the scout agent.
const Name = "repo_scout"

// KindRepoScore is the payload kind of the scout agent.
const KindRepoScore = "repo_score"

// RepoFetcher retrieves the scoring signals of a repository.
type RepoFetcher interface {
	FetchRepo(ctx context.Context, repo string) (scoring.Repo, error)
}

// RepoScore is the scout payload.
type RepoScore struct {
	Repo   scoring.Repo   `json:"repo"`
	Result scoring.Result `json:"result"`
}

// Kind implements core.Payload.
func (RepoScore) Kind() string { return KindRepoScore }

var (
	repoRef = regexp.MustCompile(`(github\.com/)?\b([A-Za-z0-9][A-Za-z0-9_.-]*)/([A-Za-z0-9][A-Za-z0-9_.-]*)`)
	// Bare segments like "d1", "100" or "ii" read as divisions or ratios.
	numericSegment = regexp.MustCompile(`^(?i:[a-z]{0,3}\d+|i{1,3})$`)
)

// Options configures the scout.
type Options struct {
	// Sink receives one repo_scores record per scored repository. Optional.
	Sink   store.Sink
	Logger logging.Logger
}

// Scout fetches and scores repositories.
type Scout struct {
	agent.Base
	fetcher RepoFetcher
	scorer  *scoring.Scorer
	sink    store.Sink
	logger  logging.Logger
}

// New returns the scout agent. A nil scorer uses the default keywords.
func New(fetcher RepoFetcher, scorer *scoring.Scorer, optFns ...func(o *Options)) *Scout {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if scorer == nil {
		scorer = scoring.NewScorer(nil)
	}
	s := &Scout{
		Base:    agent.NewBase(Name),
		fetcher: fetcher,
		scorer:  scorer,
		sink:    opts.Sink,
		logger:  opts.Logger,
	}
	s.SetDescription("Fetches a GitHub repository and scores it for adoption")
	return s
}

// PayloadKind implements core.Kinded.
func (s *Scout) PayloadKind() string { return KindRepoScore }

// RepoFromQuery extracts the first owner/name reference from free text.
// References prefixed with github.com/ always count; bare ones are skipped
// when either segment is a division-like token such as "d1/d2".
func RepoFromQuery(q string) (string, bool) {
	for _, m := range repoRef.FindAllStringSubmatch(q, -1) {
		owner, name := m[2], strings.TrimSuffix(strings.TrimSuffix(m[3], "."), ".git")
		if name == "" {
			continue
		}
		if m[1] == "" && (numericSegment.MatchString(owner) || numericSegment.MatchString(name)) {
			continue
		}
		return owner + "/" + name, true
	}
	return "", false
}

// Score fetches and rates one repository, persisting the result when a sink
// is configured. Sink failures are logged, not returned.
func (s *Scout) Score(ctx context.Context, repo string) (RepoScore, error) {
	if s.fetcher == nil {
		return RepoScore{}, core.NewCollaboratorError("github", "fetch repository", fmt.Errorf("fetcher not configured"))
	}
	r, err := s.fetcher.FetchRepo(ctx, repo)
	if err != nil {
		return RepoScore{}, err
	}
	res := s.scorer.Score(r)
	if s.sink != nil {
		if err := s.sink.Insert(ctx, store.TableRepoScores, Record(res)); err != nil {
			s.logger.Warn("Saving repo score failed", "repo", res.Repo, "error", err.Error())
		}
	}
	return RepoScore{Repo: r, Result: res}, nil
}

// Run implements core.Agent. The repository comes from context repo or the query.
func (s *Scout) Run(ctx context.Context, view core.View) (core.Output, error) {
	repo, ok := view.String("repo")
	if !ok {
		repo, ok = RepoFromQuery(view.Query())
	}
	if !ok {
		return s.Degraded("no data available: no repository named, use owner/name").
			Recommend("Name the repository as owner/name to get a score"), nil
	}

	scored, err := s.Score(ctx, repo)
	switch {
	case core.IsValidation(err):
		return core.Output{}, err
	case err != nil:
		return s.Degraded("no data available: " + err.Error()), nil
	}

	res := scored.Result
	b := res.Breakdown
	out := s.Output(fmt.Sprintf("%s scored %d/100 (%s, risk %s): stars %d, recency %d, readme %d, license %d, relevance %d.",
		res.Repo, res.Total, res.Recommendation, res.Risk, b.Stars, b.Recency, b.Readme, b.License, b.Relevance))

	switch res.Recommendation {
	case scoring.AutoAdd:
		out = out.Recommend("Add " + res.Repo + " to the toolbox").
			Act("Add "+res.Repo+" to the tracked repositories", core.PriorityMedium)
	case scoring.Review:
		out = out.Recommend("Review " + res.Repo + " by hand before adopting it").
			Act("Review "+res.Repo, core.PriorityLow)
	default:
		out = out.Recommend("Skip " + res.Repo + " for now")
	}
	if !scored.Repo.HasReadme {
		out = out.Recommend("No README found; check the docs before relying on it")
	}
	if b.License == 0 {
		out = out.Recommend("No license declared; reuse is not permitted by default")
	}
	return out.WithData(scored), nil
}

// Record converts a score into a repo_scores row.
func Record(res scoring.Result) store.Record {
	return store.Record{
		"repo":           res.Repo,
		"total":          res.Total,
		"recommendation": string(res.Recommendation),
		"risk":           string(res.Risk),
		"stars":          res.Breakdown.Stars,
		"recency":        res.Breakdown.Recency,
		"readme":         res.Breakdown.Readme,
		"license":        res.Breakdown.License,
		"relevance":      res.Breakdown.Relevance,
	}
}

var (
	_ core.Agent  = (*Scout)(nil)
	_ core.Kinded = (*Scout)(nil)
)
