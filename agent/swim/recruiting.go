package swim

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/pathway/agent"
	"github.com/hupe1980/pathway/core"
	"github.com/hupe1980/pathway/logging"
	"github.com/hupe1980/pathway/store"
)

// KindRecruitingReport is the payload kind of the recruiting agent.
const KindRecruitingReport = "recruiting_report"

// ProgramSummary is what could be extracted from one program page.
type ProgramSummary struct {
	URL         string   `json:"url"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	Partial     bool     `json:"partial,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// RecruitingReport lists the tracked programs.
type RecruitingReport struct {
	Programs []ProgramSummary `json:"programs"`
}

// Kind implements core.Payload.
func (RecruitingReport) Kind() string { return KindRecruitingReport }

// Recruiting summarizes the program pages an athlete is tracking.
type Recruiting struct {
	agent.Base
	pages  PageFetcher
	sink   store.Sink
	logger logging.Logger
}

// NewRecruiting returns the recruiting agent.
func NewRecruiting(deps Deps) *Recruiting {
	r := &Recruiting{Base: agent.NewBase(RecruitingName), pages: deps.Pages, sink: deps.Sink, logger: deps.logger()}
	r.SetDescription("Summaries of tracked college program pages")
	return r
}

// PayloadKind implements core.Kinded.
func (r *Recruiting) PayloadKind() string { return KindRecruitingReport }

// Run implements core.Agent. Pages come from the profile and context program_url.
func (r *Recruiting) Run(ctx context.Context, view core.View) (core.Output, error) {
	urls := programURLs(view)
	if len(urls) == 0 {
		return r.Degraded("no data available: no programs tracked").
			Recommend("Add program page URLs to the profile to follow recruiting news"), nil
	}
	if r.pages == nil {
		return r.Degraded("no data available: page fetcher not configured"), nil
	}

	report := RecruitingReport{Programs: make([]ProgramSummary, 0, len(urls))}
	var recs []string
	var tasks []string
	ok := 0
	for _, u := range urls {
		page, err := r.pages.FetchPage(ctx, u)
		if err != nil {
			r.logger.Warn("Program page fetch failed", "url", u, "error", err.Error())
			report.Programs = append(report.Programs, ProgramSummary{URL: u, Error: err.Error()})
			continue
		}
		ok++
		title := page.Title
		if title == "" {
			title = u
		}
		report.Programs = append(report.Programs, ProgramSummary{
			URL:         u,
			Title:       title,
			Description: page.Description,
			Headings:    page.Headings,
			Partial:     page.Partial(),
		})
		text := strings.ToLower(page.Text + " " + strings.Join(page.Headings, " "))
		if strings.Contains(text, "questionnaire") {
			recs = append(recs, "Fill out the recruiting questionnaire for "+title)
		}
		if strings.Contains(text, "camp") {
			recs = append(recs, "Look into the summer camp at "+title)
		}
		tasks = append(tasks, "Email the coaching staff at "+title)
		r.saveContent(ctx, u, title, page.Description)
	}

	if ok == 0 {
		return r.Degraded(fmt.Sprintf("no data available: all %d program pages failed to load", len(urls))).
			WithData(report), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Checked %d of %d programs:", ok, len(urls))
	for _, p := range report.Programs {
		switch {
		case p.Error != "":
			fmt.Fprintf(&b, "\n- %s: no data available (%s)", p.URL, p.Error)
		case p.Partial:
			fmt.Fprintf(&b, "\n- %s (partial page)", p.Title)
		default:
			fmt.Fprintf(&b, "\n- %s", p.Title)
		}
	}
	out := r.Output(b.String()).Recommend(recs...)
	for _, task := range tasks {
		out = out.Act(task, core.PriorityMedium)
	}
	return out.WithData(report), nil
}

func (r *Recruiting) saveContent(ctx context.Context, url, title, summary string) {
	if r.sink == nil {
		return
	}
	rec := store.Record{"title": title, "url": url, "source": RecruitingName}
	if summary != "" {
		rec["summary"] = summary
	}
	if err := r.sink.Insert(ctx, store.TableContentItems, rec); err != nil {
		r.logger.Warn("Saving program page failed", "url", url, "error", err.Error())
	}
}

func programURLs(view core.View) []string {
	seen := map[string]bool{}
	var urls []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	for _, u := range view.Profile().Programs {
		add(u)
	}
	if u, ok := view.String("program_url"); ok {
		add(u)
	}
	return urls
}

var (
	_ core.Agent  = (*Recruiting)(nil)
	_ core.Kinded = (*Recruiting)(nil)
)
