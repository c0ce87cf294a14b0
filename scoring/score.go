package scoring

import (
	"strings"
	"time"
)

// Repo is the scoring input: the signals fetched for one repository.
type Repo struct {
	FullName    string   `json:"full_name"`
	Description string   `json:"description,omitempty"`
	Stars       int      `json:"stars"`
	LastUpdated string   `json:"last_updated,omitempty"`
	HasReadme   bool     `json:"has_readme"`
	License     string   `json:"license,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Language    string   `json:"language,omitempty"`
}

// Recommendation is the ordinal verdict derived from the total score.
type Recommendation string

const (
	AutoAdd Recommendation = "AUTO_ADD"
	Review  Recommendation = "REVIEW"
	Skip    Recommendation = "SKIP"
)

// Risk is the adoption risk derived from the total score.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// Bucket thresholds shared by Recommendation and Risk.
const (
	HighThreshold   = 70
	MediumThreshold = 40
)

// Breakdown lists the individual sub-scores.
type Breakdown struct {
	Stars     int `json:"stars"`
	Recency   int `json:"recency"`
	Readme    int `json:"readme"`
	License   int `json:"license"`
	Relevance int `json:"relevance"`
}

// Total sums the sub-scores.
func (b Breakdown) Total() int {
	return b.Stars + b.Recency + b.Readme + b.License + b.Relevance
}

// Result is the scored repository.
type Result struct {
	Repo           string         `json:"repo"`
	Breakdown      Breakdown      `json:"breakdown"`
	Total          int            `json:"total"`
	Recommendation Recommendation `json:"recommendation"`
	Risk           Risk           `json:"risk"`
	ScoredAt       time.Time      `json:"scored_at"`
}

// Bucket maps a total to its recommendation and risk.
func Bucket(total int) (Recommendation, Risk) {
	switch {
	case total >= HighThreshold:
		return AutoAdd, RiskLow
	case total >= MediumThreshold:
		return Review, RiskMedium
	default:
		return Skip, RiskHigh
	}
}

// DefaultKeywords are matched against description, name and topics.
var DefaultKeywords = []string{"agent", "llm", "automation", "workflow", "scraper", "orchestration", "rag", "mcp"}

// Scorer applies the heuristics with a fixed keyword list and clock.
type Scorer struct {
	keywords []string
	now      func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// NewScorer returns a Scorer. An empty keyword list uses DefaultKeywords.
func NewScorer(keywords []string, opts ...Option) *Scorer {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	s := &Scorer{keywords: append([]string(nil), keywords...), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keywords returns the relevance keywords.
func (s *Scorer) Keywords() []string { return append([]string(nil), s.keywords...) }

// Score rates r.
func (s *Scorer) Score(r Repo) Result {
	now := s.now().UTC()
	text := strings.Join(append([]string{r.FullName, r.Description}, r.Topics...), " ")

	b := Breakdown{
		Stars:     StarsScore(r.Stars),
		Recency:   RecencyScore(r.LastUpdated, now),
		Readme:    ReadmeScore(r.HasReadme),
		License:   LicenseScore(r.License),
		Relevance: RelevanceScore(text, s.keywords),
	}
	total := clamp(b.Total(), MaxTotal)
	rec, risk := Bucket(total)

	return Result{
		Repo:           r.FullName,
		Breakdown:      b,
		Total:          total,
		Recommendation: rec,
		Risk:           risk,
		ScoredAt:       now,
	}
}
