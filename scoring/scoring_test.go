package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func TestStarsScore(t *testing.T) {
	tests := []struct {
		stars int
		want  int
	}{
		{-5, 0}, {0, 0}, {1, 2}, {9, 2}, {10, 5}, {49, 5}, {50, 10},
		{100, 15}, {500, 20}, {999, 20}, {1000, 25}, {10000, 30}, {math.MaxInt32, 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StarsScore(tt.stars), "stars=%d", tt.stars)
	}
}

func TestRecencyScore(t *testing.T) {
	day := func(n int) string { return fixedNow.AddDate(0, 0, -n).Format(time.RFC3339) }
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"garbage", "last tuesday", 0},
		{"future", fixedNow.AddDate(1, 0, 0).Format(time.RFC3339), 25},
		{"today", day(0), 25},
		{"month", day(30), 25},
		{"quarter", day(90), 20},
		{"half year", day(180), 15},
		{"year", day(365), 10},
		{"two years", day(730), 5},
		{"ancient", day(3000), 0},
		{"plain date", "2026-05-20", 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RecencyScore(tt.in, fixedNow))
		})
	}
}

func TestLicenseScore(t *testing.T) {
	tests := map[string]int{
		"":             0,
		"NOASSERTION":  0,
		"MIT":          15,
		"Apache-2.0":   15,
		"BSD-3-Clause": 15,
		"MPL-2.0":      10,
		"LGPL-3.0":     10,
		"GPL-3.0":      5,
		"AGPL-3.0":     5,
		"custom":       3,
	}
	for in, want := range tests {
		assert.Equal(t, want, LicenseScore(in), "license=%q", in)
	}
}

func TestRelevanceScore(t *testing.T) {
	assert.Equal(t, 0, RelevanceScore("", DefaultKeywords))
	assert.Equal(t, 8, RelevanceScore("An LLM agent", DefaultKeywords))
	assert.Equal(t, 4, RelevanceScore("agent agent agent", []string{"agent", "AGENT", " agent "}))

	everything := "agent llm automation workflow scraper orchestration rag mcp"
	assert.Equal(t, MaxRelevance, RelevanceScore(everything, DefaultKeywords))
}

func TestSubScoresStayInRange(t *testing.T) {
	inputs := []int{math.MinInt32, -1, 0, 1, 7, 42, 1 << 20, math.MaxInt32}
	for _, n := range inputs {
		s := StarsScore(n)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, MaxStars)
	}
	for _, ts := range []string{"", "0001-01-01", "9999-12-31", "2026-06-01T12:00:00Z"} {
		s := RecencyScore(ts, fixedNow)
		assert.GreaterOrEqual(t, s, 0)
		assert.LessOrEqual(t, s, MaxRecency)
	}
}

func TestScoreZeroSignal(t *testing.T) {
	s := NewScorer([]string{"swim"}, WithClock(func() time.Time { return fixedNow }))

	got := s.Score(Repo{FullName: "acme/swim-tools", Stars: 0, LastUpdated: "", HasReadme: false, License: ""})

	want := Result{
		Repo:           "acme/swim-tools",
		Breakdown:      Breakdown{Stars: 0, Recency: 0, Readme: 0, License: 0, Relevance: 4},
		Total:          4,
		Recommendation: Skip,
		Risk:           RiskHigh,
		ScoredAt:       fixedNow,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Score() mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreBuckets(t *testing.T) {
	s := NewScorer(nil, WithClock(func() time.Time { return fixedNow }))

	strong := s.Score(Repo{
		FullName:    "acme/agent-kit",
		Description: "LLM agent orchestration",
		Stars:       12000,
		LastUpdated: "2026-05-25T00:00:00Z",
		HasReadme:   true,
		License:     "MIT",
	})
	assert.Equal(t, 30+25+10+15+12, strong.Total)
	assert.Equal(t, AutoAdd, strong.Recommendation)
	assert.Equal(t, RiskLow, strong.Risk)

	mid := s.Score(Repo{FullName: "acme/tool", Stars: 150, LastUpdated: "2026-01-01", HasReadme: true})
	assert.Equal(t, 15+15+10, mid.Total)
	assert.Equal(t, Review, mid.Recommendation)
	assert.Equal(t, RiskMedium, mid.Risk)
}

func TestBucket(t *testing.T) {
	tests := []struct {
		total int
		rec   Recommendation
		risk  Risk
	}{
		{100, AutoAdd, RiskLow},
		{70, AutoAdd, RiskLow},
		{69, Review, RiskMedium},
		{40, Review, RiskMedium},
		{39, Skip, RiskHigh},
		{0, Skip, RiskHigh},
	}
	for _, tt := range tests {
		rec, risk := Bucket(tt.total)
		assert.Equal(t, tt.rec, rec)
		assert.Equal(t, tt.risk, risk)
	}
}
