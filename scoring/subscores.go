package scoring

import (
	"strings"
	"time"
)

// Sub-score ceilings.
const (
	MaxStars     = 30
	MaxRecency   = 25
	MaxReadme    = 10
	MaxLicense   = 15
	MaxRelevance = 20
	MaxTotal     = MaxStars + MaxRecency + MaxReadme + MaxLicense + MaxRelevance

	pointsPerKeyword = 4
)

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

var starTiers = []struct {
	min    int
	points int
}{
	{10000, 30},
	{1000, 25},
	{500, 20},
	{100, 15},
	{50, 10},
	{10, 5},
	{1, 2},
}

// StarsScore rates popularity. Zero or negative stars score 0.
func StarsScore(stars int) int {
	for _, tier := range starTiers {
		if stars >= tier.min {
			return clamp(tier.points, MaxStars)
		}
	}
	return 0
}

var recencyTiers = []struct {
	days   int
	points int
}{
	{30, 25},
	{90, 20},
	{180, 15},
	{365, 10},
	{730, 5},
}

// RecencyScore rates how recently the repository was pushed to, relative to
// now. lastUpdated is RFC3339 or YYYY-MM-DD; empty or unparseable values score
// 0 and timestamps in the future count as updated today.
func RecencyScore(lastUpdated string, now time.Time) int {
	ts, ok := ParseTimestamp(lastUpdated)
	if !ok {
		return 0
	}
	days := int(now.Sub(ts).Hours() / 24)
	if days < 0 {
		days = 0
	}
	for _, tier := range recencyTiers {
		if days <= tier.days {
			return clamp(tier.points, MaxRecency)
		}
	}
	return 0
}

// ParseTimestamp accepts RFC3339 and plain dates.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ReadmeScore rewards documented repositories.
func ReadmeScore(hasReadme bool) int {
	if hasReadme {
		return MaxReadme
	}
	return 0
}

// LicenseClass groups SPDX identifiers by how freely the code can be reused.
type LicenseClass string

const (
	LicenseNone         LicenseClass = "none"
	LicensePermissive   LicenseClass = "permissive"
	LicenseWeakCopyleft LicenseClass = "weak_copyleft"
	LicenseCopyleft     LicenseClass = "copyleft"
	LicenseOther        LicenseClass = "other"
)

// ClassifyLicense maps an SPDX id (or free-form name) to a LicenseClass.
func ClassifyLicense(license string) LicenseClass {
	l := strings.ToLower(strings.TrimSpace(license))
	switch {
	case l == "" || l == "noassertion" || l == "none":
		return LicenseNone
	case l == "mit" || l == "isc" || l == "unlicense" || l == "0bsd" ||
		strings.HasPrefix(l, "apache") || strings.HasPrefix(l, "bsd"):
		return LicensePermissive
	case strings.HasPrefix(l, "lgpl") || strings.HasPrefix(l, "mpl") || strings.HasPrefix(l, "epl"):
		return LicenseWeakCopyleft
	case strings.HasPrefix(l, "gpl") || strings.HasPrefix(l, "agpl"):
		return LicenseCopyleft
	default:
		return LicenseOther
	}
}

// LicenseScore rates reuse friendliness: permissive 15, weak copyleft 10,
// copyleft 5, anything else 3, no license 0.
func LicenseScore(license string) int {
	switch ClassifyLicense(license) {
	case LicensePermissive:
		return MaxLicense
	case LicenseWeakCopyleft:
		return clamp(10, MaxLicense)
	case LicenseCopyleft:
		return clamp(5, MaxLicense)
	case LicenseOther:
		return clamp(3, MaxLicense)
	default:
		return 0
	}
}

// RelevanceScore awards points per distinct keyword found (case-insensitive)
// in text, capped at MaxRelevance.
func RelevanceScore(text string, keywords []string) int {
	text = strings.ToLower(text)
	if text == "" {
		return 0
	}
	seen := make(map[string]struct{}, len(keywords))
	hits := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return clamp(hits*pointsPerKeyword, MaxRelevance)
}
