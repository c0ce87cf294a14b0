// Package scoring rates GitHub repositories with deterministic heuristics.
//
// A total score (0..100) is the sum of independently capped sub-scores:
//
//	stars      0..30
//	recency    0..25
//	readme     0..10
//	license    0..15
//	relevance  0..20
//
// Each sub-score function is pure and clamps its result to [0, max], so
// missing or extreme inputs evaluate to a floor or ceiling rather than failing.
// The total is bucketed into a Recommendation and a Risk level.
package scoring
