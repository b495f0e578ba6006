package match

import "shelfsync/internal/catalog"

// MatchCandidate holds every signal computed for one (A, B) pair.
type MatchCandidate struct {
	A catalog.EntityRef `json:"a"`
	B catalog.EntityRef `json:"b"`

	NameExact bool `json:"name_exact"`
	NameFuzzy bool `json:"name_fuzzy"`
	// NameOnly is set when either side has no item list, so the pair was
	// scored on names and item counts alone.
	NameOnly bool `json:"name_only,omitempty"`

	OverlapCount int     `json:"overlap_count"`
	AOnly        int     `json:"a_only"`
	BOnly        int     `json:"b_only"`
	CountA       int     `json:"count_a"`
	CountB       int     `json:"count_b"`
	CountDiff    int     `json:"count_diff"`
	MatchPct     float64 `json:"match_pct"`
	CountDiffPct float64 `json:"count_diff_pct"`

	MetadataPresent bool   `json:"metadata_present"`
	MetadataID      string `json:"metadata_id,omitempty"`

	AOnlyItems []string `json:"a_only_items,omitempty"`
	BOnlyItems []string `json:"b_only_items,omitempty"`
}

// epsilon absorbs float rounding in threshold comparisons.
const epsilon = 1e-9

// AtLeast reports v >= threshold within rounding tolerance.
func AtLeast(v, threshold float64) bool {
	return v+epsilon >= threshold
}

// AtMost reports v <= threshold within rounding tolerance.
func AtMost(v, threshold float64) bool {
	return v-epsilon <= threshold
}

// Thresholds controls candidate eligibility.
type Thresholds struct {
	MinMatchPct     float64
	MinOverlap      int
	MaxCountDiffPct float64
}

// DefaultThresholds returns the standard dual eligibility rule.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinMatchPct:     0.80,
		MinOverlap:      5,
		MaxCountDiffPct: 0.20,
	}
}

// Eligible reports whether the pair is strong enough to become a candidate.
// Item-scored pairs need match_pct >= MinMatchPct, or overlap >= MinOverlap
// with count_diff_pct <= MaxCountDiffPct. Name-only pairs need a name match.
func (t Thresholds) Eligible(c MatchCandidate) bool {
	if c.NameOnly {
		return c.NameExact || c.NameFuzzy
	}
	if AtLeast(c.MatchPct, t.MinMatchPct) {
		return true
	}
	return c.OverlapCount >= t.MinOverlap && AtMost(c.CountDiffPct, t.MaxCountDiffPct)
}
