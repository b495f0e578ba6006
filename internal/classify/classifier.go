package classify

import (
	"shelfsync/internal/config"
	"shelfsync/internal/match"
)

// Policy holds the thresholds that separate tiers. Eligibility is part of
// the policy so an ineligible pair always lands in NO_MATCH.
type Policy struct {
	Eligibility           match.Thresholds
	ExcellentMatchPct     float64
	ExcellentCountDiffPct float64
	GoodMatchPct          float64
	GoodCountDiffPct      float64
	PartialMatchPct       float64
}

// DefaultPolicy returns the standard tier thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Eligibility:           match.DefaultThresholds(),
		ExcellentMatchPct:     0.95,
		ExcellentCountDiffPct: 0.05,
		GoodMatchPct:          0.90,
		GoodCountDiffPct:      0.10,
		PartialMatchPct:       0.80,
	}
}

// PolicyFromConfig builds a policy from the [matching] and [classify] sections.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return DefaultPolicy()
	}
	return Policy{
		Eligibility: match.Thresholds{
			MinMatchPct:     cfg.Matching.MinMatchPct,
			MinOverlap:      cfg.Matching.MinOverlap,
			MaxCountDiffPct: cfg.Matching.MaxCountDiffPct,
		},
		ExcellentMatchPct:     cfg.Classify.ExcellentMatchPct,
		ExcellentCountDiffPct: cfg.Classify.ExcellentCountDiffPct,
		GoodMatchPct:          cfg.Classify.GoodMatchPct,
		GoodCountDiffPct:      cfg.Classify.GoodCountDiffPct,
		PartialMatchPct:       cfg.Classify.PartialMatchPct,
	}
}

// Classify maps a candidate's signals to a tier. Checks run from the best
// tier down and the first satisfied rule wins.
func (p Policy) Classify(c match.MatchCandidate) Tier {
	if !p.Eligibility.Eligible(c) {
		return NoMatch
	}
	switch {
	case c.AOnly == 0 && c.BOnly == 0 && c.MetadataPresent:
		return Perfect
	case c.NameExact && match.AtLeast(c.MatchPct, p.ExcellentMatchPct) && match.AtMost(c.CountDiffPct, p.ExcellentCountDiffPct):
		return Excellent
	case match.AtLeast(c.MatchPct, p.GoodMatchPct) && match.AtMost(c.CountDiffPct, p.GoodCountDiffPct):
		return Good
	case match.AtLeast(c.MatchPct, p.PartialMatchPct):
		return Partial
	default:
		return Poor
	}
}

// Rationale explains in one line which rule produced the tier.
func (p Policy) Rationale(c match.MatchCandidate, tier Tier) string {
	switch tier {
	case Perfect:
		return "identical item sets with sidecar metadata"
	case Excellent:
		return "name match with near-identical item sets"
	case Good:
		return "strong item overlap"
	case Partial:
		return "item overlap above partial threshold"
	case Poor:
		return "eligible only through large shared overlap"
	default:
		if c.A.IsZero() || c.B.IsZero() {
			return "no eligible candidate"
		}
		return "signals below eligibility thresholds"
	}
}
