package normalize

import (
	"sort"
	"strings"
)

// maxPasses bounds the fixpoint loop. Every shipped rule set converges in two
// or three passes.
const maxPasses = 8

const variousArtists = "various artists"

// Normalizer applies a RuleSet.
type Normalizer struct {
	rules RuleSet
}

// Option customises a Normalizer.
type Option func(*Normalizer)

// WithRuleSet overrides the rule set.
func WithRuleSet(rs RuleSet) Option {
	return func(n *Normalizer) {
		if len(rs.Rules) > 0 {
			n.rules = rs
		}
	}
}

// New constructs a Normalizer using the default rule set unless overridden.
func New(opts ...Option) *Normalizer {
	rs, _ := RuleSetByName(DefaultRuleSet, nil)
	n := &Normalizer{rules: rs}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewNamed constructs a Normalizer for a named rule set.
func NewNamed(name string, extensions []string) (*Normalizer, error) {
	rs, err := RuleSetByName(name, extensions)
	if err != nil {
		return nil, err
	}
	return New(WithRuleSet(rs)), nil
}

var defaultNormalizer = New()

// Normalize canonicalizes s with the default rule set.
func Normalize(s string) string {
	return defaultNormalizer.Normalize(s)
}

// RuleSet returns the rule set in use.
func (n *Normalizer) RuleSet() RuleSet {
	return n.rules
}

// Normalize applies the rule list until the value is stable.
func (n *Normalizer) Normalize(s string) string {
	current := s
	for pass := 0; pass < maxPasses; pass++ {
		next := current
		for _, rule := range n.rules.Rules {
			next = rule.Apply(next)
		}
		if next == current {
			return next
		}
		current = next
	}
	return current
}

// TitleVariants returns the normalized title plus forms with the artist and
// "Various Artists" prefixes added or removed. The result is sorted and
// deduplicated; empty forms are dropped.
func (n *Normalizer) TitleVariants(artist, title string) []string {
	na := n.Normalize(artist)
	nt := n.Normalize(title)
	if nt == "" {
		return nil
	}

	set := map[string]struct{}{nt: {}}
	if na != "" {
		for _, prefix := range []string{na + " - ", na + "-", na + " "} {
			if rest, ok := strings.CutPrefix(nt, prefix); ok {
				if rest = n.Normalize(rest); rest != "" {
					set[rest] = struct{}{}
				}
				break
			}
		}
	}

	base := make([]string, 0, len(set))
	for v := range set {
		base = append(base, v)
	}
	for _, v := range base {
		if rest, ok := strings.CutPrefix(v, variousArtists+" - "); ok {
			if rest = n.Normalize(rest); rest != "" {
				set[rest] = struct{}{}
			}
			continue
		}
		set[variousArtists+" - "+v] = struct{}{}
	}

	return sortedKeys(set)
}

// Variants returns the canonical artist/title keys used for name matching.
// Two entities are name-matched when their variant sets intersect.
func (n *Normalizer) Variants(artist, title string) []string {
	na := n.Normalize(artist)
	titles := n.TitleVariants(artist, title)
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		out = append(out, na+"/"+t)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
