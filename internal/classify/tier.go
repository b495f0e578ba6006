package classify

import (
	"fmt"
	"strings"
)

// Tier is an ordered confidence classification. Larger values are better.
type Tier int

const (
	NoMatch Tier = iota
	Poor
	Partial
	Good
	Excellent
	Perfect
)

var tierNames = map[Tier]string{
	NoMatch:   "NO_MATCH",
	Poor:      "POOR",
	Partial:   "PARTIAL",
	Good:      "GOOD",
	Excellent: "EXCELLENT",
	Perfect:   "PERFECT",
}

// Tiers returns every tier from best to worst.
func Tiers() []Tier {
	return []Tier{Perfect, Excellent, Good, Partial, Poor, NoMatch}
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Better reports whether t ranks strictly above other.
func (t Tier) Better(other Tier) bool {
	return t > other
}

// NeedsReview reports whether the tier falls below PARTIAL.
func (t Tier) NeedsReview() bool {
	return t < Partial
}

// ParseTier converts a tier name such as "excellent" or "NO_MATCH".
func ParseTier(value string) (Tier, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for tier, name := range tierNames {
		if name == normalized {
			return tier, nil
		}
	}
	return NoMatch, fmt.Errorf("unknown tier %q", value)
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(data []byte) error {
	parsed, err := ParseTier(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
