package resolve

import (
	"sort"

	"shelfsync/internal/catalog"
)

// ExclusionSet records targets that are no longer available for assignment,
// along with the driving entity that claimed each.
type ExclusionSet struct {
	claimedBy map[catalog.EntityRef]catalog.EntityRef
}

// NewExclusionSet returns an empty set.
func NewExclusionSet() *ExclusionSet {
	return &ExclusionSet{claimedBy: make(map[catalog.EntityRef]catalog.EntityRef)}
}

// Contains reports whether target has been claimed.
func (s *ExclusionSet) Contains(target catalog.EntityRef) bool {
	_, ok := s.claimedBy[target]
	return ok
}

// Claim marks target as taken by source. It returns false without changing
// the set when target is already claimed.
func (s *ExclusionSet) Claim(target, source catalog.EntityRef) bool {
	if _, ok := s.claimedBy[target]; ok {
		return false
	}
	s.claimedBy[target] = source
	return true
}

// Owner returns the driving entity that claimed target.
func (s *ExclusionSet) Owner(target catalog.EntityRef) (catalog.EntityRef, bool) {
	owner, ok := s.claimedBy[target]
	return owner, ok
}

// Len returns the number of claimed targets.
func (s *ExclusionSet) Len() int {
	return len(s.claimedBy)
}

// Targets returns claimed targets sorted by key.
func (s *ExclusionSet) Targets() []catalog.EntityRef {
	out := make([]catalog.EntityRef, 0, len(s.claimedBy))
	for ref := range s.claimedBy {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
