package match

import (
	"sort"

	"shelfsync/internal/keys"
)

// blockIndex maps item and name keys to positions in the target slice so
// each driving entity is only scored against plausible targets. Item
// eligibility needs at least one shared item, so item blocking loses nothing.
type blockIndex struct {
	byItem    map[string][]int
	byName    map[string][]int
	nameOnly  []int
	variantsB [][]string
}

func newBlockIndex(bs []*keys.EntityKeys) *blockIndex {
	idx := &blockIndex{
		byItem:    make(map[string][]int),
		byName:    make(map[string][]int),
		variantsB: make([][]string, len(bs)),
	}
	for i, b := range bs {
		for item := range b.Items {
			idx.byItem[item] = append(idx.byItem[item], i)
		}
		for v := range b.Variants {
			idx.byName[v] = append(idx.byName[v], i)
		}
		idx.variantsB[i] = b.VariantList()
		if !b.ItemList {
			idx.nameOnly = append(idx.nameOnly, i)
		}
	}
	return idx
}

// block returns the sorted, deduplicated target positions to score against a.
func (idx *blockIndex) block(a *keys.EntityKeys, fuzzyNames bool) []int {
	seen := make(map[int]struct{})
	for item := range a.Items {
		for _, i := range idx.byItem[item] {
			seen[i] = struct{}{}
		}
	}
	for v := range a.Variants {
		for _, i := range idx.byName[v] {
			seen[i] = struct{}{}
		}
	}

	if fuzzyNames {
		// Fuzzy neighbours only matter where names decide eligibility.
		targets := idx.nameOnly
		if !a.ItemList {
			targets = make([]int, len(idx.variantsB))
			for i := range targets {
				targets[i] = i
			}
		}
		aVariants := a.VariantList()
		for _, i := range targets {
			if _, ok := seen[i]; ok {
				continue
			}
			if anyNear(aVariants, idx.variantsB[i]) {
				seen[i] = struct{}{}
			}
		}
	}

	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// anyNear pre-filters by length window and first rune before paying for an
// edit distance.
func anyNear(as, bs []string) bool {
	for _, x := range as {
		fx := firstRune(x)
		for _, y := range bs {
			if firstRune(y) != fx {
				continue
			}
			if withinDistance(x, y) {
				return true
			}
		}
	}
	return false
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
