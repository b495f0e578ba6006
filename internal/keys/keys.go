package keys

import (
	"path"
	"sort"
	"strings"

	"shelfsync/internal/catalog"
	"shelfsync/internal/normalize"
)

// EntityKeys holds every comparison key derived from one Entity.
type EntityKeys struct {
	Ref        catalog.EntityRef
	Raw        string
	Normalized string
	// Variants includes Normalized.
	Variants map[string]struct{}
	// Items maps a normalized song title to the filenames that produced it.
	Items map[string][]string
	// Count is the entity's item count, used when no item list exists.
	Count int
	// ItemList is false for entities whose store keeps only a count.
	ItemList bool
}

// VariantList returns the variants sorted lexicographically.
func (k *EntityKeys) VariantList() []string {
	out := make([]string, 0, len(k.Variants))
	for v := range k.Variants {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ItemKeyList returns the normalized item titles sorted lexicographically.
func (k *EntityKeys) ItemKeyList() []string {
	out := make([]string, 0, len(k.Items))
	for v := range k.Items {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Generator derives EntityKeys with a Normalizer.
type Generator struct {
	norm *normalize.Normalizer
	// stripAnyPrefix drops the part before the first " - " in a filename
	// even when it does not match the entity's artist.
	stripAnyPrefix bool
}

// Option customises a Generator.
type Option func(*Generator)

// WithStripAnyArtistPrefix makes item titles drop any "Someone - " prefix.
func WithStripAnyArtistPrefix(enabled bool) Option {
	return func(g *Generator) {
		g.stripAnyPrefix = enabled
	}
}

// NewGenerator constructs a Generator. A nil normalizer uses the default
// rule set.
func NewGenerator(n *normalize.Normalizer, opts ...Option) *Generator {
	if n == nil {
		n = normalize.New()
	}
	g := &Generator{norm: n}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Normalizer returns the normalizer used by the generator.
func (g *Generator) Normalizer() *normalize.Normalizer {
	return g.norm
}

// For builds the keys for a single entity.
func (g *Generator) For(e *catalog.Entity) *EntityKeys {
	k := &EntityKeys{
		Ref:      e.Ref(),
		Raw:      e.RawPath,
		Variants: make(map[string]struct{}),
		Items:    make(map[string][]string, len(e.Items)),
		Count:    e.ItemCount,
		ItemList: e.HasItemList(),
	}
	na := g.norm.Normalize(e.Artist)
	k.Normalized = na + "/" + g.norm.Normalize(e.Title)
	k.Variants[k.Normalized] = struct{}{}
	for _, v := range g.norm.Variants(e.Artist, e.Title) {
		k.Variants[v] = struct{}{}
	}

	for _, name := range e.Filenames() {
		title := g.ItemTitle(name, na)
		if title == "" {
			continue
		}
		k.Items[title] = append(k.Items[title], name)
	}
	return k
}

// ForAll builds keys for every entity of an inventory, indexed by ref.
func (g *Generator) ForAll(inv *catalog.Inventory) map[catalog.EntityRef]*EntityKeys {
	out := make(map[catalog.EntityRef]*EntityKeys, inv.Len())
	if inv == nil {
		return out
	}
	for _, e := range inv.Entities {
		out[e.Ref()] = g.For(e)
	}
	return out
}

// ItemTitle normalizes a filename into a comparable song title. The producing
// pipeline renames files to "{BookArtist} - {SongTitle}.pdf", so a leading
// artist prefix is removed. normalizedArtist must already be normalized.
func (g *Generator) ItemTitle(filename, normalizedArtist string) string {
	title := g.norm.Normalize(path.Base(filename))
	if title == "" {
		return ""
	}
	if normalizedArtist != "" {
		for _, prefix := range []string{normalizedArtist + " - ", "various artists - "} {
			if rest, ok := strings.CutPrefix(title, prefix); ok && strings.TrimSpace(rest) != "" {
				return g.norm.Normalize(rest)
			}
		}
	}
	if g.stripAnyPrefix {
		if _, rest, ok := strings.Cut(title, " - "); ok && strings.TrimSpace(rest) != "" {
			return g.norm.Normalize(rest)
		}
	}
	return title
}
