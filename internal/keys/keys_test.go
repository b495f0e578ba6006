package keys

import (
	"testing"

	"shelfsync/internal/catalog"
)

func entity(store catalog.Store, artist, title string, files ...string) *catalog.Entity {
	e := &catalog.Entity{Store: store, Artist: artist, Title: title, RawPath: catalog.FolderPath(artist, title)}
	for _, f := range files {
		e.AddItem(catalog.Item{Filename: f})
	}
	return e
}

func TestForBuildsNameAndItemKeys(t *testing.T) {
	g := NewGenerator(nil)
	k := g.For(entity(catalog.StoreRemote, "The Beatles", "The Beatles - Abbey Road",
		"The Beatles - Come Together.pdf", "something.pdf"))

	if k.Raw != "The Beatles/The Beatles - Abbey Road" {
		t.Fatalf("unexpected raw key %q", k.Raw)
	}
	if k.Normalized != "the beatles/the beatles - abbey road" {
		t.Fatalf("unexpected normalized key %q", k.Normalized)
	}
	if _, ok := k.Variants["the beatles/abbey road"]; !ok {
		t.Fatalf("expected stripped variant in %v", k.VariantList())
	}
	if _, ok := k.Items["come together"]; !ok {
		t.Fatalf("expected artist prefix removed from item, got %v", k.ItemKeyList())
	}
	if _, ok := k.Items["something"]; !ok {
		t.Fatalf("expected plain item title, got %v", k.ItemKeyList())
	}
}

func TestItemTitleKeepsForeignPrefixByDefault(t *testing.T) {
	g := NewGenerator(nil)
	if got := g.ItemTitle("Elvis - Hound Dog.pdf", "the beatles"); got != "elvis - hound dog" {
		t.Fatalf("ItemTitle = %q", got)
	}
	g = NewGenerator(nil, WithStripAnyArtistPrefix(true))
	if got := g.ItemTitle("Elvis - Hound Dog.pdf", "the beatles"); got != "hound dog" {
		t.Fatalf("ItemTitle with strip-any = %q", got)
	}
}

func TestItemTitleUsesBaseName(t *testing.T) {
	g := NewGenerator(nil)
	if got := g.ItemTitle("Songs/Come_Together.PDF", "beatles"); got != "come together" {
		t.Fatalf("ItemTitle = %q", got)
	}
}

func TestItemKeysCollideAcrossNamingStyles(t *testing.T) {
	g := NewGenerator(nil)
	local := g.For(entity(catalog.StoreLocal, "Beatles", "Abbey Road", "Come Together.pdf", "Something.pdf"))
	remote := g.For(entity(catalog.StoreRemote, "Beatles", "Abbey Road", "come_together.pdf", "something.pdf"))
	for _, key := range local.ItemKeyList() {
		if _, ok := remote.Items[key]; !ok {
			t.Fatalf("expected %q in remote keys %v", key, remote.ItemKeyList())
		}
	}
}

func TestForAllIndexesByRef(t *testing.T) {
	g := NewGenerator(nil)
	inv := catalog.NewInventory(catalog.StoreLocal, []*catalog.Entity{
		entity(catalog.StoreLocal, "A", "One", "x.pdf"),
		entity(catalog.StoreLocal, "B", "Two", "y.pdf"),
	})
	all := g.ForAll(inv)
	if len(all) != 2 {
		t.Fatalf("expected 2 key sets, got %d", len(all))
	}
	if all[catalog.EntityRef{Store: catalog.StoreLocal, Key: "B/Two"}] == nil {
		t.Fatal("expected keys for B/Two")
	}
}
