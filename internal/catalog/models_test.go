package catalog

import "testing"

func TestEntityRefUsesLedgerID(t *testing.T) {
	local := &Entity{Store: StoreLocal, RawPath: "Beatles/Abbey Road"}
	if got := local.Ref(); got.Key != "Beatles/Abbey Road" || got.Store != StoreLocal {
		t.Fatalf("unexpected local ref %v", got)
	}
	row := &Entity{Store: StoreLedger, RawPath: "Beatles/Abbey Road", ID: "0123456789abcdef"}
	if got := row.Ref(); got.Key != "0123456789abcdef" {
		t.Fatalf("expected ledger ref keyed by id, got %v", got)
	}
}

func TestAddItemTracksCount(t *testing.T) {
	e := &Entity{Store: StoreLocal}
	e.AddItem(Item{Filename: "b.pdf"})
	e.AddItem(Item{Filename: "a.pdf"})
	e.AddItem(Item{Filename: "a.pdf", SizeBytes: 10})
	if e.ItemCount != 2 {
		t.Fatalf("ItemCount = %d, want 2", e.ItemCount)
	}
	names := e.Filenames()
	if len(names) != 2 || names[0] != "a.pdf" || names[1] != "b.pdf" {
		t.Fatalf("Filenames() = %v", names)
	}
	if e.Items["a.pdf"].SizeBytes != 10 {
		t.Fatal("expected replacement item to win")
	}
}

func TestInventorySortsAndIndexes(t *testing.T) {
	inv := NewInventory(StoreRemote, []*Entity{
		{Store: StoreRemote, RawPath: "Z/Book"},
		{Store: StoreRemote, RawPath: "A/Book"},
	})
	if inv.Entities[0].RawPath != "A/Book" {
		t.Fatalf("expected sorted entities, got %s first", inv.Entities[0].RawPath)
	}
	if inv.Lookup(EntityRef{Store: StoreRemote, Key: "Z/Book"}) == nil {
		t.Fatal("expected lookup to find Z/Book")
	}
	if inv.Lookup(EntityRef{Store: StoreLocal, Key: "Z/Book"}) != nil {
		t.Fatal("lookup must be store-scoped")
	}
}

func TestParseStore(t *testing.T) {
	for _, in := range []string{"local", " Remote ", "LEDGER"} {
		if _, err := ParseStore(in); err != nil {
			t.Fatalf("ParseStore(%q): %v", in, err)
		}
	}
	if _, err := ParseStore("gcs"); err == nil {
		t.Fatal("expected error for unknown store")
	}
}

func TestHasItemListFollowsStore(t *testing.T) {
	tests := []struct {
		name   string
		entity *Entity
		want   bool
	}{
		{"empty local folder", &Entity{Store: StoreLocal}, true},
		{"remote book", &Entity{Store: StoreRemote, Items: map[string]Item{"a.pdf": {Filename: "a.pdf"}}}, true},
		{"ledger row", &Entity{Store: StoreLedger, ItemCount: 12}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		if got := tt.entity.HasItemList(); got != tt.want {
			t.Errorf("%s: HasItemList() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
