package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Store names one of the three inventories the engine reconciles.
type Store string

const (
	StoreLocal  Store = "local"
	StoreRemote Store = "remote"
	StoreLedger Store = "ledger"
)

var allStores = []Store{StoreLocal, StoreRemote, StoreLedger}

// Stores returns every supported store in a stable order.
func Stores() []Store {
	out := make([]Store, len(allStores))
	copy(out, allStores)
	return out
}

// ParseStore converts user input into a Store.
func ParseStore(value string) (Store, error) {
	switch Store(strings.ToLower(strings.TrimSpace(value))) {
	case StoreLocal:
		return StoreLocal, nil
	case StoreRemote:
		return StoreRemote, nil
	case StoreLedger:
		return StoreLedger, nil
	default:
		return "", fmt.Errorf("unknown store %q", value)
	}
}

// EntityRef identifies an Entity within a single run.
type EntityRef struct {
	Store Store  `json:"store"`
	Key   string `json:"key"`
}

func (r EntityRef) String() string {
	return string(r.Store) + ":" + r.Key
}

// IsZero reports whether the ref is unset.
func (r EntityRef) IsZero() bool {
	return r.Store == "" && r.Key == ""
}

// Item is one file belonging to an Entity.
type Item struct {
	Filename        string `json:"filename"`
	NormalizedTitle string `json:"normalized_title"`
	SizeBytes       int64  `json:"size_bytes"`
	// Key is the store-native location of the file: a path relative to the
	// local root or a full object key.
	Key string `json:"key,omitempty"`
}

// Entity is one book folder or ledger row.
type Entity struct {
	Store   Store  `json:"store"`
	Artist  string `json:"artist"`
	Title   string `json:"title"`
	RawPath string `json:"raw_path"`
	// ID is the ledger's content-derived identifier. Empty for other stores.
	ID        string          `json:"id,omitempty"`
	Items     map[string]Item `json:"items,omitempty"`
	ItemCount int             `json:"item_count"`
	// Prefixes lists the object key prefixes (bare or Songs subfolder) the
	// entity's items were found under. Only the object store sets it.
	Prefixes  []string `json:"prefixes,omitempty"`
	Status    string   `json:"status,omitempty"`
	SourceURI string   `json:"source_uri,omitempty"`
}

// Ref returns the identity of the entity within its store.
func (e *Entity) Ref() EntityRef {
	if e == nil {
		return EntityRef{}
	}
	if e.Store == StoreLedger && e.ID != "" {
		return EntityRef{Store: e.Store, Key: e.ID}
	}
	return EntityRef{Store: e.Store, Key: e.RawPath}
}

// AddItem inserts or replaces an item keyed by filename and keeps ItemCount
// in sync.
func (e *Entity) AddItem(item Item) {
	if e.Items == nil {
		e.Items = make(map[string]Item)
	}
	e.Items[item.Filename] = item
	e.ItemCount = len(e.Items)
}

// HasItemList reports whether the entity's store tracks per-file detail.
// Ledger rows only know their item count. An empty folder still has an item
// list; it is just empty.
func (e *Entity) HasItemList() bool {
	return e != nil && e.Store != StoreLedger
}

// Filenames returns the entity's item filenames sorted lexicographically.
func (e *Entity) Filenames() []string {
	if e == nil {
		return nil
	}
	names := make([]string, 0, len(e.Items))
	for name := range e.Items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FolderPath joins artist and title the way the local store lays folders out.
func FolderPath(artist, title string) string {
	return strings.TrimSpace(artist) + "/" + strings.TrimSpace(title)
}
