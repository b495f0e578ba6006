package catalog

import (
	"sort"
	"time"
)

// Inventory is the full set of entities produced by scanning one store.
type Inventory struct {
	Store     Store
	Entities  []*Entity
	Warnings  []string
	ScannedAt time.Time

	byRef map[EntityRef]*Entity
}

// NewInventory builds an inventory and sorts its entities by raw path so
// downstream stages see a deterministic order.
func NewInventory(store Store, entities []*Entity) *Inventory {
	inv := &Inventory{
		Store:     store,
		Entities:  entities,
		ScannedAt: time.Now().UTC(),
	}
	sort.SliceStable(inv.Entities, func(i, j int) bool {
		return inv.Entities[i].Ref().Key < inv.Entities[j].Ref().Key
	})
	inv.index()
	return inv
}

func (inv *Inventory) index() {
	inv.byRef = make(map[EntityRef]*Entity, len(inv.Entities))
	for _, e := range inv.Entities {
		inv.byRef[e.Ref()] = e
	}
}

// Lookup returns the entity with the given ref, or nil.
func (inv *Inventory) Lookup(ref EntityRef) *Entity {
	if inv == nil {
		return nil
	}
	if inv.byRef == nil {
		inv.index()
	}
	return inv.byRef[ref]
}

// Len returns the number of entities.
func (inv *Inventory) Len() int {
	if inv == nil {
		return 0
	}
	return len(inv.Entities)
}

// ItemTotal returns the number of items across all entities.
func (inv *Inventory) ItemTotal() int {
	if inv == nil {
		return 0
	}
	total := 0
	for _, e := range inv.Entities {
		total += e.ItemCount
	}
	return total
}

// Warn records a non-fatal anomaly encountered while scanning.
func (inv *Inventory) Warn(msg string) {
	inv.Warnings = append(inv.Warnings, msg)
}
