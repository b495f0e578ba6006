// Package catalog defines the records every stage of the reconciliation
// pipeline exchanges: entities, their items, and the inventories scanners
// produce.
//
// An Entity is one logical book folder (or ledger row) in one store. Entities
// are identified within a run by an EntityRef, which pairs the store with the
// store-native key (a relative folder path for the filesystem and object
// store, the content-derived identifier for the ledger).
package catalog
