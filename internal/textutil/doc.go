// Package textutil provides filename sanitization for rename targets and
// other store-facing names.
package textutil
