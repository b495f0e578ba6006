// Package normalize turns raw folder names, titles, and object keys into
// canonical comparison strings.
//
// Normalization is a named, versioned list of rules (RuleSet). Each rule is a
// pure string transform; Normalize applies the list repeatedly until the
// output stops changing, so the result is idempotent no matter how rules
// interact. Variant generation widens recall by emitting extra title forms
// with and without artist and "Various Artists" prefixes.
//
// Rule sets:
//   - v1: lowercase, strip known extensions, underscores to spaces, trim
//   - v2: v1 plus ampersand spelling and apostrophe removal
//   - v3: v2 plus bracket folding, songs-subfolder removal, hyphen spacing
//   - v4: v3 preceded by unicode compatibility and diacritic folding (default)
package normalize
