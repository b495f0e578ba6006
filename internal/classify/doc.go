// Package classify maps scored assignments onto ordered quality tiers.
//
// Tiers form a strict total order from PERFECT down to NO_MATCH so reports can
// sort and filter on them, and a Policy's thresholds are injectable so rule
// experiments do not require code changes. Classification never lowers a
// tier when match percentage or metadata presence increases, or when the
// count difference shrinks.
package classify
