// Package keys builds the candidate keys used to look up and score entity
// pairs: the raw key, the normalized artist/title key, its prefix variants,
// and a normalized song title for every item.
package keys
