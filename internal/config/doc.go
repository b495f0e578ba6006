// Package config loads, normalizes, and validates shelfsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks for object store credentials. The Config type centralizes every
// knob the scanners, matcher, classifier, and executor need so a single pass
// discovers the local root, bucket, and ledger location.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
