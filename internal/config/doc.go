// Package config loads, normalizes, and validates onepass-ingest
// configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. Parameter fields are pointer-typed so the
// resolver can tell a config-supplied value from an absent one and track
// per-field provenance.
package config
