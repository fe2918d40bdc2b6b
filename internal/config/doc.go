// Package config loads, normalizes, and validates the TOML configuration
// that drives the slidecast pipeline. Paths are expanded (including ~) and
// every section falls back to repository defaults when unset.
package config
