// Package config loads, normalizes, and validates callcheck configuration.
//
// Configuration comes from a TOML file (default ~/.config/callcheck/config.toml,
// or callcheck.toml in the working directory) merged over repository defaults.
// Path fields are tilde-expanded and made absolute during load so downstream
// packages never deal with relative or unexpanded paths. Secrets can be kept
// out of the file and supplied via environment variables instead.
package config
