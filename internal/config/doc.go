// Package config loads, normalizes, and validates createmovie configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as
// CREATEMOVIE_REDIS_PASSWORD. Per-project allocation settings live in the
// project YAML handled by the material package; this file only carries
// machine-level knobs.
package config
