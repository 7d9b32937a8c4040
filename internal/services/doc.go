// Package services defines shared utilities consumed by the allocation core
// and the CLI wiring around it.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, cut IDs, and strategy names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into configuration errors, missing candidates, and validation failures.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the module.
package services
