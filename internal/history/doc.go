// Package history archives allocation runs in SQLite so past results can be
// listed, inspected, and compared after the fact.
//
// Each run stores its summary counters, the validation outcome, the detailed
// usage report as JSON, and one row per cut. The archive is append-only apart
// from Prune, which trims old runs under an advisory file lock.
package history
