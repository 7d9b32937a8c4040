// Package logging builds the slog loggers used by createmovie.
//
// Console output is a single human-readable line per record; JSON output is
// meant for log shippers. Context helpers tag lines with the run, cut and
// strategy carried on a context so allocation code does not thread those
// values by hand.
package logging
