// Package strategy implements the per-domain bonus policies layered on top of
// the matcher's base score, and the shared ranking routine that picks the
// best candidate for a cut.
//
// Strategies are a closed set selected by Kind. Each one only contributes a
// bonus; candidate filtering, scoring order and tie-breaking live in Rank.
package strategy
