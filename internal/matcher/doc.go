// Package matcher indexes a material pool and computes the base relevance
// score of a material for a storyboard cut.
//
// Buckets are rebuilt wholesale by Index. Candidates and scores are always
// reported with pool indices so callers can break ties deterministically.
package matcher
