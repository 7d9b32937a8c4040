// Package allocation runs the greedy, sequential material-to-cut allocation.
//
// Cuts are processed strictly in storyboard order and each one is matched
// against the pool as left by the cuts before it. Cuts without a candidate
// become generation requests unless generation is disabled, in which case the
// run stops with a NoCandidateError. The engine performs no I/O beyond
// logging.
package allocation
