// Package material defines the allocation data model: materials, storyboard
// cuts and per-project configuration, plus loaders for the YAML files they
// come from.
//
// Loading happens before allocation. The allocation core never reads files;
// it receives an already-built pool and cut list.
package material
