// Package main hosts the createmovie CLI.
//
// The cobra command tree loads a project file, its material metadata, and a
// storyboard, then drives the allocation engine and renders the outcome as
// tables or JSON. Configuration is resolved lazily on first use so commands
// such as `config init` work before a config file exists.
//
// Runs are archived to the sqlite history store and, when enabled, mirrored
// to Redis; both are best effort and never fail an allocation.
package main
