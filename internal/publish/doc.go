// Package publish mirrors finished allocation runs into Redis so other
// tools can follow progress without reading the local archive.
//
// Layout, with <ns> the configured namespace:
//
//	<ns>:run:<id>        hash of summary fields
//	<ns>:run:<id>:cuts   list of per-cut JSON records
//	<ns>:runs            sorted set of run ids scored by start time (ms)
//	<ns>:events          pub/sub channel of run_completed events
//
// Delivery on the events channel is at-most-once.
package publish
