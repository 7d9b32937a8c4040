package publish

// RunKey is the hash holding one run's summary: <ns>:run:<id>.
func RunKey(namespace, runID string) string {
	return namespace + ":run:" + runID
}

// CutsKey is the list of per-cut JSON records for a run: <ns>:run:<id>:cuts.
func CutsKey(namespace, runID string) string {
	return RunKey(namespace, runID) + ":cuts"
}

// RunsIndexKey is the sorted set of run ids scored by start time.
func RunsIndexKey(namespace string) string {
	return namespace + ":runs"
}

// EventsChannel is the pub/sub channel carrying run events.
func EventsChannel(namespace string) string {
	return namespace + ":events"
}
