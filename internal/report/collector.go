// Package report accumulates per-library synthesis outcomes and renders
// the xUnit-style log consumed by the CI result store.
package report

// LogEntry records the captured log for one library run.
type LogEntry struct {
	Name    string
	Log     string
	Success bool
}

// Collector records one entry per library, in processing order.
// Appends only; the collection lives for exactly one batch run.
type Collector struct {
	entries []LogEntry
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// AddEntry appends an entry. No dedup: callers append exactly once per
// library per run.
func (c *Collector) AddEntry(name, log string, success bool) {
	c.entries = append(c.entries, LogEntry{Name: name, Log: log, Success: success})
}

// Entries returns the recorded entries in the order they were added.
func (c *Collector) Entries() []LogEntry {
	return c.entries
}

// Failures counts entries recorded as unsuccessful.
func (c *Collector) Failures() int {
	n := 0
	for _, e := range c.entries {
		if !e.Success {
			n++
		}
	}
	return n
}
