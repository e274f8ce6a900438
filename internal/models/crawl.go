package models

import "time"

// CrawlStats summarizes one crawl run.
type CrawlStats struct {
	Entries     int64         // Entries handed to the index
	Directories int64         // Directories scheduled for descent, roots excluded
	Skipped     int64         // Roots, unlistable directories and non-UTF-8 names left out
	Flushes     int64         // Completed merge cycles
	CapReached  bool          // The visited-directory cap stopped further descent
	Duration    time.Duration // Wall time of the run
}

// FlushEvent describes one completed merge cycle.
type FlushEvent struct {
	Worker   int           // Worker that triggered the flush, -1 for the final flush
	Entries  int           // Records in the batch
	Duration time.Duration // Time spent in merge-and-persist
}

// Final reports whether the event is the end-of-run flush.
func (e FlushEvent) Final() bool {
	return e.Worker < 0
}
