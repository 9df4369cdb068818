package models

import "time"

// RunStats counts the outcomes of one acquisition run. A run never aborts
// on a single bad page; these counters are how failures surface.
type RunStats struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Fetched  int
	Expanded int // child URLs enqueued from collection pages
	Skipped  int // already-stored URLs not re-fetched
	Rejected int // criteria or plausibility rejections (normal outcomes)
	Stored   int
	Scored   int
	Errors   int // fetch/parse failures after retries
}
