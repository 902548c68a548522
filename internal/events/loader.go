package events

import "time"

// LoaderBatch is emitted after a coalesced entity batch settles.
type LoaderBatch struct {
	Entity   string
	Keys     int
	Misses   int
	Duration time.Duration
}
