package events

import "time"

// EpochScan is emitted after an epoch index lookup that advanced the
// forward scan. Pages is the number of upstream pages fetched; a lookup
// served entirely from the accumulated index emits no event.
type EpochScan struct {
	Pages    int
	Highest  uint64
	Duration time.Duration
}
