// Package epochs accumulates epoch records scanned from the upstream.
//
// The upstream exposes epochs only as a forward-only listing with no
// by-number lookup, so the gateway keeps every epoch it has seen and
// resumes the scan from its last cursor instead of re-reading history.
package epochs

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/ledgergate/ledgergate/internal/eventbus"
	"github.com/ledgergate/ledgergate/internal/events"
	"github.com/ledgergate/ledgergate/internal/ledger"
)

const scanPageSize = 50

// Index is a process-scoped accumulation of scanned epochs. It is not a
// cache with eviction: entries are never removed, so a long-running
// process holds the full scanned history in memory. Construct one per
// process and share it by reference.
type Index struct {
	client ledger.Client

	mu       sync.Mutex
	byNumber map[uint64]*ledger.Epoch
	highest  uint64
	seeded   bool
	cursor   *string
}

// NewIndex creates an empty index over client.
func NewIndex(client ledger.Client) *Index {
	return &Index{client: client, byNumber: map[uint64]*ledger.Epoch{}}
}

// Get resolves a single epoch number.
func (ix *Index) Get(ctx context.Context, number uint64) (*ledger.Epoch, error) {
	epochs, errs := ix.Lookup(ctx, []uint64{number})
	if errs[0] != nil {
		return nil, errs[0]
	}
	return epochs[0], nil
}

// Lookup resolves each requested epoch number to its record or a per-number
// not-found error, index-aligned with numbers. It scans further pages only
// until the highest requested number has been observed or the upstream
// reports no more pages; ranges covered by earlier calls are never
// re-scanned.
func (ix *Index) Lookup(ctx context.Context, numbers []uint64) ([]*ledger.Epoch, []error) {
	results := make([]*ledger.Epoch, len(numbers))
	errs := make([]error, len(numbers))
	if len(numbers) == 0 {
		return results, errs
	}

	var wanted uint64
	for _, n := range numbers {
		if n > wanted {
			wanted = n
		}
	}

	// The lock covers the whole scan: overlapping lookups must not race
	// the shared cursor, so they serialize here.
	ix.mu.Lock()
	defer ix.mu.Unlock()

	start := time.Now()
	pages, err := ix.scanTo(ctx, wanted)
	if pages > 0 {
		eventbus.Publish(ctx, events.EpochScan{
			Pages:    pages,
			Highest:  ix.highest,
			Duration: time.Since(start),
		})
	}
	if err != nil {
		for i := range errs {
			errs[i] = err
		}
		return results, errs
	}

	for i, n := range numbers {
		if e, ok := ix.byNumber[n]; ok {
			results[i] = e
		} else {
			errs[i] = ledger.NotFound(ledger.KindEpoch, strconv.FormatUint(n, 10))
		}
	}
	return results, errs
}

// scanTo advances the accumulated scan until wanted has been observed or
// the listing reports no more pages. The cursor only ever moves forward:
// when the listing ends and grows later, the next scan resumes from the
// last cursor instead of the start of history. Caller holds ix.mu.
func (ix *Index) scanTo(ctx context.Context, wanted uint64) (pages int, err error) {
	for !ix.seeded || ix.highest < wanted {
		page, err := ix.client.ListEpochs(ctx, ix.cursor, scanPageSize)
		if err != nil {
			return pages, err
		}
		pages++
		for _, e := range page.Items {
			ix.byNumber[e.Number] = e
			if !ix.seeded || e.Number > ix.highest {
				ix.highest = e.Number
				ix.seeded = true
			}
		}
		if page.NextCursor != nil {
			ix.cursor = page.NextCursor
		}
		if !page.HasNextPage || len(page.Items) == 0 {
			break
		}
	}
	return pages, nil
}
