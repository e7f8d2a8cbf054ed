package stats

import "sync"

// CountersSnapshot is a JSON-safe copy of the running totals.
type CountersSnapshot struct {
	Batches       int64 `json:"batches"`
	FailedBatches int64 `json:"failed_batches"`
	PagesRendered int64 `json:"pages_rendered"`
	RowsSkipped   int64 `json:"rows_skipped"`
}

// Counters holds process-lifetime totals across all batches.
type Counters struct {
	mu sync.Mutex
	c  CountersSnapshot
}

// AddBatch records the outcome of one finished batch.
func (c *Counters) AddBatch(failed bool, pages, skipped int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.Batches++
	if failed {
		c.c.FailedBatches++
	}
	c.c.PagesRendered += int64(pages)
	c.c.RowsSkipped += int64(skipped)
}

func (c *Counters) Snapshot() CountersSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c
}
