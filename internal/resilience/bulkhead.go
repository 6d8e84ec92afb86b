package resilience

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/labelwise/labelwise/pkg/errors"
)

// Bulkhead caps the number of concurrent calls to one provider. A full
// bulkhead rejects immediately rather than queueing, so a slow provider
// cannot pile up goroutines.
type Bulkhead struct {
	sem *semaphore.Weighted
}

// NewBulkhead builds a bulkhead admitting at most maxConcurrent calls.
func NewBulkhead(maxConcurrent int) *Bulkhead {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Bulkhead{sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

// Acquire claims a slot or rejects with bulkhead_full. The caller must
// Release exactly once after a successful Acquire.
func (b *Bulkhead) Acquire(_ context.Context) error {
	if !b.sem.TryAcquire(1) {
		return errors.New(errors.CodeBulkheadFull, "provider concurrency limit reached")
	}
	return nil
}

// Release returns a slot claimed by Acquire.
func (b *Bulkhead) Release() {
	b.sem.Release(1)
}
