// Package scalpel enriches focus list entries with news evidence and LLM
// assessments under strict concurrency and API budget limits.
package scalpel

import "sync/atomic"

// Budget is a hard cap on external API calls for one run, shared across all
// concurrent enrichment tasks. Acquisition is first come first served; a
// task that cannot acquire degrades instead of waiting.
type Budget struct {
	limit int64
	used  atomic.Int64
}

// NewBudget creates a budget allowing up to limit calls.
func NewBudget(limit int) *Budget {
	return &Budget{limit: int64(limit)}
}

// TryAcquire reserves n calls. It either reserves all n or nothing.
func (b *Budget) TryAcquire(n int) bool {
	want := int64(n)
	for {
		cur := b.used.Load()
		if cur+want > b.limit {
			return false
		}
		if b.used.CompareAndSwap(cur, cur+want) {
			return true
		}
	}
}

// Used returns the number of calls reserved so far.
func (b *Budget) Used() int {
	return int(b.used.Load())
}

// Remaining returns the calls still available.
func (b *Budget) Remaining() int {
	r := b.limit - b.used.Load()
	if r < 0 {
		return 0
	}
	return int(r)
}
