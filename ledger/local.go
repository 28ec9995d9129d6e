package ledger

import (
	"context"
	"sync"

	"github.com/unkn0wn-root/framecache/timecode"
)

// Local keeps the validity ledger in-process (default). It tracks the
// invalid set; Validate subtracts from it, Invalidate inserts into it.
// A fresh Local considers nothing invalid; seed it with Invalidate over
// the element's full length if "everything starts dirty" semantics are
// wanted.
type Local struct {
	mu      sync.Mutex
	invalid timecode.RangeSet
}

var _ Ledger = (*Local)(nil)

func NewLocal() *Local { return &Local{} }

func (l *Local) Validate(_ context.Context, r timecode.Interval) error {
	l.mu.Lock()
	l.invalid.Remove(r)
	l.mu.Unlock()
	return nil
}

func (l *Local) Invalidate(_ context.Context, r timecode.Interval) error {
	l.mu.Lock()
	l.invalid.Insert(r)
	l.mu.Unlock()
	return nil
}

func (l *Local) InvalidRanges(_ context.Context) ([]timecode.Interval, error) {
	l.mu.Lock()
	out := l.invalid.Intervals()
	l.mu.Unlock()
	return out, nil
}

// IsValid reports whether every instant of r lies outside the invalid set.
// Convenience for schedulers deciding what still needs rendering.
func (l *Local) IsValid(r timecode.Interval) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, iv := range l.invalid.Intervals() {
		if iv.Overlaps(r) {
			return false
		}
	}
	return true
}

func (l *Local) Close(context.Context) error { return nil }
