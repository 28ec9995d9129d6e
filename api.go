package framecache

import (
	"context"
	"io"

	"github.com/unkn0wn-root/framecache/ledger"
	"github.com/unkn0wn-root/framecache/timecode"
)

// Cache is the per-element render cache: an exact-time -> content-hash
// index guarded by one lock, a currency check over the scheduler's job
// ledger, and the timeline-edit reconciler.
//
// Events: Validated fires after a successful Record; Invalidated fires
// (batched) after TakeFramesWithHash. Truncate, InvalidateRange and Shift
// only touch the index; callers who also update the validity ledger are
// expected to emit their own notifications.
type Cache interface {
	Enabled() bool
	Close(context.Context) error

	// Index
	Lookup(t timecode.Rational) (Hash, bool)
	Record(t timecode.Rational, h Hash, seq uint64) bool
	FramesWithHash(h Hash) []timecode.Rational
	TakeFramesWithHash(h Hash) []timecode.Rational
	Entries() map[timecode.Rational]Hash

	// Timeline edits
	Truncate(oldLength, newLength timecode.Rational)
	InvalidateRange(r timecode.Interval)
	Shift(from, to timecode.Rational)

	// Sample grid
	SetTimebase(tb timecode.Rational) error
	Timebase() timecode.Rational
	FrameList(intervals []timecode.Interval) ([]timecode.Rational, error)
	InvalidatedFrames() ([]timecode.Rational, error)

	// Snapshots (index survival across restarts)
	WriteSnapshot(w io.Writer) error
	ReadSnapshot(r io.Reader) error
}

// Options tune the behavior of a cache instance.
// Namespace, Timebase and Jobs are required; others have defaults.
type Options struct {
	// Required
	Namespace string             // logical element name, e.g. "seq:main" or a clip id
	Timebase  timecode.Rational  // duration of one sample; must be > 0
	Jobs      JobSource          // scheduler-owned job ledger, read-only here

	Ledger   ledger.Ledger // nil => ledger.NewLocal()
	Logger   Logger        // nil => NopLogger
	Observer Observer      // nil => NopObserver
	Hooks    Hooks         // nil => NopHooks
	Disabled bool          // default false (enabled)
}

func New(opts Options) (Cache, error) {
	return newCache(opts)
}
