package framecache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/unkn0wn-root/framecache/ledger"
	"github.com/unkn0wn-root/framecache/timecode"
)

type cache struct {
	ns      string
	jobs    JobSource
	ledger  ledger.Ledger
	log     Logger
	obs     Observer
	hooks   Hooks
	enabled bool

	// mu guards timebase and index. Critical sections are short and never
	// block on I/O with the default ledger. Observer notifications happen
	// strictly after mu is released.
	mu       sync.Mutex
	timebase timecode.Rational
	index    map[timecode.Rational]Hash

	closeOnce sync.Once
}

func newCache(opts Options) (*cache, error) {
	if opts.Namespace == "" {
		return nil, fmt.Errorf("framecache: namespace is required")
	}
	if opts.Jobs == nil {
		return nil, fmt.Errorf("framecache: job source is required")
	}
	if opts.Timebase.Sign() <= 0 {
		return nil, ErrInvalidTimebase
	}

	c := &cache{
		ns:       opts.Namespace,
		jobs:     opts.Jobs,
		timebase: opts.Timebase,
		index:    make(map[timecode.Rational]Hash),
		enabled:  !opts.Disabled,
	}

	// defaults
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.obs = coalesce[Observer](opts.Observer, NopObserver{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.Ledger != nil {
		c.ledger = opts.Ledger
	} else {
		c.ledger = ledger.NewLocal()
	}

	return c, nil
}

func (c *cache) Enabled() bool { return c.enabled }

func (c *cache) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ledger.Close(ctx)
	})
	return err
}

// Lookup returns the hash indexed at exactly t. No side effects.
func (c *cache) Lookup(t timecode.Rational) (Hash, bool) {
	if !c.enabled {
		return Hash{}, false
	}
	c.mu.Lock()
	h, ok := c.index[t]
	c.mu.Unlock()
	return h, ok
}

// Record admits a completed render result if a covering job still makes it
// current, then indexes it and validates its sample interval.
//
// The job ledger is scanned newest-first and the first covering job with
// seq >= job.Seq wins. That is deliberately not "only the newest covering
// job": an older, looser job further back can still admit a completion,
// and downstream race behavior depends on it.
func (c *cache) Record(t timecode.Rational, h Hash, seq uint64) bool {
	if !c.enabled {
		return false
	}

	c.mu.Lock()

	current := false
	jobs := c.jobs.Jobs()
	for i := len(jobs) - 1; i >= 0; i-- {
		if jobs[i].Range.Contains(t) && seq >= jobs[i].Seq {
			current = true
			break
		}
	}

	if !current {
		c.mu.Unlock()
		c.hooks.StaleDrop(t, seq)
		c.log.Debug("Record dropped stale completion", Fields{"ns": c.ns, "t": t.String(), "seq": seq})
		return false
	}

	prev, existed := c.index[t]
	c.index[t] = h
	validated := timecode.Interval{In: t, Out: t.Add(c.timebase)}

	if err := c.ledger.Validate(context.Background(), validated); err != nil {
		// key presence implies a validated range; roll back the insert.
		// An overwritten entry is restored, not dropped: its range is
		// still marked valid from its own earlier Record.
		if existed {
			c.index[t] = prev
		} else {
			delete(c.index, t)
		}
		c.mu.Unlock()
		c.hooks.LedgerError("validate", validated, err)
		c.log.Error("Record ledger validate failed", Fields{"ns": c.ns, "range": validated.String(), "err": err})
		return false
	}

	c.mu.Unlock()

	c.obs.Validated(validated)
	return true
}

// FramesWithHash returns every timestamp currently mapped to h, ascending.
func (c *cache) FramesWithHash(h Hash) []timecode.Rational {
	c.mu.Lock()
	times := c.collectTimes(h)
	c.mu.Unlock()
	return times
}

// TakeFramesWithHash removes every entry mapped to h, invalidates each
// removed entry's sample interval in the ledger, and emits one Invalidated
// per interval after the lock is released. Used when the cache file
// backing h is deleted externally.
func (c *cache) TakeFramesWithHash(h Hash) []timecode.Rational {
	c.mu.Lock()

	times := c.collectTimes(h)
	intervals := make([]timecode.Interval, len(times))
	for i, t := range times {
		delete(c.index, t)
		iv := timecode.Interval{In: t, Out: t.Add(c.timebase)}
		intervals[i] = iv
		if err := c.ledger.Invalidate(context.Background(), iv); err != nil {
			c.log.Warn("TakeFramesWithHash ledger invalidate failed", Fields{"ns": c.ns, "range": iv.String(), "err": err})
		}
	}

	c.mu.Unlock()

	for _, iv := range intervals {
		c.obs.Invalidated(iv)
	}
	return times
}

// collectTimes returns the sorted keys mapped to h. Callers hold mu.
func (c *cache) collectTimes(h Hash) []timecode.Rational {
	var times []timecode.Rational
	for t, v := range c.index {
		if v == h {
			times = append(times, t)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Less(times[j]) })
	return times
}

// Entries returns a copy of the index.
func (c *cache) Entries() map[timecode.Rational]Hash {
	c.mu.Lock()
	out := make(map[timecode.Rational]Hash, len(c.index))
	for t, h := range c.index {
		out[t] = h
	}
	c.mu.Unlock()
	return out
}

// Truncate removes every entry at or beyond the new length when the
// timeline shrinks. Growth is a no-op for the index.
func (c *cache) Truncate(oldLength, newLength timecode.Rational) {
	if !newLength.Less(oldLength) {
		return
	}
	c.mu.Lock()
	removed := 0
	for t := range c.index {
		if newLength.LessEq(t) {
			delete(c.index, t)
			removed++
		}
	}
	c.mu.Unlock()
	if removed > 0 {
		c.log.Debug("Truncate removed trailing entries", Fields{"ns": c.ns, "removed": removed, "new_length": newLength.String()})
	}
}

// InvalidateRange removes every entry with key in [r.In, r.Out). The index
// only; callers invalidate the validity ledger themselves if required.
func (c *cache) InvalidateRange(r timecode.Interval) {
	c.mu.Lock()
	for t := range c.index {
		if r.Contains(t) {
			delete(c.index, t)
		}
	}
	c.mu.Unlock()
}

// Shift applies a ripple edit: entries at or after from move by to-from.
// A negative shift first discards entries in [to, from) since that region
// collapses out of the timeline.
//
// Two phases: collect shifted entries while scanning, reinsert afterwards.
// A shifted key can land on a position the scan has not visited yet, so
// in-place mutation would corrupt the pass.
func (c *cache) Shift(from, to timecode.Rational) {
	diff := to.Sub(from)
	if diff.IsZero() {
		return
	}
	negative := diff.Sign() < 0

	type shifted struct {
		t timecode.Rational
		h Hash
	}

	c.mu.Lock()

	var moved []shifted
	for t, h := range c.index {
		switch {
		case negative && to.LessEq(t) && t.Less(from):
			// collapsed out of the timeline
			delete(c.index, t)
		case from.LessEq(t):
			moved = append(moved, shifted{t: t.Add(diff), h: h})
			delete(c.index, t)
		}
	}
	for _, m := range moved {
		c.index[m.t] = m.h
	}

	c.mu.Unlock()
}

// SetTimebase changes the sample grid. Existing keys are preserved
// verbatim; only future validations and expansions use the new grid.
func (c *cache) SetTimebase(tb timecode.Rational) error {
	if tb.Sign() <= 0 {
		return ErrInvalidTimebase
	}
	c.mu.Lock()
	c.timebase = tb
	c.mu.Unlock()
	return nil
}

func (c *cache) Timebase() timecode.Rational {
	c.mu.Lock()
	tb := c.timebase
	c.mu.Unlock()
	return tb
}

// FrameList expands intervals to every grid-aligned sample they touch,
// using the cache's configured timebase.
func (c *cache) FrameList(intervals []timecode.Interval) ([]timecode.Rational, error) {
	return ExpandIntervals(intervals, c.Timebase())
}

// InvalidatedFrames returns every sample instant the validity ledger
// currently considers invalid.
func (c *cache) InvalidatedFrames() ([]timecode.Rational, error) {
	tb := c.Timebase()
	ranges, err := c.ledger.InvalidRanges(context.Background())
	if err != nil {
		return nil, &LedgerError{Op: "ranges", Range: timecode.Interval{}, Err: err}
	}
	return ExpandIntervals(ranges, tb)
}
