package framecache

import (
	"context"
	"sync"
	"testing"

	"github.com/unkn0wn-root/framecache/ledger"
	"github.com/unkn0wn-root/framecache/timecode"
)

// memLedger records validity calls so tests can assert ordering and
// content without a real range-set backend in the way.
type memLedger struct {
	mu          sync.Mutex
	set         timecode.RangeSet // invalid set
	validated   []timecode.Interval
	invalidated []timecode.Interval
	failOps     bool
}

var _ ledger.Ledger = (*memLedger)(nil)

func (m *memLedger) Validate(_ context.Context, r timecode.Interval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps {
		return context.DeadlineExceeded
	}
	m.set.Remove(r)
	m.validated = append(m.validated, r)
	return nil
}

func (m *memLedger) Invalidate(_ context.Context, r timecode.Interval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOps {
		return context.DeadlineExceeded
	}
	m.set.Insert(r)
	m.invalidated = append(m.invalidated, r)
	return nil
}

func (m *memLedger) InvalidRanges(context.Context) ([]timecode.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.Intervals(), nil
}

func (m *memLedger) Close(context.Context) error { return nil }

// recObserver records events and can call back into the cache to prove
// notifications fire outside the lock.
type recObserver struct {
	mu          sync.Mutex
	validated   []timecode.Interval
	invalidated []timecode.Interval
	reenter     func()
}

func (o *recObserver) Validated(r timecode.Interval) {
	o.mu.Lock()
	o.validated = append(o.validated, r)
	o.mu.Unlock()
	if o.reenter != nil {
		o.reenter()
	}
}

func (o *recObserver) Invalidated(r timecode.Interval) {
	o.mu.Lock()
	o.invalidated = append(o.invalidated, r)
	o.mu.Unlock()
	if o.reenter != nil {
		o.reenter()
	}
}

type recHooks struct {
	mu         sync.Mutex
	staleDrops int
	ledgerErrs int
}

func (h *recHooks) StaleDrop(timecode.Rational, uint64) {
	h.mu.Lock()
	h.staleDrops++
	h.mu.Unlock()
}

func (h *recHooks) LedgerError(string, timecode.Interval, error) {
	h.mu.Lock()
	h.ledgerErrs++
	h.mu.Unlock()
}

func (h *recHooks) SnapshotError(string, error) {}

func ri(n int64) timecode.Rational { return timecode.FromInt(n) }

func span(in, out int64) timecode.Interval {
	return timecode.NewInterval(ri(in), ri(out))
}

func hashOf(s string) Hash { return HashOf([]byte(s)) }

func newTestCache(t *testing.T, jobs JobSource, optsOpt func(*Options)) Cache {
	t.Helper()
	opts := Options{
		Namespace: "seq:test",
		Timebase:  timecode.FromInt(1),
		Jobs:      jobs,
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// ==============================
// Construction
// ==============================

func TestNewValidatesOptions(t *testing.T) {
	jobs := NewJobList()
	if _, err := New(Options{Timebase: ri(1), Jobs: jobs}); err == nil {
		t.Fatal("missing namespace should fail")
	}
	if _, err := New(Options{Namespace: "x", Timebase: ri(1)}); err == nil {
		t.Fatal("missing job source should fail")
	}
	if _, err := New(Options{Namespace: "x", Timebase: timecode.Zero(), Jobs: jobs}); err != ErrInvalidTimebase {
		t.Fatalf("zero timebase: got %v, want ErrInvalidTimebase", err)
	}
	if _, err := New(Options{Namespace: "x", Timebase: ri(-1), Jobs: jobs}); err != ErrInvalidTimebase {
		t.Fatalf("negative timebase: got %v, want ErrInvalidTimebase", err)
	}
}

// ==============================
// Record / currency check
// ==============================

func TestRecordCoveredCompletionLands(t *testing.T) {
	jobs := NewJobList()
	ml := &memLedger{}
	obs := &recObserver{}
	c := newTestCache(t, jobs, func(o *Options) {
		o.Ledger = ml
		o.Observer = obs
	})
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 10), Seq: 1})

	h := hashOf("frame-3")
	for n := int64(0); n < 10; n++ {
		if !c.Record(ri(n), h, 1) {
			t.Fatalf("Record(%d) inside job range should succeed", n)
		}
		got, ok := c.Lookup(ri(n))
		if !ok || got != h {
			t.Fatalf("Lookup(%d) = %v ok=%v", n, got, ok)
		}
	}

	// validated interval is the enclosing sample [t, t+tb)
	if len(ml.validated) != 10 || ml.validated[3] != span(3, 4) {
		t.Fatalf("ledger validations = %v", ml.validated)
	}
	if len(obs.validated) != 10 {
		t.Fatalf("observer saw %d validations, want 10", len(obs.validated))
	}
}

func TestRecordUncoveredTimeNeverMutates(t *testing.T) {
	jobs := NewJobList()
	hooks := &recHooks{}
	c := newTestCache(t, jobs, func(o *Options) { o.Hooks = hooks })
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 5), Seq: 1})

	for _, seq := range []uint64{0, 1, 2, 100} {
		if c.Record(ri(7), hashOf("x"), seq) {
			t.Fatalf("Record outside any job range must fail (seq=%d)", seq)
		}
	}
	if _, ok := c.Lookup(ri(7)); ok {
		t.Fatal("index mutated by uncovered completion")
	}
	if hooks.staleDrops != 4 {
		t.Fatalf("staleDrops = %d, want 4", hooks.staleDrops)
	}
}

func TestRecordStaleSequenceDropped(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 5), Seq: 8})

	if c.Record(ri(2), hashOf("old"), 7) {
		t.Fatal("completion older than the covering job must be dropped")
	}
	if !c.Record(ri(2), hashOf("new"), 8) {
		t.Fatal("completion at the job's sequence must land")
	}
}

// TestRecordPrefersScanOrderNotNewestJob documents the currency check's
// tie-breaking: the newest-first scan accepts the FIRST covering job
// satisfying seq >= job.Seq. An older, looser job further back in the
// scan can therefore still admit a completion that a newer, stricter job
// alone would have rejected.
func TestRecordPrefersScanOrderNotNewestJob(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 10), Seq: 1}) // older, loose
	jobs.Append(Job{Range: span(8, 12), Seq: 5}) // newer, strict, overlapping

	// t=9 is covered by both. seq 1 fails the newer job's check, but the
	// scan continues to the older covering job, which admits it.
	if !c.Record(ri(9), hashOf("h"), 1) {
		t.Fatal("older covering job should admit the completion")
	}

	// t=11 is covered only by the newer job, so its sequence binds.
	if c.Record(ri(11), hashOf("h2"), 1) {
		t.Fatal("time covered only by the newer job must enforce its sequence")
	}
	if !c.Record(ri(11), hashOf("h2"), 5) {
		t.Fatal("completion at the newer job's sequence must land")
	}
}

func TestRecordOverwritesSameTimestamp(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 5), Seq: 1})

	c.Record(ri(1), hashOf("first"), 1)
	c.Record(ri(1), hashOf("second"), 2)
	got, _ := c.Lookup(ri(1))
	if got != hashOf("second") {
		t.Fatalf("Lookup = %s, want overwrite by second hash", got)
	}
}

func TestRecordLedgerFailureRollsBack(t *testing.T) {
	jobs := NewJobList()
	ml := &memLedger{failOps: true}
	hooks := &recHooks{}
	c := newTestCache(t, jobs, func(o *Options) {
		o.Ledger = ml
		o.Hooks = hooks
	})
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 5), Seq: 1})

	if c.Record(ri(1), hashOf("h"), 1) {
		t.Fatal("Record must fail when the ledger cannot validate")
	}
	if _, ok := c.Lookup(ri(1)); ok {
		t.Fatal("index entry must be rolled back on ledger failure")
	}
	if hooks.ledgerErrs != 1 {
		t.Fatalf("ledgerErrs = %d, want 1", hooks.ledgerErrs)
	}
}

// An overwrite that fails ledger validation must restore the previous
// entry: its sample interval is still valid from its own earlier Record,
// so dropping it would strand a hole the scheduler never re-renders.
func TestRecordFailedOverwriteKeepsPreviousEntry(t *testing.T) {
	jobs := NewJobList()
	ml := &memLedger{}
	c := newTestCache(t, jobs, func(o *Options) { o.Ledger = ml })
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 5), Seq: 1})

	old := hashOf("old")
	if !c.Record(ri(1), old, 1) {
		t.Fatal("initial Record failed")
	}

	ml.failOps = true
	if c.Record(ri(1), hashOf("new"), 1) {
		t.Fatal("Record must fail when the ledger cannot validate")
	}

	got, ok := c.Lookup(ri(1))
	if !ok || got != old {
		t.Fatalf("Lookup = %v ok=%v, want the previous entry intact", got, ok)
	}

	frames, err := c.InvalidatedFrames()
	if err != nil || len(frames) != 0 {
		t.Fatalf("invalid set = %v err=%v, want empty", frames, err)
	}
}

func TestDisabledCacheDropsEverything(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, func(o *Options) { o.Disabled = true })
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 5), Seq: 1})
	if c.Record(ri(1), hashOf("h"), 1) {
		t.Fatal("disabled cache must not record")
	}
	if _, ok := c.Lookup(ri(1)); ok {
		t.Fatal("disabled cache must not serve lookups")
	}
	if c.Enabled() {
		t.Fatal("Enabled() should be false")
	}
}

// ==============================
// Reverse lookup / take by hash
// ==============================

func TestTakeFramesWithHash(t *testing.T) {
	jobs := NewJobList()
	ml := &memLedger{}
	obs := &recObserver{}
	c := newTestCache(t, jobs, func(o *Options) {
		o.Ledger = ml
		o.Observer = obs
	})
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 10), Seq: 1})

	shared := hashOf("still-frame")
	other := hashOf("other")
	c.Record(ri(1), shared, 1)
	c.Record(ri(2), other, 1)
	c.Record(ri(5), shared, 1)
	c.Record(ri(8), shared, 1)

	if got := c.FramesWithHash(shared); len(got) != 3 || got[0] != ri(1) || got[1] != ri(5) || got[2] != ri(8) {
		t.Fatalf("FramesWithHash = %v", got)
	}

	taken := c.TakeFramesWithHash(shared)
	if len(taken) != 3 || taken[0] != ri(1) || taken[1] != ri(5) || taken[2] != ri(8) {
		t.Fatalf("TakeFramesWithHash = %v", taken)
	}

	for _, tt := range taken {
		if _, ok := c.Lookup(tt); ok {
			t.Fatalf("Lookup(%s) must miss after take", tt)
		}
	}
	if _, ok := c.Lookup(ri(2)); !ok {
		t.Fatal("unrelated hash must survive")
	}

	// one ledger invalidation and one event per removed sample interval
	if len(ml.invalidated) != 3 {
		t.Fatalf("ledger invalidations = %v", ml.invalidated)
	}
	if len(obs.invalidated) != 3 || obs.invalidated[0] != span(1, 2) {
		t.Fatalf("observer invalidations = %v", obs.invalidated)
	}

	// taking again is a no-op
	if again := c.TakeFramesWithHash(shared); len(again) != 0 {
		t.Fatalf("second take = %v, want empty", again)
	}
}

// Observers are notified after the lock is released; calling back into the
// cache from the callback must not deadlock.
func TestNotificationsAllowReentrancy(t *testing.T) {
	jobs := NewJobList()
	obs := &recObserver{}
	c := newTestCache(t, jobs, func(o *Options) { o.Observer = obs })
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 10), Seq: 1})

	obs.reenter = func() {
		c.Lookup(ri(1))
		c.FramesWithHash(hashOf("h"))
	}

	if !c.Record(ri(1), hashOf("h"), 1) {
		t.Fatal("Record failed")
	}
	c.TakeFramesWithHash(hashOf("h"))
}

// ==============================
// Edit reconciler
// ==============================

func fill(t *testing.T, c Cache, jobs *JobList, keys ...int64) Hash {
	t.Helper()
	h := hashOf("fill")
	jobs.Append(Job{Range: span(-100, 100), Seq: 0})
	for _, k := range keys {
		if !c.Record(ri(k), h, 0) {
			t.Fatalf("fill Record(%d) failed", k)
		}
	}
	return h
}

func keySet(c Cache) map[int64]bool {
	out := map[int64]bool{}
	for k := range c.Entries() {
		out[k.Num()/k.Den()] = true
	}
	return out
}

func TestTruncateRemovesTrailingEntries(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())
	fill(t, c, jobs, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	c.Truncate(ri(10), ri(4))

	got := keySet(c)
	for k := int64(0); k < 4; k++ {
		if !got[k] {
			t.Fatalf("key %d should survive truncate", k)
		}
	}
	for k := int64(4); k < 10; k++ {
		if got[k] {
			t.Fatalf("key %d should be removed by truncate", k)
		}
	}

	// growth is a no-op
	before := len(c.Entries())
	c.Truncate(ri(4), ri(10))
	if len(c.Entries()) != before {
		t.Fatal("growing the timeline must not touch the index")
	}
}

func TestInvalidateRangeRemovesCoveredKeys(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())
	fill(t, c, jobs, 0, 1, 2, 3, 4)

	c.InvalidateRange(span(1, 3))

	got := keySet(c)
	want := map[int64]bool{0: true, 3: true, 4: true}
	for k := int64(0); k < 5; k++ {
		if got[k] != want[k] {
			t.Fatalf("key %d: present=%v want=%v", k, got[k], want[k])
		}
	}
}

// Shift(from=5, to=2): keys in the collapsed region [2,5) die, keys >= 5
// move back by 3, keys < 5 outside the region are untouched.
func TestShiftNegativeCollapsesAndMoves(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())
	fill(t, c, jobs, 1, 2, 5, 6, 7)

	c.Shift(ri(5), ri(2))

	got := keySet(c)
	want := map[int64]bool{1: true, 2: true, 3: true, 4: true}
	if len(c.Entries()) != 4 {
		t.Fatalf("entries = %v, want keys 1..4", got)
	}
	for k := range want {
		if !got[k] {
			t.Fatalf("key %d missing after shift: %v", k, got)
		}
	}
}

func TestShiftPositiveMovesForward(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())
	fill(t, c, jobs, 0, 3, 4)

	c.Shift(ri(3), ri(5))

	got := keySet(c)
	want := map[int64]bool{0: true, 5: true, 6: true}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for k := range want {
		if !got[k] {
			t.Fatalf("key %d missing: %v", k, got)
		}
	}
}

// A shifted key landing on a later key's position must not double-move.
func TestShiftIsTwoPhase(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(-100, 100), Seq: 0})
	hashes := map[int64]Hash{}
	for _, k := range []int64{3, 4, 5, 6} {
		hk := hashOf(string(rune('a' + k)))
		hashes[k] = hk
		if !c.Record(ri(k), hk, 0) {
			t.Fatalf("Record(%d) failed", k)
		}
	}

	c.Shift(ri(3), ri(4)) // 3->4, 4->5, 5->6, 6->7

	entries := c.Entries()
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}
	for _, k := range []int64{3, 4, 5, 6} {
		got, ok := entries[ri(k+1)]
		if !ok || got != hashes[k] {
			t.Fatalf("key %d should have moved to %d with its hash intact", k, k+1)
		}
	}
}

func TestShiftPreservesNonGridKeys(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 10), Seq: 0})
	half := timecode.New(1, 2)
	// shift by a non-integer amount; keys are carried verbatim
	c.Record(ri(2), hashOf("h"), 0)
	c.Shift(ri(1), ri(1).Add(half))

	if _, ok := c.Lookup(ri(2).Add(half)); !ok {
		t.Fatalf("key should land at 5/2, entries=%v", c.Entries())
	}
}

// ==============================
// Grid composition
// ==============================

func TestInvalidatedFrames(t *testing.T) {
	jobs := NewJobList()
	ml := &memLedger{}
	c := newTestCache(t, jobs, func(o *Options) { o.Ledger = ml })
	defer c.Close(context.Background())

	ml.Invalidate(context.Background(), span(0, 2))
	ml.Invalidate(context.Background(), span(5, 6))

	got, err := c.InvalidatedFrames()
	if err != nil {
		t.Fatalf("InvalidatedFrames: %v", err)
	}
	want := []timecode.Rational{ri(0), ri(1), ri(5)}
	if len(got) != len(want) {
		t.Fatalf("frames = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSetTimebase(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())

	if err := c.SetTimebase(timecode.Zero()); err != ErrInvalidTimebase {
		t.Fatalf("zero timebase: %v", err)
	}
	ntsc := timecode.New(1001, 30000)
	if err := c.SetTimebase(ntsc); err != nil {
		t.Fatalf("SetTimebase: %v", err)
	}
	if c.Timebase() != ntsc {
		t.Fatalf("Timebase = %s", c.Timebase())
	}
}
