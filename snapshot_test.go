package framecache

import (
	"bytes"
	"context"
	"testing"

	"github.com/unkn0wn-root/framecache/timecode"
)

func TestSnapshotRoundTrip(t *testing.T) {
	jobs := NewJobList()
	src := newTestCache(t, jobs, nil)
	defer src.Close(context.Background())

	jobs.Append(Job{Range: span(0, 10), Seq: 1})
	want := map[timecode.Rational]Hash{
		ri(0): hashOf("a"),
		ri(3): hashOf("b"),
		ri(7): hashOf("c"),
	}
	for tt, h := range want {
		if !src.Record(tt, h, 1) {
			t.Fatalf("Record(%s) failed", tt)
		}
	}
	if err := src.SetTimebase(timecode.New(1001, 30000)); err != nil {
		t.Fatalf("SetTimebase: %v", err)
	}

	var buf bytes.Buffer
	if err := src.WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	ml := &memLedger{}
	dst := newTestCache(t, NewJobList(), func(o *Options) { o.Ledger = ml })
	defer dst.Close(context.Background())

	if err := dst.ReadSnapshot(&buf); err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	got := dst.Entries()
	if len(got) != len(want) {
		t.Fatalf("restored %d entries, want %d", len(got), len(want))
	}
	for tt, h := range want {
		if got[tt] != h {
			t.Fatalf("entry %s = %s, want %s", tt, got[tt], h)
		}
	}
	if dst.Timebase() != timecode.New(1001, 30000) {
		t.Fatalf("restored timebase = %s", dst.Timebase())
	}
	// restored keys are re-validated in the ledger
	if len(ml.validated) != len(want) {
		t.Fatalf("ledger validations after restore = %d, want %d", len(ml.validated), len(want))
	}
}

func TestSnapshotIsDeterministic(t *testing.T) {
	jobs := NewJobList()
	c := newTestCache(t, jobs, nil)
	defer c.Close(context.Background())

	jobs.Append(Job{Range: span(0, 10), Seq: 1})
	for i := int64(9); i >= 0; i-- {
		c.Record(ri(i), hashOf(string(rune('a'+i))), 1)
	}

	var a, b bytes.Buffer
	if err := c.WriteSnapshot(&a); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := c.WriteSnapshot(&b); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("identical indexes must encode to identical bytes")
	}
}

func TestReadSnapshotRejectsGarbage(t *testing.T) {
	c := newTestCache(t, NewJobList(), nil)
	defer c.Close(context.Background())

	if err := c.ReadSnapshot(bytes.NewReader([]byte("not cbor"))); err == nil {
		t.Fatal("garbage input must fail")
	}
	// state untouched on failure
	if len(c.Entries()) != 0 {
		t.Fatal("failed restore must not touch the index")
	}
}
