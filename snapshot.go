package framecache

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/unkn0wn-root/framecache/timecode"
)

// Index snapshots let a cache element survive restarts without re-hashing
// every frame. Encoding is deterministic CBOR (RFC 8949 core) with sorted
// entries, so identical indexes produce identical bytes.

type snapshotEntry struct {
	Num  int64  `cbor:"1,keyasint"`
	Den  int64  `cbor:"2,keyasint"`
	Hash []byte `cbor:"3,keyasint"`
}

type snapshot struct {
	TimebaseNum int64           `cbor:"1,keyasint"`
	TimebaseDen int64           `cbor:"2,keyasint"`
	Entries     []snapshotEntry `cbor:"3,keyasint"`
}

var (
	snapEnc cbor.EncMode
	snapDec cbor.DecMode
)

func init() {
	eo := cbor.CoreDetEncOptions()
	em, err := eo.EncMode()
	if err != nil {
		panic(err)
	}
	dm, err := (cbor.DecOptions{}).DecMode()
	if err != nil {
		panic(err)
	}
	snapEnc, snapDec = em, dm
}

// WriteSnapshot serializes the timebase and index to w.
func (c *cache) WriteSnapshot(w io.Writer) error {
	c.mu.Lock()
	snap := snapshot{
		TimebaseNum: c.timebase.Num(),
		TimebaseDen: c.timebase.Den(),
		Entries:     make([]snapshotEntry, 0, len(c.index)),
	}
	for t, h := range c.index {
		hc := make([]byte, HashSize)
		copy(hc, h[:])
		snap.Entries = append(snap.Entries, snapshotEntry{Num: t.Num(), Den: t.Den(), Hash: hc})
	}
	c.mu.Unlock()

	sort.Slice(snap.Entries, func(i, j int) bool {
		a := timecode.New(snap.Entries[i].Num, snap.Entries[i].Den)
		b := timecode.New(snap.Entries[j].Num, snap.Entries[j].Den)
		return a.Less(b)
	})

	b, err := snapEnc.Marshal(snap)
	if err != nil {
		c.hooks.SnapshotError("write", err)
		return fmt.Errorf("framecache: encode snapshot: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		c.hooks.SnapshotError("write", err)
		return fmt.Errorf("framecache: write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot replaces the index (and timebase) with the snapshot read
// from r, re-validating each restored sample interval in the ledger so the
// key-implies-validated invariant holds. No events are emitted; a bulk
// restore is not a render completion.
func (c *cache) ReadSnapshot(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		c.hooks.SnapshotError("read", err)
		return fmt.Errorf("framecache: read snapshot: %w", err)
	}
	var snap snapshot
	if err := snapDec.Unmarshal(b, &snap); err != nil {
		c.hooks.SnapshotError("read", err)
		return fmt.Errorf("framecache: decode snapshot: %w", err)
	}

	tb := timecode.New(snap.TimebaseNum, snap.TimebaseDen)
	if tb.Sign() <= 0 {
		c.hooks.SnapshotError("read", ErrInvalidTimebase)
		return ErrInvalidTimebase
	}

	index := make(map[timecode.Rational]Hash, len(snap.Entries))
	for _, e := range snap.Entries {
		if len(e.Hash) != HashSize {
			err := fmt.Errorf("framecache: snapshot entry hash is %d bytes, want %d", len(e.Hash), HashSize)
			c.hooks.SnapshotError("read", err)
			return err
		}
		var h Hash
		copy(h[:], e.Hash)
		index[timecode.New(e.Num, e.Den)] = h
	}

	c.mu.Lock()
	c.timebase = tb
	c.index = index
	for t := range index {
		iv := timecode.Interval{In: t, Out: t.Add(tb)}
		if err := c.ledger.Validate(context.Background(), iv); err != nil {
			c.log.Warn("ReadSnapshot ledger validate failed", Fields{"ns": c.ns, "range": iv.String(), "err": err})
		}
	}
	c.mu.Unlock()

	c.log.Info("snapshot restored", Fields{"ns": c.ns, "entries": len(index), "timebase": tb.String()})
	return nil
}
