package framecache

import "github.com/unkn0wn-root/framecache/timecode"

// Hooks lightweight callbacks for high-signal diagnostic events.
// Implementations MUST be cheap and non-blocking. The cache calls them on
// hot paths, after its lock is released.
type Hooks interface {
	// A completion failed the currency check and was dropped.
	StaleDrop(t timecode.Rational, seq uint64)

	// The validity ledger returned an error. op is "validate" or
	// "invalidate"; for "validate" the index insert was rolled back.
	LedgerError(op string, r timecode.Interval, err error)

	// An index snapshot failed to encode or decode.
	// stage is "write" or "read".
	SnapshotError(stage string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) StaleDrop(timecode.Rational, uint64)          {}
func (NopHooks) LedgerError(string, timecode.Interval, error) {}
func (NopHooks) SnapshotError(string, error)                  {}
