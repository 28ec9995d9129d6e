package framecache

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/framecache/timecode"
)

// ErrInvalidTimebase is returned when a non-positive timebase is supplied.
// Grid expansion over a non-positive timebase would never terminate, so it
// is rejected up front.
var ErrInvalidTimebase = errors.New("framecache: timebase must be positive")

// LedgerError reports a validity-ledger failure.
type LedgerError struct {
	Op    string // "validate", "invalidate" or "ranges"
	Range timecode.Interval
	Err   error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("framecache: ledger %s %s failed: %v", e.Op, e.Range, e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }
