// Package ledger defines the validity ledger: the range set recording
// which timeline intervals currently hold valid cached content. The cache
// core calls it inside its critical section, so implementations must keep
// individual operations short.
package ledger

import (
	"context"

	"github.com/unkn0wn-root/framecache/timecode"
)

// Ledger abstracts where validity ranges live.
// Use Local (default) for in-process state, or Redis to share a ledger
// across render nodes.
type Ledger interface {
	// Validate marks r as holding valid content.
	Validate(ctx context.Context, r timecode.Interval) error
	// Invalidate marks r as no longer holding valid content.
	Invalidate(ctx context.Context, r timecode.Interval) error
	// InvalidRanges returns the currently-invalid intervals ascending.
	InvalidRanges(ctx context.Context) ([]timecode.Interval, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
