package framecache

import "github.com/unkn0wn-root/framecache/timecode"

// Observer receives cache state-change events. The cache always releases
// its lock before notifying, so observers may call back into the cache.
// Implementations should still be quick; use hooks/async to fan events
// out of the caller's goroutine.
type Observer interface {
	// Validated is emitted after a successful Record with the sample
	// interval that now holds valid content.
	Validated(timecode.Interval)

	// Invalidated is emitted once per removed sample interval after
	// TakeFramesWithHash (batched after mutation, never interleaved).
	Invalidated(timecode.Interval)
}

// NopObserver is the default no-op.
type NopObserver struct{}

func (NopObserver) Validated(timecode.Interval)   {}
func (NopObserver) Invalidated(timecode.Interval) {}
