// Package registry defines the file registry contract: every successful
// disk persist reports its (path, hash) here so an external disk manager
// can track the file for later eviction. Eviction of a registered file is
// expected to trigger TakeFramesWithHash on the owning cache.
package registry

import (
	"context"

	"github.com/unkn0wn-root/framecache"
)

// Registry receives new cache file reports.
type Registry interface {
	CreatedFile(ctx context.Context, path string, hash framecache.Hash, size int64) error
}

// Nop is the default no-op registry.
type Nop struct{}

func (Nop) CreatedFile(context.Context, string, framecache.Hash, int64) error { return nil }
