// Package provider defines the in-memory frame store abstraction: a byte
// store keyed by content hash holding encoded frame payloads, so recently
// persisted frames can be served without touching disk.
//
// Implementations MUST be byte-for-byte transparent: Get must return
// exactly the same []byte that was previously passed to Set for a hash (no
// prepended/appended metadata, no re-encoding, no mutation). If a store
// performs internal transforms (e.g., compression), they MUST be fully
// reversed before Get returns.
package provider

import (
	"context"
	"time"

	"github.com/unkn0wn-root/framecache"
)

// Store is a minimal byte store with TTLs, keyed by content hash.
// Must be safe for concurrent use.
type Store interface {
	// Get returns (payload, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, h framecache.Hash) ([]byte, bool, error)

	// Set stores an encoded frame with the given TTL. May ignore cost if
	// unsupported. Returns ok=false when the store rejected the write
	// under pressure.
	Set(ctx context.Context, h framecache.Hash, frame []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a frame (best-effort). Called when the backing cache
	// file is evicted.
	Del(ctx context.Context, h framecache.Hash) error

	// Close releases resources.
	Close(ctx context.Context) error
}
