// Package framecache implements a content-addressed, time-indexed render
// cache: an exact-rational timeline position maps to the content hash of
// the frame last rendered for it. A completion is only admitted while the
// job ledger still lists a covering render job (the currency check), so
// out-of-order results from overlapping speculative jobs never clobber a
// fresher frame.
//
// Components:
//   - Cache: the time -> hash index, the currency check, and the timeline
//     edit reconciler (Truncate, InvalidateRange, Shift).
//   - ledger.Ledger: the validity ledger tracking which timeline ranges
//     hold valid cached content. Local (in-process) by default, optional
//     Redis implementation for render farms.
//   - persist.Persister: encodes decoded frame buffers to sharded,
//     hash-derived cache paths and reports new files to a registry.
//   - provider.Store: optional byte stores (BigCache, Ristretto,
//     Kioshun, Redis) for encoded frame payloads.
//
// Locking: every index mutation and job-ledger read happens inside one
// short critical section per cache. Observer notifications are emitted
// strictly after the lock is released, so observers may call back into
// the cache without deadlocking.
//
// Completion flow:
//
//	jobs.Append(framecache.Job{Range: r, Seq: seq}) // scheduler, before dispatch
//	...render...
//	ok := cache.Record(t, hash, seq) // currency-checked insert
package framecache
