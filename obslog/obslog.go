// Package obslog provides slog-backed Observer and Hooks implementations
// with optional sampling, for wiring cache events straight into logs.
package obslog

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/framecache"
	"github.com/unkn0wn-root/framecache/timecode"
)

type Options struct {
	// Sampling to avoid floods on busy timelines; 0/1 = log all.
	ValidatedEvery uint64
	StaleDropEvery uint64
}

// Events logs observer notifications and diagnostic hooks.
type Events struct {
	l    *slog.Logger
	opts Options

	validatedCtr atomic.Uint64
	staleCtr     atomic.Uint64
}

var (
	_ framecache.Observer = (*Events)(nil)
	_ framecache.Hooks    = (*Events)(nil)
)

func New(l *slog.Logger, opts Options) *Events {
	return &Events{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (e *Events) Validated(r timecode.Interval) {
	if e.l == nil || !sample(e.opts.ValidatedEvery, &e.validatedCtr) {
		return
	}
	e.l.Debug("framecache.validated",
		"in", r.In.String(),
		"out", r.Out.String())
}

func (e *Events) Invalidated(r timecode.Interval) {
	if e.l == nil {
		return
	}
	e.l.Info("framecache.invalidated",
		"in", r.In.String(),
		"out", r.Out.String())
}

func (e *Events) StaleDrop(t timecode.Rational, seq uint64) {
	if e.l == nil || !sample(e.opts.StaleDropEvery, &e.staleCtr) {
		return
	}
	e.l.Debug("framecache.stale_drop",
		"t", t.String(),
		"seq", seq)
}

func (e *Events) LedgerError(op string, r timecode.Interval, err error) {
	if e.l == nil {
		return
	}
	e.l.Error("framecache.ledger_error",
		"op", op,
		"range", r.String(),
		"err", err)
}

func (e *Events) SnapshotError(stage string, err error) {
	if e.l == nil {
		return
	}
	e.l.Warn("framecache.snapshot_error",
		"stage", stage,
		"err", err)
}
