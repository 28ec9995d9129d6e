// Package persist encodes decoded frame buffers to durable cache files
// under deterministic, hash-derived paths and reports each new file to the
// registry owning its lifecycle. It runs entirely outside the cache lock;
// the only state it shares with the index is the hash value itself.
package persist

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/framecache"
	"github.com/unkn0wn-root/framecache/provider"
	"github.com/unkn0wn-root/framecache/registry"
)

var (
	// ErrInvalidFormat is the hard failure for persistence requests with
	// an unrecognized pixel format. No file is produced.
	ErrInvalidFormat = errors.New("persist: invalid pixel format")

	// ErrBufferSize means the buffer length disagrees with the params.
	ErrBufferSize = errors.New("persist: buffer length does not match video params")
)

const defaultJPEGQuality = 85

// Persister writes encoded frames to a sharded on-disk layout:
//
//	<root>/<hex(hash[0])>/<hex(hash[1:])><ext>
//
// The first byte of the hash names the shard directory, bounding
// per-directory fanout as the cache grows.
type Persister struct {
	root     string
	registry registry.Registry
	store    provider.Store // optional; encoded bytes are teed here
	log      framecache.Logger
	quality  int
	workers  int
}

// Options tune a Persister. Only Root is required.
type Options struct {
	Root        string             // cache root directory (created if absent)
	Registry    registry.Registry  // nil => registry.Nop
	Store       provider.Store     // optional in-memory frame store
	Logger      framecache.Logger  // nil => NopLogger
	JPEGQuality int                // 0 => 85
	Workers     int                // batch parallelism; 0 => GOMAXPROCS
}

func New(opts Options) (*Persister, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("persist: root is required")
	}
	if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create root: %w", err)
	}

	p := &Persister{
		root:    opts.Root,
		store:   opts.Store,
		quality: opts.JPEGQuality,
		workers: opts.Workers,
	}
	if opts.Registry != nil {
		p.registry = opts.Registry
	} else {
		p.registry = registry.Nop{}
	}
	if opts.Logger != nil {
		p.log = opts.Logger
	} else {
		p.log = framecache.NopLogger{}
	}
	if p.quality <= 0 {
		p.quality = defaultJPEGQuality
	}
	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	return p, nil
}

// CachePath derives the cache file path for a hash and pixel format,
// creating the shard directory if absent.
func (p *Persister) CachePath(h framecache.Hash, f Format) (string, error) {
	if !f.IsValid() {
		return "", ErrInvalidFormat
	}
	dir := filepath.Join(p.root, hex.EncodeToString(h[:1]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("persist: create shard dir: %w", err)
	}
	return filepath.Join(dir, hex.EncodeToString(h[1:])+f.Ext()), nil
}

// Frame is one unit of work for PersistBatch.
type Frame struct {
	Hash   framecache.Hash
	Data   []byte
	Params VideoParams
}

// Persist encodes buf per the pixel format class and writes it to the
// hash-derived cache path, then reports the new file to the registry.
// Failures leave no partial file behind.
func (p *Persister) Persist(ctx context.Context, h framecache.Hash, buf []byte, vp VideoParams) error {
	if !vp.Format.IsValid() {
		p.log.Error("persist rejected invalid pixel format", framecache.Fields{"hash": h.Hex(), "format": vp.Format.String()})
		return ErrInvalidFormat
	}
	if len(buf) != vp.BufferLen() {
		return fmt.Errorf("%w: have %d, want %d (%dx%d %s)",
			ErrBufferSize, len(buf), vp.BufferLen(), vp.Width, vp.Height, vp.Format)
	}

	path, err := p.CachePath(h, vp.Format)
	if err != nil {
		return err
	}

	var encoded []byte
	if vp.Format.IsFloat() {
		encoded, err = encodeDeep(buf, vp)
	} else {
		encoded, err = encodeJPEG(buf, vp, p.quality)
	}
	if err != nil {
		p.log.Error("frame encode failed", framecache.Fields{"hash": h.Hex(), "format": vp.Format.String(), "err": err})
		return fmt.Errorf("persist: encode %s: %w", vp.Format, err)
	}

	if err := writeAtomic(path, encoded); err != nil {
		p.log.Error("cache file write failed", framecache.Fields{"path": path, "err": err})
		return err
	}

	if p.store != nil {
		if _, err := p.store.Set(ctx, h, encoded, int64(len(encoded)), 0); err != nil {
			p.log.Warn("frame store set failed", framecache.Fields{"hash": h.Hex(), "err": err})
		}
	}

	if err := p.registry.CreatedFile(ctx, path, h, int64(len(encoded))); err != nil {
		// an unregistered file is invisible to the eviction manager;
		// undo the write rather than leak an orphan
		if rerr := os.Remove(path); rerr != nil {
			p.log.Warn("orphan cache file cleanup failed", framecache.Fields{"path": path, "err": rerr})
		}
		if p.store != nil {
			if derr := p.store.Del(ctx, h); derr != nil {
				p.log.Warn("frame store cleanup failed", framecache.Fields{"hash": h.Hex(), "err": derr})
			}
		}
		p.log.Warn("registry report failed", framecache.Fields{"path": path, "err": err})
		return fmt.Errorf("persist: register %s: %w", path, err)
	}

	p.log.Debug("frame persisted", framecache.Fields{"hash": h.Hex(), "path": path, "bytes": len(encoded)})
	return nil
}

// PersistBatch persists frames with bounded parallelism. The first error
// cancels the remaining work.
func (p *Persister) PersistBatch(ctx context.Context, frames []Frame) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, f := range frames {
		f := f
		g.Go(func() error {
			return p.Persist(ctx, f.Hash, f.Data, f.Params)
		})
	}
	return g.Wait()
}

// writeAtomic writes data to path via a temp file + rename so readers
// never observe a partial frame and failures leave nothing behind.
func writeAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, base+".tmp*")
	if err != nil {
		return fmt.Errorf("persist: create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("persist: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist: rename: %w", err)
	}
	return nil
}
