package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/framecache"
	pr "github.com/unkn0wn-root/framecache/provider"
)

// Store keeps encoded frames in a Ristretto cache. Cost is supplied per
// Set; size the cache by total encoded frame bytes.
type Store struct {
	c *rc.Cache
}

var _ pr.Store = (*Store)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

func (p *Store) Get(_ context.Context, h framecache.Hash) ([]byte, bool, error) {
	v, ok := p.c.Get(h.Hex())
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(h.Hex())
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Store) Set(_ context.Context, h framecache.Hash, frame []byte, cost int64, ttl time.Duration) (bool, error) {
	return p.c.SetWithTTL(h.Hex(), frame, cost, ttl), nil
}

func (p *Store) Del(_ context.Context, h framecache.Hash) error {
	p.c.Del(h.Hex())
	return nil
}

func (p *Store) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics exposes the underlying cache metrics (not part of provider.Store).
func (p *Store) Metrics() *rc.Metrics { return p.c.Metrics }
