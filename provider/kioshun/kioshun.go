package kioshun

import (
	"context"
	"time"

	kc "github.com/unkn0wn-root/kioshun"

	"github.com/unkn0wn-root/framecache"
	pr "github.com/unkn0wn-root/framecache/provider"
)

// Store keeps encoded frames in a kioshun in-memory cache. Kioshun is
// item-capacity based, so Set's cost is ignored.
type Store struct {
	c *kc.InMemoryCache[string, []byte]
}

var _ pr.Store = (*Store)(nil)

type Config struct {
	MaxItems               int64             // total item capacity; 0 = unlimited
	ShardCount             int               // 0 = auto (CPU * multiplier)
	Policy                 kc.EvictionPolicy // LRU/LFU/FIFO/AdmissionLFU
	CleanupInterval        time.Duration     // 0 = disable background cleanup
	AdmissionResetInterval time.Duration     // only used by AdmissionLFU
	StatsEnabled           bool
}

// New builds a Store. DefaultTTL is forced to 0 so the TTL passed to each
// Set call is authoritative; ttl<=0 maps to kioshun's NoExpiration.
func New(cfg Config) *Store {
	kcfg := kc.Config{
		MaxSize:                cfg.MaxItems,
		ShardCount:             cfg.ShardCount,
		CleanupInterval:        cfg.CleanupInterval,
		DefaultTTL:             0,
		EvictionPolicy:         cfg.Policy,
		StatsEnabled:           cfg.StatsEnabled,
		AdmissionResetInterval: cfg.AdmissionResetInterval,
	}
	return &Store{c: kc.New[string, []byte](kcfg)}
}

func NewWithCache(c *kc.InMemoryCache[string, []byte]) *Store { return &Store{c: c} }

func (p *Store) Get(_ context.Context, h framecache.Hash) ([]byte, bool, error) {
	v, ok := p.c.Get(h.Hex())
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

// Set detects admission refusal by checking existence afterwards: kioshun's
// own Set has no ok result, and AdmissionLFU may silently reject new keys
// under pressure.
func (p *Store) Set(_ context.Context, h framecache.Hash, frame []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = kc.NoExpiration
	}
	key := h.Hex()
	if err := p.c.Set(key, frame, ttl); err != nil {
		return false, err
	}
	return p.c.Exists(key), nil
}

func (p *Store) Del(_ context.Context, h framecache.Hash) error {
	_ = p.c.Delete(h.Hex())
	return nil
}

func (p *Store) Close(_ context.Context) error {
	return p.c.Close()
}
