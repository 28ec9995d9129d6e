package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/framecache"
	pr "github.com/unkn0wn-root/framecache/provider"
)

var ErrNilClient = errors.New("redis store: nil client")

// Store shares encoded frames across render nodes through Redis.
type Store struct {
	rdb         goredis.UniversalClient
	prefix      string
	closeClient bool
}

var _ pr.Store = (*Store)(nil)

type Config struct {
	Client      goredis.UniversalClient
	Prefix      string // key prefix, e.g. "frame:seq-main"; defaults to "frame"
	CloseClient bool   // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "frame"
	}
	return &Store{rdb: cfg.Client, prefix: prefix, closeClient: cfg.CloseClient}, nil
}

func (p *Store) key(h framecache.Hash) string { return p.prefix + ":" + h.Hex() }

func (p *Store) Get(ctx context.Context, h framecache.Hash) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, p.key(h)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Store) Set(ctx context.Context, h framecache.Hash, frame []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = 0 // treat non-positive TTLs as "no expiry" per store contract
	}
	if err := p.rdb.Set(ctx, p.key(h), frame, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Store) Del(ctx context.Context, h framecache.Hash) error {
	return p.rdb.Del(ctx, p.key(h)).Err()
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Store) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
