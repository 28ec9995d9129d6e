package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/unkn0wn-root/framecache/timecode"
)

// Redis shares a validity ledger across processes and survives restarts.
// The invalid set is stored as one msgpack blob per namespace and mutated
// load-modify-store, so it is intended for single-writer setups (one
// render coordinator per namespace). Optionally a TTL can be applied so an
// abandoned ledger ages out; readers then observe "nothing invalid" and
// reseed.
type Redis struct {
	rdb redis.UniversalClient
	ns  string
	ttl time.Duration // 0 disables expiry
}

var _ Ledger = (*Redis)(nil)

var ErrNilClient = errors.New("ledger: nil redis client")

// NewRedis creates a Redis-backed ledger without TTL.
func NewRedis(client redis.UniversalClient, namespace string) (*Redis, error) {
	return NewRedisWithTTL(client, namespace, 0)
}

// NewRedisWithTTL creates a Redis-backed ledger with TTL.
// If ttl <= 0, the ledger key does not expire.
func NewRedisWithTTL(client redis.UniversalClient, namespace string, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: client, ns: namespace, ttl: ttl}, nil
}

func (s *Redis) key() string { return "ledger:" + s.ns }

// intervalRecord is the wire shape of one invalid interval.
type intervalRecord struct {
	InNum  int64 `msgpack:"in"`
	InDen  int64 `msgpack:"id"`
	OutNum int64 `msgpack:"on"`
	OutDen int64 `msgpack:"od"`
}

func (s *Redis) load(ctx context.Context) (timecode.RangeSet, error) {
	var set timecode.RangeSet
	b, err := s.rdb.Get(ctx, s.key()).Bytes()
	if err == redis.Nil {
		return set, nil
	}
	if err != nil {
		return set, err
	}
	var recs []intervalRecord
	if err := msgpack.Unmarshal(b, &recs); err != nil {
		return set, fmt.Errorf("ledger: decode %q: %w", s.key(), err)
	}
	for _, r := range recs {
		set.Insert(timecode.Interval{
			In:  timecode.New(r.InNum, r.InDen),
			Out: timecode.New(r.OutNum, r.OutDen),
		})
	}
	return set, nil
}

func (s *Redis) store(ctx context.Context, set timecode.RangeSet) error {
	ivs := set.Intervals()
	recs := make([]intervalRecord, len(ivs))
	for i, iv := range ivs {
		recs[i] = intervalRecord{
			InNum:  iv.In.Num(),
			InDen:  iv.In.Den(),
			OutNum: iv.Out.Num(),
			OutDen: iv.Out.Den(),
		}
	}
	b, err := msgpack.Marshal(recs)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	return s.rdb.Set(ctx, s.key(), b, ttl).Err()
}

func (s *Redis) Validate(ctx context.Context, r timecode.Interval) error {
	set, err := s.load(ctx)
	if err != nil {
		return err
	}
	set.Remove(r)
	return s.store(ctx, set)
}

func (s *Redis) Invalidate(ctx context.Context, r timecode.Interval) error {
	set, err := s.load(ctx)
	if err != nil {
		return err
	}
	set.Insert(r)
	return s.store(ctx, set)
}

func (s *Redis) InvalidRanges(ctx context.Context) ([]timecode.Interval, error) {
	set, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return set.Intervals(), nil
}

// Close closes the underlying Redis client.
func (s *Redis) Close(context.Context) error { return s.rdb.Close() }
