// Package asyncobs decouples observer delivery from the cache's calling
// goroutine. Events are queued and delivered by a small worker pool; a
// full queue drops the event rather than stalling Record.
//
// usage:
//
//	obs := asyncobs.New(myObserver, 1, 1000) // 1 worker; queue 1000 events
//	defer obs.Close()
//
//	cache, _ := framecache.New(framecache.Options{
//	    Namespace: "seq:main",
//	    Timebase:  timecode.New(1001, 30000),
//	    Jobs:      jobs,
//	    Observer:  obs, // or myObserver directly if sync delivery is fine
//	})
package asyncobs

import (
	"sync"

	"github.com/unkn0wn-root/framecache"
	"github.com/unkn0wn-root/framecache/timecode"
)

type Observer struct {
	inner framecache.Observer
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ framecache.Observer = (*Observer)(nil)

func New(inner framecache.Observer, workers, qlen int) *Observer {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	o := &Observer{inner: inner, q: make(chan func(), qlen)}
	o.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer o.wg.Done()
			for f := range o.q {
				f()
			}
		}()
	}
	return o
}

func (o *Observer) Close() {
	o.once.Do(func() {
		close(o.q)
		o.wg.Wait()
	})
}

func (o *Observer) try(f func()) {
	select {
	case o.q <- f:
	default: // drop
	}
}

func (o *Observer) Validated(r timecode.Interval)   { o.try(func() { o.inner.Validated(r) }) }
func (o *Observer) Invalidated(r timecode.Interval) { o.try(func() { o.inner.Invalidated(r) }) }
