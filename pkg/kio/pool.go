package kio

import (
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// maxPooledPerShard bounds each shard's free list to ≈64×segmentSize
// bytes.
const maxPooledPerShard = 64

// segmentPool is a process-wide, sharded free-list of unused segments.
// take/recycle are safe for concurrent use from any goroutine; sharding
// by an incrementing counter, rather than a single mutex-guarded stack,
// keeps contention low under concurrent acquire/release.
type segmentPool struct {
	shards  []chan *segment
	budget  *semaphore.Weighted // admission control for the recycle path
	counter uint64

	takes    int64
	recycles int64
	allocs   int64
	drops    int64
}

var defaultPool = newSegmentPool(0, maxPooledPerShard)

// newSegmentPool builds a pool with the given shard count (GOMAXPROCS
// when shards <= 0) and per-shard capacity.
func newSegmentPool(shardCount, perShard int) *segmentPool {
	if shardCount <= 0 {
		shardCount = runtime.GOMAXPROCS(0)
	}
	if shardCount < 1 {
		shardCount = 1
	}
	if perShard < 1 {
		perShard = maxPooledPerShard
	}
	shards := make([]chan *segment, shardCount)
	for i := range shards {
		shards[i] = make(chan *segment, perShard)
	}
	return &segmentPool{
		shards: shards,
		budget: semaphore.NewWeighted(int64(shardCount * perShard)),
	}
}

// ConfigurePool replaces the process-wide segment pool with one sized
// per shardCount/maxPooledPerShard, as read from kconfig.PoolConfig at
// startup. It must be called before any buffer activity has pooled
// segments elsewhere, which is why cmd/gokio calls it once during
// initialization rather than exposing it as a per-call option.
func ConfigurePool(shardCount, maxPooledPerShard int) {
	defaultPool = newSegmentPool(shardCount, maxPooledPerShard)
}

func (p *segmentPool) nextShard() int {
	idx := atomic.AddUint64(&p.counter, 1)
	return int(idx % uint64(len(p.shards)))
}

// take returns a segment from the pool, or a freshly allocated one if
// every shard is empty. Never blocks.
func (p *segmentPool) take() *segment {
	atomic.AddInt64(&p.takes, 1)

	start := p.nextShard()
	for i := 0; i < len(p.shards); i++ {
		ch := p.shards[(start+i)%len(p.shards)]
		select {
		case s := <-ch:
			p.budget.Release(1)
			return s
		default:
		}
	}

	atomic.AddInt64(&p.allocs, 1)
	return newOwnedSegment()
}

// recycle returns s to the pool. It is a no-op if s is shared (still
// referenced by a snapshot/clone/peek). s is also dropped, and left for
// the garbage collector, when the pool-wide budget is exhausted or when
// the one shard it is offered to is full; other shards are not tried.
func (p *segmentPool) recycle(s *segment) {
	if s.shared {
		return
	}
	if !p.budget.TryAcquire(1) {
		atomic.AddInt64(&p.drops, 1)
		slog.Debug("segment pool budget saturated, dropping segment", "shards", len(p.shards))
		return
	}

	s.pos = 0
	s.limit = 0
	s.owner = true
	s.shared = false
	s.next = nil
	s.prev = nil

	ch := p.shards[p.nextShard()]
	select {
	case ch <- s:
		atomic.AddInt64(&p.recycles, 1)
	default:
		p.budget.Release(1)
		atomic.AddInt64(&p.drops, 1)
	}
}

// PoolStats reports cumulative segment pool activity, useful for
// diagnosing allocation pressure (see cmd/gokio's "bench pool").
type PoolStats struct {
	Takes    int64
	Recycles int64
	Allocs   int64
	Drops    int64
}

// Stats returns a snapshot of the default process-wide segment pool's
// counters.
func Stats() PoolStats {
	return PoolStats{
		Takes:    atomic.LoadInt64(&defaultPool.takes),
		Recycles: atomic.LoadInt64(&defaultPool.recycles),
		Allocs:   atomic.LoadInt64(&defaultPool.allocs),
		Drops:    atomic.LoadInt64(&defaultPool.drops),
	}
}
