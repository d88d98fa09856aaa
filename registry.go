package fiber

import (
	"sync"
	"sync/atomic"
)

var (
	nextSchedulerID atomic.Uint64
	nextFiberID     atomic.Uint64
)

func allocSchedulerID() uint64 { return nextSchedulerID.Add(1) }
func allocFiberID() uint64     { return nextFiberID.Add(1) }

// remoteQueue is the spinlock-protected inbox a Scheduler drains on every
// dispatch loop to pick up fibers woken from another OS thread. A plain
// mutex-guarded slice stands in for a spinlock here: the critical section
// is an append/drain, never more than a few instructions.
type remoteQueue struct {
	mu sync.Mutex
	q  []*FiberContext
}

func (r *remoteQueue) push(ctx *FiberContext) {
	r.mu.Lock()
	r.q = append(r.q, ctx)
	r.mu.Unlock()
}

func (r *remoteQueue) drain() []*FiberContext {
	r.mu.Lock()
	if len(r.q) == 0 {
		r.mu.Unlock()
		return nil
	}
	q := r.q
	r.q = nil
	r.mu.Unlock()
	return q
}
