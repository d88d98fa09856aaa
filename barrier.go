package fiber

import "sync"

// Barrier holds n fibers until all n have called Wait, then releases all of
// them together and resets for reuse.
type Barrier struct {
	mu      sync.Mutex
	n       int
	count   int
	waiters []*FiberContext
}

// NewBarrier returns a Barrier requiring n arrivals per round.
func NewBarrier(n int) *Barrier {
	if n < 1 {
		n = 1
	}
	return &Barrier{n: n}
}

// Wait blocks until n fibers have called Wait in the current round, then
// returns. leader reports true for exactly one of the n callers
// per round - the one whose arrival completed it - for callers that want to
// run a single piece of once-per-round cleanup.
func (b *Barrier) Wait(s Sched) (leader bool) {
	sched := s.scheduler()
	caller := sched.active
	b.mu.Lock()
	b.count++
	if b.count == b.n {
		waiters := b.waiters
		b.waiters = nil
		b.count = 0
		b.mu.Unlock()
		for _, w := range waiters {
			sched.wakeWaiter(w)
		}
		return true
	}
	b.waiters = append(b.waiters, caller)
	caller.beginWait()
	sched.suspendReleasing(b.mu.Unlock)
	caller.endWait()
	return false
}
