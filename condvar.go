package fiber

import "sync"

// Condvar is a Mesa-semantics condition variable paired with a Mutex:
// Wait atomically releases m and suspends the caller, re-acquiring m before
// returning. Callers must re-check their condition in a loop, since a
// Broadcast/Signal only promises the waiter becomes runnable again, not
// that the condition still holds.
type Condvar struct {
	mu      sync.Mutex
	waiters []*FiberContext
}

// NewCondvar returns an empty Condvar.
func NewCondvar() *Condvar { return &Condvar{} }

// Wait releases m, suspends the calling fiber until signaled, then
// re-acquires m before returning.
func (c *Condvar) Wait(s Sched, m *Mutex) {
	sched := s.scheduler()
	caller := sched.active
	c.mu.Lock()
	c.waiters = append(c.waiters, caller)
	caller.beginWait()
	m.Unlock(s)
	// c.mu is released on the resuming fiber's side of the switch, so no
	// Signal/Broadcast can pop caller before it has parked.
	sched.suspendReleasing(c.mu.Unlock)
	caller.endWait()
	m.Lock(s)
}

// Signal wakes at most one waiting fiber.
func (c *Condvar) Signal(s Sched) {
	sched := s.scheduler()
	c.mu.Lock()
	if len(c.waiters) == 0 {
		c.mu.Unlock()
		return
	}
	next := c.waiters[0]
	c.waiters = c.waiters[1:]
	c.mu.Unlock()
	sched.wakeWaiter(next)
}

// Broadcast wakes every waiting fiber.
func (c *Condvar) Broadcast(s Sched) {
	sched := s.scheduler()
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()
	for _, w := range waiters {
		sched.wakeWaiter(w)
	}
}
