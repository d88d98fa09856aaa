package fiber

import "sync"

// Mutex is a cooperative mutual-exclusion lock for fibers. Lock/Unlock must
// be called with the same
// Sched the calling fiber is running on; ownership transfers directly to
// the next waiter on Unlock rather than reopening the lock to whichever
// fiber happens to run next, so FIFO waiters can't be barged by a fresh
// Lock call.
type Mutex struct {
	mu      sync.Mutex // guards the fields below; held only briefly
	locked  bool
	owner   *FiberContext
	waiters []*FiberContext
}

// NewMutex returns an unlocked Mutex.
func NewMutex() *Mutex { return &Mutex{} }

// Lock blocks the calling fiber until it holds the mutex. Panics with
// *DeadlockError if the calling fiber already owns it.
func (m *Mutex) Lock(s Sched) {
	sched := s.scheduler()
	caller := sched.active
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.owner = caller
		m.mu.Unlock()
		return
	}
	if m.owner == caller {
		m.mu.Unlock()
		panic(&DeadlockError{Fiber: caller.Name()})
	}
	m.waiters = append(m.waiters, caller)
	caller.beginWait()
	// release happens on the resuming fiber's side of the switch, so no
	// notifier can observe caller as both "enqueued" and "not yet parked".
	sched.suspendReleasing(m.mu.Unlock)
	caller.endWait()
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock(s Sched) bool {
	sched := s.scheduler()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return false
	}
	m.locked = true
	m.owner = sched.active
	return true
}

// Unlock releases the mutex. If a fiber is waiting, ownership transfers
// directly to it and it is scheduled; otherwise the mutex becomes free.
// Panics with *NotOwnerError if the calling fiber does not hold the mutex.
func (m *Mutex) Unlock(s Sched) {
	sched := s.scheduler()
	caller := sched.active
	m.mu.Lock()
	if !m.locked || m.owner != caller {
		m.mu.Unlock()
		panic(&NotOwnerError{Fiber: caller.Name()})
	}
	if len(m.waiters) == 0 {
		m.locked = false
		m.owner = nil
		m.mu.Unlock()
		return
	}
	next := m.waiters[0]
	m.waiters = m.waiters[1:]
	m.owner = next
	m.mu.Unlock()
	sched.wakeWaiter(next)
}
