package algo

import "sync"

// SharedQueue is the cross-scheduler FIFO that every participating
// SharedWork policy in one runtime pushes overflow work into and drains
// from. Construct one with NewSharedQueue and pass it to each NewSharedWork
// call for the group.
type SharedQueue struct {
	mu   sync.Mutex
	q    []Fiber
	cond *sync.Cond
}

// NewSharedQueue constructs an empty queue shared by a SharedWork group.
func NewSharedQueue() *SharedQueue {
	s := &SharedQueue{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *SharedQueue) push(f Fiber) {
	s.mu.Lock()
	s.q = append(s.q, f)
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *SharedQueue) pop() Fiber {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.q) == 0 {
		return nil
	}
	f := s.q[0]
	s.q[0] = nil
	s.q = s.q[1:]
	return f
}

// SharedWork is a thread-local FIFO backed by a queue shared across every
// scheduler in the same runtime: a scheduler whose local
// queue is empty checks the shared queue before falling back to the
// dispatcher/idle path.
type SharedWork struct {
	mu     sync.Mutex
	local  []Fiber
	shared *SharedQueue
}

// NewSharedWork constructs a SharedWork policy participating in shared.
func NewSharedWork(shared *SharedQueue) *SharedWork {
	return &SharedWork{shared: shared}
}

// AwakenShared pushes f directly onto the cross-scheduler shared queue
// instead of the local one; used when the waker is not the fiber's owning
// scheduler's own thread but still wants FIFO-shared fairness rather than a
// remote-ready handoff.
func (w *SharedWork) AwakenShared(f Fiber) {
	w.shared.push(f)
}

func (w *SharedWork) Awaken(f Fiber) {
	w.mu.Lock()
	w.local = append(w.local, f)
	w.mu.Unlock()
}

func (w *SharedWork) PickNext() Fiber {
	w.mu.Lock()
	if len(w.local) != 0 {
		f := w.local[0]
		w.local[0] = nil
		w.local = w.local[1:]
		w.mu.Unlock()
		return f
	}
	w.mu.Unlock()
	return w.shared.pop()
}

func (w *SharedWork) Steal() Fiber {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, f := range w.local {
		if f.Stealable() {
			copy(w.local[i:], w.local[i+1:])
			w.local[len(w.local)-1] = nil
			w.local = w.local[:len(w.local)-1]
			return f
		}
	}
	return nil
}

func (w *SharedWork) Notify() { w.shared.cond.Broadcast() }

func (w *SharedWork) IsStealing() bool { return true }
