package algo

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// StartGate blocks NewWorkStealing until every participant in a group has
// registered, so the first dispatch loop on any of them never races a
// still-nil peer slot during an early steal attempt.
type StartGate struct {
	mu      sync.Mutex
	cond    *sync.Cond
	want    int
	arrived int
}

// NewStartGate constructs a gate that releases once n participants arrive.
func NewStartGate(n int) *StartGate {
	g := &StartGate{want: n}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Arrive blocks until all n participants have called Arrive.
func (g *StartGate) Arrive() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.arrived++
	if g.arrived >= g.want {
		g.cond.Broadcast()
		return
	}
	for g.arrived < g.want {
		g.cond.Wait()
	}
}

// registry is the shared, mutex-protected membership list a WorkStealing
// group uses to pick a random victim; sync.Mutex is the idiomatic stand-in
// for a spinlock guarding a microsecond-scale critical section.
type registry struct {
	mu   sync.Mutex
	algs []*WorkStealing
}

func (r *registry) join(w *WorkStealing) {
	r.mu.Lock()
	r.algs = append(r.algs, w)
	r.mu.Unlock()
}

func (r *registry) RandomPeer(self Algorithm) (Algorithm, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.algs)
	if n <= 1 {
		return nil, false
	}
	start := rand.IntN(n)
	for i := 0; i < n; i++ {
		cand := r.algs[(start+i)%n]
		if Algorithm(cand) != self {
			return cand, true
		}
	}
	return nil, false
}

// WorkStealingGroup is shared state constructed once per group of
// participating schedulers; pass the same group to every NewWorkStealing
// call so each member can see and steal from its peers.
type WorkStealingGroup struct {
	gate *StartGate
	reg  *registry
}

// NewWorkStealingGroup constructs a group expecting n participants.
func NewWorkStealingGroup(n int) *WorkStealingGroup {
	return &WorkStealingGroup{gate: NewStartGate(n), reg: &registry{}}
}

// WorkStealing is a per-thread deque plus random-victim stealing against a
// shared group registry. The owner pushes/pops from the tail
// (LIFO, cache-friendly for the producer); thieves take from the head
// (FIFO), which is the standard split used to keep steals from colliding
// with the owner's own continuation.
type WorkStealing struct {
	mu    sync.Mutex
	deque []Fiber
	group *WorkStealingGroup

	attempts  atomic.Uint64
	succeeded atomic.Uint64
}

// NewWorkStealing constructs a participant in group and blocks until every
// expected peer has also called NewWorkStealing on the same group.
func NewWorkStealing(group *WorkStealingGroup) *WorkStealing {
	w := &WorkStealing{group: group}
	group.reg.join(w)
	group.gate.Arrive()
	return w
}

func (w *WorkStealing) Awaken(f Fiber) {
	w.mu.Lock()
	w.deque = append(w.deque, f)
	w.mu.Unlock()
}

func (w *WorkStealing) PickNext() Fiber {
	w.mu.Lock()
	if n := len(w.deque); n != 0 {
		f := w.deque[n-1]
		w.deque[n-1] = nil
		w.deque = w.deque[:n-1]
		w.mu.Unlock()
		return f
	}
	w.mu.Unlock()
	if peer, ok := w.group.reg.RandomPeer(w); ok {
		w.attempts.Add(1)
		if f := peer.Steal(); f != nil {
			w.succeeded.Add(1)
			return f
		}
	}
	return nil
}

// Steal takes the front of the deque for a thieving peer. It only peeks:
// if the front entry refuses (main or dispatcher, never legitimately
// stealable but checked regardless), Steal returns nil without removing
// anything, rather than discarding a non-stealable entry from the deque.
func (w *WorkStealing) Steal() Fiber {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.deque) == 0 {
		return nil
	}
	f := w.deque[0]
	if !f.Stealable() {
		return nil
	}
	copy(w.deque, w.deque[1:])
	w.deque[len(w.deque)-1] = nil
	w.deque = w.deque[:len(w.deque)-1]
	return f
}

func (w *WorkStealing) Notify() {}

func (w *WorkStealing) IsStealing() bool { return true }

// StealStats implements algo.StealStats.
func (w *WorkStealing) StealStats() (attempts, succeeded uint64) {
	return w.attempts.Load(), w.succeeded.Load()
}
