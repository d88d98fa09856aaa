// Package algo provides the pluggable ready-queue policies a Scheduler
// picks fibers from. It depends only on a minimal, duck-typed
// view of a fiber context so the scheduler package can implement it without
// an import cycle.
package algo

// Fiber is the minimal view of a schedulable context an Algorithm needs. A
// *fiber.FiberContext satisfies this by structural typing; algo never
// imports the scheduler package.
type Fiber interface {
	// Stealable reports whether this fiber may be taken by a peer
	// scheduler's Steal. Main and dispatcher contexts always refuse.
	Stealable() bool
}

// Algorithm is the pluggable scheduling policy interface:
// awaken enqueues a fiber made ready, pick_next dequeues the next fiber to
// run (or nil), an optional steal lets another scheduler take ready work,
// and notify is signalled after a cross-thread wake.
type Algorithm interface {
	// Awaken enqueues f as runnable.
	Awaken(f Fiber)
	// PickNext dequeues the next fiber to run, or returns nil if none is
	// ready.
	PickNext() Fiber
	// Steal attempts to take one ready fiber for a peer scheduler whose
	// own queue is empty, or returns nil. WorkStealing returns nil when its
	// front entry is not Stealable; SharedWork takes its first Stealable
	// entry; RoundRobin always returns nil.
	Steal() Fiber
	// Notify is called by cross-thread wakers after pushing to a
	// remote-ready queue. RoundRobin and WorkStealing do nothing;
	// SharedWork broadcasts its shared queue's condition variable. An idle
	// dispatcher polls on a short sleep rather than parking, so Notify
	// does not cut that sleep short.
	Notify()
	// IsStealing reports whether this algorithm supports Steal being
	// called by peers against it.
	IsStealing() bool
}

// StealStats is implemented by an Algorithm that tracks its own steal
// attempts and successes (currently only WorkStealing). A Scheduler merges
// these into its Metrics snapshot when the algorithm supports it.
type StealStats interface {
	// StealStats reports the cumulative number of times this algorithm
	// attempted to take work from a peer, and how many of those attempts
	// actually returned a fiber.
	StealStats() (attempts, succeeded uint64)
}

// PeerSource lets a stealing Algorithm find a victim among the other
// schedulers registered in the same runtime, without depending on the
// scheduler package.
type PeerSource interface {
	// RandomPeer returns a randomly chosen peer Algorithm other than self,
	// or ok=false if there are no peers (yet).
	RandomPeer(self Algorithm) (peer Algorithm, ok bool)
}
