package fiber

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/joeycumines/fiberrt/internal/ctxswitch"
	"github.com/joeycumines/fiberrt/internal/stackalloc"
)

// FiberRole distinguishes the two scheduler-owned contexts (main,
// dispatcher) from ordinary spawned fibers. Only RoleNormal fibers are ever
// stealable or user-visible through a Handle.
type FiberRole int32

const (
	RoleNormal FiberRole = iota
	RoleMain
	RoleDispatcher
)

func (r FiberRole) String() string {
	switch r {
	case RoleMain:
		return "main"
	case RoleDispatcher:
		return "dispatcher"
	default:
		return "fiber"
	}
}

// FiberContext is the per-fiber control block: the suspended/running
// machine state (via internal/ctxswitch), its lifecycle, the owning
// scheduler, and the small wait-queue of joiners blocked on its
// termination. Queue membership is enforced by the single-active-fiber
// invariant and the owning scheduler's exclusive access, rather than by raw
// intrusive pointers, since algo's ready queues are ordinary Go slices.
type FiberContext struct {
	id    uint64
	name  string
	role  FiberRole
	sched *Scheduler
	raw   *ctxswitch.Fiber
	stack stackalloc.Stack

	state atomic.Int32 // FiberRunState
	wake  WakeStatus

	// started is set the first (and only the first) time this fiber's entry
	// trampoline actually runs. Before that point the fiber has never
	// executed any body code and its sched field may still change if a peer
	// scheduler steals it; once started, a fiber never migrates again, so
	// Stealable reports false from that point on.
	started atomic.Bool

	terminated atomic.Bool
	mu         sync.Mutex // guards waiters; short critical sections only
	waiters    []*FiberContext

	panicValue any
}

// Role reports whether this is a user fiber, the main fiber, or the
// scheduler's dispatcher.
func (ctx *FiberContext) Role() FiberRole { return ctx.role }

// ID is a process-wide unique identifier assigned at creation.
func (ctx *FiberContext) ID() uint64 { return ctx.id }

// Name is the optional debug name supplied at spawn time.
func (ctx *FiberContext) Name() string { return ctx.name }

// State reports the fiber's current lifecycle state.
func (ctx *FiberContext) State() FiberRunState {
	return FiberRunState(ctx.state.Load())
}

// IsTerminated reports whether the fiber has finished running (its
// function returned or panicked) and is only waiting on stack reclamation.
func (ctx *FiberContext) IsTerminated() bool { return ctx.terminated.Load() }

// Stealable implements algo.Fiber: only ordinary user fibers that have not
// yet begun running may be taken by a peer scheduler's work-stealing Steal.
// A fiber that has already executed any of its body is never stealable,
// since it may be parked mid-call on its own scheduler's bookkeeping.
func (ctx *FiberContext) Stealable() bool {
	return ctx.role == RoleNormal && !ctx.started.Load()
}

// selfToken derives this fiber's wake-status token from its own address.
// Every wait a fiber ever begins uses the same token (the single-active
// invariant guarantees at most one outstanding wait per fiber), so there is
// no need to mint a fresh token per wait episode.
func (ctx *FiberContext) selfToken() int64 {
	return int64(uintptr(unsafe.Pointer(ctx))) //nolint:gosec // stable per-fiber identity, never dereferenced as an address
}

// beginWait publishes this fiber's own wake token before it parks on a
// synchronization primitive's wait queue - the same CAS handshake
// SleepUntil/sweepSleepQueue use for timed waits, so every wait a fiber
// parks on goes through one protocol whether or not a timeout can race it.
func (ctx *FiberContext) beginWait() {
	ctx.wake.Reset()
	ctx.wake.BeginWait(ctx.selfToken())
}

// endWait returns this fiber's wake status to idle once a wait it began has
// been resolved, freeing the token for its next wait.
func (ctx *FiberContext) endWait() {
	ctx.wake.Reset()
}

// addWaiter enqueues w under ctx.mu (taken here), reporting already=true
// without enqueuing if ctx has terminated.
func (ctx *FiberContext) addWaiter(w *FiberContext) (already bool) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.terminated.Load() {
		return true
	}
	ctx.waiters = append(ctx.waiters, w)
	return false
}

func (ctx *FiberContext) drainWaiters() []*FiberContext {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	w := ctx.waiters
	ctx.waiters = nil
	return w
}

// terminate runs on ctx's own goroutine as the very last thing it does: it
// marks ctx terminated, wakes every joiner, removes ctx from the live
// worker set, queues its stack for reclamation, and hands control to the
// dispatcher without parking again - this goroutine returns immediately
// afterward, so it never blocks forever on a park nobody will resume
// again.
func (ctx *FiberContext) terminate(s *Scheduler) {
	waiters := ctx.drainWaiters()
	ctx.terminated.Store(true)
	ctx.state.Store(int32(StateTerminated))

	for _, w := range waiters {
		s.wake(w)
	}

	s.workersMu.Lock()
	delete(s.workers, ctx.id)
	s.workersMu.Unlock()
	s.toKill = append(s.toKill, ctx)
	s.metrics.terminatedPending.Add(1)

	ctxswitch.Handoff(ctx.raw, s.dispatcher.raw, nil, s.makeOntop(s.dispatcher, nil))
}

func newFiberContext(sched *Scheduler, role FiberRole, name string, id uint64) *FiberContext {
	ctx := &FiberContext{
		id:    id,
		name:  name,
		role:  role,
		sched: sched,
	}
	ctx.state.Store(int32(StateFresh))
	return ctx
}
