package fiber

import (
	"time"

	"github.com/joeycumines/fiberrt/internal/ctxswitch"
)

// spawnFiber allocates a stack and a fresh FiberContext registered with s,
// but does not start its goroutine (the caller supplies raw via
// ctxswitch.Make once the entry closure can reference the context it
// belongs to).
func (s *Scheduler) spawnFiber(name string, id uint64) *FiberContext {
	ctx := newFiberContext(s, RoleNormal, name, id)
	var err error
	if s.stackPool != nil {
		ctx.stack, err = s.stackPool.Get()
	} else {
		ctx.stack, err = s.stackAlloc.Allocate(s.opts.stackSize)
	}
	if err != nil {
		s.logger.Log(LevelError, "stack allocation failed", F("fiber", name), F("error", err))
	}
	s.workersMu.Lock()
	s.workers[ctx.id] = ctx
	s.workersMu.Unlock()
	return ctx
}

// makeOntop wraps an OntopFunc so the switch's first act on target's side
// is to mark target running and update s.active, before any caller-supplied
// bookkeeping (lock release, re-enqueue of the outgoing fiber) runs.
func (s *Scheduler) makeOntop(target *FiberContext, extra ctxswitch.OntopFunc) ctxswitch.OntopFunc {
	return func(t ctxswitch.Transfer) any {
		s.active = target
		target.state.Store(int32(StateRunning))
		if extra != nil {
			return extra(t)
		}
		return t.Data
	}
}

// resumeInto performs a single context switch from the active fiber into
// target, running afterSwitch (if non-nil) on target's side before target's
// own code observes control. It returns once the caller is itself resumed
// by some later switch.
func (s *Scheduler) resumeInto(target *FiberContext, afterSwitch ctxswitch.OntopFunc) {
	caller := s.active
	s.metrics.incSwitch()
	ctxswitch.Ontop(caller.raw, target.raw, nil, s.makeOntop(target, afterSwitch))
	s.active = caller
	caller.state.Store(int32(StateRunning))
}

// pickNextOrDispatcher returns the next ready fiber, falling back to the
// dispatcher when nothing else is ready. A fiber taken from a peer
// scheduler by work-stealing is rehomed onto s before it is returned.
func (s *Scheduler) pickNextOrDispatcher() *FiberContext {
	if f := s.algorithm.PickNext(); f != nil {
		ctx := f.(*FiberContext)
		if ctx.sched != s {
			s.rehome(ctx)
		}
		return ctx
	}
	return s.dispatcher
}

// suspend parks the calling fiber without re-enqueuing it (the caller is
// responsible for having already arranged how it will be woken: a wait
// queue entry, the sleep queue, or a join waiter list) and switches
// directly to the next ready fiber, or the dispatcher if none is ready.
func (s *Scheduler) suspend() {
	caller := s.active
	caller.state.Store(int32(StateSuspended))
	next := s.pickNextOrDispatcher()
	if next == caller {
		// a racing waker already made caller ready again before it
		// actually parked; treat this suspend as a no-op rather than
		// jumping to self.
		caller.state.Store(int32(StateRunning))
		return
	}
	s.resumeInto(next, nil)
}

// suspendReleasing is suspend, except release runs on the target's side of
// the switch, atomically with the handoff: by the time release executes,
// the caller is guaranteed to already be parked (blocked in its own
// park()), so a racing waker that becomes unblockable the instant release
// runs can never observe the caller as both "running" and "enqueued
// elsewhere".
func (s *Scheduler) suspendReleasing(release func()) {
	caller := s.active
	caller.state.Store(int32(StateSuspended))
	next := s.pickNextOrDispatcher()
	if next == caller {
		caller.state.Store(int32(StateRunning))
		release()
		return
	}
	s.resumeInto(next, func(t ctxswitch.Transfer) any {
		release()
		return t.Data
	})
}

// Yield implements Sched.Yield: pick the next ready fiber and resume into
// it, transferring control away from the caller. Picking next before
// re-enqueuing self means a lone fiber
// yielding to an empty ready queue is a no-op that never switches.
func (s *Scheduler) Yield() {
	caller := s.active
	next := s.algorithm.PickNext()
	if next == nil {
		return
	}
	target := next.(*FiberContext)
	if target.sched != s {
		s.rehome(target)
	}
	caller.state.Store(int32(StateReady))
	s.resumeInto(target, func(t ctxswitch.Transfer) any {
		s.algorithm.Awaken(caller)
		return t.Data
	})
}

// schedule makes ctx ready on this scheduler (the caller must be running on
// this same scheduler's thread).
func (s *Scheduler) schedule(ctx *FiberContext) {
	s.sleepQ.remove(ctx)
	ctx.state.Store(int32(StateReady))
	s.algorithm.Awaken(ctx)
}

// scheduleFromRemote is the cross-thread wake path: a fiber on a different
// scheduler pushes ctx onto
// ctx's own scheduler's remote-ready inbox, which that scheduler's
// dispatcher drains on its next sweep.
func (s *Scheduler) scheduleFromRemote(ctx *FiberContext) {
	s.remote.push(ctx)
	s.metrics.remoteWakes.Add(1)
	s.algorithm.Notify()
}

// wake routes ctx to whichever scheduler owns it: local schedule if it is
// this scheduler's own fiber, otherwise the remote-ready inbox.
func (s *Scheduler) wake(ctx *FiberContext) {
	if ctx.sched == s {
		s.schedule(ctx)
	} else {
		ctx.sched.scheduleFromRemote(ctx)
	}
}

// wakeWaiter claims ctx's wake-status token before making it ready, the
// same handshake a timeout expirer races against in sweepSleepQueue. No
// synchronization primitive currently produces a competing timeout, so this
// always succeeds today, but every primitive waiter goes through the one
// protocol rather than bypassing it.
func (s *Scheduler) wakeWaiter(ctx *FiberContext) {
	if ctx.wake.Wake(ctx.selfToken()) {
		s.wake(ctx)
	}
}

// rehome reassigns ctx to s after a successful cross-scheduler steal: its
// origin scheduler's worker-set entry is removed and s's own is given one.
// Only ever called for a fiber that has not yet started (Stealable already
// guarantees that), so ctx's own goroutine has not read ctx.sched yet -
// spawnEntry reads it fresh on first resume, after which every Sched method
// the fiber's body calls (Yield, SleepFor, primitive waits) operates
// against s, not the scheduler it was spawned on. Must run before ctx is
// physically resumed, so the reassignment happens-before that first read.
func (s *Scheduler) rehome(ctx *FiberContext) {
	origin := ctx.sched
	origin.workersMu.Lock()
	delete(origin.workers, ctx.id)
	origin.workersMu.Unlock()

	s.workersMu.Lock()
	s.workers[ctx.id] = ctx
	s.workersMu.Unlock()

	ctx.sched = s
}

// SleepFor suspends the calling fiber for at least d.
func (s *Scheduler) SleepFor(d time.Duration) { s.SleepUntil(time.Now().Add(d)) }

// SleepUntil suspends the calling fiber until at least t: it registers a
// deadline in the sleep queue using
// its own address as the wake token, then suspends; the dispatcher's sweep
// (or a racing explicit waker, for primitives layered on sleep) resolves
// the WakeStatus CAS race exactly once.
func (s *Scheduler) SleepUntil(t time.Time) {
	caller := s.active
	token := caller.selfToken()
	caller.wake.Reset()
	caller.wake.BeginWait(token)
	s.sleepQ.insert(caller, t, token)
	s.metrics.sleepQueueDepth.Add(1)
	s.suspend()
	s.metrics.sleepQueueDepth.Add(-1)
	if caller.wake.Load() == WakeTimedOut {
		s.metrics.sleepExpirations.Add(1)
	}
	caller.wake.Reset()
}
