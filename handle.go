package fiber

import (
	"fmt"
	"runtime/debug"

	"github.com/joeycumines/fiberrt/internal/ctxswitch"
)

// Handle is a typed join handle for a spawned fiber.
// Exactly one other fiber (on any scheduler) should Join a given Handle.
type Handle[T any] struct {
	ctx    *FiberContext
	result T
	err    error
}

// Join blocks the calling fiber until the spawned fiber returns (or
// panics), then returns its result. If the target already terminated
// before Join was called, it returns immediately without suspending. s
// identifies the caller's own scheduler - it may not be the joined fiber's
// scheduler, since a not-yet-started fiber may have been taken by a peer's
// work-stealing Steal in the interim; ctx.terminate's wake already routes
// cross-thread in that case, so only the caller's own suspend/active
// bookkeeping needs to come from s rather than h.ctx.
func (h *Handle[T]) Join(s Sched) (T, error) {
	if h.ctx == nil {
		return h.result, h.err
	}
	sched := s.scheduler()
	caller := sched.active
	if already := h.ctx.addWaiter(caller); !already {
		sched.suspend()
	}
	return h.result, h.err
}

// Fiber exposes the underlying FiberContext for introspection (ID, Role,
// State).
func (h *Handle[T]) Fiber() *FiberContext { return h.ctx }

// spawnEntry is what every spawned fiber's trampoline actually runs: invoke
// fn, capture its result or panic, publish it onto the handle, then
// terminate. The re-yield-once step, used to hand the newly-created
// goroutine's first resume straight back to its resumer, is performed
// implicitly by ctxswitch.Make's own park() before entry runs.
//
// ctx.sched is read fresh here, at the fiber's first actual resume, rather
// than captured at Spawn time: between Spawn and this first resume the
// fiber sits in its origin scheduler's ready queue as a not-yet-started
// fiber, eligible for a peer's work-stealing Steal to rehome it onto a
// different scheduler. Marking ctx started before reading ctx.sched closes
// that window - Stealable reports false as soon as started is set, so
// ctx.sched can't change out from under this read.
func spawnEntry[T any](ctx *FiberContext, h *Handle[T], fn func(Sched) T) ctxswitch.EntryFunc {
	return func(self *ctxswitch.Fiber, first ctxswitch.Transfer) {
		ctx.started.Store(true)
		s := ctx.sched
		func() {
			defer func() {
				if r := recover(); r != nil {
					h.err = &PanicError{Value: r, Stack: debug.Stack()}
				}
			}()
			h.result = fn(s)
		}()
		ctx.terminate(s)
	}
}

// Spawn creates a new fiber on s's scheduler running fn, returning a Handle
// that yields fn's result once joined. If a spawn rate limit is configured
// (WithSpawnRateLimit) and currently exceeded, Spawn does not allocate a
// stack: the returned Handle's Join immediately reports ErrSpawnRateLimited.
func Spawn[T any](s Sched, fn func(Sched) T) *Handle[T] {
	sched := s.scheduler()
	h := &Handle[T]{}
	if sched.shutdownRequested {
		h.err = ErrSchedulerShutdown
		return h
	}
	if sched.spawnLim != nil {
		if _, ok := sched.spawnLim.Allow(); !ok {
			h.err = ErrSpawnRateLimited
			return h
		}
	}
	id := allocFiberID()
	ctx := sched.spawnFiber(fmt.Sprintf("fiber-%d", id), id)
	h.ctx = ctx
	ctx.raw = ctxswitch.Make(spawnEntry(ctx, h, fn))
	sched.schedule(ctx)
	sched.metrics.spawned.Add(1)
	return h
}
