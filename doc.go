// Package fiber implements a user-space M:N fiber runtime: a cooperative
// scheduler that multiplexes many lightweight, stackful-style execution
// contexts ("fibers") onto a small number of OS threads, plus the
// synchronization primitives (mutex, condition variable, barrier, bounded
// channel) those fibers use to coordinate without entering the kernel.
//
// # Architecture
//
// [Run] creates a [Scheduler] bound to the calling OS thread (locked via
// runtime.LockOSThread) and transfers control into a dedicated dispatcher
// fiber, which loops over ready, remote-ready, and sleeping fibers,
// reclaims terminated ones, and switches into whichever fiber is picked
// next by a pluggable algo.Algorithm (round-robin, shared-work, or
// work-stealing; see package algo). [Spawn] creates a new fiber on the
// current scheduler and returns a [Handle] that can be joined for its
// result or captured panic.
//
// Fibers are backed by goroutines synchronized through internal/ctxswitch's
// channel rendezvous rather than real assembly context switches - see that
// package's doc comment and DESIGN.md for why.
//
// # Synchronization
//
// [Mutex], [Condvar], [Barrier] and [Channel] are all built on the same
// suspend/resume contract exposed by [Sched]: a waiter enqueues itself on
// the primitive's own wait list and suspends while releasing the
// primitive's short-lived guarding mutex atomically with the context
// switch, so a racing waker on another scheduler can never observe it as
// both "enqueued" and "not yet parked".
//
// # Platform support
//
// Stack regions are allocated with real guard-page-capable virtual memory
// (mmap+mprotect on Linux/Darwin, VirtualAlloc+VirtualProtect on Windows, a
// plain byte slice elsewhere) even though fiber execution itself runs on
// Go-managed goroutine stacks; see internal/stackalloc.
//
// # Usage
//
//	fiber.Run(func(s fiber.Sched) {
//	    h := fiber.Spawn(s, func(s fiber.Sched) int {
//	        s.Yield()
//	        return 42
//	    })
//	    v, err := h.Join(s)
//	    fmt.Println(v, err)
//	})
package fiber
