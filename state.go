package fiber

import "sync/atomic"

// FiberRunState is the coarse lifecycle state of a FiberContext.
type FiberRunState int32

const (
	// StateFresh: created, not yet enqueued onto any ready queue.
	StateFresh FiberRunState = iota
	// StateReady: linked into a ready queue, waiting to be picked.
	StateReady
	// StateRunning: currently the active fiber of its scheduler.
	StateRunning
	// StateSuspended: blocked on a primitive, asleep, or joining.
	StateSuspended
	// StateTerminated: returned (or panicked); on the terminated queue,
	// stack not yet reclaimed.
	StateTerminated
	// StateReclaimed: stack released, context record retired.
	StateReclaimed
)

func (s FiberRunState) String() string {
	switch s {
	case StateFresh:
		return "Fresh"
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateSuspended:
		return "Suspended"
	case StateTerminated:
		return "Terminated"
	case StateReclaimed:
		return "Reclaimed"
	default:
		return "Unknown"
	}
}

// Wake-status sentinel values. Any other value is
// a token identifying the wait-queue/primitive the fiber is parked on.
const (
	// WakeIdle means the fiber is not waiting on anything.
	WakeIdle int64 = 0
	// WakeWoken means a waker has already claimed the right to schedule
	// this fiber.
	WakeWoken int64 = -1
	// WakeTimedOut means a timeout expired and claimed this fiber first;
	// any subsequent notifier must skip it.
	WakeTimedOut int64 = -2
)

// WakeStatus is the per-fiber atomic handoff word used to hand a fiber off
// between a waker and a timeout expirer. A waiter publishes the token identifying what it is waiting on with
// BeginWait; a waker and a timeout expirer race to CAS that token to
// WakeWoken / WakeTimedOut respectively, and exactly one of them wins.
type WakeStatus struct {
	v atomic.Int64
}

// Load returns the current raw value.
func (w *WakeStatus) Load() int64 { return w.v.Load() }

// BeginWait publishes token (identifying the wait-queue/primitive) as long
// as the status is currently idle. token must never equal WakeIdle,
// WakeWoken, or WakeTimedOut.
func (w *WakeStatus) BeginWait(token int64) bool {
	return w.v.CompareAndSwap(WakeIdle, token)
}

// Wake attempts to claim this waiter on behalf of a notifier. Succeeds only
// if the waiter is still parked on token; a concurrent timeout that already
// fired will have moved the status to WakeTimedOut, causing this to fail.
func (w *WakeStatus) Wake(token int64) bool {
	return w.v.CompareAndSwap(token, WakeWoken)
}

// Timeout attempts to expire this waiter on behalf of the sleep queue.
// Succeeds only if no notifier has already claimed it.
func (w *WakeStatus) Timeout(token int64) bool {
	return w.v.CompareAndSwap(token, WakeTimedOut)
}

// Reset returns the status to idle. Only the fiber itself should call this,
// after observing it was woken or timed out and before it waits again.
func (w *WakeStatus) Reset() { w.v.Store(WakeIdle) }
