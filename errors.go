package fiber

import (
	"errors"
	"fmt"
)

// Sentinel errors for channel and primitive states. These are always
// returned, never panicked.
var (
	// ErrClosed is returned by Channel.Send once the channel has been
	// closed, by Channel.Recv and Channel.TryRecv once it has been closed
	// and fully drained, and by a second Channel.Close. Channel.TrySend
	// reports a closed channel by returning false, not with this error.
	ErrClosed = errors.New("fiberrt: channel closed")

	// ErrFull names the full-channel state. No function in this package
	// returns it: Channel.TrySend reports a full channel by returning false.
	ErrFull = errors.New("fiberrt: channel full")

	// ErrEmpty names the empty-channel state. No function in this package
	// returns it: Channel.TryRecv reports an empty, open channel as
	// ok=false with a nil error.
	ErrEmpty = errors.New("fiberrt: channel empty")

	// ErrTimeout names an expired timed wait. No function in this package
	// returns it; SleepFor and SleepUntil return nothing.
	ErrTimeout = errors.New("fiberrt: operation timed out")

	// ErrSchedulerShutdown is returned by Spawn when called on a scheduler
	// that is shutting down or has shut down.
	ErrSchedulerShutdown = errors.New("fiberrt: scheduler is shutting down")

	// ErrSpawnRateLimited is returned by Spawn when a configured
	// WithSpawnRateLimit rejects the request.
	ErrSpawnRateLimited = errors.New("fiberrt: spawn rate limit exceeded")
)

// DeadlockError is panicked by Mutex.Lock when a fiber attempts to
// re-acquire a mutex it already holds. This is a contract violation. Every
// fiber's trampoline recovers panics, so it does not terminate the process:
// it surfaces from Handle.Join as the Value of a *PanicError, reachable with
// errors.As through PanicError.Unwrap.
type DeadlockError struct {
	// Fiber identifies the offending fiber, for diagnostics.
	Fiber string
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("fiberrt: deadlock: %s attempted to re-acquire a mutex it already holds", e.Fiber)
}

// NotOwnerError is panicked by Mutex.Unlock when the calling fiber does not
// currently hold the mutex. Also a contract violation; like DeadlockError
// it surfaces from Handle.Join wrapped in a *PanicError.
type NotOwnerError struct {
	Fiber string
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf("fiberrt: %s attempted to unlock a mutex it does not own", e.Fiber)
}

// UseAfterTerminateError describes an operation attempted on a fiber that
// has already terminated. No operation in this package panics with it: the
// FiberContext accessors and Handle.Fiber stay valid after termination.
type UseAfterTerminateError struct {
	Op string
}

func (e *UseAfterTerminateError) Error() string {
	return fmt.Sprintf("fiberrt: %s called on a terminated fiber", e.Op)
}

// PanicError wraps a value recovered from a panic inside a spawned fiber's
// function. It is captured in the fiber's join cell and surfaces from
// Handle.Join rather than crashing the process.
type PanicError struct {
	// Value is whatever was passed to panic() inside the fiber.
	Value any
	// Stack is the captured stack trace of the panicking goroutine, for
	// diagnostics.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("fiberrt: fiber panicked: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value was itself an
// error, enabling errors.Is/errors.As through the cause chain.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
