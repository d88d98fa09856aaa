// Package ctxswitch implements the context-switch primitive that the rest of
// this module builds fibers on top of.
//
// Stackful coroutine runtimes typically expose a three-function assembly
// ABI (make/jump/ontop) that saves and restores callee-save registers on a
// private stack. Real register-level context switching is not expressible
// in portable Go. Instead, each fiber is backed by one
// goroutine parked on an unbuffered channel; Jump and Ontop are synchronous
// rendezvous sends that block the caller until it is itself later resumed.
// Because the channel is unbuffered and every switch is a blocking
// send/receive pair, at most one fiber's goroutine is ever runnable at a
// time for a given chain of switches - the channel handoff *is* the context
// switch, not a simulation of one.
package ctxswitch

// Transfer is the data passed across a switch, together with the Fiber
// handle of whichever fiber performed the switch, as observed on the
// receiving side.
type Transfer struct {
	From *Fiber
	Data any
}

// OntopFunc is injected by Ontop to run on the target's side of the switch,
// before the target's own code observes the transfer. Its return value
// becomes the Data the target actually sees.
type OntopFunc func(Transfer) any

type message struct {
	from *Fiber
	data any
	fn   OntopFunc
}

// Fiber is the opaque handle returned by Make; it owns the channel used to
// resume it. It is the Go analogue of the register save-area pointer
// returned by the assembly jump/ontop routines.
type Fiber struct {
	resumeCh chan message
}

// EntryFunc is run on a fresh fiber's goroutine once it first receives
// control. first is the Transfer delivered by the initial Jump/Ontop.
type EntryFunc func(self *Fiber, first Transfer)

// Make prepares a fresh fiber. The entry function does not run until the
// first Jump or Ontop targets the returned Fiber: the fresh goroutine parks
// immediately on its own resume channel, so the spawner can record the
// fresh handle before user code begins.
func Make(entry EntryFunc) *Fiber {
	f := &Fiber{resumeCh: make(chan message)}
	go func() {
		first := f.park()
		entry(f, first)
	}()
	return f
}

// NewBare allocates a Fiber handle without spawning a goroutine for it,
// intended for the one fiber per OS thread that is not spawned but adopted:
// the goroutine that calls Run itself becomes "main" by parking on the
// handle NewBare returns, the same way a Make'd fiber parks inside its own
// launcher goroutine.
func NewBare() *Fiber {
	return &Fiber{resumeCh: make(chan message)}
}

// Park blocks the calling goroutine until this fiber is resumed. It is the
// public form of park, for use by a bare fiber created with NewBare (which
// has no launcher goroutine to call the unexported method on its behalf).
func (f *Fiber) Park() Transfer { return f.park() }

// Handoff is Ontop's one-way sibling: it delivers the switch to target but
// does not park self afterward. It is used for a fiber's terminal switch
// into the dispatcher, after which self's goroutine returns and ends
// instead of blocking forever on a park that would never be resumed.
func Handoff(self, target *Fiber, data any, fn OntopFunc) {
	target.resumeCh <- message{from: self, data: data, fn: fn}
}

// park blocks until this fiber is resumed, applying any Ontop hook attached
// to the resuming switch, and returns the effective Transfer.
func (f *Fiber) park() Transfer {
	m := <-f.resumeCh
	data := m.data
	if m.fn != nil {
		data = m.fn(Transfer{From: m.from, Data: data})
	}
	return Transfer{From: m.from, Data: data}
}

// Jump performs a context switch from self to target, carrying data. It
// returns once self is next resumed by some future Jump/Ontop - which may
// be much later, and need not come from target. From the target's
// viewpoint, its park() call returns with self as the From handle.
func Jump(self, target *Fiber, data any) Transfer {
	target.resumeCh <- message{from: self, data: data}
	return self.park()
}

// Ontop is Jump, except fn runs on target's side - invoked with the
// transferred data before target's own code resumes - and fn's return value
// becomes the visible data. It is used to inject work (wait-queue
// enqueue/spinlock release, ready-queue insertion) atomically with the
// switch, so no third party can observe the old fiber as both "parked" and
// "not yet queued".
func Ontop(self, target *Fiber, data any, fn OntopFunc) Transfer {
	target.resumeCh <- message{from: self, data: data, fn: fn}
	return self.park()
}
