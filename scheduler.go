package fiber

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/joeycumines/fiberrt/algo"
	"github.com/joeycumines/fiberrt/internal/ctxswitch"
	"github.com/joeycumines/fiberrt/internal/ratelimit"
	"github.com/joeycumines/fiberrt/internal/reclaim"
	"github.com/joeycumines/fiberrt/internal/stackalloc"
)

// Sched is the capability surface a running fiber uses to interact with its
// own scheduler: yielding, sleeping, and (for internal callers) reaching the
// concrete *Scheduler. It is intentionally sealed - only *Scheduler
// implements it - each OS thread has at most one active scheduler
// per OS thread.
type Sched interface {
	// Yield cooperatively gives up the OS thread, letting another ready
	// fiber run before this one continues.
	Yield()
	// SleepFor suspends the calling fiber for at least d.
	SleepFor(d time.Duration)
	// SleepUntil suspends the calling fiber until at least t.
	SleepUntil(t time.Time)
	// Logger returns the scheduler's configured logger.
	Logger() Logger

	scheduler() *Scheduler
}

// Scheduler owns exactly one OS thread (via runtime.LockOSThread), a
// dispatcher fiber, a main fiber, and the ready/sleep/terminated queues
// Create one with NewScheduler, or use the top-level
// Run for the common single-call case.
type Scheduler struct {
	id   uint64
	opts *schedOptions

	algorithm algo.Algorithm
	sleepQ    *sleepQueue
	remote    remoteQueue

	main       *FiberContext
	dispatcher *FiberContext
	active     *FiberContext

	// workersMu guards workers against the one cross-thread mutation it can
	// see: a peer scheduler's rehome call after a successful work-steal.
	// Every other touch happens on this scheduler's own OS thread.
	workersMu sync.Mutex
	workers   map[uint64]*FiberContext
	toKill    []*FiberContext // terminated, awaiting reclaim

	stackAlloc stackalloc.Allocator
	stackPool  *stackalloc.Pool
	reclaimer  *reclaim.StackReclaimer
	spawnLim   *ratelimit.SpawnLimiter

	metrics schedMetrics
	logger  Logger

	shutdownRequested bool
	running           bool
}

// NewScheduler constructs a Scheduler bound to the calling goroutine, which
// becomes its main fiber. The caller must not use the goroutine for
// anything else concurrently with the scheduler's lifetime. Run builds and
// drives its own Scheduler through this constructor; a Scheduler obtained
// directly from NewScheduler has no exported method that starts its
// dispatch loop.
func NewScheduler(opts ...Option) *Scheduler {
	cfg := resolveOptions(opts)
	if cfg.stackSize == 0 {
		cfg.stackSize = stackalloc.DefaultSize
	}

	s := &Scheduler{
		id:      allocSchedulerID(),
		opts:    cfg,
		sleepQ:  newSleepQueue(),
		workers: make(map[uint64]*FiberContext),
		logger:  cfg.logger,
	}

	switch cfg.algorithm {
	case AlgoSharedWork:
		q := cfg.sharedQueue
		if q == nil {
			q = algo.NewSharedQueue()
		}
		s.algorithm = algo.NewSharedWork(q)
	case AlgoWorkStealing:
		g := cfg.wsGroup
		if g == nil {
			n := cfg.numPeers
			if n < 1 {
				n = 1
			}
			g = algo.NewWorkStealingGroup(n)
		}
		s.algorithm = algo.NewWorkStealing(g)
		// a stolen fiber's eventual termination wakes its joiners via
		// scheduleFromRemote when they live on a different scheduler, so
		// work-stealing always needs the remote-ready path live.
		cfg.crossThreadWake = true
	default:
		s.algorithm = algo.NewRoundRobin()
	}

	s.stackAlloc = stackalloc.DefaultAllocator
	if cfg.stackPool {
		s.stackPool = stackalloc.NewPool(s.stackAlloc, cfg.stackSize)
		s.reclaimer = reclaim.NewStackReclaimer(s.stackPool, 32, 2*time.Millisecond)
	} else {
		s.reclaimer = reclaim.NewStackReclaimer(reclaim.ReleaseFunc(s.stackAlloc.Deallocate), 32, 2*time.Millisecond)
	}
	s.spawnLim = cfg.newSpawnLimiter()
	s.metrics.enabled.Store(cfg.metricsEnabled)

	s.main = newFiberContext(s, RoleMain, "main", allocFiberID())
	s.main.raw = ctxswitch.NewBare()
	s.main.state.Store(int32(StateRunning))
	s.workers[s.main.id] = s.main
	s.active = s.main

	s.dispatcher = newFiberContext(s, RoleDispatcher, "dispatcher", allocFiberID())
	s.dispatcher.raw = ctxswitch.Make(func(self *ctxswitch.Fiber, first ctxswitch.Transfer) {
		s.dispatchLoop()
	})
	s.workers[s.dispatcher.id] = s.dispatcher

	return s
}

// Logger returns the scheduler's configured logger.
func (s *Scheduler) Logger() Logger { return s.logger }

func (s *Scheduler) scheduler() *Scheduler { return s }

// Metrics returns a snapshot of this scheduler's atomic counters. Reads
// zero for every field unless WithMetrics(true) was set. StealAttempts and
// StealsSucceeded are filled in from the scheduling algorithm when it
// tracks steals (currently only AlgoWorkStealing).
func (s *Scheduler) Metrics() Metrics {
	m := s.metrics.snapshot()
	if st, ok := s.algorithm.(algo.StealStats); ok && s.metrics.enabled.Load() {
		m.StealAttempts, m.StealsSucceeded = st.StealStats()
	}
	return m
}

// ID is this scheduler's process-wide unique identifier.
func (s *Scheduler) ID() uint64 { return s.id }

// Run locks the calling goroutine to its OS thread, builds a Scheduler, and
// runs fn as the initial fiber until every fiber (including fn's own) has
// terminated. Multiple OS threads can each call Run with a shared
// AlgoSharedWork/AlgoWorkStealing configuration to form a multi-threaded
// runtime; see WithAlgorithm, WithWorkStealingPeers and WithCrossThreadWake.
func Run(fn func(s Sched), opts ...Option) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s := NewScheduler(opts...)
	h := Spawn(s, func(s Sched) struct{} {
		fn(s)
		return struct{}{}
	})
	h.Join(s)
	s.shutdownRequested = true
	s.resumeInto(s.dispatcher, nil)
	_ = s.reclaimer.Close()
}

// Shutdown requests that the scheduler stop once all live fibers have
// terminated, flushes the stack reclaimer and releases pooled stack
// memory. It does not forcibly terminate running fibers.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.shutdownRequested = true
	var err error
	if s.reclaimer != nil {
		err = s.reclaimer.Close()
	}
	if s.stackPool != nil {
		if perr := s.stackPool.Close(); err == nil {
			err = perr
		}
	}
	return err
}
