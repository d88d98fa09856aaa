package fiber

import (
	"context"
	"time"

	"github.com/joeycumines/fiberrt/internal/ctxswitch"
)

// noLiveUserFibers reports whether any RoleNormal fiber is still registered
// with this scheduler (main and dispatcher themselves never count).
func (s *Scheduler) noLiveUserFibers() bool {
	s.workersMu.Lock()
	defer s.workersMu.Unlock()
	for _, ctx := range s.workers {
		if ctx.role == RoleNormal {
			return false
		}
	}
	return true
}

// sweepSleepQueue moves every fiber whose deadline has elapsed into the
// ready queue, resolving the WakeStatus race against any concurrent waker
// exactly once per fiber.
func (s *Scheduler) sweepSleepQueue(now time.Time) {
	for _, e := range s.sleepQ.peekDue(now) {
		if e.ctx.wake.Timeout(e.token) {
			s.schedule(e.ctx)
		}
		// else: a waker already claimed this fiber (Wake won the race);
		// it was already scheduled when the wake happened.
	}
}

// drainRemoteReady moves every fiber pushed via scheduleFromRemote onto the
// local ready queue. Only meaningful when cross-thread wakes are enabled.
func (s *Scheduler) drainRemoteReady() {
	for _, ctx := range s.remote.drain() {
		s.schedule(ctx)
	}
}

// releaseTerminated hands every fiber collected since the last sweep to the
// batched stack reclaimer.
func (s *Scheduler) releaseTerminated() {
	if len(s.toKill) == 0 {
		return
	}
	toKill := s.toKill
	s.toKill = nil
	for _, ctx := range toKill {
		if err := s.reclaimer.Reclaim(context.Background(), ctx.stack); err != nil {
			s.logger.Log(LevelError, "stack reclaim failed", F("fiber", ctx.name), F("error", err))
		}
		ctx.state.Store(int32(StateReclaimed))
		s.metrics.reclaimed.Add(1)
		s.metrics.terminatedPending.Add(-1)
	}
}

// idleWait blocks the OS thread briefly when nothing is ready: until the
// next sleep deadline, or a short tick so cross-thread wakes and shutdown
// requests are still noticed promptly. This is the dispatcher's only
// legitimate use of a real blocking wait - every other suspension goes
// through the fiber switch machinery.
func (s *Scheduler) idleWait() {
	const maxIdle = 5 * time.Millisecond
	wait := maxIdle
	if dl, ok := s.sleepQ.nextDeadline(); ok {
		if d := time.Until(dl); d < wait {
			wait = d
		}
	}
	if wait > 0 {
		time.Sleep(wait)
	}
}

// dispatchLoop is the dedicated dispatcher fiber's body: a five-step loop
// run whenever no other fiber is ready to execute directly. It runs once
// per scheduler, for the scheduler's lifetime.
func (s *Scheduler) dispatchLoop() {
	for {
		now := time.Now()
		s.sweepSleepQueue(now)
		if s.opts.crossThreadWake {
			s.drainRemoteReady()
		}
		s.releaseTerminated()

		if s.shutdownRequested && s.noLiveUserFibers() {
			ctxswitch.Handoff(s.dispatcher.raw, s.main.raw, nil, s.makeOntop(s.main, nil))
			return
		}

		next := s.algorithm.PickNext()
		if next == nil {
			s.idleWait()
			continue
		}
		ctx := next.(*FiberContext)
		if ctx.sched != s {
			s.rehome(ctx)
		}
		s.resumeInto(ctx, nil)
	}
}
