package fiber

import "sync/atomic"

// Metrics is a point-in-time snapshot of a Scheduler's atomic counters.
// Only populated meaningfully when WithMetrics(true) was set; otherwise
// every field reads zero.
type Metrics struct {
	ContextSwitches   uint64
	StealAttempts     uint64
	StealsSucceeded   uint64
	RemoteWakes       uint64
	SleepExpirations  uint64
	ReadyQueueDepth   uint64
	SleepQueueDepth   uint64
	TerminatedPending uint64
	Spawned           uint64
	Reclaimed         uint64
}

// schedMetrics is the live, cache-line-padded counters block embedded in a
// Scheduler. Pure atomics, no mutex,
// padding to avoid false sharing between the owning OS thread and any
// remote thread reading a snapshot concurrently.
type schedMetrics struct { // betteralign:ignore
	_                 [64]byte
	enabled           atomic.Bool
	contextSwitches   atomic.Uint64
	remoteWakes       atomic.Uint64
	sleepExpirations  atomic.Uint64
	readyQueueDepth   atomic.Int64
	sleepQueueDepth   atomic.Int64
	terminatedPending atomic.Int64
	spawned           atomic.Uint64
	reclaimed         atomic.Uint64
	_                 [64]byte
}

func (m *schedMetrics) incSwitch() {
	if m.enabled.Load() {
		m.contextSwitches.Add(1)
	}
}

// snapshot fills every counter owned directly by the scheduler.
// StealAttempts/StealsSucceeded are left zero here - Scheduler.Metrics
// fills them in from the scheduling algorithm, when it tracks steals.
func (m *schedMetrics) snapshot() Metrics {
	if !m.enabled.Load() {
		return Metrics{}
	}
	return Metrics{
		ContextSwitches:   m.contextSwitches.Load(),
		RemoteWakes:       m.remoteWakes.Load(),
		SleepExpirations:  m.sleepExpirations.Load(),
		ReadyQueueDepth:   uint64(m.readyQueueDepth.Load()),
		SleepQueueDepth:   uint64(m.sleepQueueDepth.Load()),
		TerminatedPending: uint64(m.terminatedPending.Load()),
		Spawned:           m.spawned.Load(),
		Reclaimed:         m.reclaimed.Load(),
	}
}
