// Package ratelimit adapts the sliding-window limiter from
// github.com/joeycumines/go-catrate to a single-category fiber-spawn gate.
package ratelimit

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// SpawnLimiter bounds how many fibers a Scheduler may spawn, using a single
// fixed category ("spawn") against catrate's underlying sliding-window
// Limiter, which is built for multi-tenant per-category rate limiting.
type SpawnLimiter struct {
	limiter *catrate.Limiter
}

// NewSpawnLimiter constructs a SpawnLimiter enforcing every window in rates
// (e.g. {time.Second: 10000} allows 10000 spawns/sec).
func NewSpawnLimiter(rates map[time.Duration]int) *SpawnLimiter {
	return &SpawnLimiter{limiter: catrate.NewLimiter(rates)}
}

// Allow reports whether a spawn may proceed now. When false, until gives
// the time at which the earliest exceeded window will admit it.
func (s *SpawnLimiter) Allow() (until time.Time, ok bool) {
	return s.limiter.Allow("spawn")
}
