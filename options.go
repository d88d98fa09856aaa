package fiber

import (
	"time"

	"github.com/joeycumines/fiberrt/algo"
	"github.com/joeycumines/fiberrt/internal/ratelimit"
)

// AlgorithmKind selects one of the built-in scheduling policies.
type AlgorithmKind int

const (
	// AlgoRoundRobin is a single local FIFO ready queue.
	AlgoRoundRobin AlgorithmKind = iota
	// AlgoSharedWork is a thread-local FIFO plus a queue shared across
	// all schedulers in the same runtime.
	AlgoSharedWork
	// AlgoWorkStealing is a per-thread deque plus random-victim stealing
	// from peer schedulers.
	AlgoWorkStealing
)

// schedOptions holds resolved Scheduler configuration.
type schedOptions struct {
	stackSize        uintptr
	stackPool        bool
	algorithm        AlgorithmKind
	crossThreadWake  bool
	logger           Logger
	metricsEnabled   bool
	spawnRates       map[time.Duration]int
	numPeers         int // expected participant count for WorkStealing's barrier
	sharedQueue      *algo.SharedQueue
	wsGroup          *algo.WorkStealingGroup
}

// Option configures a Scheduler created by Run/NewScheduler.
type Option interface {
	apply(*schedOptions)
}

type optionFunc func(*schedOptions)

func (f optionFunc) apply(o *schedOptions) { f(o) }

// WithStackSize overrides the default 2 MiB fiber stack size.
func WithStackSize(size uintptr) Option {
	return optionFunc(func(o *schedOptions) { o.stackSize = size })
}

// WithStackPool enables recycling of fiber stack regions instead of
// allocating/freeing one on every spawn/terminate cycle.
func WithStackPool(enabled bool) Option {
	return optionFunc(func(o *schedOptions) { o.stackPool = enabled })
}

// WithAlgorithm selects the scheduling policy.
func WithAlgorithm(kind AlgorithmKind) Option {
	return optionFunc(func(o *schedOptions) { o.algorithm = kind })
}

// WithCrossThreadWake enables schedule_from_remote: the remote-ready queue
// that lets a fiber on one scheduler wake a fiber owned by another. Only
// meaningful for multi-scheduler (multi-thread) builds; AlgoWorkStealing
// implies it.
func WithCrossThreadWake(enabled bool) Option {
	return optionFunc(func(o *schedOptions) { o.crossThreadWake = enabled })
}

// WithWorkStealingPeers sets how many schedulers will participate in a
// work-stealing group; construction blocks until that many have
// registered. Only meaningful with AlgoWorkStealing.
func WithWorkStealingPeers(n int) Option {
	return optionFunc(func(o *schedOptions) { o.numPeers = n })
}

// WithSharedWorkGroup supplies the cross-scheduler queue a group of
// AlgoSharedWork schedulers (each on its own OS thread, each calling Run)
// should share. Construct one algo.NewSharedQueue per group and pass it to
// every participant; omitting this gives each scheduler its own private
// queue, equivalent to AlgoRoundRobin.
func WithSharedWorkGroup(q *algo.SharedQueue) Option {
	return optionFunc(func(o *schedOptions) { o.sharedQueue = q })
}

// WithWorkStealingGroup supplies the shared registry and start-barrier an
// AlgoWorkStealing group of schedulers must agree on. Construct one
// algo.NewWorkStealingGroup(n) per group (n = participant count) and pass
// it to every participant; each NewScheduler call blocks until all n have
// joined.
func WithWorkStealingGroup(g *algo.WorkStealingGroup) Option {
	return optionFunc(func(o *schedOptions) { o.wsGroup = g })
}

// WithLogger sets the structured logger used for scheduler/dispatcher
// lifecycle events. Defaults to the package-level logger set via
// SetStructuredLogger (a no-op logger if never set).
func WithLogger(l Logger) Option {
	return optionFunc(func(o *schedOptions) { o.logger = l })
}

// WithMetrics enables atomic counters (context switches, steals, queue
// depths) accessible via Scheduler.Metrics. Disabled by default to keep
// the hot path allocation- and contention-free.
func WithMetrics(enabled bool) Option {
	return optionFunc(func(o *schedOptions) { o.metricsEnabled = enabled })
}

// WithSpawnRateLimit bounds Spawn's rate per category using a sliding
// multi-window limiter (see internal/ratelimit), returning
// ErrSpawnRateLimited once exceeded instead of allocating a stack. rates
// maps a window duration to the maximum spawns allowed within it.
func WithSpawnRateLimit(rates map[time.Duration]int) Option {
	return optionFunc(func(o *schedOptions) { o.spawnRates = rates })
}

func resolveOptions(opts []Option) *schedOptions {
	cfg := &schedOptions{
		stackSize: 0, // resolved to stackalloc.DefaultSize lazily
		algorithm: AlgoRoundRobin,
		logger:    getGlobalLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}

func (o *schedOptions) newSpawnLimiter() *ratelimit.SpawnLimiter {
	if len(o.spawnRates) == 0 {
		return nil
	}
	return ratelimit.NewSpawnLimiter(o.spawnRates)
}
