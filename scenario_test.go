package fiber

import (
	"runtime"
	"sync"
	"time"

	"testing"

	"github.com/joeycumines/fiberrt/algo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioPingPong is scenario 1: two fibers, two capacity-2 channels,
// three ping/pong rounds each.
func TestScenarioPingPong(t *testing.T) {
	Run(func(s Sched) {
		c1 := NewChannel[string](2)
		c2 := NewChannel[string](2)
		var bObserved []string
		b := Spawn(s, func(s Sched) struct{} {
			for i := 0; i < 3; i++ {
				require.NoError(t, c2.Send(s, "pong"))
				v, err := c1.Recv(s)
				require.NoError(t, err)
				bObserved = append(bObserved, v)
			}
			return struct{}{}
		})
		var aObserved []string
		for i := 0; i < 3; i++ {
			require.NoError(t, c1.Send(s, "ping"))
			v, err := c2.Recv(s)
			require.NoError(t, err)
			aObserved = append(aObserved, v)
		}
		b.Join(s)
		assert.Equal(t, []string{"pong", "pong", "pong"}, aObserved)
		assert.Equal(t, []string{"ping", "ping", "ping"}, bObserved)
	})
}

// TestScenarioBarrier10 is scenario 2: 10 fibers each log before/wait/after;
// every "before" must precede every "after", and exactly one wait returns
// true.
func TestScenarioBarrier10(t *testing.T) {
	Run(func(s Sched) {
		const n = 10
		b := NewBarrier(n)
		var mu sync.Mutex
		var log []string
		leaders := 0
		handles := make([]*Handle[struct{}], n)
		for i := 0; i < n; i++ {
			handles[i] = Spawn(s, func(s Sched) struct{} {
				mu.Lock()
				log = append(log, "before")
				mu.Unlock()
				leader := b.Wait(s)
				mu.Lock()
				log = append(log, "after")
				if leader {
					leaders++
				}
				mu.Unlock()
				return struct{}{}
			})
		}
		for _, h := range handles {
			h.Join(s)
		}
		require.Len(t, log, 2*n)
		firstAfter := -1
		for i, e := range log {
			if e == "after" {
				firstAfter = i
				break
			}
		}
		for i := 0; i < firstAfter; i++ {
			assert.Equal(t, "before", log[i])
		}
		assert.Equal(t, 1, leaders)
	})
}

// TestScenarioProducerConsumerCondvar is scenario 3: a producer pushes
// 10..1 under a mutex-guarded slice and a condvar, then sets done and
// notifies; the consumer drains in LIFO order until done.
func TestScenarioProducerConsumerCondvar(t *testing.T) {
	Run(func(s Sched) {
		m := NewMutex()
		c := NewCondvar()
		var queue []int
		done := false

		producer := Spawn(s, func(s Sched) struct{} {
			for i := 10; i >= 1; i-- {
				m.Lock(s)
				queue = append(queue, i)
				c.Signal(s)
				m.Unlock(s)
			}
			m.Lock(s)
			done = true
			c.Signal(s)
			m.Unlock(s)
			return struct{}{}
		})

		var drained []int
		m.Lock(s)
		for {
			for !done && len(queue) == 0 {
				c.Wait(s, m)
			}
			for len(queue) > 0 {
				v := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				drained = append(drained, v)
			}
			if done && len(queue) == 0 {
				break
			}
		}
		m.Unlock(s)
		producer.Join(s)

		// the producer never contends the mutex (Lock/Unlock never suspend
		// when uncontended), so it runs to completion - and termination -
		// before the consumer's single Wait resolves; the consumer then
		// drains the whole pre-filled stack in one pass. Popping from the
		// tail of a slice built by appending 10,9,...,1 yields the values
		// in ascending order, the LIFO-of-push-order result.
		require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, drained)
	})
}

// TestScenarioSleepFairness is scenario 4: the fiber with the shorter sleep
// wakes first, and wall-clock tracks the max deadline, not the sum.
func TestScenarioSleepFairness(t *testing.T) {
	Run(func(s Sched) {
		var order []string
		start := time.Now()
		a := Spawn(s, func(s Sched) struct{} {
			s.SleepFor(50 * time.Millisecond)
			order = append(order, "A")
			return struct{}{}
		})
		b := Spawn(s, func(s Sched) struct{} {
			s.SleepFor(10 * time.Millisecond)
			order = append(order, "B")
			return struct{}{}
		})
		a.Join(s)
		b.Join(s)
		elapsed := time.Since(start)
		require.Len(t, order, 2)
		assert.Equal(t, "B", order[0])
		assert.Equal(t, "A", order[1])
		assert.Less(t, elapsed, 100*time.Millisecond)
	})
}

// TestScenarioJoinPanic is scenario 6: a fiber that panics surfaces the
// failure through Join rather than aborting the process.
func TestScenarioJoinPanic(t *testing.T) {
	Run(func(s Sched) {
		h := Spawn(s, func(s Sched) int {
			panic("scenario panic")
		})
		_, err := h.Join(s)
		require.Error(t, err)
		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "scenario panic", pe.Value)
	})
}

// TestScenarioWorkStealingSingleScheduler exercises scenario 5's algorithm
// (AlgoWorkStealing, a single participant in its group) with 100 fibers
// that each yield several times before returning their index: every fiber
// must complete regardless of interleaving, even with no peer to steal
// from.
func TestScenarioWorkStealingSingleScheduler(t *testing.T) {
	Run(func(s Sched) {
		const count = 100
		handles := make([]*Handle[int], count)
		for i := 0; i < count; i++ {
			i := i
			handles[i] = Spawn(s, func(s Sched) int {
				for j := 0; j < 10; j++ {
					s.Yield()
				}
				return i
			})
		}
		n := 0
		for i, h := range handles {
			v, err := h.Join(s)
			require.NoError(t, err)
			assert.Equal(t, i, v)
			n++
		}
		assert.Equal(t, count, n)
	}, WithAlgorithm(AlgoWorkStealing), WithWorkStealingPeers(1))
}

// TestScenarioWorkStealingTwoSchedulers is scenario 5 in full: two
// schedulers, each pinned to its own OS thread, sharing one
// algo.WorkStealingGroup. All 100 fibers are spawned on scheduler 0; its
// peer drains its own (permanently empty) local deque by continually
// attempting to steal, never running any fiber body of its own. Every
// spawned fiber still completes and reports its own index back through
// Join regardless of which scheduler actually ran it, and scheduler 1's own
// metrics must show at least one successful steal.
func TestScenarioWorkStealingTwoSchedulers(t *testing.T) {
	group := algo.NewWorkStealingGroup(2)

	const count = 100
	results := make([]int, count)
	done := make(chan struct{})
	var metrics1 Metrics

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		Run(func(s Sched) {
			handles := make([]*Handle[int], count)
			for i := 0; i < count; i++ {
				i := i
				handles[i] = Spawn(s, func(s Sched) int {
					for j := 0; j < 10; j++ {
						s.Yield()
					}
					return i
				})
			}
			for i, h := range handles {
				v, err := h.Join(s)
				require.NoError(t, err)
				results[i] = v
			}
			close(done)
		}, WithAlgorithm(AlgoWorkStealing), WithWorkStealingGroup(group), WithMetrics(true))
	}()

	go func() {
		defer wg.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		Run(func(s Sched) {
			sched := s.scheduler()
			for {
				select {
				case <-done:
					metrics1 = sched.Metrics()
					return
				default:
					s.Yield()
				}
			}
		}, WithAlgorithm(AlgoWorkStealing), WithWorkStealingGroup(group), WithMetrics(true))
	}()

	wg.Wait()
	for i, v := range results {
		assert.Equal(t, i, v)
	}
	assert.Positive(t, metrics1.StealsSucceeded)
}
