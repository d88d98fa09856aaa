package fiber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexExclusion(t *testing.T) {
	Run(func(s Sched) {
		m := NewMutex()
		counter := 0
		const n = 20
		handles := make([]*Handle[struct{}], n)
		for i := 0; i < n; i++ {
			handles[i] = Spawn(s, func(s Sched) struct{} {
				m.Lock(s)
				counter++
				s.Yield()
				m.Unlock(s)
				return struct{}{}
			})
		}
		for _, h := range handles {
			h.Join(s)
		}
		assert.Equal(t, n, counter)
	})
}

func TestMutexTryLock(t *testing.T) {
	Run(func(s Sched) {
		m := NewMutex()
		require.True(t, m.TryLock(s))
		Spawn(s, func(s Sched) struct{} {
			assert.False(t, m.TryLock(s))
			return struct{}{}
		}).Join(s)
		m.Unlock(s)
	})
}

func TestMutexRecursiveLockPanicsDeadlock(t *testing.T) {
	Run(func(s Sched) {
		m := NewMutex()
		h := Spawn(s, func(s Sched) int {
			defer func() {
				r := recover()
				_, ok := r.(*DeadlockError)
				assert.True(t, ok)
				panic(r) // re-raise so Join still reports it
			}()
			m.Lock(s)
			m.Lock(s)
			return 0
		})
		_, err := h.Join(s)
		require.Error(t, err)
		var de *DeadlockError
		require.ErrorAs(t, err, &de)
	})
}

func TestMutexUnlockByNonOwnerPanics(t *testing.T) {
	Run(func(s Sched) {
		m := NewMutex()
		m.Lock(s)
		h := Spawn(s, func(s Sched) int {
			m.Unlock(s)
			return 0
		})
		_, err := h.Join(s)
		require.Error(t, err)
		var ne *NotOwnerError
		require.ErrorAs(t, err, &ne)
		m.Unlock(s)
	})
}

func TestMutexFIFOHandoff(t *testing.T) {
	Run(func(s Sched) {
		m := NewMutex()
		var order []int
		m.Lock(s)
		handles := make([]*Handle[struct{}], 3)
		for i := 0; i < 3; i++ {
			i := i
			handles[i] = Spawn(s, func(s Sched) struct{} {
				m.Lock(s)
				order = append(order, i)
				m.Unlock(s)
				return struct{}{}
			})
			s.Yield() // let each fiber reach its Lock call and enqueue, in order
		}
		m.Unlock(s)
		for _, h := range handles {
			h.Join(s)
		}
		assert.Equal(t, []int{0, 1, 2}, order)
	})
}
