package fiber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondvarSignalWakesOneWaiter(t *testing.T) {
	Run(func(s Sched) {
		m := NewMutex()
		c := NewCondvar()
		ready := false
		woke := 0
		handles := make([]*Handle[struct{}], 2)
		for i := range handles {
			handles[i] = Spawn(s, func(s Sched) struct{} {
				m.Lock(s)
				for !ready {
					c.Wait(s, m)
				}
				woke++
				m.Unlock(s)
				return struct{}{}
			})
		}
		s.Yield()
		s.Yield()
		m.Lock(s)
		ready = true
		c.Signal(s)
		m.Unlock(s)
		handles[0].Join(s)
		// second waiter is still parked; wake it too so the test can exit.
		m.Lock(s)
		c.Signal(s)
		m.Unlock(s)
		handles[1].Join(s)
		assert.Equal(t, 2, woke)
	})
}

func TestCondvarBroadcastWakesAll(t *testing.T) {
	Run(func(s Sched) {
		m := NewMutex()
		c := NewCondvar()
		ready := false
		const n = 5
		handles := make([]*Handle[struct{}], n)
		for i := range handles {
			handles[i] = Spawn(s, func(s Sched) struct{} {
				m.Lock(s)
				for !ready {
					c.Wait(s, m)
				}
				m.Unlock(s)
				return struct{}{}
			})
		}
		for i := 0; i < n; i++ {
			s.Yield()
		}
		m.Lock(s)
		ready = true
		c.Broadcast(s)
		m.Unlock(s)
		for _, h := range handles {
			_, err := h.Join(s)
			require.NoError(t, err)
		}
	})
}
