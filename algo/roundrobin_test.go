package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeFiber struct {
	id        int
	stealable bool
}

func (f *fakeFiber) Stealable() bool { return f.stealable }

func TestRoundRobinFIFOOrder(t *testing.T) {
	r := NewRoundRobin()
	assert.Nil(t, r.PickNext())
	a, b, c := &fakeFiber{id: 1}, &fakeFiber{id: 2}, &fakeFiber{id: 3}
	r.Awaken(a)
	r.Awaken(b)
	r.Awaken(c)
	assert.Equal(t, 3, r.Len())
	assert.Same(t, Fiber(a), r.PickNext())
	assert.Same(t, Fiber(b), r.PickNext())
	assert.Same(t, Fiber(c), r.PickNext())
	assert.Nil(t, r.PickNext())
}

func TestRoundRobinNeverSteals(t *testing.T) {
	r := NewRoundRobin()
	r.Awaken(&fakeFiber{id: 1, stealable: true})
	assert.False(t, r.IsStealing())
	assert.Nil(t, r.Steal())
}
