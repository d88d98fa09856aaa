package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharedWorkLocalFIFOPreferredOverShared(t *testing.T) {
	shared := NewSharedQueue()
	w := NewSharedWork(shared)
	local := &fakeFiber{id: 1}
	remote := &fakeFiber{id: 2}
	shared.push(remote)
	w.Awaken(local)
	assert.Same(t, Fiber(local), w.PickNext())
	assert.Same(t, Fiber(remote), w.PickNext())
	assert.Nil(t, w.PickNext())
}

func TestSharedWorkFallsBackToSharedQueue(t *testing.T) {
	shared := NewSharedQueue()
	w1 := NewSharedWork(shared)
	w2 := NewSharedWork(shared)
	f := &fakeFiber{id: 1}
	w1.AwakenShared(f)
	assert.Same(t, Fiber(f), w2.PickNext())
}

func TestSharedWorkStealSkipsUnstealable(t *testing.T) {
	shared := NewSharedQueue()
	w := NewSharedWork(shared)
	pinned := &fakeFiber{id: 1, stealable: false}
	stealable := &fakeFiber{id: 2, stealable: true}
	w.Awaken(pinned)
	w.Awaken(stealable)
	assert.Same(t, Fiber(stealable), w.Steal())
	assert.Nil(t, w.Steal())
}
