package algo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkStealingOwnerLIFO(t *testing.T) {
	group := NewWorkStealingGroup(1)
	w := NewWorkStealing(group)
	a, b := &fakeFiber{id: 1}, &fakeFiber{id: 2}
	w.Awaken(a)
	w.Awaken(b)
	assert.Same(t, Fiber(b), w.PickNext())
	assert.Same(t, Fiber(a), w.PickNext())
}

func TestWorkStealingThiefFIFOFromPeer(t *testing.T) {
	group := NewWorkStealingGroup(2)
	var w1, w2 *WorkStealing
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); w1 = NewWorkStealing(group) }()
	go func() { defer wg.Done(); w2 = NewWorkStealing(group) }()
	wg.Wait()
	require.NotNil(t, w1)
	require.NotNil(t, w2)

	a, b := &fakeFiber{id: 1, stealable: true}, &fakeFiber{id: 2, stealable: true}
	w1.Awaken(a)
	w1.Awaken(b)

	// w2's own deque is empty, so PickNext falls through to stealing from
	// its only peer, w1; Steal takes from the head (FIFO), so a comes
	// first even though b was pushed last (LIFO order for the owner).
	stolen := w2.PickNext()
	assert.Same(t, Fiber(a), stolen)
}

func TestWorkStealingSkipsUnstealableEntries(t *testing.T) {
	group := NewWorkStealingGroup(1)
	w := NewWorkStealing(group)
	pinned := &fakeFiber{id: 1, stealable: false}
	w.Awaken(pinned)
	assert.Nil(t, w.Steal())
	// Steal only peeks, so the refused entry stays for the owner to pick.
	assert.Same(t, Fiber(pinned), w.PickNext())
}

func TestStartGateReleasesAllParticipants(t *testing.T) {
	gate := NewStartGate(3)
	var wg sync.WaitGroup
	released := make([]bool, 3)
	for i := 0; i < 3; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			gate.Arrive()
			released[i] = true
		}()
	}
	wg.Wait()
	for _, r := range released {
		assert.True(t, r)
	}
}
