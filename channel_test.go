package fiber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSendRecvOrder(t *testing.T) {
	Run(func(s Sched) {
		ch := NewChannel[int](4)
		const count = 20
		producer := Spawn(s, func(s Sched) struct{} {
			for i := 0; i < count; i++ {
				require.NoError(t, ch.Send(s, i))
			}
			require.NoError(t, ch.Close(s))
			return struct{}{}
		})
		var got []int
		consumer := Spawn(s, func(s Sched) struct{} {
			for {
				v, err := ch.Recv(s)
				if err != nil {
					require.ErrorIs(t, err, ErrClosed)
					return struct{}{}
				}
				got = append(got, v)
			}
		})
		producer.Join(s)
		consumer.Join(s)
		require.Len(t, got, count)
		for i, v := range got {
			assert.Equal(t, i, v)
		}
	})
}

func TestChannelTrySendTryRecv(t *testing.T) {
	Run(func(s Sched) {
		ch := NewChannel[int](1)
		assert.True(t, ch.TrySend(s, 1))
		assert.False(t, ch.TrySend(s, 2))
		v, ok, err := ch.TryRecv(s)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, v)
		_, ok, err = ch.TryRecv(s)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestChannelCloseWakesBlockedSend(t *testing.T) {
	Run(func(s Sched) {
		ch := NewChannel[int](1)
		require.NoError(t, ch.Send(s, 1)) // fill capacity
		h := Spawn(s, func(s Sched) error {
			return ch.Send(s, 2) // blocks, capacity full
		})
		s.Yield()
		require.NoError(t, ch.Close(s))
		err, joinErr := h.Join(s)
		require.NoError(t, joinErr)
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestChannelCloseDrainsBufferedValues(t *testing.T) {
	Run(func(s Sched) {
		ch := NewChannel[int](2)
		require.NoError(t, ch.Send(s, 1))
		require.NoError(t, ch.Send(s, 2))
		require.NoError(t, ch.Close(s))
		v, err := ch.Recv(s)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
		v, err = ch.Recv(s)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
		_, err = ch.Recv(s)
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestChannelLenCap(t *testing.T) {
	Run(func(s Sched) {
		ch := NewChannel[int](3)
		assert.Equal(t, 3, ch.Cap())
		assert.Equal(t, 0, ch.Len())
		require.NoError(t, ch.Send(s, 1))
		assert.Equal(t, 1, ch.Len())
	})
}
