package expreplay

import (
	"sync"
	"testing"

	ts "github.com/grandpahao/oh-my-q-learning/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func obs(v uint8) *tensor.Dense {
	return tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]uint8{v,
		v, v, v}))
}

func transition(v uint8) ts.Transition {
	return ts.Transition{State: obs(v), Action: int(v), Reward: 1,
		NextState: obs(v + 1), Done: v%2 == 0}
}

func TestMemoryEmpty(t *testing.T) {
	m, err := New(4, 1, 0)
	require.NoError(t, err)

	_, err = m.Sample(2)
	assert.True(t, IsEmptyMemory(err))
	assert.False(t, IsInsufficientSamples(err))
}

func TestMemoryMinCapacity(t *testing.T) {
	m, err := New(10, 3, 0)
	require.NoError(t, err)

	require.NoError(t, m.Extend([]ts.Transition{transition(1), transition(2)}))
	_, err = m.Sample(1)
	assert.True(t, IsInsufficientSamples(err))

	require.NoError(t, m.Add(transition(3)))
	_, err = m.Sample(1)
	assert.NoError(t, err)

	_, err = New(2, 3, 0)
	assert.Error(t, err)
}

func TestMemoryRingRetention(t *testing.T) {
	m, err := New(3, 1, 7)
	require.NoError(t, err)

	for v := uint8(0); v < 10; v++ {
		require.NoError(t, m.Add(transition(v)))
	}
	assert.Equal(t, 3, m.Len())

	batch, err := m.Sample(64)
	require.NoError(t, err)
	assert.Equal(t, 64, batch.Len())
	assert.Equal(t, []int{64, 2, 2}, []int(batch.States.Shape()))
	assert.Equal(t, []int{64, 2, 2}, []int(batch.NextStates.Shape()))

	states := batch.States.Data().([]uint8)
	next := batch.NextStates.Data().([]uint8)
	for i, a := range batch.Actions {
		assert.Contains(t, []int{7, 8, 9}, a, "only recent transitions")
		assert.Equal(t, uint8(a), states[4*i])
		assert.Equal(t, uint8(a+1), next[4*i])
		assert.Equal(t, a%2 == 0, batch.Dones[i])
	}
}

func TestMemoryRejectsShapes(t *testing.T) {
	m, err := New(3, 1, 0)
	require.NoError(t, err)
	require.NoError(t, m.Add(transition(1)))

	bad := transition(2)
	bad.State = tensor.New(tensor.WithShape(4), tensor.WithBacking([]uint8{
		1, 2, 3, 4}))
	assert.Error(t, m.Add(bad))

	bad = transition(2)
	bad.NextState = nil
	assert.Error(t, m.Add(bad))
}

func TestMemoryConcurrent(t *testing.T) {
	m, err := New(100, 1, 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = m.Add(transition(uint8(w*50 + i)))
				_, _ = m.Sample(2)
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 100, m.Len())
}

func TestConfigCreate(t *testing.T) {
	m, err := Config{Capacity: 8, MinCapacity: 2, Seed: 1}.Create()
	require.NoError(t, err)
	assert.Equal(t, 8, m.Capacity())
	assert.Equal(t, 2, m.MinCapacity())

	_, err = Config{}.Create()
	assert.Error(t, err)
}
