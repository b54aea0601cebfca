package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpsilonAnnealing(t *testing.T) {
	p, err := NewEGreedy(1.0, 0.1, 100, 4, 0)
	require.NoError(t, err)

	assert.Equal(t, 1.0, p.Epsilon(0))
	assert.InDelta(t, 0.55, p.Epsilon(50), 1e-12)
	assert.Equal(t, 0.1, p.Epsilon(100))
	assert.Equal(t, 0.1, p.Epsilon(1000))
}

func TestProbabilities(t *testing.T) {
	p, err := NewEGreedy(0.2, 0.2, 0, 4, 0)
	require.NoError(t, err)

	probs, err := p.Probabilities([]float64{0, 3, 1, 3}, 0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.05, 0.45, 0.05, 0.45}, probs, 1e-12)

	_, err = p.Probabilities([]float64{1}, 0)
	assert.Error(t, err)
}

func TestSelectActionGreedy(t *testing.T) {
	p, err := NewEGreedy(0, 0, 0, 3, 1)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		a, err := p.SelectAction([]float64{-1, 2, 0}, i)
		require.NoError(t, err)
		assert.Equal(t, 1, a)
	}
}

func TestSelectActionUniform(t *testing.T) {
	p, err := NewEGreedy(1, 1, 0, 3, 1)
	require.NoError(t, err)

	counts := make([]int, 3)
	for i := 0; i < 3000; i++ {
		a, err := p.SelectAction([]float64{5, 0, 0}, i)
		require.NoError(t, err)
		counts[a]++
	}
	for _, c := range counts {
		assert.InDelta(t, 1000, c, 150)
	}
}

func TestNewEGreedyErrors(t *testing.T) {
	_, err := NewEGreedy(1.5, 0, 1, 2, 0)
	assert.Error(t, err)
	_, err = NewEGreedy(1, 0, -1, 2, 0)
	assert.Error(t, err)
	_, err = NewEGreedy(1, 0, 1, 0, 0)
	assert.Error(t, err)
}
