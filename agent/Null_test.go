package agent

import (
	"path/filepath"
	"testing"

	"github.com/grandpahao/oh-my-q-learning/expreplay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

var _ Estimator = (*Null)(nil)

func TestNullPredict(t *testing.T) {
	n, err := NewNull(3)
	require.NoError(t, err)

	s := tensor.New(tensor.WithShape(2), tensor.WithBacking([]uint8{1, 2}))
	values, err := n.Predict([]*tensor.Dense{s, s})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0, 0}, {0, 0, 0}}, values)

	_, err = n.Predict([]*tensor.Dense{nil})
	assert.Error(t, err)

	_, err = NewNull(0)
	assert.Error(t, err)
}

func TestNullUpdateSaveRestore(t *testing.T) {
	n, err := NewNull(2)
	require.NoError(t, err)

	_, _, err = n.Update(expreplay.Batch{})
	assert.Error(t, err)

	batch := expreplay.Batch{Actions: []int{0, 1}, Rewards: []float64{1, 0},
		Dones: []bool{false, true}}
	step, metrics, err := n.Update(batch)
	require.NoError(t, err)
	assert.Equal(t, 1, step)
	assert.Equal(t, 0.5, metrics["batch_reward"])
	require.NoError(t, n.TargetUpdate())

	path := filepath.Join(t.TempDir(), "null.bin")
	require.NoError(t, n.Save(path))

	restored, err := NewNull(2)
	require.NoError(t, err)
	require.NoError(t, restored.Restore(path))
	assert.Equal(t, 1, restored.GlobalStep())
	assert.Equal(t, 1, restored.TargetUpdates())

	other, err := NewNull(5)
	require.NoError(t, err)
	assert.Error(t, other.Restore(path))
}
