package checkpointer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saver struct {
	paths []string
	err   error
}

func (s *saver) Save(path string) error {
	s.paths = append(s.paths, path)
	return s.err
}

func TestNStep(t *testing.T) {
	s := &saver{}
	c, err := NewNStep(3, s, Enumerated(0, "/tmp/estimator", ".bin"))
	require.NoError(t, err)

	for step := 1; step <= 7; step++ {
		require.NoError(t, c.Checkpoint(step))
	}
	assert.Equal(t, []string{"/tmp/estimator1.bin", "/tmp/estimator2.bin"},
		s.paths)
}

func TestNStepErrors(t *testing.T) {
	_, err := NewNStep(0, &saver{}, Fixed("a"))
	assert.Error(t, err)
	_, err = NewNStep(1, nil, Fixed("a"))
	assert.Error(t, err)

	failing := &saver{err: errors.New("read-only file system")}
	c, err := NewNStep(1, failing, Fixed("a"))
	require.NoError(t, err)
	assert.ErrorIs(t, c.Checkpoint(5), failing.err)
	assert.Equal(t, []string{"a"}, failing.paths)
}
