package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grandpahao/oh-my-q-learning/environment/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWorkerKeepsDefaults(t *testing.T) {
	path := write(t, `
controller: ws://learner:9100/workers
pipeline:
  noop_max: 10
emulator:
  lives: 3
`)
	w, err := LoadWorker(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://learner:9100/workers", w.Controller)
	assert.Equal(t, 10, w.Pipeline.NoopMax)
	assert.Equal(t, 4, w.Pipeline.Skip)
	assert.Equal(t, envconfig.Uint8, w.Pipeline.FrameDtype)
	assert.Equal(t, 3, w.Emulator.Lives)
	assert.Len(t, w.Emulator.Actions, 4)
	assert.NoError(t, w.Validate())
}

func TestWorkerEnvOverrides(t *testing.T) {
	t.Setenv("OHMYQ_IDENTITY", "worker-7")
	t.Setenv("OHMYQ_SEED", "42")
	t.Setenv("OHMYQ_CONTROLLER", "")

	w := DefaultWorker()
	w.ApplyEnv()
	assert.Equal(t, "worker-7", w.Identity)
	assert.Equal(t, uint64(42), w.Emulator.Seed)
	assert.Equal(t, uint64(42), w.Pipeline.Seed)
	assert.Equal(t, DefaultWorker().Controller, w.Controller)
}

func TestWorkerEmulator(t *testing.T) {
	w := DefaultWorker()
	w.Emulator.ScriptLength = 16

	emu, caps, err := w.Emulator.Create()
	require.NoError(t, err)
	assert.True(t, caps.RequiresFire())
	assert.Equal(t, []int{210, 160, 3}, emu.ScreenShape())

	w.Emulator.Actions = nil
	_, _, err = w.Emulator.Create()
	assert.Error(t, err)
	assert.Error(t, w.Validate())
}

func TestLoadController(t *testing.T) {
	path := write(t, `
workers: 2
memory:
  capacity: 500
schedule:
  batch_size: 16
  learning_starts: 50
`)
	c, err := LoadController(path)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, 500, c.Memory.Capacity)
	assert.Equal(t, 16, c.Schedule.BatchSize)
	assert.Equal(t, 50, c.Schedule.LearningStarts)
	assert.Equal(t, 1000, c.Schedule.SummaryEvery)
	assert.NoError(t, c.Validate())

	t.Setenv("OHMYQ_WORKERS", "12")
	c.ApplyEnv()
	assert.Equal(t, 12, c.Workers)

	c.Memory.Capacity = 8
	assert.Error(t, c.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadController(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadWorker(write(t, "pipeline: [1, 2"))
	assert.Error(t, err)
}
