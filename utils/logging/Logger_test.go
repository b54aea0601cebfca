package logging

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStdFormatsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStd(log.New(&buf, "", 0), false)

	logger.Info("worker_ready", "identity", "w-1", "actions", 4)
	logger.Debug("dropped")
	logger.Warn("odd", "key")

	out := buf.String()
	assert.Contains(t, out, "[INFO] worker_ready identity=w-1 actions=4")
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "[WARN] odd key=?")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Error("protocol_violation", "identity", "w-2", "action", 9)

	assert.True(t, r.Has("ERROR", "protocol_violation"))
	assert.False(t, r.Has("INFO", "protocol_violation"))

	calls := r.Calls()
	assert.Len(t, calls, 1)
	assert.Equal(t, "w-2", calls[0].Fields["identity"])
	assert.Equal(t, 9, calls[0].Fields["action"])
}
