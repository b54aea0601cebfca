package transport

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipe(t *testing.T) {
	a, b := Pipe()

	msg := []byte("hello")
	require.NoError(t, a.Send(msg))
	msg[0] = 'j'

	got, err := b.Recv()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got, "Send must copy")

	require.NoError(t, b.Send([]byte("bye")))
	require.NoError(t, b.Close())

	got, err = a.Recv()
	require.NoError(t, err, "pending messages survive Close")
	assert.Equal(t, []byte("bye"), got)

	_, err = a.Recv()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, a.Send(msg), ErrClosed)
	assert.NoError(t, a.Close())
}

func TestProtocolViolation(t *testing.T) {
	err := fmt.Errorf("run: %w", &ProtocolViolation{
		Identity: "w-1",
		Op:       "step",
		Err:      fmt.Errorf("action 9 out of range [0, 4)"),
	})
	assert.True(t, IsProtocolViolation(err))
	assert.Contains(t, err.Error(), "protocol violation by w-1")

	wrapped := &ProtocolViolation{Op: "recv", Err: ErrMalformed}
	assert.ErrorIs(t, wrapped, ErrMalformed)
	assert.False(t, IsProtocolViolation(ErrMalformed))
}
