package controller

import (
	"testing"

	"github.com/grandpahao/oh-my-q-learning/environment"
	"github.com/grandpahao/oh-my-q-learning/environment/envconfig"
	"github.com/grandpahao/oh-my-q-learning/environment/scripted"
	"github.com/grandpahao/oh-my-q-learning/transport"
	"github.com/grandpahao/oh-my-q-learning/worker"
	"github.com/stretchr/testify/require"
)

// script loses a life every 30 ticks and scores every 7
func script(length int) []scripted.Event {
	events := make([]scripted.Event, length)
	for i := range events {
		if i%7 == 6 {
			events[i].Reward = 10
		}
		events[i].LifeLost = i%30 == 29
	}
	return events
}

// newPipeline returns the default pipeline over a small scripted
// emulator
func newPipeline(t *testing.T) worker.Environment {
	t.Helper()

	emu, err := scripted.New(script(4000), 2, 4, 42, 32)
	require.NoError(t, err)
	caps, err := environment.NewCapabilities(environment.Noop,
		environment.Fire, "RIGHT", "LEFT")
	require.NoError(t, err)

	cfg := envconfig.Default()
	cfg.NoopMax = 0
	pipeline, err := cfg.Create(emu, caps)
	require.NoError(t, err)

	return pipeline
}

// runWorker runs a Worker over a Pipe and returns the controller's
// Peer along with the result of Run
func runWorker(t *testing.T, identity string) (Peer, <-chan error) {
	t.Helper()

	controllerEnd, workerEnd := transport.Pipe()
	w := worker.New(identity, newPipeline(t), workerEnd, nil)

	done := make(chan error, 1)
	go func() { done <- w.Run() }()
	return Peer{Identity: identity, Channel: controllerEnd}, done
}

// fakePeer announces like a Worker and answers every command with reply
func fakePeer(t *testing.T, identity string, reply []byte) Peer {
	t.Helper()

	controllerEnd, workerEnd := transport.Pipe()
	announce, err := transport.EncodeAnnounce(transport.Announce{
		ActionCount: 4, Shape: []int{4, 84, 84}})
	require.NoError(t, err)

	go func() {
		if err := workerEnd.Send(announce); err != nil {
			return
		}
		for {
			if _, err := workerEnd.Recv(); err != nil {
				return
			}
			if err := workerEnd.Send(reply); err != nil {
				return
			}
		}
	}()
	return Peer{Identity: identity, Channel: controllerEnd}
}
