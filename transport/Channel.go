// Package transport implements the lockstep message protocol spoken
// between a controller and the workers which own emulators, together
// with its wire encoding.
//
// A worker announces itself once, then answers exactly one reply per
// command it receives. Commands are reset, close or an integer action.
// Every message is MessagePack encoded, with tensors encoded as
// self-describing maps so that their shape and dtype round trip
// exactly.
package transport

import (
	"errors"
	"sync"
)

// ErrClosed is returned when using a closed Channel
var ErrClosed = errors.New("channel closed")

// Channel is a reliable, ordered and message-framed connection between
// a controller and a single worker
type Channel interface {
	Send(msg []byte) error
	Recv() ([]byte, error)
	Close() error
}

// pipe is one end of an in-memory Channel
type pipe struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once *sync.Once
}

// Pipe returns the two ends of an in-memory Channel. Closing either end
// closes the Channel for both. Messages already sent can still be
// received after the Channel is closed.
func Pipe() (Channel, Channel) {
	a := make(chan []byte, 1)
	b := make(chan []byte, 1)
	done := make(chan struct{})
	once := &sync.Once{}

	return &pipe{in: a, out: b, done: done, once: once},
		&pipe{in: b, out: a, done: done, once: once}
}

func (p *pipe) Send(msg []byte) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	m := make([]byte, len(msg))
	copy(m, msg)

	select {
	case p.out <- m:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

func (p *pipe) Recv() ([]byte, error) {
	select {
	case m := <-p.in:
		return m, nil
	case <-p.done:
		select {
		case m := <-p.in:
			return m, nil
		default:
			return nil, ErrClosed
		}
	}
}

func (p *pipe) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
