package wrappers

import (
	"fmt"

	"github.com/grandpahao/oh-my-q-learning/environment"
	"gorgonia.org/tensor"
)

// MaxAndSkip repeats each action for skip emulator ticks and returns
// the per-pixel maximum of the two most recent raw frames, removing
// the flicker of games which draw sprites on alternating frames.
//
// The two most recent frames are kept in a buffer owned by each
// MaxAndSkip value.
type MaxAndSkip struct {
	skip   int
	buffer [2]*tensor.Dense
	size   int
}

// NewMaxAndSkip returns a new MaxAndSkip stage
func NewMaxAndSkip(skip int) (*MaxAndSkip, error) {
	if skip < 1 {
		return nil, &environment.ConfigurationError{
			Op:  "newMaxAndSkip",
			Err: fmt.Errorf("skip must be positive, got %v", skip),
		}
	}
	return &MaxAndSkip{skip: skip}, nil
}

// Reset clears the frame buffer and seeds it with the first frame of
// the lower reset
func (m *MaxAndSkip) Reset(lower Lower) (environment.Tick, error) {
	m.clear()

	tick, err := lower.Reset()
	if err != nil {
		return environment.Tick{}, err
	}
	m.push(tick.Frame)
	return tick, nil
}

// Step repeats action up to skip times. Repetition stops as soon as a
// tick reports done, in which case reward and pooling only reflect the
// ticks actually executed.
func (m *MaxAndSkip) Step(action int, lower Lower) (environment.Tick,
	error) {
	var (
		tick   environment.Tick
		reward float64
		err    error
	)

	for i := 0; i < m.skip; i++ {
		tick, err = lower.Step(action)
		if err != nil {
			return environment.Tick{}, err
		}

		m.push(tick.Frame)
		reward += tick.Reward
		if tick.Done {
			break
		}
	}

	frame, err := m.pooled()
	if err != nil {
		return environment.Tick{}, fmt.Errorf("maxAndSkip: %w", err)
	}

	tick.Frame = frame
	tick.Reward = reward
	return tick, nil
}

func (m *MaxAndSkip) clear() {
	m.buffer[0], m.buffer[1] = nil, nil
	m.size = 0
}

// push adds frame as the most recent buffered frame
func (m *MaxAndSkip) push(frame *tensor.Dense) {
	m.buffer[0], m.buffer[1] = m.buffer[1], frame
	if m.size < len(m.buffer) {
		m.size++
	}
}

// pooled returns the per-pixel maximum of the buffered frames
func (m *MaxAndSkip) pooled() (*tensor.Dense, error) {
	if m.size == 1 {
		return m.buffer[1], nil
	}
	return MaxFrames(m.buffer[0], m.buffer[1])
}

// MaxFrames returns the per-pixel maximum of two uint8 frames of equal
// shape
func MaxFrames(a, b *tensor.Dense) (*tensor.Dense, error) {
	if !a.Shape().Eq(b.Shape()) {
		return nil, fmt.Errorf("maxFrames: shape mismatch %v and %v",
			a.Shape(), b.Shape())
	}

	x, ok := a.Data().([]uint8)
	if !ok {
		return nil, fmt.Errorf("maxFrames: frames must be uint8, got %v",
			a.Dtype())
	}
	y, ok := b.Data().([]uint8)
	if !ok {
		return nil, fmt.Errorf("maxFrames: frames must be uint8, got %v",
			b.Dtype())
	}

	out := make([]uint8, len(x))
	for i := range x {
		out[i] = x[i]
		if y[i] > out[i] {
			out[i] = y[i]
		}
	}
	return tensor.New(tensor.WithShape(a.Shape().Clone()...),
		tensor.WithBacking(out)), nil
}
