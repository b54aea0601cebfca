package wrappers

import (
	"fmt"

	"github.com/grandpahao/oh-my-q-learning/environment"
	"gorgonia.org/tensor"
)

// FrameStack keeps the k most recent frames and returns them stacked
// along a new leading axis, oldest first
type FrameStack struct {
	k      int
	frames []*tensor.Dense
}

// NewFrameStack returns a new FrameStack of depth k
func NewFrameStack(k int) (*FrameStack, error) {
	if k < 1 {
		return nil, &environment.ConfigurationError{
			Op:  "newFrameStack",
			Err: fmt.Errorf("stack depth must be positive, got %v", k),
		}
	}
	return &FrameStack{k: k, frames: make([]*tensor.Dense, 0, k)}, nil
}

// Reset fills every slot of the stack with obs
func (f *FrameStack) Reset(obs *tensor.Dense) (*tensor.Dense, error) {
	f.frames = f.frames[:0]
	for i := 0; i < f.k; i++ {
		f.frames = append(f.frames, obs)
	}
	return f.Observation()
}

// Observe pushes obs, evicting the oldest frame
func (f *FrameStack) Observe(obs *tensor.Dense) (*tensor.Dense, error) {
	if len(f.frames) != f.k {
		return nil, fmt.Errorf("frameStack: observe before reset")
	}
	copy(f.frames, f.frames[1:])
	f.frames[f.k-1] = obs
	return f.Observation()
}

// Observation returns the stacked frames as a (k, ...) tensor
func (f *FrameStack) Observation() (*tensor.Dense, error) {
	if len(f.frames) != f.k {
		return nil, fmt.Errorf("frameStack: stack holds %v frames, want %v",
			len(f.frames), f.k)
	}

	stacked, err := f.frames[0].Stack(0, f.frames[1:]...)
	if err != nil {
		return nil, fmt.Errorf("frameStack: %w", err)
	}
	return stacked, nil
}

// Len returns the number of frames held
func (f *FrameStack) Len() int {
	return len(f.frames)
}

// ObservationSpec returns the Spec of stacked frames
func (f *FrameStack) ObservationSpec(in environment.Spec) environment.Spec {
	shape := append([]int{f.k}, in.Shape...)
	return environment.NewSpec(shape, in.Type, in.Dtype, in.LowerBound,
		in.UpperBound, in.Cardinality)
}
