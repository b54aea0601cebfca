// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gorgonia.org/tensor"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep of a frame pipeline.
//
// Reward is the raw, un-clipped reward accumulated over every emulator
// tick executed for the step. A TimeStep of type Last marks an episode
// boundary for training. Whether that boundary is a true game over or
// a synthetic life-loss boundary is reported by WasRealDone.
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Observation *tensor.Dense
	Number      int

	// Lives is the emulator's lives counter after the step
	Lives int

	// WasRealDone is true only when the emulator itself reported the
	// end of the game on this step. On a First step it reports a game
	// that ended while the environment was being reset.
	WasRealDone bool
}

// New returns a new TimeStep
func New(t StepType, r float64, o *tensor.Dense, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Observation: o, Number: n}
}

// First returns whether a TimeStep is the first in an episode
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an episode
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Lives: %v  |  " +
		"Real Done: %v  |  Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Lives, t.WasRealDone,
		t.Number)
}
