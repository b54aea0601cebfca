// Package wrappers implements the stages of the Atari frame pipeline.
//
// Control stages (MaxAndSkip, EpisodicLife, NoopReset, FireReset) shape
// the episode structure: they decide how many emulator ticks an action
// takes, where episodes begin and where they end. Observation stages
// (Warp, FrameStack, Normalize) transform the frames those ticks
// produce. A Pipeline drives both lists in order.
package wrappers

import (
	"github.com/grandpahao/oh-my-q-learning/environment"
	"gorgonia.org/tensor"
)

// Lower is the part of a Pipeline below a control stage. Calling it
// runs every remaining stage down to the emulator.
type Lower interface {
	Reset() (environment.Tick, error)
	Step(action int) (environment.Tick, error)
}

// Stage is a control stage of a Pipeline. A Stage owns its own state
// and must never share it with another Stage or Pipeline.
type Stage interface {
	Reset(lower Lower) (environment.Tick, error)
	Step(action int, lower Lower) (environment.Tick, error)
}

// ObservationStage transforms the frame produced by the control stages
// of a Pipeline into the observation handed to an agent
type ObservationStage interface {
	// Reset is called with the first frame of an episode
	Reset(obs *tensor.Dense) (*tensor.Dense, error)

	// Observe is called with every other frame
	Observe(obs *tensor.Dense) (*tensor.Dense, error)

	// ObservationSpec returns the Spec of the observations produced
	// from inputs described by in
	ObservationSpec(in environment.Spec) environment.Spec
}
