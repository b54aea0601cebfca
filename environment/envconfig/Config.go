// Package envconfig provides configuration structs for building Atari
// frame pipelines with the default preprocessing parameters.
// Configurations in this package are YAML and JSON serializable.
package envconfig

import (
	"fmt"

	env "github.com/grandpahao/oh-my-q-learning/environment"
	"github.com/grandpahao/oh-my-q-learning/environment/wrappers"
	"gorgonia.org/tensor"
)

// FrameDtype names the element type of warped frames
type FrameDtype string

// Frame dtypes available for configuration
const (
	Uint8   FrameDtype = "uint8"
	Float32 FrameDtype = "float32"
)

// Dtype returns the tensor dtype named by f
func (f FrameDtype) Dtype() (tensor.Dtype, error) {
	switch f {
	case Uint8, "":
		return tensor.Uint8, nil
	case Float32:
		return tensor.Float32, nil
	}
	return tensor.Dtype{}, fmt.Errorf("dtype: no such frame dtype %q", f)
}

// Config implements a specific configuration of the Atari frame
// pipeline.
//
// Skip is the number of emulator ticks per agent action, Stack the
// number of stacked frames per observation and NoopMax the maximum
// number of random no-ops after a true reset. A NoopMax of 0 disables
// random no-ops. FireReset is installed whenever the emulator's action
// set contains FIRE.
type Config struct {
	Skip         int        `yaml:"skip" json:"skip"`
	Stack        int        `yaml:"stack" json:"stack"`
	NoopMax      int        `yaml:"noop_max" json:"noop_max"`
	EpisodicLife bool       `yaml:"episodic_life" json:"episodic_life"`
	Normalize    bool       `yaml:"normalize" json:"normalize"`
	FrameDtype   FrameDtype `yaml:"frame_dtype" json:"frame_dtype"`
	Seed         uint64     `yaml:"seed" json:"seed"`
}

// Default returns the Config used to train on Atari games
func Default() Config {
	return Config{
		Skip:         4,
		Stack:        4,
		NoopMax:      30,
		EpisodicLife: true,
		FrameDtype:   Uint8,
	}
}

// Create returns the pipeline described by the Config over the given
// emulator. Control stages are, from the outside in: FireReset,
// EpisodicLife, MaxAndSkip and NoopReset. Observation stages are Warp,
// FrameStack and Normalize.
func (c Config) Create(emulator env.Emulator,
	caps env.Capabilities) (*wrappers.Pipeline, error) {
	var control []wrappers.Stage

	if caps.RequiresFire() {
		fire, err := wrappers.NewFireReset(caps)
		if err != nil {
			return nil, fmt.Errorf("create: %w", err)
		}
		control = append(control, fire)
	}

	if c.EpisodicLife {
		control = append(control, wrappers.NewEpisodicLife())
	}

	skip, err := wrappers.NewMaxAndSkip(c.Skip)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	control = append(control, skip)

	if c.NoopMax > 0 {
		noop, err := wrappers.NewNoopReset(caps, c.NoopMax, c.Seed)
		if err != nil {
			return nil, fmt.Errorf("create: %w", err)
		}
		control = append(control, noop)
	}

	dtype, err := c.FrameDtype.Dtype()
	if err != nil {
		return nil, &env.ConfigurationError{Op: "create", Err: err}
	}
	warp, err := wrappers.NewWarp(dtype)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	stack, err := wrappers.NewFrameStack(c.Stack)
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	observation := []wrappers.ObservationStage{warp, stack}

	if c.Normalize {
		observation = append(observation, wrappers.NewNormalize())
	}

	return wrappers.NewPipeline(emulator, caps, control, observation)
}
