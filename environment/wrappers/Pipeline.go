package wrappers

import (
	"fmt"

	"github.com/grandpahao/oh-my-q-learning/environment"
	"github.com/grandpahao/oh-my-q-learning/timestep"
	"gorgonia.org/tensor"
)

// Pipeline drives an ordered list of control stages over an Emulator,
// followed by an ordered list of observation stages. Control stages
// are listed outermost first: stage i sees stages i+1... and finally
// the Emulator as its Lower.
type Pipeline struct {
	emulator    environment.Emulator
	caps        environment.Capabilities
	control     []Stage
	observation []ObservationStage

	number  int
	started bool
	closed  bool
}

// NewPipeline returns a new Pipeline
func NewPipeline(emulator environment.Emulator, caps environment.Capabilities,
	control []Stage, observation []ObservationStage) (*Pipeline, error) {
	if emulator == nil {
		return nil, &environment.ConfigurationError{
			Op:  "newPipeline",
			Err: fmt.Errorf("emulator is nil"),
		}
	}
	if caps.ActionCount() == 0 {
		return nil, &environment.ConfigurationError{
			Op:  "newPipeline",
			Err: fmt.Errorf("capabilities describe no actions"),
		}
	}

	c := make([]Stage, len(control))
	copy(c, control)
	o := make([]ObservationStage, len(observation))
	copy(o, observation)

	return &Pipeline{
		emulator:    emulator,
		caps:        caps,
		control:     c,
		observation: o,
	}, nil
}

// Reset starts a new episode and returns its first TimeStep. The
// TimeStep reports WasRealDone when the game ended during the reset.
func (p *Pipeline) Reset() (timestep.TimeStep, error) {
	if p.closed {
		return timestep.TimeStep{}, fmt.Errorf("reset: pipeline closed")
	}

	tick, err := p.lower(0).Reset()
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	obs := tick.Frame
	for _, stage := range p.observation {
		obs, err = stage.Reset(obs)
		if err != nil {
			return timestep.TimeStep{}, fmt.Errorf("reset: %w", err)
		}
	}

	p.number = 0
	p.started = true

	step := timestep.New(timestep.First, 0, obs, p.number)
	step.Lives = tick.Lives
	step.WasRealDone = tick.GameOver
	return step, nil
}

// Step takes one agent action. The returned TimeStep carries the raw
// reward accumulated over every emulator tick the action took.
func (p *Pipeline) Step(action int) (timestep.TimeStep, error) {
	switch {
	case p.closed:
		return timestep.TimeStep{}, fmt.Errorf("step: pipeline closed")
	case !p.started:
		return timestep.TimeStep{}, fmt.Errorf("step: pipeline not reset")
	case action < 0 || action >= p.caps.ActionCount():
		return timestep.TimeStep{}, fmt.Errorf("step: action %v out of "+
			"range [0, %v)", action, p.caps.ActionCount())
	}

	tick, err := p.lower(0).Step(action)
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("step: %w", err)
	}

	obs := tick.Frame
	for _, stage := range p.observation {
		obs, err = stage.Observe(obs)
		if err != nil {
			return timestep.TimeStep{}, fmt.Errorf("step: %w", err)
		}
	}

	p.number++
	stepType := timestep.Mid
	if tick.Done {
		stepType = timestep.Last
	}

	step := timestep.New(stepType, tick.Reward, obs, p.number)
	step.Lives = tick.Lives
	step.WasRealDone = tick.GameOver
	return step, nil
}

// ActionCount returns the number of legal actions
func (p *Pipeline) ActionCount() int {
	return p.caps.ActionCount()
}

// Capabilities returns the action set of the Pipeline's emulator
func (p *Pipeline) Capabilities() environment.Capabilities {
	return p.caps
}

// ObservationSpec returns the Spec of the observations returned by
// Reset and Step
func (p *Pipeline) ObservationSpec() environment.Spec {
	spec := environment.NewSpec(p.emulator.ScreenShape(),
		environment.Observation, tensor.Uint8, 0, 255,
		environment.Continuous)

	for _, stage := range p.observation {
		spec = stage.ObservationSpec(spec)
	}
	return spec
}

// Close releases the emulator. A closed Pipeline cannot be used again.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.emulator.Close()
}

func (p *Pipeline) lower(depth int) Lower {
	return layer{p, depth}
}

// layer binds a position in the control stage list to the Lower
// interface
type layer struct {
	p     *Pipeline
	depth int
}

func (l layer) Reset() (environment.Tick, error) {
	if l.depth == len(l.p.control) {
		return l.p.emulator.Reset()
	}
	return l.p.control[l.depth].Reset(l.p.lower(l.depth + 1))
}

func (l layer) Step(action int) (environment.Tick, error) {
	if l.depth == len(l.p.control) {
		return l.p.emulator.Step(action)
	}
	return l.p.control[l.depth].Step(action, l.p.lower(l.depth+1))
}
