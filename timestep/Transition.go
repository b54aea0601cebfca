package timestep

import "gorgonia.org/tensor"

// Transition is a single (S, A, R, S', done) experience tuple as it
// is stored in replay memory. Reward is the sign-clipped training
// reward.
type Transition struct {
	State     *tensor.Dense
	Action    int
	Reward    float64
	NextState *tensor.Dense
	Done      bool
}

// NewTransition returns a new Transition from the observation an action
// was taken in and the TimeStep that followed
func NewTransition(state *tensor.Dense, action int, reward float64,
	next TimeStep) Transition {
	return Transition{
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: next.Observation,
		Done:      next.Last(),
	}
}
