package wrappers

import (
	"fmt"

	"github.com/grandpahao/oh-my-q-learning/environment"
)

// FireReset starts games which stay frozen until the player fires. On
// every reset it takes action 1 (FIRE) and then action 2.
type FireReset struct{}

// NewFireReset returns a new FireReset stage. Action 1 must be FIRE and
// at least three actions must exist.
func NewFireReset(caps environment.Capabilities) (*FireReset, error) {
	if caps.Meaning(1) != environment.Fire {
		return nil, &environment.ConfigurationError{
			Op: "newFireReset",
			Err: fmt.Errorf("action 1 must be %v, got %q", environment.Fire,
				caps.Meaning(1)),
		}
	}
	if caps.ActionCount() < 3 {
		return nil, &environment.ConfigurationError{
			Op: "newFireReset",
			Err: fmt.Errorf("at least 3 actions required, got %v",
				caps.ActionCount()),
		}
	}
	return &FireReset{}, nil
}

// Reset resets the lower stages and fires. The lower stages are reset
// again after either action if it ends the episode.
func (f *FireReset) Reset(lower Lower) (environment.Tick, error) {
	tick, err := lower.Reset()
	if err != nil {
		return environment.Tick{}, err
	}
	gameOver := tick.GameOver

	for _, action := range []int{1, 2} {
		tick, err = lower.Step(action)
		if err != nil {
			return environment.Tick{}, err
		}

		if tick.Done {
			gameOver = gameOver || tick.GameOver
			tick, err = lower.Reset()
			if err != nil {
				return environment.Tick{}, err
			}
			gameOver = gameOver || tick.GameOver
		}
	}

	return resetTick(tick, gameOver), nil
}

// Step passes action through
func (f *FireReset) Step(action int, lower Lower) (environment.Tick,
	error) {
	return lower.Step(action)
}
