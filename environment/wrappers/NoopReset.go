package wrappers

import (
	"fmt"

	"github.com/grandpahao/oh-my-q-learning/environment"
	"golang.org/x/exp/rand"
)

// NoopReset samples initial states by taking a random number of no-op
// actions after each lower reset. Action 0 must be the no-op.
type NoopReset struct {
	noopMax int
	rng     *rand.Rand
}

// NewNoopReset returns a new NoopReset stage taking between 1 and
// noopMax no-ops on reset
func NewNoopReset(caps environment.Capabilities, noopMax int,
	seed uint64) (*NoopReset, error) {
	if noopMax < 1 {
		return nil, &environment.ConfigurationError{
			Op:  "newNoopReset",
			Err: fmt.Errorf("noop max must be positive, got %v", noopMax),
		}
	}
	if caps.Meaning(0) != environment.Noop {
		return nil, &environment.ConfigurationError{
			Op: "newNoopReset",
			Err: fmt.Errorf("action 0 must be %v, got %q", environment.Noop,
				caps.Meaning(0)),
		}
	}

	return &NoopReset{
		noopMax: noopMax,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Reset resets the lower stages and takes n ~ U[1, noopMax] no-ops. A
// no-op which ends the game or loses a life is followed by a fresh
// lower reset, and the count continues from there.
func (n *NoopReset) Reset(lower Lower) (environment.Tick, error) {
	tick, err := lower.Reset()
	if err != nil {
		return environment.Tick{}, err
	}

	noops := 1 + n.rng.Intn(n.noopMax)
	for i := 0; i < noops; i++ {
		lives := tick.Lives
		tick, err = lower.Step(0)
		if err != nil {
			return environment.Tick{}, err
		}

		if tick.Done || tick.Lives < lives {
			tick, err = lower.Reset()
			if err != nil {
				return environment.Tick{}, err
			}
		}
	}

	return resetTick(tick, false), nil
}

// Step passes action through
func (n *NoopReset) Step(action int, lower Lower) (environment.Tick,
	error) {
	return lower.Step(action)
}
