// Package policy implements exploration policies over action values
package policy

import (
	"fmt"

	"github.com/grandpahao/oh-my-q-learning/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// EGreedy implements an ε-greedy policy whose ε is annealed linearly
// from an initial to a final value over a number of steps. Ties between
// greedy actions are broken uniformly at random.
type EGreedy struct {
	initial    float64
	final      float64
	decaySteps int
	actions    int
	seed       rand.Source // Seed for random number generation
}

// NewEGreedy constructs a new EGreedy policy over actions actions
func NewEGreedy(initial, final float64, decaySteps, actions int,
	seed uint64) (*EGreedy, error) {
	if initial < 0 || initial > 1 || final < 0 || final > 1 {
		return nil, fmt.Errorf("newEGreedy: ε must be in [0, 1]")
	}
	if decaySteps < 0 {
		return nil, fmt.Errorf("newEGreedy: decay steps must be >= 0")
	}
	if actions < 1 {
		return nil, fmt.Errorf("newEGreedy: actions must be >= 1")
	}

	return &EGreedy{
		initial:    initial,
		final:      final,
		decaySteps: decaySteps,
		actions:    actions,
		seed:       rand.NewSource(seed),
	}, nil
}

// Epsilon returns ε at the given global step
func (p *EGreedy) Epsilon(step int) float64 {
	if step >= p.decaySteps {
		return p.final
	}
	if step <= 0 {
		return p.initial
	}
	frac := float64(step) / float64(p.decaySteps)
	return p.initial + frac*(p.final-p.initial)
}

// Probabilities returns the probability of selecting each action given
// its action values at the given global step
func (p *EGreedy) Probabilities(values []float64, step int) ([]float64,
	error) {
	if len(values) != p.actions {
		return nil, fmt.Errorf("probabilities: expected %v action values, "+
			"got %v", p.actions, len(values))
	}

	epsilon := p.Epsilon(step)
	_, greedy := floatutils.MaxSlice(values)

	probs := make([]float64, p.actions)
	for i := range probs {
		probs[i] = epsilon / float64(p.actions)
	}
	for _, a := range greedy {
		probs[a] += (1.0 - epsilon) / float64(len(greedy))
	}
	return probs, nil
}

// SelectAction selects an action given its action values
func (p *EGreedy) SelectAction(values []float64, step int) (int, error) {
	probs, err := p.Probabilities(values, step)
	if err != nil {
		return 0, fmt.Errorf("selectAction: %w", err)
	}

	dist := distuv.NewCategorical(probs, p.seed)
	return int(dist.Rand()), nil
}
