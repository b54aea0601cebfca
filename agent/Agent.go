// Package agent defines the estimator interface the collection loop
// learns through
package agent

import (
	"github.com/grandpahao/oh-my-q-learning/expreplay"
	"gorgonia.org/tensor"
)

// Estimator approximates action values. The collection loop only ever
// talks to an Estimator through this interface: how values are
// represented and learned is up to the implementation.
type Estimator interface {
	// Predict returns the action values of each state
	Predict(states []*tensor.Dense) ([][]float64, error)

	// Update performs a single update on a batch of transitions and
	// returns the global step after the update along with any metrics
	// the update produced
	Update(batch expreplay.Batch) (int, map[string]float64, error)

	// TargetUpdate synchronizes the target values with the current ones
	TargetUpdate() error

	Save(path string) error
	Restore(path string) error
	GlobalStep() int
}
