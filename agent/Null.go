package agent

import (
	"encoding/gob"
	"fmt"
	"os"
	"sync"

	"github.com/grandpahao/oh-my-q-learning/expreplay"
	"gorgonia.org/tensor"
)

// Null is an Estimator which values every action at zero and learns
// nothing. Under an ε-greedy policy it selects actions uniformly at
// random, which makes it the estimator of choice for warming up a
// replay memory or for exercising the collection infrastructure.
type Null struct {
	mu            sync.Mutex
	actions       int
	globalStep    int
	targetUpdates int
}

// NewNull returns a new Null estimator over actions actions
func NewNull(actions int) (*Null, error) {
	if actions < 1 {
		return nil, fmt.Errorf("newNull: actions must be >= 1")
	}
	return &Null{actions: actions}, nil
}

// Predict returns zero action values for each state
func (n *Null) Predict(states []*tensor.Dense) ([][]float64, error) {
	values := make([][]float64, len(states))
	for i, s := range states {
		if s == nil {
			return nil, fmt.Errorf("predict: state %v is nil", i)
		}
		values[i] = make([]float64, n.actions)
	}
	return values, nil
}

// Update counts the update and reports the mean reward of the batch
func (n *Null) Update(batch expreplay.Batch) (int, map[string]float64,
	error) {
	if batch.Len() == 0 {
		return 0, nil, fmt.Errorf("update: empty batch")
	}

	var sum float64
	for _, r := range batch.Rewards {
		sum += r
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.globalStep++
	return n.globalStep, map[string]float64{
		"batch_reward": sum / float64(batch.Len()),
	}, nil
}

// TargetUpdate counts the target update
func (n *Null) TargetUpdate() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targetUpdates++
	return nil
}

// TargetUpdates returns the number of target updates performed
func (n *Null) TargetUpdates() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.targetUpdates
}

// GlobalStep returns the number of updates performed
func (n *Null) GlobalStep() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.globalStep
}

type nullState struct {
	Actions, GlobalStep, TargetUpdates int
}

// Save saves the estimator's counters to a binary file
func (n *Null) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create file: %w", err)
	}
	defer file.Close()

	n.mu.Lock()
	state := nullState{n.actions, n.globalStep, n.targetUpdates}
	n.mu.Unlock()

	if err := gob.NewEncoder(file).Encode(state); err != nil {
		return fmt.Errorf("save: could not encode: %w", err)
	}
	return nil
}

// Restore restores the estimator's counters from a file written by Save
func (n *Null) Restore(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("restore: could not open file: %w", err)
	}
	defer file.Close()

	var state nullState
	if err := gob.NewDecoder(file).Decode(&state); err != nil {
		return fmt.Errorf("restore: could not decode: %w", err)
	}
	if state.Actions != n.actions {
		return fmt.Errorf("restore: saved estimator has %v actions, have %v",
			state.Actions, n.actions)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.globalStep, n.targetUpdates = state.GlobalStep, state.TargetUpdates
	return nil
}
