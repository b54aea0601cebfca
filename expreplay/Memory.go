// Package expreplay implements the replay memory that transitions
// collected from workers are stored in and sampled from
package expreplay

import (
	"fmt"
	"sync"

	ts "github.com/grandpahao/oh-my-q-learning/timestep"
	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"
)

// Config implements a specific configuration of a Memory
type Config struct {
	Capacity    int    `yaml:"capacity"`
	MinCapacity int    `yaml:"min_capacity"`
	Seed        uint64 `yaml:"seed"`
}

// Create returns the Memory described by the Config
func (c Config) Create() (*Memory, error) {
	return New(c.Capacity, c.MinCapacity, c.Seed)
}

// Batch is a batch of transitions. States and NextStates stack the
// observations of the batch along a new leading axis.
type Batch struct {
	States     *tensor.Dense
	Actions    []int
	Rewards    []float64
	NextStates *tensor.Dense
	Dones      []bool
}

// Len returns the number of transitions in the batch
func (b Batch) Len() int {
	return len(b.Actions)
}

// Memory is a ring buffer holding the most recent transitions, from
// which batches are sampled uniformly with replacement. Rewards are
// stored as given: they are expected to be sign-clipped already.
//
// A Memory is safe for concurrent use.
type Memory struct {
	mu          sync.Mutex
	transitions []ts.Transition
	next        int
	size        int
	minCapacity int
	shape       []int
	rng         *rand.Rand
}

// New returns a new Memory keeping at most capacity transitions. Sample
// fails until at least minCapacity transitions have been added.
func New(capacity, minCapacity int, seed uint64) (*Memory, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1")
	}
	if minCapacity < 1 {
		minCapacity = 1
	}
	if minCapacity > capacity {
		return nil, fmt.Errorf("new: min capacity (%v) cannot exceed "+
			"capacity (%v)", minCapacity, capacity)
	}

	return &Memory{
		transitions: make([]ts.Transition, capacity),
		minCapacity: minCapacity,
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// Add adds a transition, evicting the oldest one if the memory is full
func (m *Memory) Add(t ts.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(t)
}

// Extend adds transitions in order
func (m *Memory) Extend(transitions []ts.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range transitions {
		if err := m.add(t); err != nil {
			return fmt.Errorf("extend: %w", err)
		}
	}
	return nil
}

func (m *Memory) add(t ts.Transition) error {
	if t.State == nil || t.NextState == nil {
		return &ExpReplayError{Op: "add", Err: fmt.Errorf("nil observation")}
	}
	if !t.State.Shape().Eq(t.NextState.Shape()) {
		return &ExpReplayError{Op: "add", Err: fmt.Errorf("state shape %v "+
			"differs from next state shape %v", t.State.Shape(),
			t.NextState.Shape())}
	}
	if m.shape == nil {
		m.shape = t.State.Shape().Clone()
	} else if !t.State.Shape().Eq(m.shape) {
		return &ExpReplayError{Op: "add", Err: fmt.Errorf("invalid state "+
			"shape \n\twant(%v)\n\thave(%v)", m.shape, t.State.Shape())}
	}

	m.transitions[m.next] = t
	m.next = (m.next + 1) % len(m.transitions)
	if m.size < len(m.transitions) {
		m.size++
	}
	return nil
}

// Sample samples batchSize transitions uniformly with replacement
func (m *Memory) Sample(batchSize int) (Batch, error) {
	if batchSize < 1 {
		return Batch{}, &ExpReplayError{Op: "sample",
			Err: fmt.Errorf("batch size must be >= 1")}
	}

	m.mu.Lock()
	if m.size == 0 {
		m.mu.Unlock()
		return Batch{}, &ExpReplayError{Op: "sample", Err: errEmptyMemory}
	}
	if m.size < m.minCapacity {
		m.mu.Unlock()
		return Batch{}, &ExpReplayError{Op: "sample",
			Err: errInsufficientSamples}
	}

	chosen := make([]ts.Transition, batchSize)
	for i := range chosen {
		chosen[i] = m.transitions[m.rng.Intn(m.size)]
	}
	m.mu.Unlock()

	batch := Batch{
		Actions: make([]int, batchSize),
		Rewards: make([]float64, batchSize),
		Dones:   make([]bool, batchSize),
	}
	states := make([]*tensor.Dense, batchSize)
	nextStates := make([]*tensor.Dense, batchSize)
	for i, t := range chosen {
		states[i], nextStates[i] = t.State, t.NextState
		batch.Actions[i] = t.Action
		batch.Rewards[i] = t.Reward
		batch.Dones[i] = t.Done
	}

	var err error
	if batch.States, err = states[0].Stack(0, states[1:]...); err != nil {
		return Batch{}, &ExpReplayError{Op: "sample", Err: err}
	}
	if batch.NextStates, err = nextStates[0].Stack(0,
		nextStates[1:]...); err != nil {
		return Batch{}, &ExpReplayError{Op: "sample", Err: err}
	}
	return batch, nil
}

// Len returns the number of transitions held
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Capacity returns the maximum number of transitions held
func (m *Memory) Capacity() int {
	return len(m.transitions)
}

// MinCapacity returns the number of transitions required before
// sampling
func (m *Memory) MinCapacity() int {
	return m.minCapacity
}
