package timestep

import (
	"testing"

	"gorgonia.org/tensor"
)

func TestStepType(t *testing.T) {
	obs := tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]uint8{1, 2, 3, 4}))

	step := New(First, 0, obs, 0)
	if !step.First() || step.Mid() || step.Last() {
		t.Errorf("expected first step, got %v", step.StepType)
	}

	step.StepType = Last
	if !step.Last() {
		t.Errorf("expected last step, got %v", step.StepType)
	}

	if Mid.String() != "Mid" || Last.String() != "Last" {
		t.Error("unexpected step type names")
	}
}

func TestNewTransition(t *testing.T) {
	state := tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]uint8{1, 2, 3, 4}))
	next := tensor.New(tensor.WithShape(2, 2), tensor.WithBacking([]uint8{5, 6, 7, 8}))

	step := New(Last, 3.0, next, 7)
	tr := NewTransition(state, 2, 1.0, step)

	if tr.State != state || tr.NextState != next {
		t.Error("transition should reference the given observations")
	}
	if tr.Action != 2 || tr.Reward != 1.0 || !tr.Done {
		t.Errorf("unexpected transition %+v", tr)
	}
}
