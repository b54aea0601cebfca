// Package environment outlines the interfaces and structs shared by the
// emulator binding and the frame pipeline built on top of it
package environment

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Action meanings which the frame pipeline cares about
const (
	Noop = "NOOP"
	Fire = "FIRE"
)

// Tick is a single transition of an emulator or of a pipeline stage.
//
// Frame is the raw (H, W, C) uint8 screen after the transition. Lives is
// the emulator's lives counter after the transition. Done marks an
// episode boundary as seen by whoever produced the Tick, while GameOver
// is only ever set when the emulator itself reported the end of the
// game. On a Tick returned by Reset, GameOver reports a game that ended
// before the reset finished.
type Tick struct {
	Frame    *tensor.Dense
	Reward   float64
	Done     bool
	GameOver bool
	Lives    int
}

// Emulator is the narrow contract of an external emulator binding.
// Each call to Step advances the emulator by exactly one tick. An
// Emulator must return a fresh frame on every call.
type Emulator interface {
	Reset() (Tick, error)
	Step(action int) (Tick, error)

	// ScreenShape returns the shape of the raw frames, (H, W, C)
	ScreenShape() []int
	Close() error
}

// Capabilities describes the action set of an emulator. It is supplied
// once by the emulator binding when a pipeline is constructed, in place
// of introspecting the binding's action table at runtime.
type Capabilities struct {
	meanings []string
}

// NewCapabilities returns the Capabilities of an action set whose action
// i has meaning meanings[i]
func NewCapabilities(meanings ...string) (Capabilities, error) {
	if len(meanings) == 0 {
		return Capabilities{}, &ConfigurationError{
			Op:  "newCapabilities",
			Err: fmt.Errorf("action set is empty"),
		}
	}

	m := make([]string, len(meanings))
	copy(m, meanings)
	return Capabilities{m}, nil
}

// ActionCount returns the number of legal actions
func (c Capabilities) ActionCount() int {
	return len(c.meanings)
}

// Meaning returns the meaning of action i, or the empty string if there
// is no such action
func (c Capabilities) Meaning(i int) string {
	if i < 0 || i >= len(c.meanings) {
		return ""
	}
	return c.meanings[i]
}

// RequiresFire returns whether the game must be started by firing
func (c Capabilities) RequiresFire() bool {
	for _, m := range c.meanings {
		if m == Fire {
			return true
		}
	}
	return false
}

// Meanings returns a copy of all action meanings
func (c Capabilities) Meanings() []string {
	m := make([]string, len(c.meanings))
	copy(m, c.meanings)
	return m
}
