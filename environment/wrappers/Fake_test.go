package wrappers

import (
	"fmt"

	"github.com/grandpahao/oh-my-q-learning/environment"
	"gorgonia.org/tensor"
)

// fakeTick scripts a single emulator tick
type fakeTick struct {
	value  uint8
	reward float64
	lives  int
	done   bool
}

// fakeEmulator replays scripted ticks on (2, 2, 1) frames. Ticks past the
// end of the script keep the lives counter and yield zero reward.
type fakeEmulator struct {
	startLives int
	ticks      []fakeTick
	next       int
	lives      int

	resets  int
	actions []int
	closed  bool
}

func newFakeEmulator(lives int, ticks ...fakeTick) *fakeEmulator {
	return &fakeEmulator{startLives: lives, lives: lives, ticks: ticks}
}

func (f *fakeEmulator) Reset() (environment.Tick, error) {
	f.resets++
	f.lives = f.startLives
	return environment.Tick{Frame: frame(200), Lives: f.lives}, nil
}

func (f *fakeEmulator) Step(action int) (environment.Tick, error) {
	f.actions = append(f.actions, action)
	if f.next >= len(f.ticks) {
		return environment.Tick{Frame: frame(0), Lives: f.lives}, nil
	}

	t := f.ticks[f.next]
	f.next++
	f.lives = t.lives
	return environment.Tick{
		Frame:    frame(t.value),
		Reward:   t.reward,
		Done:     t.done,
		GameOver: t.done,
		Lives:    t.lives,
	}, nil
}

func (f *fakeEmulator) ScreenShape() []int { return []int{2, 2, 1} }

func (f *fakeEmulator) Close() error {
	if f.closed {
		return fmt.Errorf("close: already closed")
	}
	f.closed = true
	return nil
}

// frame returns a (2, 2, 1) frame whose pixels vary in opposite
// directions with v, so that pooling two frames mixes both
func frame(v uint8) *tensor.Dense {
	return tensor.New(tensor.WithShape(2, 2, 1),
		tensor.WithBacking([]uint8{v, 255 - v, v / 2, 100}))
}

func caps(meanings ...string) environment.Capabilities {
	c, err := environment.NewCapabilities(meanings...)
	if err != nil {
		panic(err)
	}
	return c
}
