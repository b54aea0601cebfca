// Package scripted implements a deterministic emulator whose rewards and
// life losses follow a fixed script. Frames are rendered with gg so that
// consecutive ticks differ and odd ticks draw a flickering sprite, which
// makes the emulator useful to exercise frame pooling and worker
// protocols without an external emulator binding.
package scripted

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/grandpahao/oh-my-q-learning/environment"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"
)

const (
	// ScreenHeight and ScreenWidth are the dimensions of an Atari screen
	ScreenHeight = 210
	ScreenWidth  = 160
	channels     = 3
)

// Event is the outcome of a single emulator tick
type Event struct {
	Reward   float64
	LifeLost bool
}

// Emulator is a deterministic environment.Emulator. Each call to Step
// consumes the next Event of the script; once the script is exhausted
// every tick yields zero reward. A Reset restores the lives counter but
// does not rewind the script, so that successive episodes see
// successive parts of it. The game is over when the lives counter
// reaches 0.
type Emulator struct {
	script     []Event
	next       int
	startLives int
	lives      int
	actions    int

	height, width int

	// tick counts ticks since the last reset and drives rendering
	tick     int
	gameOver bool
	started  bool
	closed   bool

	// Resets counts the number of base resets performed
	Resets int
}

// New returns a new scripted Emulator with the given number of lives
// and legal actions, rendering frames of the given size. A size of 0
// uses the Atari screen size.
func New(script []Event, lives, actions, height, width int) (*Emulator,
	error) {
	if lives < 1 {
		return nil, fmt.Errorf("new: lives must be positive, got %v", lives)
	}
	if actions < 1 {
		return nil, fmt.Errorf("new: actions must be positive, got %v",
			actions)
	}
	if height <= 0 {
		height = ScreenHeight
	}
	if width <= 0 {
		width = ScreenWidth
	}

	s := make([]Event, len(script))
	copy(s, script)

	return &Emulator{
		script:     s,
		startLives: lives,
		lives:      lives,
		actions:    actions,
		height:     height,
		width:      width,
	}, nil
}

// Random returns an Emulator whose script of the given length is drawn
// from a seeded source: each tick scores with probability pReward and
// loses a life with probability pLifeLost.
func Random(seed uint64, length, lives, actions int, pReward,
	pLifeLost float64) (*Emulator, error) {
	src := rand.NewSource(seed)
	scores := distuv.Bernoulli{P: pReward, Src: src}
	deaths := distuv.Bernoulli{P: pLifeLost, Src: src}

	script := make([]Event, length)
	for i := range script {
		script[i].Reward = scores.Rand()
		script[i].LifeLost = deaths.Rand() == 1.0
	}
	return New(script, lives, actions, 0, 0)
}

// Reset starts a new game
func (e *Emulator) Reset() (environment.Tick, error) {
	if e.closed {
		return environment.Tick{}, fmt.Errorf("reset: emulator closed")
	}

	e.Resets++
	e.lives = e.startLives
	e.tick = 0
	e.gameOver = false
	e.started = true

	return environment.Tick{Frame: e.render(), Lives: e.lives}, nil
}

// Step advances the emulator by one tick
func (e *Emulator) Step(action int) (environment.Tick, error) {
	switch {
	case e.closed:
		return environment.Tick{}, fmt.Errorf("step: emulator closed")
	case !e.started:
		return environment.Tick{}, fmt.Errorf("step: emulator not reset")
	case e.gameOver:
		return environment.Tick{}, fmt.Errorf("step: game is over")
	case action < 0 || action >= e.actions:
		return environment.Tick{}, fmt.Errorf("step: illegal action %v",
			action)
	}

	var event Event
	if e.next < len(e.script) {
		event = e.script[e.next]
		e.next++
	}

	e.tick++
	if event.LifeLost {
		e.lives--
	}
	e.gameOver = e.lives <= 0

	return environment.Tick{
		Frame:    e.render(),
		Reward:   event.Reward,
		Done:     e.gameOver,
		GameOver: e.gameOver,
		Lives:    e.lives,
	}, nil
}

// Consumed returns the number of script events consumed so far
func (e *Emulator) Consumed() int {
	return e.next
}

// Lives returns the current lives counter
func (e *Emulator) Lives() int {
	return e.lives
}

// ScreenShape returns the (H, W, C) shape of rendered frames
func (e *Emulator) ScreenShape() []int {
	return []int{e.height, e.width, channels}
}

// Close releases the emulator
func (e *Emulator) Close() error {
	if e.closed {
		return fmt.Errorf("close: emulator already closed")
	}
	e.closed = true
	return nil
}

// render draws the current tick. The background shade changes with the
// tick count and the lives counter, and the sprite is only drawn on odd
// ticks.
func (e *Emulator) render() *tensor.Dense {
	dc := gg.NewContext(e.width, e.height)

	shade := (e.tick * 17) % 200
	dc.SetRGB255(shade, 40+10*e.lives, 255-shade)
	dc.Clear()

	if e.tick%2 == 1 {
		size := float64(e.width) / 8
		x := float64((e.tick * 7) % e.width)
		dc.DrawRectangle(x, float64(e.height)/2, size, size)
		dc.SetRGB255(255, 255, 255)
		dc.Fill()
	}

	return toTensor(dc.Image())
}

// toTensor converts an image to an (H, W, 3) uint8 tensor
func toTensor(img image.Image) *tensor.Dense {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	backing := make([]uint8, h*w*channels)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (y*w + x) * channels
			backing[i] = uint8(r >> 8)
			backing[i+1] = uint8(g >> 8)
			backing[i+2] = uint8(b >> 8)
		}
	}

	return tensor.New(tensor.WithShape(h, w, channels),
		tensor.WithBacking(backing))
}
