package wrappers

import (
	"github.com/grandpahao/oh-my-q-learning/environment"
)

// LifeState is the state of an EpisodicLife stage
type LifeState int

const (
	Playing LifeState = iota
	LifeLost
	TrueGameOver
)

func (l LifeState) String() string {
	switch l {
	case LifeLost:
		return "LifeLost"
	case TrueGameOver:
		return "TrueGameOver"
	default:
		return "Playing"
	}
}

// EpisodicLife turns the loss of a life into an episode boundary while
// only resetting the emulator on a true game over. Downstream stages
// tell the two kinds of boundaries apart with WasRealDone, or with the
// GameOver field of the Tick.
type EpisodicLife struct {
	lives       int
	wasRealDone bool
	state       LifeState
}

// NewEpisodicLife returns a new EpisodicLife stage. A new stage behaves
// as if the game had just ended, so that its first Reset is a full
// reset.
func NewEpisodicLife() *EpisodicLife {
	return &EpisodicLife{wasRealDone: true, state: TrueGameOver}
}

// Step takes one lower step and marks a life loss as done. The lives
// counter is updated after every step so that bonus lives are
// followed.
func (e *EpisodicLife) Step(action int, lower Lower) (environment.Tick,
	error) {
	tick, err := lower.Step(action)
	if err != nil {
		return environment.Tick{}, err
	}

	e.wasRealDone = tick.Done
	switch {
	case tick.Done:
		e.state = TrueGameOver

	// Some games linger at 0 lives for a few frames before reporting
	// the end of the game, so only positive counters are boundaries
	case tick.Lives < e.lives && tick.Lives > 0:
		tick.Done = true
		e.state = LifeLost

	default:
		e.state = Playing
	}
	e.lives = tick.Lives

	return tick, nil
}

// Reset performs a full lower reset after a true game over. After a
// life loss it only takes a single no-op step past the terminal frame
// and resyncs the lives counter.
func (e *EpisodicLife) Reset(lower Lower) (environment.Tick, error) {
	var gameOver bool
	if !e.wasRealDone {
		tick, err := lower.Step(0)
		if err != nil {
			return environment.Tick{}, err
		}

		if !tick.Done {
			e.lives = tick.Lives
			e.state = Playing
			return resetTick(tick, false), nil
		}
		// The game ended on the no-op, nothing is left to continue
		gameOver = tick.GameOver
	}

	tick, err := lower.Reset()
	if err != nil {
		return environment.Tick{}, err
	}
	e.lives = 0
	e.state = Playing
	return resetTick(tick, gameOver), nil
}

// WasRealDone returns whether the last step ended the game
func (e *EpisodicLife) WasRealDone() bool {
	return e.wasRealDone
}

// State returns the current state of the stage
func (e *EpisodicLife) State() LifeState {
	return e.state
}

// Lives returns the last observed lives counter. It is 0 after a full
// reset until the next step.
func (e *EpisodicLife) Lives() int {
	return e.lives
}

// resetTick returns the Tick seen by callers of Reset. gameOver marks
// a game that ended inside the reset itself.
func resetTick(tick environment.Tick, gameOver bool) environment.Tick {
	return environment.Tick{Frame: tick.Frame, Lives: tick.Lives,
		GameOver: gameOver}
}
