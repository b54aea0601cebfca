package trackers

import (
	"fmt"

	ts "github.com/grandpahao/oh-my-q-learning/timestep"
)

// Keys of the statistics mapping sent to the controller
const (
	RewardKey     = "reward"
	LengthKey     = "length"
	RealRewardKey = "real_reward"
	RealLengthKey = "real_length"
)

// Stats are the statistics flushed by a GameInfo at an episode
// boundary. Reward and Length cover the life which just ended.
// RealReward and RealLength cover the whole game and are only set if
// Real is true.
type Stats struct {
	Reward     float64
	Length     int
	RealReward float64
	RealLength int
	Real       bool
}

// Map returns the statistics keyed the way they are sent over the
// wire. The real episode keys are only present for a finished game.
func (s Stats) Map() map[string]float64 {
	m := map[string]float64{
		RewardKey: s.Reward,
		LengthKey: float64(s.Length),
	}
	if s.Real {
		m[RealRewardKey] = s.RealReward
		m[RealLengthKey] = float64(s.RealLength)
	}
	return m
}

// StatsFromMap is the inverse of Stats.Map
func StatsFromMap(m map[string]float64) (Stats, error) {
	var s Stats
	reward, ok := m[RewardKey]
	if !ok {
		return Stats{}, fmt.Errorf("statsFromMap: missing %q", RewardKey)
	}
	length, ok := m[LengthKey]
	if !ok {
		return Stats{}, fmt.Errorf("statsFromMap: missing %q", LengthKey)
	}
	s.Reward, s.Length = reward, int(length)

	realReward, hasReward := m[RealRewardKey]
	realLength, hasLength := m[RealLengthKey]
	if hasReward != hasLength {
		return Stats{}, fmt.Errorf("statsFromMap: %q and %q must be sent "+
			"together", RealRewardKey, RealLengthKey)
	}
	if hasReward {
		s.Real = true
		s.RealReward, s.RealLength = realReward, int(realLength)
	}
	return s, nil
}

// GameInfo tracks the un-clipped rewards of a single worker.
//
// Two sets of statistics are kept: the reward and length since the
// last episode boundary, which are flushed at every boundary, and the
// reward and length of the whole game, which are only flushed when the
// game is over. With life-loss episode boundaries the first describes
// a single life and the second the true episode.
//
// GameInfo implements the Tracker interface. Returns of finished games
// are kept and saved with Save.
type GameInfo struct {
	reward     float64
	length     int
	realReward float64
	realLength int

	returns  []float64
	filename string
}

// NewGameInfo returns a new GameInfo which saves the returns of
// finished games to filename. If filename is empty, Save does nothing.
func NewGameInfo(filename string) *GameInfo {
	return &GameInfo{filename: filename}
}

// Update records one step with the given raw reward
func (g *GameInfo) Update(reward float64) {
	g.reward += reward
	g.realReward += reward
	g.length++
	g.realLength++
}

// Track records the raw reward of a step. First steps carry no reward
// and are ignored, so that a reset following a life loss does not
// disturb the statistics of the game.
func (g *GameInfo) Track(step ts.TimeStep) {
	if step.First() {
		return
	}
	g.Update(step.Reward)
}

// Flush returns the statistics at an episode boundary and starts
// counting the next one. The game statistics are included and reset
// if lives has reached 0 or the emulator reported the end of the
// game.
func (g *GameInfo) Flush(lives int, gameOver bool) Stats {
	s := Stats{Reward: g.reward, Length: g.length}
	g.reward, g.length = 0, 0

	if lives == 0 || gameOver {
		s.Real = true
		s.RealReward, s.RealLength = g.realReward, g.realLength
		g.returns = append(g.returns, g.realReward)
		g.realReward, g.realLength = 0, 0
	}
	return s
}

// FlushStep flushes the statistics at the boundary reported by step
func (g *GameInfo) FlushStep(step ts.TimeStep) Stats {
	return g.Flush(step.Lives, step.WasRealDone)
}

// Pending returns whether steps of an unfinished game have been
// tracked
func (g *GameInfo) Pending() bool {
	return g.realLength > 0
}

// Reset discards the statistics of the current life and game
func (g *GameInfo) Reset() {
	g.reward, g.length = 0, 0
	g.realReward, g.realLength = 0, 0
}

// Returns returns the returns of all finished games
func (g *GameInfo) Returns() []float64 {
	r := make([]float64, len(g.returns))
	copy(r, g.returns)
	return r
}

// Save saves the returns of all finished games
func (g *GameInfo) Save() error {
	if g.filename == "" {
		return nil
	}
	if err := saveData(g.filename, g.returns); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
