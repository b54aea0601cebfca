package summary

import (
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/grandpahao/oh-my-q-learning/experiment/trackers"
	"gonum.org/v1/gonum/stat"
)

// TimeKey names the scalar holding the seconds elapsed since the
// previous summary
const TimeKey = "time"

// HistoryEntry records the return of one finished game
type HistoryEntry struct {
	Step     int
	Identity string
	Return   float64
}

// Results buffers the episode statistics reported by workers and the
// metrics of estimator updates between two summaries. Every summary
// emits the mean of each buffered value and clears the buffer.
//
// The returns of finished games are also appended to a history which
// outlives summaries.
type Results struct {
	mu      sync.Mutex
	buffer  map[string][]float64
	history []HistoryEntry
}

// NewResults returns a new Results continuing from a history, which may
// be nil
func NewResults(history []HistoryEntry) *Results {
	return &Results{
		buffer:  make(map[string][]float64),
		history: append([]HistoryEntry(nil), history...),
	}
}

// UpdateInfos buffers the statistics reported by workers at step,
// keyed by worker identity
func (r *Results) UpdateInfos(infos map[string]trackers.Stats, step int) {
	identities := make([]string, 0, len(infos))
	for id := range infos {
		identities = append(identities, id)
	}
	sort.Strings(identities)

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range identities {
		s := infos[id]
		r.buffer[trackers.RewardKey] = append(r.buffer[trackers.RewardKey],
			s.Reward)
		r.buffer[trackers.LengthKey] = append(r.buffer[trackers.LengthKey],
			float64(s.Length))
		if !s.Real {
			continue
		}
		r.buffer[trackers.RealRewardKey] = append(
			r.buffer[trackers.RealRewardKey], s.RealReward)
		r.buffer[trackers.RealLengthKey] = append(
			r.buffer[trackers.RealLengthKey], float64(s.RealLength))
		r.history = append(r.history, HistoryEntry{step, id, s.RealReward})
	}
}

// UpdateSummaries buffers the metrics of an estimator update
func (r *Results) UpdateSummaries(metrics map[string]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range metrics {
		r.buffer[k] = append(r.buffer[k], v)
	}
}

// AddSummary adds the mean of every buffered value to sink at step,
// together with the elapsed seconds, and clears the buffer
func (r *Results) AddSummary(sink Sink, step int, elapsed float64) error {
	r.mu.Lock()
	means := map[string]float64{TimeKey: elapsed}
	for k, values := range r.buffer {
		if len(values) > 0 {
			means[k] = stat.Mean(values, nil)
		}
	}
	r.buffer = make(map[string][]float64)
	r.mu.Unlock()

	names := make([]string, 0, len(means))
	for name := range means {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := sink.AddScalar(name, means[name], step); err != nil {
			return fmt.Errorf("addSummary: %w", err)
		}
	}
	return nil
}

// History returns a copy of the returns of all finished games
func (r *Results) History() []HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]HistoryEntry(nil), r.history...)
}

// SaveHistory gob encodes the history to filename
func (r *Results) SaveHistory(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("saveHistory: could not open save file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(r.History()); err != nil {
		return fmt.Errorf("saveHistory: could not encode history: %w", err)
	}
	return nil
}

// LoadHistory loads a history saved with SaveHistory. A missing file is
// an empty history.
func LoadHistory(filename string) ([]HistoryEntry, error) {
	file, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loadHistory: could not open file: %w", err)
	}
	defer file.Close()

	var history []HistoryEntry
	if err := gob.NewDecoder(file).Decode(&history); err != nil {
		return nil, fmt.Errorf("loadHistory: could not decode: %w", err)
	}
	return history, nil
}
