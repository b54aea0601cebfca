package summary

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/grandpahao/oh-my-q-learning/experiment/trackers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	scalars []Scalar
	err     error
}

func (r *recordingSink) AddScalar(name string, value float64, step int) error {
	r.scalars = append(r.scalars, Scalar{Name: name, Value: value, Step: step})
	return r.err
}

func TestMultiTriesEverySink(t *testing.T) {
	failing := &recordingSink{err: errors.New("disk full")}
	ok := &recordingSink{}

	err := Multi{failing, ok}.AddScalar("reward", 2, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, failing.scalars, 1)
	assert.Len(t, ok.scalars, 1)

	assert.NoError(t, Multi{ok}.AddScalar("reward", 3, 11))
}

func TestPrometheusSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheus(reg)

	require.NoError(t, sink.AddScalar("reward", 1.5, 100))
	require.NoError(t, sink.AddScalar("reward", 2.5, 200))

	assert.Equal(t, 2.5, testutil.ToFloat64(sink.values.WithLabelValues(
		"reward")))
	assert.Equal(t, 200.0, testutil.ToFloat64(sink.steps.WithLabelValues(
		"reward")))
}

func TestFileSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "summary.jsonl.zst")
	sink, err := NewFile(path)
	require.NoError(t, err)
	sink.now = func() time.Time { return time.Unix(100, 0) }

	require.NoError(t, sink.AddScalar("reward", 1, 10))
	require.NoError(t, sink.AddScalar("length", 42, 10))
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	assert.Error(t, sink.AddScalar("reward", 1, 11))

	scalars, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, scalars, 2)
	assert.Equal(t, "reward", scalars[0].Name)
	assert.Equal(t, 42.0, scalars[1].Value)
	assert.Equal(t, 10, scalars[1].Step)
	assert.True(t, scalars[0].Time.Equal(time.Unix(100, 0)))
}

func TestResultsSummary(t *testing.T) {
	results := NewResults(nil)
	results.UpdateInfos(map[string]trackers.Stats{
		"a": {Reward: 2, Length: 10},
		"b": {Reward: 4, Length: 20, RealReward: 7, RealLength: 50, Real: true},
	}, 5)
	results.UpdateSummaries(map[string]float64{"loss": 0.5})
	results.UpdateSummaries(map[string]float64{"loss": 1.5})

	sink := &recordingSink{}
	require.NoError(t, results.AddSummary(sink, 10, 3))

	got := make(map[string]float64)
	for _, s := range sink.scalars {
		assert.Equal(t, 10, s.Step)
		got[s.Name] = s.Value
	}
	assert.Equal(t, map[string]float64{
		trackers.RewardKey:     3,
		trackers.LengthKey:     15,
		trackers.RealRewardKey: 7,
		trackers.RealLengthKey: 50,
		"loss":                 1,
		TimeKey:                3,
	}, got)

	// The buffer is cleared by a summary
	sink = &recordingSink{}
	require.NoError(t, results.AddSummary(sink, 20, 1))
	assert.Equal(t, []Scalar{{Name: TimeKey, Value: 1, Step: 20}},
		sink.scalars)

	assert.Equal(t, []HistoryEntry{{5, "b", 7}}, results.History())
}

func TestResultsHistoryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewards.bin")

	history, err := LoadHistory(path)
	require.NoError(t, err)
	assert.Empty(t, history)

	results := NewResults([]HistoryEntry{{1, "a", 3}})
	results.UpdateInfos(map[string]trackers.Stats{
		"c": {Real: true, RealReward: 9, RealLength: 4},
	}, 2)
	require.NoError(t, results.SaveHistory(path))

	history, err = LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, []HistoryEntry{{1, "a", 3}, {2, "c", 9}}, history)
}
