package controller

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/grandpahao/oh-my-q-learning/agent"
	"github.com/grandpahao/oh-my-q-learning/agent/policy"
	"github.com/grandpahao/oh-my-q-learning/experiment/checkpointer"
	"github.com/grandpahao/oh-my-q-learning/experiment/summary"
	"github.com/grandpahao/oh-my-q-learning/expreplay"
	"github.com/grandpahao/oh-my-q-learning/utils/logging"
)

// Schedule configures a Collector
type Schedule struct {
	BatchSize         int `yaml:"batch_size"`
	LearningStarts    int `yaml:"learning_starts"`
	Iterations        int `yaml:"iterations"`
	UpdateTargetEvery int `yaml:"update_target_every"`
	SummaryEvery      int `yaml:"summary_every"`
	SaveEvery         int `yaml:"save_every"`

	// CheckpointPath is where the estimator is restored from and saved
	// to. Nothing is restored or saved if it is empty.
	CheckpointPath string `yaml:"checkpoint_path"`

	// HistoryPath is where the returns of finished games are kept
	// across runs. No history is kept if it is empty.
	HistoryPath string `yaml:"history_path"`
}

// DefaultSchedule returns the default Schedule
func DefaultSchedule() Schedule {
	return Schedule{
		BatchSize:         32,
		LearningStarts:    100,
		Iterations:        500000,
		UpdateTargetEvery: 1,
		SummaryEvery:      1000,
		SaveEvery:         10000,
	}
}

// Validate returns an error describing why the Schedule is invalid
func (s Schedule) Validate() error {
	switch {
	case s.BatchSize < 1:
		return fmt.Errorf("validate: batch size must be >= 1")
	case s.LearningStarts < 0:
		return fmt.Errorf("validate: learning starts must be >= 0")
	case s.Iterations < 0:
		return fmt.Errorf("validate: iterations must be >= 0")
	case s.UpdateTargetEvery < 1 || s.SummaryEvery < 1 || s.SaveEvery < 1:
		return fmt.Errorf("validate: periods must be >= 1")
	}
	return nil
}

// Collector collects experience from a VecEnv into a replay memory,
// selecting actions ε-greedily over the estimator's action values, and
// updates the estimator once per iteration
type Collector struct {
	Env       *VecEnv
	Estimator agent.Estimator
	Policy    *policy.EGreedy
	Memory    *expreplay.Memory
	Results   *summary.Results
	Sink      summary.Sink
	Log       logging.Logger
	Schedule  Schedule
}

// Run restores the estimator, warms the replay memory up for
// LearningStarts steps and then runs the learning iterations. The
// estimator and the history are saved when Run returns, however it
// returns. Cancelling ctx stops Run between two steps.
func (c *Collector) Run(ctx context.Context) (err error) {
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if c.Log == nil {
		c.Log = logging.Nop{}
	}
	if c.Results == nil {
		c.Results = summary.NewResults(nil)
	}

	if err := c.restore(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	var checkpoints checkpointer.Checkpointer
	if c.Schedule.CheckpointPath != "" {
		checkpoints, err = checkpointer.NewNStep(c.Schedule.SaveEvery,
			c.Estimator, checkpointer.Fixed(c.Schedule.CheckpointPath))
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}
	defer func() {
		if saveErr := c.save(); saveErr != nil && err == nil {
			err = fmt.Errorf("run: %w", saveErr)
		}
	}()

	if err := c.Env.Reset(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	for i := 0; i < c.Schedule.LearningStarts; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if err := c.collect(); err != nil {
			return fmt.Errorf("run: warm up: %w", err)
		}
	}
	c.Log.Info("warm_up_done", "transitions", c.Memory.Len())

	if err := c.Env.Reset(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	start := time.Now()
	for i := 0; i < c.Schedule.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if err := c.collect(); err != nil {
			return fmt.Errorf("run: %w", err)
		}

		batch, err := c.Memory.Sample(c.Schedule.BatchSize)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		step, metrics, err := c.Estimator.Update(batch)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		c.Results.UpdateSummaries(metrics)

		if step%c.Schedule.UpdateTargetEvery == 0 {
			if err := c.Estimator.TargetUpdate(); err != nil {
				return fmt.Errorf("run: %w", err)
			}
		}

		if step%c.Schedule.SummaryEvery == 0 && c.Sink != nil {
			elapsed := time.Since(start).Seconds()
			c.Log.Info("summary", "global_step", step, "delta_time", elapsed,
				"workers", len(c.Env.Live()))
			if err := c.Results.AddSummary(c.Sink, step, elapsed); err != nil {
				c.Log.Warn("summary_failed", "error", err)
			}
			start = time.Now()
		}

		if checkpoints != nil {
			if err := checkpoints.Checkpoint(step); err != nil {
				return fmt.Errorf("run: %w", err)
			}
		}
	}
	return nil
}

// collect takes one step in every live worker and stores the
// transitions
func (c *Collector) collect() error {
	values, err := c.Estimator.Predict(c.Env.States())
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	step := c.Estimator.GlobalStep()
	actions := make([]int, len(values))
	for i, v := range values {
		if actions[i], err = c.Policy.SelectAction(v, step); err != nil {
			return fmt.Errorf("collect: %w", err)
		}
	}

	transitions, infos, err := c.Env.Step(actions)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	c.Results.UpdateInfos(infos, step)
	if err := c.Memory.Extend(transitions); err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	return nil
}

func (c *Collector) restore() error {
	if c.Schedule.CheckpointPath != "" {
		err := c.Estimator.Restore(c.Schedule.CheckpointPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			c.Log.Info("checkpoint_missing", "path", c.Schedule.CheckpointPath)
		case err != nil:
			return fmt.Errorf("restore: %w", err)
		default:
			c.Log.Info("checkpoint_restored", "global_step",
				c.Estimator.GlobalStep())
		}
	}

	if c.Schedule.HistoryPath != "" {
		history, err := summary.LoadHistory(c.Schedule.HistoryPath)
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		c.Results = summary.NewResults(append(history, c.Results.History()...))
	}
	return nil
}

func (c *Collector) save() error {
	if c.Schedule.CheckpointPath != "" {
		if err := c.Estimator.Save(c.Schedule.CheckpointPath); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	if c.Schedule.HistoryPath != "" {
		if err := c.Results.SaveHistory(c.Schedule.HistoryPath); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}
