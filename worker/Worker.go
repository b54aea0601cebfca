// Package worker binds one frame pipeline to one controller connection
// and serves the controller's commands in lockstep
package worker

import (
	"errors"
	"fmt"
	"time"

	"github.com/grandpahao/oh-my-q-learning/environment"
	"github.com/grandpahao/oh-my-q-learning/experiment/trackers"
	ts "github.com/grandpahao/oh-my-q-learning/timestep"
	"github.com/grandpahao/oh-my-q-learning/transport"
	"github.com/grandpahao/oh-my-q-learning/utils/floatutils"
	"github.com/grandpahao/oh-my-q-learning/utils/logging"
)

// Environment is the frame pipeline a Worker serves. It is implemented
// by *wrappers.Pipeline.
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(action int) (ts.TimeStep, error)
	ActionCount() int
	ObservationSpec() environment.Spec
	Close() error
}

// Worker owns a single Environment and serves a single controller over
// a transport.Channel. Each received command gets exactly one reply,
// except close which gets none.
//
// Replies to actions carry the sign-clipped reward, while the raw
// reward goes to the Worker's GameInfo. Every episode boundary, life
// loss included, is followed by an immediate reset whose observation
// is returned in place of the terminal one, together with the
// flushed statistics.
type Worker struct {
	identity string
	env      Environment
	ch       transport.Channel
	log      logging.Logger
	info     *trackers.GameInfo

	started bool
}

// New returns a new Worker
func New(identity string, env Environment, ch transport.Channel,
	logger logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Nop{}
	}

	return &Worker{
		identity: identity,
		env:      env,
		ch:       ch,
		log:      logger,
		info:     trackers.NewGameInfo(""),
	}
}

// Run announces the Worker and serves commands until the controller
// sends close, which returns nil. Any other way out is fatal and
// returns the cause: protocol violations are reported to the
// controller before returning. The Environment and Channel are closed
// when Run returns.
func (w *Worker) Run() (err error) {
	defer func() {
		if closeErr := w.env.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("run: %w", closeErr)
		}
		_ = w.ch.Close()
	}()

	if err := w.announce(); err != nil {
		return w.fail("transport", err)
	}
	w.log.Info("worker_ready", "identity", w.identity,
		"actions", w.env.ActionCount())

	for {
		msg, err := w.ch.Recv()
		if err != nil {
			return w.fail("transport", fmt.Errorf("run: %w", err))
		}

		cmd, err := transport.DecodeCommand(msg)
		if err != nil {
			return w.fail("protocol", w.violation("recv", err))
		}

		switch cmd.Kind {
		case transport.Close:
			w.log.Info("worker_closed", "identity", w.identity)
			return nil

		case transport.Reset:
			err = w.reset()

		case transport.Act:
			err = w.step(cmd.Action)
		}

		if err != nil {
			cause := "environment"
			switch {
			case transport.IsProtocolViolation(err):
				cause = "protocol"
			case isTransportError(err):
				cause = "transport"
			}
			return w.fail(cause, err)
		}
	}
}

// Info returns the Worker's statistics
func (w *Worker) Info() *trackers.GameInfo {
	return w.info
}

func (w *Worker) announce() error {
	msg, err := transport.EncodeAnnounce(transport.Announce{
		ActionCount: w.env.ActionCount(),
		Shape:       w.env.ObservationSpec().Shape,
	})
	if err != nil {
		return fmt.Errorf("announce: %w", err)
	}
	if err := w.ch.Send(msg); err != nil {
		return fmt.Errorf("announce: %w", err)
	}
	return nil
}

func (w *Worker) reset() error {
	step, err := w.env.Reset()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	w.info.Reset()
	w.started = true

	msg, err := transport.EncodeObservation(step.Observation)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := w.ch.Send(msg); err != nil {
		return fmt.Errorf("reset: %w", &transportError{err})
	}
	return nil
}

func (w *Worker) step(action int) error {
	if !w.started {
		return w.violation("step", fmt.Errorf("action %v before reset",
			action))
	}
	if action < 0 || action >= w.env.ActionCount() {
		return w.violation("step", fmt.Errorf("action %v out of range "+
			"[0, %v)", action, w.env.ActionCount()))
	}

	start := time.Now()
	step, err := w.env.Step(action)
	if err != nil {
		return fmt.Errorf("step: %w", err)
	}
	stepDurationSeconds.WithLabelValues(w.identity).Observe(
		time.Since(start).Seconds())
	stepsTotal.WithLabelValues(w.identity).Inc()

	w.info.Track(step)
	reply := transport.StepReply{
		Observation: step.Observation,
		Reward:      floatutils.SignClip(step.Reward),
		Done:        step.Last(),
	}

	if step.Last() {
		stats := w.info.FlushStep(step)
		reply.Stats = stats.Map()

		kind := "life"
		if stats.Real {
			kind = "game"
			w.log.Debug("game_over", "identity", w.identity,
				"return", stats.RealReward, "length", stats.RealLength)
		}
		episodesTotal.WithLabelValues(w.identity, kind).Inc()

		first, err := w.env.Reset()
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		reply.Observation = first.Observation

		// The game can also end inside the reset, e.g. on the no-op
		// after a life loss. It is reported with this boundary.
		if first.WasRealDone && w.info.Pending() {
			game := w.info.Flush(0, true)
			reply.Stats[trackers.RealRewardKey] = game.RealReward
			reply.Stats[trackers.RealLengthKey] = float64(game.RealLength)

			w.log.Debug("game_over", "identity", w.identity,
				"return", game.RealReward, "length", game.RealLength)
			episodesTotal.WithLabelValues(w.identity, "game").Inc()
		}
	}

	msg, err := transport.EncodeStepReply(reply)
	if err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := w.ch.Send(msg); err != nil {
		return fmt.Errorf("step: %w", &transportError{err})
	}
	return nil
}

func (w *Worker) violation(op string, err error) error {
	return &transport.ProtocolViolation{Identity: w.identity, Op: op, Err: err}
}

// fail reports a fatal error to the controller, best effort, and
// returns it
func (w *Worker) fail(cause string, err error) error {
	violationsTotal.WithLabelValues(w.identity, cause).Inc()
	w.log.Error("worker_failed", "identity", w.identity, "cause", cause,
		"error", err)

	if cause != "transport" {
		if msg, encErr := transport.EncodeError(err.Error()); encErr == nil {
			_ = w.ch.Send(msg)
		}
	}
	return err
}

// transportError marks a failure of the Channel itself, which cannot
// be reported over the Channel
type transportError struct {
	err error
}

func (t *transportError) Error() string { return t.err.Error() }
func (t *transportError) Unwrap() error { return t.err }

func isTransportError(err error) bool {
	var te *transportError
	return errors.As(err, &te)
}
