// Package controller drives a fleet of workers in lockstep and feeds
// the experience they collect to an estimator
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/grandpahao/oh-my-q-learning/experiment/trackers"
	ts "github.com/grandpahao/oh-my-q-learning/timestep"
	"github.com/grandpahao/oh-my-q-learning/transport"
	"github.com/grandpahao/oh-my-q-learning/transport/ws"
	"github.com/grandpahao/oh-my-q-learning/utils/logging"
	"gorgonia.org/tensor"
)

// ErrNoWorkers is returned once every worker has been dropped
var ErrNoWorkers = errors.New("no live workers")

// Peer is the controller end of the Channel to one worker
type Peer struct {
	Identity string
	Channel  transport.Channel
}

// Acceptor accepts worker connections. It is implemented by
// *ws.Listener.
type Acceptor interface {
	Accept(ctx context.Context) (*ws.Conn, error)
}

// AcceptPeers accepts n workers
func AcceptPeers(ctx context.Context, a Acceptor, n int) ([]Peer, error) {
	peers := make([]Peer, 0, n)
	for len(peers) < n {
		conn, err := a.Accept(ctx)
		if err != nil {
			for _, p := range peers {
				_ = p.Channel.Close()
			}
			return nil, fmt.Errorf("acceptPeers: accepted %v of %v: %w",
				len(peers), n, err)
		}
		peers = append(peers, Peer{Identity: conn.Identity(), Channel: conn})
	}
	return peers, nil
}

// remote is a live worker
type remote struct {
	Peer
	state *tensor.Dense
}

// policyCloser is implemented by channels which can tell the peer why
// they are being closed
type policyCloser interface {
	ClosePolicyViolation(reason string) error
}

// VecEnv steps many workers as one vector environment. Each command is
// sent to every live worker and one reply is gathered from each before
// the call returns.
//
// A worker which breaks the protocol, reports an error or whose
// Channel fails is dropped for good: no further command is ever sent
// to its identity. Calls on a VecEnv must not be made concurrently.
type VecEnv struct {
	log     logging.Logger
	remotes []*remote
	dropped map[string]error

	actions int
	shape   []int
}

// NewVecEnv waits for the announce of every peer. All peers must
// announce the same action count and observation shape.
func NewVecEnv(peers []Peer, logger logging.Logger) (*VecEnv, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	if len(peers) == 0 {
		return nil, fmt.Errorf("newVecEnv: %w", ErrNoWorkers)
	}

	v := &VecEnv{log: logger, dropped: make(map[string]error)}
	seen := make(map[string]bool)
	for _, p := range peers {
		if seen[p.Identity] {
			v.closeAll(peers)
			return nil, fmt.Errorf("newVecEnv: duplicate identity %v",
				p.Identity)
		}
		seen[p.Identity] = true

		msg, err := p.Channel.Recv()
		if err != nil {
			v.closeAll(peers)
			return nil, fmt.Errorf("newVecEnv: %v: %w", p.Identity, err)
		}
		announce, err := transport.DecodeAnnounce(msg)
		if err != nil {
			v.closeAll(peers)
			return nil, fmt.Errorf("newVecEnv: %v: %w", p.Identity, err)
		}

		if v.shape == nil {
			v.actions = announce.ActionCount
			v.shape = append([]int(nil), announce.Shape...)
		} else if announce.ActionCount != v.actions ||
			!tensor.Shape(announce.Shape).Eq(tensor.Shape(v.shape)) {
			v.closeAll(peers)
			return nil, fmt.Errorf("newVecEnv: %v announced %v actions of "+
				"shape %v, want %v actions of shape %v", p.Identity,
				announce.ActionCount, announce.Shape, v.actions, v.shape)
		}

		v.log.Info("worker_announced", "identity", p.Identity,
			"actions", announce.ActionCount, "shape", announce.Shape)
		v.remotes = append(v.remotes, &remote{Peer: p})
	}
	return v, nil
}

func (v *VecEnv) closeAll(peers []Peer) {
	for _, p := range peers {
		_ = p.Channel.Close()
	}
}

// ActionCount returns the number of actions every worker accepts
func (v *VecEnv) ActionCount() int {
	return v.actions
}

// ObservationShape returns the shape of every observation
func (v *VecEnv) ObservationShape() []int {
	return append([]int(nil), v.shape...)
}

// Live returns the identities of the live workers, in the order that
// States, Step and Reset use
func (v *VecEnv) Live() []string {
	ids := make([]string, len(v.remotes))
	for i, r := range v.remotes {
		ids[i] = r.Identity
	}
	return ids
}

// Dropped returns the reason each dropped worker was dropped
func (v *VecEnv) Dropped() map[string]error {
	d := make(map[string]error, len(v.dropped))
	for id, err := range v.dropped {
		d[id] = err
	}
	return d
}

// States returns the current observation of each live worker. It is
// nil for a worker which has never been reset.
func (v *VecEnv) States() []*tensor.Dense {
	states := make([]*tensor.Dense, len(v.remotes))
	for i, r := range v.remotes {
		states[i] = r.state
	}
	return states
}

// Reset resets every live worker
func (v *VecEnv) Reset() error {
	errs := v.exchange(func(i int, r *remote) error {
		if err := send(r, transport.ResetCommand()); err != nil {
			return err
		}
		msg, err := r.Channel.Recv()
		if err != nil {
			return err
		}
		obs, err := transport.DecodeObservation(msg)
		if err != nil {
			return v.violation(r, "reset", err)
		}
		if err := v.checkShape(r, "reset", obs); err != nil {
			return err
		}
		r.state = obs
		return nil
	})

	v.drop(errs)
	if len(v.remotes) == 0 {
		return fmt.Errorf("reset: %w", ErrNoWorkers)
	}
	return nil
}

// Step takes actions[i] in the i-th live worker. It returns the
// transition of every worker which is still live after the step, and
// the statistics of those which reached an episode boundary, keyed by
// identity.
//
// The next state of a transition ending an episode is the first
// observation of the next episode, since workers reset themselves on
// every episode boundary.
func (v *VecEnv) Step(actions []int) ([]ts.Transition,
	map[string]trackers.Stats, error) {
	if len(actions) != len(v.remotes) {
		return nil, nil, fmt.Errorf("step: expected %v actions, got %v",
			len(v.remotes), len(actions))
	}
	for i, r := range v.remotes {
		if r.state == nil {
			return nil, nil, fmt.Errorf("step: %v has not been reset",
				r.Identity)
		}
		if actions[i] < 0 || actions[i] >= v.actions {
			return nil, nil, fmt.Errorf("step: action %v out of range "+
				"[0, %v)", actions[i], v.actions)
		}
	}

	transitions := make([]ts.Transition, len(v.remotes))
	stats := make([]*trackers.Stats, len(v.remotes))
	errs := v.exchange(func(i int, r *remote) error {
		if err := send(r, transport.ActionCommand(actions[i])); err != nil {
			return err
		}
		msg, err := r.Channel.Recv()
		if err != nil {
			return err
		}
		reply, err := transport.DecodeStepReply(msg)
		if err != nil {
			return v.violation(r, "step", err)
		}
		if err := v.checkShape(r, "step", reply.Observation); err != nil {
			return err
		}
		if len(reply.Stats) > 0 {
			s, err := trackers.StatsFromMap(reply.Stats)
			if err != nil {
				return v.violation(r, "step", err)
			}
			stats[i] = &s
		}

		transitions[i] = ts.Transition{
			State:     r.state,
			Action:    actions[i],
			Reward:    reply.Reward,
			NextState: reply.Observation,
			Done:      reply.Done,
		}
		r.state = reply.Observation
		return nil
	})

	var live []ts.Transition
	infos := make(map[string]trackers.Stats)
	for i, r := range v.remotes {
		if errs[i] != nil {
			continue
		}
		live = append(live, transitions[i])
		if stats[i] != nil {
			infos[r.Identity] = *stats[i]
		}
	}

	v.drop(errs)
	if len(v.remotes) == 0 {
		return nil, nil, fmt.Errorf("step: %w", ErrNoWorkers)
	}
	return live, infos, nil
}

// Close tells every live worker to close and closes their Channels
func (v *VecEnv) Close() error {
	v.exchange(func(_ int, r *remote) error {
		return send(r, transport.CloseCommand())
	})
	for _, r := range v.remotes {
		_ = r.Channel.Close()
		v.log.Info("worker_released", "identity", r.Identity)
	}
	v.remotes = nil
	return nil
}

// exchange runs f concurrently for every live worker and returns the
// error of each
func (v *VecEnv) exchange(f func(i int, r *remote) error) []error {
	errs := make([]error, len(v.remotes))

	var wg sync.WaitGroup
	for i, r := range v.remotes {
		wg.Add(1)
		go func(i int, r *remote) {
			defer wg.Done()
			errs[i] = f(i, r)
		}(i, r)
	}
	wg.Wait()
	return errs
}

// drop removes every worker whose exchange failed
func (v *VecEnv) drop(errs []error) {
	live := v.remotes[:0]
	for i, r := range v.remotes {
		err := errs[i]
		if err == nil {
			live = append(live, r)
			continue
		}

		v.dropped[r.Identity] = err
		v.log.Warn("worker_dropped", "identity", r.Identity, "error", err)
		if pc, ok := r.Channel.(policyCloser); ok &&
			transport.IsProtocolViolation(err) {
			_ = pc.ClosePolicyViolation("protocol violation")
		} else {
			_ = r.Channel.Close()
		}
	}
	for i := len(live); i < len(v.remotes); i++ {
		v.remotes[i] = nil
	}
	v.remotes = live
}

func (v *VecEnv) violation(r *remote, op string, err error) error {
	if transport.IsRemoteError(err) {
		return err
	}
	return &transport.ProtocolViolation{Identity: r.Identity, Op: op, Err: err}
}

func (v *VecEnv) checkShape(r *remote, op string, obs *tensor.Dense) error {
	if !obs.Shape().Eq(tensor.Shape(v.shape)) {
		return v.violation(r, op, fmt.Errorf("observation shape %v, "+
			"announced %v", obs.Shape(), v.shape))
	}
	return nil
}

func send(r *remote, c transport.Command) error {
	msg, err := transport.EncodeCommand(c)
	if err != nil {
		return err
	}
	return r.Channel.Send(msg)
}
