package transport

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"gorgonia.org/tensor"
)

// Tags of the messages which are not plain commands
const (
	ReadyTag = "ready"
	ErrorTag = "error"
)

// CommandKind is the kind of a controller command
type CommandKind int

const (
	Reset CommandKind = iota
	Close
	Act
)

func (c CommandKind) String() string {
	switch c {
	case Reset:
		return "reset"
	case Close:
		return "close"
	default:
		return "action"
	}
}

// Command is a single controller command. Action is only meaningful
// for commands of kind Act.
type Command struct {
	Kind   CommandKind
	Action int
}

// ResetCommand returns a reset Command
func ResetCommand() Command { return Command{Kind: Reset} }

// CloseCommand returns a close Command
func CloseCommand() Command { return Command{Kind: Close} }

// ActionCommand returns a Command taking the given action
func ActionCommand(action int) Command {
	return Command{Kind: Act, Action: action}
}

// Announce is sent once, unsolicited, by a worker when it is ready
type Announce struct {
	ActionCount int
	Shape       []int
}

// StepReply is the reply to an action. Reward is the sign-clipped
// reward. Stats is empty unless Done is true.
type StepReply struct {
	Observation *tensor.Dense
	Reward      float64
	Done        bool
	Stats       map[string]float64
}

type announceWire struct {
	_msgpack struct{} `msgpack:",as_array"`

	Tag         string
	ActionCount int
	Shape       []int
}

type stepWire struct {
	_msgpack struct{} `msgpack:",as_array"`

	Observation wireTensor
	Reward      float64
	Done        bool
	Stats       map[string]float64
}

type errorWire struct {
	_msgpack struct{} `msgpack:",as_array"`

	Tag    string
	Reason string
}

// EncodeCommand encodes a controller command. Reset and close are sent
// as strings and actions as integers.
func EncodeCommand(c Command) ([]byte, error) {
	switch c.Kind {
	case Reset, Close:
		return msgpack.Marshal(c.Kind.String())
	case Act:
		return msgpack.Marshal(c.Action)
	}
	return nil, fmt.Errorf("encodeCommand: unknown command kind %v", c.Kind)
}

// DecodeCommand decodes a controller command. Anything which is not
// one of the two command strings or an integer is malformed.
func DecodeCommand(b []byte) (Command, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return Command{}, fmt.Errorf("decodeCommand: %w: %v", ErrMalformed,
			err)
	}

	switch cmd := v.(type) {
	case string:
		switch cmd {
		case Reset.String():
			return ResetCommand(), nil
		case Close.String():
			return CloseCommand(), nil
		}
		return Command{}, fmt.Errorf("decodeCommand: %w: unknown command %q",
			ErrMalformed, cmd)

	case int64:
		return ActionCommand(int(cmd)), nil

	case uint64:
		if cmd > uint64(maxInt) {
			return Command{}, fmt.Errorf("decodeCommand: %w: action %v "+
				"overflows int", ErrMalformed, cmd)
		}
		return ActionCommand(int(cmd)), nil
	}
	return Command{}, fmt.Errorf("decodeCommand: %w: unexpected %T",
		ErrMalformed, v)
}

const maxInt = int(^uint(0) >> 1)

// EncodeAnnounce encodes the announce message of a worker
func EncodeAnnounce(a Announce) ([]byte, error) {
	return msgpack.Marshal(&announceWire{
		Tag:         ReadyTag,
		ActionCount: a.ActionCount,
		Shape:       a.Shape,
	})
}

// DecodeAnnounce decodes the announce message of a worker
func DecodeAnnounce(b []byte) (Announce, error) {
	if err := remoteError(b); err != nil {
		return Announce{}, err
	}

	var w announceWire
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return Announce{}, fmt.Errorf("decodeAnnounce: %w: %v", ErrMalformed,
			err)
	}
	if w.Tag != ReadyTag {
		return Announce{}, fmt.Errorf("decodeAnnounce: %w: expected %q, "+
			"got %q", ErrMalformed, ReadyTag, w.Tag)
	}
	if w.ActionCount < 1 {
		return Announce{}, fmt.Errorf("decodeAnnounce: %w: action count %v",
			ErrMalformed, w.ActionCount)
	}
	return Announce{ActionCount: w.ActionCount, Shape: w.Shape}, nil
}

// EncodeObservation encodes the reply to a reset
func EncodeObservation(obs *tensor.Dense) ([]byte, error) {
	w, err := toWire(obs)
	if err != nil {
		return nil, fmt.Errorf("encodeObservation: %w", err)
	}
	return msgpack.Marshal(&w)
}

// DecodeObservation decodes the reply to a reset
func DecodeObservation(b []byte) (*tensor.Dense, error) {
	if err := remoteError(b); err != nil {
		return nil, err
	}

	var w wireTensor
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("decodeObservation: %w: %v", ErrMalformed, err)
	}
	obs, err := fromWire(w)
	if err != nil {
		return nil, fmt.Errorf("decodeObservation: %w: %v", ErrMalformed, err)
	}
	return obs, nil
}

// EncodeStepReply encodes the reply to an action
func EncodeStepReply(r StepReply) ([]byte, error) {
	w, err := toWire(r.Observation)
	if err != nil {
		return nil, fmt.Errorf("encodeStepReply: %w", err)
	}

	stats := r.Stats
	if stats == nil {
		stats = map[string]float64{}
	}
	return msgpack.Marshal(&stepWire{
		Observation: w,
		Reward:      r.Reward,
		Done:        r.Done,
		Stats:       stats,
	})
}

// DecodeStepReply decodes the reply to an action
func DecodeStepReply(b []byte) (StepReply, error) {
	if err := remoteError(b); err != nil {
		return StepReply{}, err
	}

	var w stepWire
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return StepReply{}, fmt.Errorf("decodeStepReply: %w: %v",
			ErrMalformed, err)
	}
	obs, err := fromWire(w.Observation)
	if err != nil {
		return StepReply{}, fmt.Errorf("decodeStepReply: %w: %v",
			ErrMalformed, err)
	}

	stats := w.Stats
	if stats == nil {
		stats = map[string]float64{}
	}
	return StepReply{
		Observation: obs,
		Reward:      w.Reward,
		Done:        w.Done,
		Stats:       stats,
	}, nil
}

// EncodeError encodes the message a worker sends before terminating
// on a fatal error
func EncodeError(reason string) ([]byte, error) {
	return msgpack.Marshal(&errorWire{Tag: ErrorTag, Reason: reason})
}

// remoteError returns a *RemoteError if b is an error message
func remoteError(b []byte) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	n, err := dec.DecodeArrayLen()
	if err != nil || n != 2 {
		return nil
	}
	tag, err := dec.DecodeString()
	if err != nil || tag != ErrorTag {
		return nil
	}
	reason, err := dec.DecodeString()
	if err != nil {
		return nil
	}
	return &RemoteError{Reason: reason}
}
