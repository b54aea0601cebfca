package transport

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned for messages which cannot be decoded
var ErrMalformed = errors.New("malformed message")

// ProtocolViolation reports a peer which broke the protocol, for example
// by sending an out of range action or a malformed message. It is fatal
// to the connection with that peer.
type ProtocolViolation struct {
	Identity string
	Op       string
	Err      error
}

// Error satisfies the error interface
func (p *ProtocolViolation) Error() string {
	if p.Identity == "" {
		return fmt.Sprintf("%v: protocol violation: %v", p.Op, p.Err)
	}
	return fmt.Sprintf("%v: protocol violation by %v: %v", p.Op, p.Identity,
		p.Err)
}

// Unwrap returns the underlying cause
func (p *ProtocolViolation) Unwrap() error {
	return p.Err
}

// IsProtocolViolation returns whether or not err reports a protocol
// violation anywhere in its chain
func IsProtocolViolation(err error) bool {
	var violation *ProtocolViolation
	return errors.As(err, &violation)
}

// RemoteError is the reason a worker reported before terminating
type RemoteError struct {
	Reason string
}

// Error satisfies the error interface
func (r *RemoteError) Error() string {
	return "remote error: " + r.Reason
}

// IsRemoteError returns whether or not err was reported by the peer
func IsRemoteError(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote)
}
