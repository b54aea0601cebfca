package expreplay

import "errors"

// ExpReplayError reports a failed replay memory operation
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

var errEmptyMemory = errors.New("memory empty")

var errInsufficientSamples = errors.New("minimum capacity not yet reached")

// IsInsufficientSamples returns whether or not an error reports that
// there are insufficient samples in the memory to sample from it.
//
// A memory has too few samples to sample if its current size is less
// than its minimum capacity.
func IsInsufficientSamples(err error) bool {
	return errors.Is(err, errInsufficientSamples)
}

// IsEmptyMemory returns whether or not an error reports that a replay
// memory is empty.
func IsEmptyMemory(err error) bool {
	return errors.Is(err, errEmptyMemory)
}
