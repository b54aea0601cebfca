// Package summary records the scalar summaries produced while
// collecting experience: episode statistics reported by workers and
// the metrics of estimator updates
package summary

import (
	"errors"
	"fmt"
)

// Sink records scalars indexed by a global step
type Sink interface {
	AddScalar(name string, value float64, step int) error
}

// Multi fans every scalar out to several sinks
type Multi []Sink

// AddScalar adds the scalar to every sink. Every sink is tried even if
// an earlier one fails.
func (m Multi) AddScalar(name string, value float64, step int) error {
	var errs []error
	for i, sink := range m {
		if err := sink.AddScalar(name, value, step); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("addScalar: %w", errors.Join(errs...))
	}
	return nil
}
