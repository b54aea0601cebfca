package environment

import (
	"fmt"

	"gorgonia.org/tensor"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action or an observation
type SpecType int

const (
	Action SpecType = iota
	Observation
)

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, element type and bounds of an action or an observation
type Spec struct {
	Shape      []int
	Type       SpecType
	Dtype      tensor.Dtype
	LowerBound float64
	UpperBound float64
	Cardinality
}

// NewSpec constructs a new environment specification.
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations). The cardinality argument
// describes whether the values that the spec describes are continuous
// or discrete.
func NewSpec(shape []int, t SpecType, dtype tensor.Dtype, lowerBound,
	upperBound float64, cardinality Cardinality) Spec {
	if lowerBound > upperBound {
		panic(fmt.Sprintf("lower bound %v must not exceed upper bound %v",
			lowerBound, upperBound))
	}

	s := make([]int, len(shape))
	copy(s, shape)
	return Spec{s, t, dtype, lowerBound, upperBound, cardinality}
}

// Size returns the number of elements described by the Spec
func (s Spec) Size() int {
	size := 1
	for _, d := range s.Shape {
		size *= d
	}
	return size
}
