package wrappers

import (
	"fmt"
	"math"

	"github.com/grandpahao/oh-my-q-learning/environment"
	"gonum.org/v1/gonum/stat"
	"gorgonia.org/tensor"
)

const (
	// NormalizeDecay is the decay of the running observation statistics
	NormalizeDecay = 0.9999
	normalizeEps   = 1e-8
)

// Normalize standardizes observations with exponentially weighted
// running estimates of the mean and standard deviation of their
// pixels. The estimates are scalars over all pixels and are
// bias-corrected by 1 - decay^n after n observations. Normalized
// observations are float32.
type Normalize struct {
	decay    float64
	mean     float64
	std      float64
	numSteps int
}

// NewNormalize returns a new Normalize stage
func NewNormalize() *Normalize {
	return &Normalize{decay: NormalizeDecay}
}

// Reset normalizes the first observation of an episode. The running
// statistics carry over across episodes.
func (n *Normalize) Reset(obs *tensor.Dense) (*tensor.Dense, error) {
	return n.Observe(obs)
}

// Observe updates the running statistics with obs and normalizes it
func (n *Normalize) Observe(obs *tensor.Dense) (*tensor.Dense, error) {
	x, err := toFloat64(obs)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	mean, std := stat.PopMeanStdDev(x, nil)
	n.numSteps++
	n.mean = n.mean*n.decay + mean*(1-n.decay)
	n.std = n.std*n.decay + std*(1-n.decay)

	correction := 1 - math.Pow(n.decay, float64(n.numSteps))
	mean = n.mean / correction
	std = n.std/correction + normalizeEps

	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32((v - mean) / std)
	}
	return tensor.New(tensor.WithShape(obs.Shape().Clone()...),
		tensor.WithBacking(out)), nil
}

// Stats returns the bias-corrected running mean and standard deviation
func (n *Normalize) Stats() (mean, std float64) {
	if n.numSteps == 0 {
		return 0, 0
	}
	correction := 1 - math.Pow(n.decay, float64(n.numSteps))
	return n.mean / correction, n.std / correction
}

// ObservationSpec returns the Spec of normalized observations
func (n *Normalize) ObservationSpec(in environment.Spec) environment.Spec {
	return environment.NewSpec(in.Shape, in.Type, tensor.Float32,
		math.Inf(-1), math.Inf(1), in.Cardinality)
}

// toFloat64 returns the elements of a uint8, float32 or float64 tensor
func toFloat64(t *tensor.Dense) ([]float64, error) {
	switch data := t.Data().(type) {
	case []uint8:
		x := make([]float64, len(data))
		for i, v := range data {
			x[i] = float64(v)
		}
		return x, nil

	case []float32:
		x := make([]float64, len(data))
		for i, v := range data {
			x[i] = float64(v)
		}
		return x, nil

	case []float64:
		x := make([]float64, len(data))
		copy(x, data)
		return x, nil

	default:
		return nil, fmt.Errorf("unsupported dtype %v", t.Dtype())
	}
}
