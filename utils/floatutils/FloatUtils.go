// Package floatutils provides utilities for working with floats
package floatutils

import "math"

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// SignClip maps a reward to {-1, 0, 1}. Emulator scores are integral, so
// the reward is rounded to the nearest integer score before its sign is
// taken: a fractional residue smaller than half a point clips to 0.
func SignClip(reward float64) float64 {
	r := math.Round(reward)
	switch {
	case r > 0:
		return 1.0
	case r < 0:
		return -1.0
	default:
		return 0.0
	}
}

// MaxSlice gets the maximum value and indices of the maximum values in
// a slice of float64.
func MaxSlice(values []float64) (max float64, indices []int) {
	max, indices = values[0], []int{0}

	for i, value := range values[1:] {
		if value > max {
			max = value
			indices = []int{i + 1}
		} else if value == max {
			indices = append(indices, i+1)
		}
	}
	return
}
