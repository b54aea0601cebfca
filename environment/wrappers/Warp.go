package wrappers

import (
	"fmt"
	"math"

	"github.com/grandpahao/oh-my-q-learning/environment"
	"gorgonia.org/tensor"
)

const (
	// WarpHeight and WarpWidth are the dimensions of warped frames
	WarpHeight = 84
	WarpWidth  = 84
)

// Fixed point ITU-R BT.601 luma weights, scaled by 2^14
const (
	lumaShift = 14
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
)

// Warp converts raw (H, W, C) frames to single channel (84, 84) frames.
// Colour frames are converted to luma and then resized by area
// averaging: each output pixel is the mean of the source pixels it
// covers, with partially covered source pixels weighted by their
// covered fraction.
//
// Warped frames are either uint8 in [0, 255] or float32 in [0, 1].
type Warp struct {
	height, width int
	dtype         tensor.Dtype

	// Area weights for the last seen source shape
	srcH, srcW int
	rows, cols [][]areaWeight
}

type areaWeight struct {
	index  int
	weight float64
}

// NewWarp returns a new Warp producing frames of the given dtype, which
// must be tensor.Uint8 or tensor.Float32
func NewWarp(dtype tensor.Dtype) (*Warp, error) {
	if dtype != tensor.Uint8 && dtype != tensor.Float32 {
		return nil, &environment.ConfigurationError{
			Op:  "newWarp",
			Err: fmt.Errorf("unsupported frame dtype %v", dtype),
		}
	}
	return &Warp{height: WarpHeight, width: WarpWidth, dtype: dtype}, nil
}

// Reset warps the first frame of an episode
func (w *Warp) Reset(obs *tensor.Dense) (*tensor.Dense, error) {
	return w.Observe(obs)
}

// Observe warps a frame
func (w *Warp) Observe(obs *tensor.Dense) (*tensor.Dense, error) {
	shape := obs.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("warp: frames must have shape (H, W, C), "+
			"got %v", shape)
	}
	h, width, c := shape[0], shape[1], shape[2]

	pixels, ok := obs.Data().([]uint8)
	if !ok {
		return nil, fmt.Errorf("warp: frames must be uint8, got %v",
			obs.Dtype())
	}

	gray := Luma(pixels, h, width, c)
	if h != w.srcH || width != w.srcW {
		w.rows = areaWeights(h, w.height)
		w.cols = areaWeights(width, w.width)
		w.srcH, w.srcW = h, width
	}
	resized := w.resize(gray)

	if w.dtype == tensor.Float32 {
		out := make([]float32, len(resized))
		for i, v := range resized {
			out[i] = float32(v) / 255.0
		}
		return tensor.New(tensor.WithShape(w.height, w.width),
			tensor.WithBacking(out)), nil
	}

	out := make([]uint8, len(resized))
	for i, v := range resized {
		out[i] = uint8(math.Min(math.RoundToEven(v), 255))
	}
	return tensor.New(tensor.WithShape(w.height, w.width),
		tensor.WithBacking(out)), nil
}

// ObservationSpec returns the Spec of warped frames
func (w *Warp) ObservationSpec(in environment.Spec) environment.Spec {
	upper := 255.0
	if w.dtype == tensor.Float32 {
		upper = 1.0
	}
	return environment.NewSpec([]int{w.height, w.width},
		environment.Observation, w.dtype, 0, upper, environment.Continuous)
}

// resize area-averages a single channel image using the cached weight
// tables
func (w *Warp) resize(gray []uint8) []float64 {
	out := make([]float64, w.height*w.width)
	for y, row := range w.rows {
		for x, col := range w.cols {
			var v float64
			for _, r := range row {
				offset := r.index * w.srcW
				for _, c := range col {
					v += r.weight * c.weight * float64(gray[offset+c.index])
				}
			}
			out[y*w.width+x] = v
		}
	}
	return out
}

// Luma converts an (h, w, c) uint8 image into a single channel image.
// Images with fewer than three channels use their first channel.
func Luma(pixels []uint8, h, w, c int) []uint8 {
	gray := make([]uint8, h*w)
	if c < 3 {
		for i := range gray {
			gray[i] = pixels[i*c]
		}
		return gray
	}

	const half = 1 << (lumaShift - 1)
	for i := range gray {
		p := pixels[i*c : i*c+3]
		v := int(p[0])*lumaR + int(p[1])*lumaG + int(p[2])*lumaB + half
		gray[i] = uint8(v >> lumaShift)
	}
	return gray
}

// areaWeights returns, for each of the dst output pixels along an axis,
// the source pixels it covers and their normalized coverage
func areaWeights(src, dst int) [][]areaWeight {
	scale := float64(src) / float64(dst)
	weights := make([][]areaWeight, dst)

	for d := range weights {
		start := float64(d) * scale
		end := math.Min(start+scale, float64(src))

		for s := int(math.Floor(start)); float64(s) < end; s++ {
			lo := math.Max(start, float64(s))
			hi := math.Min(end, float64(s+1))
			if hi-lo <= 1e-9 {
				continue
			}
			weights[d] = append(weights[d], areaWeight{s, (hi - lo) / scale})
		}
	}
	return weights
}
