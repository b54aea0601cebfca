package wrappers

import (
	"testing"

	"github.com/grandpahao/oh-my-q-learning/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func uniformFrame(h, w int, rgb ...uint8) *tensor.Dense {
	backing := make([]uint8, h*w*len(rgb))
	for i := range backing {
		backing[i] = rgb[i%len(rgb)]
	}
	return tensor.New(tensor.WithShape(h, w, len(rgb)),
		tensor.WithBacking(backing))
}

func TestLuma(t *testing.T) {
	gray := Luma([]uint8{255, 0, 0, 0, 255, 0, 0, 0, 255, 90, 90, 90}, 2, 2, 3)
	assert.Equal(t, []uint8{76, 150, 29, 90}, gray)

	assert.Equal(t, []uint8{3, 4}, Luma([]uint8{3, 4}, 1, 2, 1))
}

func TestAreaWeightsCoverSource(t *testing.T) {
	for _, src := range []int{210, 160, 84, 168, 50} {
		weights := areaWeights(src, WarpHeight)
		require.Len(t, weights, WarpHeight)

		covered := make([]float64, src)
		for _, w := range weights {
			var sum float64
			for _, aw := range w {
				sum += aw.weight
				covered[aw.index] += aw.weight
			}
			assert.InDelta(t, 1.0, sum, 1e-9, "src %v", src)
		}

		var total float64
		for _, c := range covered {
			total += c
		}
		assert.InDelta(t, float64(WarpHeight), total, 1e-6, "src %v", src)
	}
}

func TestWarpUniformFrame(t *testing.T) {
	warp, err := NewWarp(tensor.Uint8)
	require.NoError(t, err)

	out, err := warp.Observe(uniformFrame(210, 160, 90, 90, 90))
	require.NoError(t, err)
	assert.Equal(t, []int{84, 84}, []int(out.Shape()))
	for _, v := range out.Data().([]uint8) {
		require.Equal(t, uint8(90), v)
	}
}

func TestWarpAveragesArea(t *testing.T) {
	// Rows alternate between 0 and 200, so every output pixel covering
	// two source rows is their mean
	h, w := 2*WarpHeight, WarpWidth
	backing := make([]uint8, h*w)
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			backing[(y+1)*w+x] = 200
		}
	}
	frame := tensor.New(tensor.WithShape(h, w, 1), tensor.WithBacking(backing))

	warp, err := NewWarp(tensor.Uint8)
	require.NoError(t, err)
	out, err := warp.Observe(frame)
	require.NoError(t, err)
	for _, v := range out.Data().([]uint8) {
		require.Equal(t, uint8(100), v)
	}
}

func TestWarpRoundsHalfToEven(t *testing.T) {
	// Each column pairs rows lo and lo+1, so every output pixel sits
	// exactly halfway between two integers
	lows := []uint8{100, 101, 102}
	want := []uint8{100, 102, 102}

	h, w := 2*WarpHeight, WarpWidth
	backing := make([]uint8, h*w)
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			lo := lows[x%len(lows)]
			backing[y*w+x] = lo
			backing[(y+1)*w+x] = lo + 1
		}
	}
	frame := tensor.New(tensor.WithShape(h, w, 1), tensor.WithBacking(backing))

	warp, err := NewWarp(tensor.Uint8)
	require.NoError(t, err)
	out, err := warp.Observe(frame)
	require.NoError(t, err)

	data := out.Data().([]uint8)
	for i, v := range data {
		require.Equal(t, want[(i%WarpWidth)%len(want)], v, "pixel %v", i)
	}
}

func TestWarpFloat32(t *testing.T) {
	warp, err := NewWarp(tensor.Float32)
	require.NoError(t, err)

	out, err := warp.Reset(uniformFrame(210, 160, 255, 255, 255))
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, out.Dtype())
	for _, v := range out.Data().([]float32) {
		require.InDelta(t, 1.0, v, 1e-6)
	}

	spec := warp.ObservationSpec(environment.Spec{})
	assert.Equal(t, []int{84, 84}, spec.Shape)
	assert.Equal(t, 1.0, spec.UpperBound)

	_, err = NewWarp(tensor.Float64)
	assert.True(t, environment.IsConfigurationError(err))

	_, err = warp.Observe(tensor.New(tensor.WithShape(2, 2),
		tensor.WithBacking([]uint8{1, 2, 3, 4})))
	assert.Error(t, err)
}

func tile(v uint8) *tensor.Dense {
	return tensor.New(tensor.WithShape(2, 2),
		tensor.WithBacking([]uint8{v, v, v, v}))
}

func TestFrameStack(t *testing.T) {
	stack, err := NewFrameStack(4)
	require.NoError(t, err)

	_, err = stack.Observe(tile(1))
	assert.Error(t, err, "observe before reset")

	obs, err := stack.Reset(tile(7))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2, 2}, []int(obs.Shape()))
	assert.Equal(t, 4, stack.Len())
	for _, v := range obs.Data().([]uint8) {
		assert.Equal(t, uint8(7), v)
	}

	for i := uint8(1); i <= 5; i++ {
		obs, err = stack.Observe(tile(i))
		require.NoError(t, err)
		assert.Equal(t, 4, stack.Len())
		assert.Equal(t, []int{4, 2, 2}, []int(obs.Shape()))
	}

	data := obs.Data().([]uint8)
	for i, want := range []uint8{2, 3, 4, 5} {
		assert.Equal(t, want, data[i*4], "frame %v", i)
	}

	spec := stack.ObservationSpec(environment.NewSpec([]int{84, 84},
		environment.Observation, tensor.Uint8, 0, 255,
		environment.Continuous))
	assert.Equal(t, []int{4, 84, 84}, spec.Shape)

	_, err = NewFrameStack(0)
	assert.True(t, environment.IsConfigurationError(err))
}

func TestNormalize(t *testing.T) {
	norm := NewNormalize()

	obs := tensor.New(tensor.WithShape(1, 2), tensor.WithBacking([]uint8{0, 2}))
	out, err := norm.Reset(obs)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, out.Dtype())

	data := out.Data().([]float32)
	assert.InDelta(t, -1.0, data[0], 1e-4)
	assert.InDelta(t, 1.0, data[1], 1e-4)

	mean, std := norm.Stats()
	assert.InDelta(t, 1.0, mean, 1e-6)
	assert.InDelta(t, 1.0, std, 1e-6)

	// A constant observation has no spread, so it is all but erased
	out, err = norm.Observe(tensor.New(tensor.WithShape(1, 2),
		tensor.WithBacking([]uint8{4, 4})))
	require.NoError(t, err)
	mean, _ = norm.Stats()
	assert.Greater(t, mean, 1.0)
	assert.Less(t, mean, 4.0)
	assert.Greater(t, out.Data().([]float32)[0], float32(0))
}
