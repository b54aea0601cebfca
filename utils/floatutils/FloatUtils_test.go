package floatutils

import "testing"

func TestSignClip(t *testing.T) {
	rewards := []float64{-5, 0, 0.3, 7}
	clipped := []float64{-1, 0, 0, 1}

	for i, r := range rewards {
		if got := SignClip(r); got != clipped[i] {
			t.Errorf("SignClip(%v) = %v, want %v", r, got, clipped[i])
		}
	}

	if SignClip(-0.7) != -1 || SignClip(1) != 1 {
		t.Error("rewards of at least half a point keep their sign")
	}
}

func TestClip(t *testing.T) {
	if Clip(300, 0, 255) != 255 || Clip(-1, 0, 255) != 0 || Clip(7, 0, 255) != 7 {
		t.Error("clip did not respect bounds")
	}
}

func TestMaxSlice(t *testing.T) {
	max, indices := MaxSlice([]float64{1, 3, 2, 3})
	if max != 3 {
		t.Errorf("max = %v, want 3", max)
	}
	if len(indices) != 2 || indices[0] != 1 || indices[1] != 3 {
		t.Errorf("indices = %v, want [1 3]", indices)
	}
}
