package transport

import (
	"encoding/binary"
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

// wireTensor is the self-describing map a tensor is encoded as. Type
// holds a NumPy array-protocol type string so that the encoding stays
// readable by msgpack-numpy peers.
type wireTensor struct {
	ND    bool   `msgpack:"nd"`
	Type  string `msgpack:"type"`
	Kind  string `msgpack:"kind"`
	Shape []int  `msgpack:"shape"`
	Data  []byte `msgpack:"data"`
}

const (
	typeUint8   = "|u1"
	typeFloat32 = "<f4"
	typeFloat64 = "<f8"
	typeInt64   = "<i8"
)

// toWire encodes t. Elements are little endian.
func toWire(t *tensor.Dense) (wireTensor, error) {
	if t == nil {
		return wireTensor{}, fmt.Errorf("toWire: nil tensor")
	}

	w := wireTensor{ND: true, Shape: []int(t.Shape().Clone())}
	switch data := t.Data().(type) {
	case []uint8:
		w.Type = typeUint8
		w.Data = make([]byte, len(data))
		copy(w.Data, data)

	case []float32:
		w.Type = typeFloat32
		w.Data = make([]byte, 4*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint32(w.Data[4*i:], math.Float32bits(v))
		}

	case []float64:
		w.Type = typeFloat64
		w.Data = make([]byte, 8*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint64(w.Data[8*i:], math.Float64bits(v))
		}

	case []int64:
		w.Type = typeInt64
		w.Data = make([]byte, 8*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint64(w.Data[8*i:], uint64(v))
		}

	default:
		return wireTensor{}, fmt.Errorf("toWire: unsupported dtype %v",
			t.Dtype())
	}
	return w, nil
}

// fromWire decodes a tensor, checking that the data matches the shape
func fromWire(w wireTensor) (*tensor.Dense, error) {
	if !w.ND {
		return nil, fmt.Errorf("fromWire: not an n-dimensional array")
	}

	size := 1
	for _, d := range w.Shape {
		if d < 0 {
			return nil, fmt.Errorf("fromWire: negative dimension in %v",
				w.Shape)
		}
		size *= d
	}
	shape := make([]int, len(w.Shape))
	copy(shape, w.Shape)

	var backing interface{}
	switch w.Type {
	case typeUint8:
		if len(w.Data) != size {
			return nil, sizeError(w, size)
		}
		data := make([]uint8, size)
		copy(data, w.Data)
		backing = data

	case typeFloat32:
		if len(w.Data) != 4*size {
			return nil, sizeError(w, size)
		}
		data := make([]float32, size)
		for i := range data {
			data[i] = math.Float32frombits(
				binary.LittleEndian.Uint32(w.Data[4*i:]))
		}
		backing = data

	case typeFloat64:
		if len(w.Data) != 8*size {
			return nil, sizeError(w, size)
		}
		data := make([]float64, size)
		for i := range data {
			data[i] = math.Float64frombits(
				binary.LittleEndian.Uint64(w.Data[8*i:]))
		}
		backing = data

	case typeInt64:
		if len(w.Data) != 8*size {
			return nil, sizeError(w, size)
		}
		data := make([]int64, size)
		for i := range data {
			data[i] = int64(binary.LittleEndian.Uint64(w.Data[8*i:]))
		}
		backing = data

	default:
		return nil, fmt.Errorf("fromWire: unsupported type %q", w.Type)
	}

	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(backing)),
		nil
}

func sizeError(w wireTensor, size int) error {
	return fmt.Errorf("fromWire: %v bytes of %q do not fill shape %v "+
		"(%v elements)", len(w.Data), w.Type, w.Shape, size)
}
