package fixedpoint

import (
	"math"

	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

func (f Format) one() float64 {
	return math.Ldexp(1, int(f.FractionBits))
}

func (f Format) clamp(v int64) int64 {
	return min(max(v, f.Min), f.Max)
}

// Encode converts x to fixed point: round(x * 2^FractionBits), clamped to
// [Min, Max]. NaN and infinities encode as 0.
func Encode[T constraints.Float](x T, f Format) int64 {
	v := float64(x)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	scaled := math.Round(v * f.one())
	switch {
	case scaled <= float64(f.Min):
		return f.Min
	case scaled >= float64(f.Max):
		return f.Max
	}
	return int64(scaled)
}

// Decode converts a fixed-point value back to a float.
func Decode[T constraints.Float](v int64, f Format) T {
	return T(float64(v) / f.one())
}

// EncodeTensor serializes the whole buffer of t.
func EncodeTensor(t *tensor.Tensor, f Format) (Operand, error) {
	switch t.DType() {
	case tensor.Float32:
		return encodeAll(t.AsFloat32(), f), nil
	case tensor.Float64:
		return encodeAll(t.AsFloat64(), f), nil
	default:
		return nil, errors.Errorf("fixedpoint: cannot encode %s", t.DType())
	}
}

func encodeAll[T constraints.Float](data []T, f Format) Operand {
	out := make(Operand, len(data))
	for i, x := range data {
		out[i] = Encode(x, f)
	}
	return out
}

// DecodeTensor deserializes values into a new tensor of type dt.
func DecodeTensor(values []int64, dt tensor.DataType, f Format) (*tensor.Tensor, error) {
	switch dt {
	case tensor.Float32:
		return decodeAll[float32](values, f), nil
	case tensor.Float64:
		return decodeAll[float64](values, f), nil
	default:
		return nil, errors.Errorf("fixedpoint: cannot decode into %s", dt)
	}
}

func decodeAll[T constraints.Float](values []int64, f Format) *tensor.Tensor {
	out := tensor.Zeros[T](len(values))
	data := tensor.Data[T](out)
	for i, v := range values {
		data[i] = Decode[T](v, f)
	}
	return out
}
