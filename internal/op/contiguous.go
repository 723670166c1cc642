package op

import (
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
)

// Contiguous materializes its input view into a dense row-major buffer.
// Positions the view cannot read are written as 0.
type Contiguous struct{}

func (c *Contiguous) Kind() Kind     { return KindContiguous }
func (c *Contiguous) Arity() int     { return 1 }
func (c *Contiguous) Outputs() int   { return 1 }
func (c *Contiguous) String() string { return "Contiguous" }

func (c *Contiguous) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(c, in); err != nil {
		return shape.Tracker{}, err
	}
	return in[0].Contiguous(), nil
}

func (c *Contiguous) Process(in []Input, env Env) ([]*tensor.Tensor, error) {
	if err := checkInputs(c, in); err != nil {
		return nil, err
	}
	ix, err := in[0].Shape.Indexer(env.Dims)
	if err != nil {
		return nil, err
	}
	switch x := in[0].Tensor; x.DType() {
	case tensor.Float32:
		return []*tensor.Tensor{mapKernel(x, ix, identity[float32], 0, env.Parallel)}, nil
	case tensor.Float64:
		return []*tensor.Tensor{mapKernel(x, ix, identity[float64], 0, env.Parallel)}, nil
	default:
		return nil, unsupported(c, x.DType())
	}
}

func identity[T any](v T) T { return v }
