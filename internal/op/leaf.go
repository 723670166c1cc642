package op

import (
	"fmt"

	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
)

// Load is a leaf whose tensor is supplied by the caller before execution.
// The engine reads the tensor from the graph; Process only runs when none was
// set, and reports it.
type Load struct {
	Name  string
	Dims  []shape.Dim
	DType tensor.DataType
}

func (l *Load) Kind() Kind   { return KindLoad }
func (l *Load) Arity() int   { return 0 }
func (l *Load) Outputs() int { return 1 }

func (l *Load) String() string {
	return fmt.Sprintf("Load(%q %s%s)", l.Name, l.DType, shape.FormatDims(l.Dims))
}

func (l *Load) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(l, in); err != nil {
		return shape.Tracker{}, err
	}
	return shape.New(l.Dims...), nil
}

func (l *Load) Process([]Input, Env) ([]*tensor.Tensor, error) {
	return nil, errors.Wrapf(ErrMissingInput, "no tensor set for %s", l)
}

// Constant is a scalar leaf. Its value is either Value or, when Dim is set,
// the runtime extent of that dimension.
type Constant struct {
	Value float64
	Dim   *shape.Dim
	DType tensor.DataType
}

// Scalar returns a Constant holding v.
func Scalar(v float64, dt tensor.DataType) *Constant {
	return &Constant{Value: v, DType: dt}
}

// DimValue returns a Constant holding the runtime extent of d.
func DimValue(d shape.Dim, dt tensor.DataType) *Constant {
	return &Constant{Dim: &d, DType: dt}
}

func (c *Constant) Kind() Kind   { return KindConstant }
func (c *Constant) Arity() int   { return 0 }
func (c *Constant) Outputs() int { return 1 }

func (c *Constant) String() string {
	if c.Dim != nil {
		return fmt.Sprintf("Constant(%s)", c.Dim)
	}
	return fmt.Sprintf("Constant(%g)", c.Value)
}

func (c *Constant) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(c, in); err != nil {
		return shape.Tracker{}, err
	}
	return shape.New(), nil
}

// Eval returns the constant's value under dims.
func (c *Constant) Eval(dims shape.Bindings) (float64, error) {
	if c.Dim == nil {
		return c.Value, nil
	}
	v, err := c.Dim.Resolve(dims)
	if err != nil {
		return 0, err
	}
	return float64(v), nil
}

func (c *Constant) Process(in []Input, env Env) ([]*tensor.Tensor, error) {
	if err := checkInputs(c, in); err != nil {
		return nil, err
	}
	v, err := c.Eval(env.Dims)
	if err != nil {
		return nil, err
	}
	switch c.DType {
	case tensor.Float32:
		return []*tensor.Tensor{tensor.Scalar(float32(v))}, nil
	case tensor.Float64:
		return []*tensor.Tensor{tensor.Scalar(v)}, nil
	default:
		return nil, unsupported(c, c.DType)
	}
}
