package op

import (
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
)

// Unary applies a scalar function to every logical element of its input.
type Unary struct {
	kind Kind
}

// NewUnary returns the unary operator of kind k.
func NewUnary(k Kind) (*Unary, error) {
	if !k.IsUnary() {
		return nil, errors.Errorf("op: %s is not a unary kind", k)
	}
	return &Unary{kind: k}, nil
}

// Log2 returns the base-2 logarithm operator.
func Log2() *Unary { return &Unary{kind: KindLog2} }

// Exp2 returns the base-2 exponential operator.
func Exp2() *Unary { return &Unary{kind: KindExp2} }

// Sin returns the sine operator.
func Sin() *Unary { return &Unary{kind: KindSin} }

// Sqrt returns the square root operator.
func Sqrt() *Unary { return &Unary{kind: KindSqrt} }

// Recip returns the reciprocal operator.
func Recip() *Unary { return &Unary{kind: KindRecip} }

func (u *Unary) Kind() Kind     { return u.kind }
func (u *Unary) Arity() int     { return 1 }
func (u *Unary) Outputs() int   { return 1 }
func (u *Unary) String() string { return u.kind.String() }

func (u *Unary) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(u, in); err != nil {
		return shape.Tracker{}, err
	}
	return in[0].Contiguous(), nil
}

func (u *Unary) Process(in []Input, env Env) ([]*tensor.Tensor, error) {
	if err := checkInputs(u, in); err != nil {
		return nil, err
	}
	ix, err := in[0].Shape.Indexer(env.Dims)
	if err != nil {
		return nil, err
	}
	switch x := in[0].Tensor; x.DType() {
	case tensor.Float32:
		return []*tensor.Tensor{mapKernel(x, ix, unaryFunc[float32](u.kind), 0, env.Parallel)}, nil
	case tensor.Float64:
		return []*tensor.Tensor{mapKernel(x, ix, unaryFunc[float64](u.kind), 0, env.Parallel)}, nil
	default:
		return nil, unsupported(u, x.DType())
	}
}
