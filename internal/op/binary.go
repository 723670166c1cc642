package op

import (
	"slices"

	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
)

// Binary combines two inputs elementwise after broadcasting both views to a
// common shape. A position either operand cannot read (outside a slice or
// inside padding) contributes 0.
type Binary struct {
	kind Kind
}

// NewBinary returns the binary operator of kind k.
func NewBinary(k Kind) (*Binary, error) {
	if !k.IsBinary() {
		return nil, errors.Errorf("op: %s is not a binary kind", k)
	}
	return &Binary{kind: k}, nil
}

// Add returns the addition operator.
func Add() *Binary { return &Binary{kind: KindAdd} }

// Mul returns the multiplication operator.
func Mul() *Binary { return &Binary{kind: KindMul} }

// Mod returns the floating-point remainder operator.
func Mod() *Binary { return &Binary{kind: KindMod} }

// LessThan returns the comparison operator producing 1 where a < b and 0 elsewhere.
func LessThan() *Binary { return &Binary{kind: KindLessThan} }

// Max returns the elementwise maximum operator.
func Max() *Binary { return &Binary{kind: KindMax} }

func (b *Binary) Kind() Kind     { return b.kind }
func (b *Binary) Arity() int     { return 2 }
func (b *Binary) Outputs() int   { return 1 }
func (b *Binary) String() string { return b.kind.String() }

func (b *Binary) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(b, in); err != nil {
		return shape.Tracker{}, err
	}
	target, err := shape.BroadcastShapes(in[0].Shape(), in[1].Shape())
	if err != nil {
		return shape.Tracker{}, err
	}
	return shape.New(target...), nil
}

// Broadcast rewrites both operand views to their common shape and compiles
// them. The resolved extents must agree once symbolic dimensions are bound.
func Broadcast(a, b shape.Tracker, dims shape.Bindings) (*shape.Indexer, *shape.Indexer, error) {
	target, err := shape.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, nil, err
	}
	if a, err = a.BroadcastTo(target); err != nil {
		return nil, nil, err
	}
	if b, err = b.BroadcastTo(target); err != nil {
		return nil, nil, err
	}
	ia, err := a.Indexer(dims)
	if err != nil {
		return nil, nil, err
	}
	ib, err := b.Indexer(dims)
	if err != nil {
		return nil, nil, err
	}
	if !slices.Equal(ia.Shape(), ib.Shape()) {
		return nil, nil, errors.Wrapf(shape.ErrBroadcast, "resolved shapes %v and %v", ia.Shape(), ib.Shape())
	}
	return ia, ib, nil
}

func (b *Binary) Process(in []Input, env Env) ([]*tensor.Tensor, error) {
	if err := checkInputs(b, in); err != nil {
		return nil, err
	}
	x, y := in[0].Tensor, in[1].Tensor
	if x.DType() != y.DType() {
		return nil, errors.Wrapf(ErrUnsupportedDType, "%s on %s and %s", b, x.DType(), y.DType())
	}
	ia, ib, err := Broadcast(in[0].Shape, in[1].Shape, env.Dims)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", b)
	}
	switch x.DType() {
	case tensor.Float32:
		return []*tensor.Tensor{zipKernel(x, y, ia, ib, binaryFunc[float32](b.kind), env.Parallel)}, nil
	case tensor.Float64:
		return []*tensor.Tensor{zipKernel(x, y, ia, ib, binaryFunc[float64](b.kind), env.Parallel)}, nil
	default:
		return nil, unsupported(b, x.DType())
	}
}
