package op

import (
	"fmt"

	"github.com/born-ml/lumen/internal/parallel"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Reduce folds one axis of its input. The output shape is the input shape
// with Axis removed. Positions the input view cannot read are skipped, so a
// fully invalid lane yields the identity: 0 for sum, -Inf for max.
type Reduce struct {
	kind Kind
	Axis int
}

// NewReduce returns the reduction of kind k over axis.
func NewReduce(k Kind, axis int) (*Reduce, error) {
	if !k.IsReduce() {
		return nil, errors.Errorf("op: %s is not a reduce kind", k)
	}
	return &Reduce{kind: k, Axis: axis}, nil
}

// SumReduce returns the operator summing over axis.
func SumReduce(axis int) *Reduce { return &Reduce{kind: KindSumReduce, Axis: axis} }

// MaxReduce returns the operator taking the maximum over axis.
func MaxReduce(axis int) *Reduce { return &Reduce{kind: KindMaxReduce, Axis: axis} }

func (r *Reduce) Kind() Kind     { return r.kind }
func (r *Reduce) Arity() int     { return 1 }
func (r *Reduce) Outputs() int   { return 1 }
func (r *Reduce) String() string { return fmt.Sprintf("%s(%d)", r.kind, r.Axis) }

func (r *Reduce) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(r, in); err != nil {
		return shape.Tracker{}, err
	}
	return in[0].RemoveAxis(r.Axis)
}

func (r *Reduce) Process(in []Input, env Env) ([]*tensor.Tensor, error) {
	if err := checkInputs(r, in); err != nil {
		return nil, err
	}
	ix, err := in[0].Shape.Indexer(env.Dims)
	if err != nil {
		return nil, err
	}
	dims := ix.Shape()
	if r.Axis < 0 || r.Axis >= len(dims) {
		return nil, errors.Wrapf(shape.ErrAxisOutOfRange, "%s on rank %d", r, len(dims))
	}
	lanes := Lanes{
		Outer: shape.NumElements(dims[:r.Axis]),
		Size:  dims[r.Axis],
		Inner: shape.NumElements(dims[r.Axis+1:]),
	}
	switch x := in[0].Tensor; x.DType() {
	case tensor.Float32:
		return []*tensor.Tensor{reduceKernel[float32](x, ix, lanes, r.kind, env.Parallel)}, nil
	case tensor.Float64:
		return []*tensor.Tensor{reduceKernel[float64](x, ix, lanes, r.kind, env.Parallel)}, nil
	default:
		return nil, unsupported(r, x.DType())
	}
}

// Lanes splits a shape around a reduced axis: logical index
// (o*Size + k)*Inner + j is element k of output lane o*Inner + j.
type Lanes struct {
	Outer, Size, Inner int
}

// Len returns the number of output elements.
func (l Lanes) Len() int {
	return l.Outer * l.Inner
}

// Logical returns the input logical index of element k of output lane out.
func (l Lanes) Logical(out, k int) int {
	o, j := out/l.Inner, out%l.Inner
	return (o*l.Size+k)*l.Inner + j
}

func reduceKernel[T constraints.Float](x *tensor.Tensor, ix *shape.Indexer, lanes Lanes, k Kind, cfg parallel.Config) *tensor.Tensor {
	src := tensor.Data[T](x)
	out := tensor.Zeros[T](lanes.Len())
	dst := tensor.Data[T](out)
	parallel.For(len(dst), func(o int) {
		var acc T
		if k == KindMaxReduce {
			acc = negInf[T]()
		}
		for i := 0; i < lanes.Size; i++ {
			v, ok := read(src, ix, lanes.Logical(o, i))
			if !ok {
				continue
			}
			if k == KindMaxReduce {
				acc = max(acc, v)
			} else {
				acc += v
			}
		}
		dst[o] = acc
	}, cfg)
	return out
}
