package op

import (
	"strings"

	"github.com/born-ml/lumen/internal/parallel"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Fused applies a chain of unary kinds in one sweep over its input, in order.
// It is produced by the elementwise fusion pass.
type Fused struct {
	Chain []Kind
}

// NewFused returns a Fused operator for chain. Every kind must be unary.
func NewFused(chain ...Kind) (*Fused, error) {
	if len(chain) == 0 {
		return nil, errors.New("op: empty fusion chain")
	}
	for _, k := range chain {
		if !k.IsUnary() {
			return nil, errors.Errorf("op: cannot fuse %s", k)
		}
	}
	return &Fused{Chain: append([]Kind(nil), chain...)}, nil
}

func (f *Fused) Kind() Kind   { return KindFused }
func (f *Fused) Arity() int   { return 1 }
func (f *Fused) Outputs() int { return 1 }

func (f *Fused) String() string {
	names := make([]string, len(f.Chain))
	for i, k := range f.Chain {
		names[i] = k.String()
	}
	return "Fused(" + strings.Join(names, "→") + ")"
}

func (f *Fused) OutputShape(in []shape.Tracker) (shape.Tracker, error) {
	if err := checkShapes(f, in); err != nil {
		return shape.Tracker{}, err
	}
	return in[0].Contiguous(), nil
}

func (f *Fused) Process(in []Input, env Env) ([]*tensor.Tensor, error) {
	if err := checkInputs(f, in); err != nil {
		return nil, err
	}
	ix, err := in[0].Shape.Indexer(env.Dims)
	if err != nil {
		return nil, err
	}
	switch x := in[0].Tensor; x.DType() {
	case tensor.Float32:
		return []*tensor.Tensor{fusedKernel[float32](x, ix, f.Chain, env.Parallel)}, nil
	case tensor.Float64:
		return []*tensor.Tensor{fusedKernel[float64](x, ix, f.Chain, env.Parallel)}, nil
	default:
		return nil, unsupported(f, x.DType())
	}
}

// fusedKernel matches the unfused chain at invalid positions: the head writes
// 0 there and every later kind is applied to that 0.
func fusedKernel[T constraints.Float](x *tensor.Tensor, ix *shape.Indexer, chain []Kind, cfg parallel.Config) *tensor.Tensor {
	return mapKernel(x, ix, compose[T](chain), compose[T](chain[1:])(0), cfg)
}

func compose[T constraints.Float](chain []Kind) func(T) T {
	fns := make([]func(T) T, len(chain))
	for i, k := range chain {
		fns[i] = unaryFunc[T](k)
	}
	return func(v T) T {
		for _, fn := range fns {
			v = fn(v)
		}
		return v
	}
}
