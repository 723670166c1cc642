package graph

import (
	"math"
	"slices"

	"github.com/born-ml/lumen/internal/op"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
)

// Tensor is a handle to output slot 0 of a node, with the view consumers read
// it through. Methods add nodes to the graph; the first construction error is
// kept on the graph and reported by Err, and later calls become no-ops.
type Tensor struct {
	g     *Graph
	ID    NodeID
	Shape shape.Tracker
	DType tensor.DataType
}

// Err returns the first error hit while building through Tensor handles.
func (g *Graph) Err() error {
	return g.err
}

func (g *Graph) fail(err error) Tensor {
	if g.err == nil {
		g.err = err
	}
	return Tensor{g: g, ID: -1}
}

// add builds a node from o and the given input handles.
func (g *Graph) add(o op.Operator, dt tensor.DataType, inputs ...Tensor) Tensor {
	if g.err != nil {
		return Tensor{g: g, ID: -1}
	}
	b := g.AddOp(o)
	for _, in := range inputs {
		if in.g != g {
			return g.fail(errors.Errorf("%s: input belongs to another graph", o))
		}
		b.Input(in.ID, 0, in.Shape)
	}
	id, err := b.Finish()
	if err != nil {
		return g.fail(err)
	}
	return Tensor{g: g, ID: id, Shape: g.nodes[id].shape, DType: dt}
}

// NewInput adds a Load node for caller-provided data.
func (g *Graph) NewInput(name string, dt tensor.DataType, dims ...shape.Dim) Tensor {
	return g.add(&op.Load{Name: name, Dims: dims, DType: dt}, dt)
}

// Constant adds a scalar constant.
func (g *Graph) Constant(v float64, dt tensor.DataType) Tensor {
	return g.add(op.Scalar(v, dt), dt)
}

// DimConstant adds a scalar holding the runtime extent of d.
func (g *Graph) DimConstant(d shape.Dim, dt tensor.DataType) Tensor {
	return g.add(op.DimValue(d, dt), dt)
}

// Graph returns the graph the handle belongs to.
func (t Tensor) Graph() *Graph {
	return t.g
}

// Dims returns the logical shape.
func (t Tensor) Dims() []shape.Dim {
	return t.Shape.Shape()
}

// Set materializes the data of an input node.
func (t Tensor) Set(data *tensor.Tensor) Tensor {
	if t.g.err != nil {
		return t
	}
	if data.DType() != t.DType {
		return t.g.fail(errors.Wrapf(op.ErrUnsupportedDType, "setting %s data on a %s input", data.DType(), t.DType))
	}
	if err := t.g.SetTensor(t.ID, data); err != nil {
		return t.g.fail(err)
	}
	return t
}

func (t Tensor) unary(o op.Operator) Tensor {
	return t.g.add(o, t.DType, t)
}

func (t Tensor) binary(o op.Operator, other Tensor) Tensor {
	return t.g.add(o, t.DType, t, other)
}

func (t Tensor) scalar(v float64) Tensor {
	return t.g.Constant(v, t.DType)
}

// Log2 returns log2(t).
func (t Tensor) Log2() Tensor { return t.unary(op.Log2()) }

// Exp2 returns 2^t.
func (t Tensor) Exp2() Tensor { return t.unary(op.Exp2()) }

// Sin returns sin(t).
func (t Tensor) Sin() Tensor { return t.unary(op.Sin()) }

// Sqrt returns the square root of t.
func (t Tensor) Sqrt() Tensor { return t.unary(op.Sqrt()) }

// Recip returns 1/t.
func (t Tensor) Recip() Tensor { return t.unary(op.Recip()) }

// Exp returns e^t, as 2^(t/ln 2).
func (t Tensor) Exp() Tensor { return t.Mul(t.scalar(1 / math.Ln2)).Exp2() }

// Log returns the natural logarithm of t.
func (t Tensor) Log() Tensor { return t.Log2().Mul(t.scalar(math.Ln2)) }

// Cos returns cos(t), as sin(π/2 - t).
func (t Tensor) Cos() Tensor { return t.scalar(math.Pi / 2).Sub(t).Sin() }

// Neg returns -t.
func (t Tensor) Neg() Tensor { return t.Mul(t.scalar(-1)) }

// Add returns t + other with broadcasting.
func (t Tensor) Add(other Tensor) Tensor { return t.binary(op.Add(), other) }

// Sub returns t - other.
func (t Tensor) Sub(other Tensor) Tensor { return t.Add(other.Neg()) }

// Mul returns t * other with broadcasting.
func (t Tensor) Mul(other Tensor) Tensor { return t.binary(op.Mul(), other) }

// Div returns t / other.
func (t Tensor) Div(other Tensor) Tensor { return t.Mul(other.Recip()) }

// Mod returns the floating-point remainder of t / other.
func (t Tensor) Mod(other Tensor) Tensor { return t.binary(op.Mod(), other) }

// Max returns the elementwise maximum.
func (t Tensor) Max(other Tensor) Tensor { return t.binary(op.Max(), other) }

// LessThan returns 1 where t < other and 0 elsewhere.
func (t Tensor) LessThan(other Tensor) Tensor { return t.binary(op.LessThan(), other) }

// reduce folds axes from the highest down so lower axis numbers stay valid.
func (t Tensor) reduce(newOp func(int) *op.Reduce, axes []int) Tensor {
	axes = slices.Clone(axes)
	slices.Sort(axes)
	axes = slices.Compact(axes)
	out := t
	for i := len(axes) - 1; i >= 0; i-- {
		out = out.unary(newOp(axes[i]))
	}
	return out
}

// SumReduce sums over the given axes, removing them.
func (t Tensor) SumReduce(axes ...int) Tensor { return t.reduce(op.SumReduce, axes) }

// MaxReduce takes the maximum over the given axes, removing them.
func (t Tensor) MaxReduce(axes ...int) Tensor { return t.reduce(op.MaxReduce, axes) }

// Mean averages over the given axes. Symbolic extents are divided out at
// run time.
func (t Tensor) Mean(axes ...int) Tensor {
	dims := t.Dims()
	out := t.SumReduce(axes...)
	for _, a := range axes {
		if a < 0 || a >= len(dims) {
			return t.g.fail(errors.Wrapf(shape.ErrAxisOutOfRange, "mean axis %d for rank %d", a, len(dims)))
		}
		out = out.Mul(t.g.DimConstant(dims[a], t.DType).Recip())
	}
	return out
}

// Permute reorders axes.
func (t Tensor) Permute(perm ...int) Tensor { return t.unary(&op.Permute{Perm: perm}) }

// Reshape reinterprets the elements with a new shape.
func (t Tensor) Reshape(dims ...shape.Dim) Tensor { return t.unary(&op.Reshape{Dims: dims}) }

// Expand inserts a broadcast axis.
func (t Tensor) Expand(axis int, size shape.Dim) Tensor {
	return t.unary(&op.Expand{Axis: axis, Size: size})
}

// Slice restricts each axis to a range.
func (t Tensor) Slice(ranges ...shape.Range) Tensor { return t.unary(&op.Slice{Ranges: ranges}) }

// Pad extends each axis with zero-reading positions.
func (t Tensor) Pad(padding ...[2]int) Tensor { return t.unary(&op.Pad{Padding: padding}) }

// Contiguous materializes the view into a dense buffer.
func (t Tensor) Contiguous() Tensor { return t.unary(&op.Contiguous{}) }

// Print logs the values of t when the graph runs. It returns t unchanged.
func (t Tensor) Print(message string) Tensor {
	t.unary(&op.Print{Message: message})
	return t
}

// Keep marks the node as retained.
func (t Tensor) Keep() Tensor {
	if t.g.err != nil {
		return t
	}
	if err := t.g.Keep(t.ID); err != nil {
		return t.g.fail(err)
	}
	return t
}

// Retrieve keeps the node and lists it among the graph's outputs.
func (t Tensor) Retrieve() Tensor {
	t = t.Keep()
	if t.g.err == nil && !slices.Contains(t.g.outputs, t.ID) {
		t.g.outputs = append(t.g.outputs, t.ID)
	}
	return t
}

// Remap returns the handle for the node that replaced t's node during
// compilation.
func (t Tensor) Remap(r Remap) Tensor {
	t.ID = r.Resolve(t.ID)
	return t
}

// Data returns the logical elements of t from the last execution.
func (t Tensor) Data() ([]float64, error) {
	if t.g.err != nil {
		return nil, t.g.err
	}
	res, err := t.g.Result(t.ID)
	if err != nil {
		return nil, err
	}
	return op.Values(op.Input{Tensor: res, Shape: t.Shape}, t.g.dims)
}

// Outputs returns the nodes marked with Retrieve, in call order.
func (g *Graph) Outputs() []NodeID {
	return slices.Clone(g.outputs)
}
