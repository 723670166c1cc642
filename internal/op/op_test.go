package op

import (
	"math"
	"testing"

	"github.com/born-ml/lumen/internal/parallel"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input[T float32 | float64](data []T, st shape.Tracker) Input {
	return Input{Tensor: tensor.FromSlice(data), Shape: st}
}

func run1(t *testing.T, o Operator, env Env, in ...Input) *tensor.Tensor {
	t.Helper()
	out, err := o.Process(in, env)
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func TestBinaryBroadcastAdd(t *testing.T) {
	a := input([]float32{1, 2, 3, 4}, shape.NewKnown(2, 2))
	b := input([]float32{10, 20}, shape.NewKnown(2, 1))

	out := run1(t, Add(), Env{}, a, b)
	assert.Equal(t, []float32{11, 12, 23, 24}, out.AsFloat32())

	st, err := Add().OutputShape([]shape.Tracker{a.Shape, b.Shape})
	require.NoError(t, err)
	assert.Equal(t, shape.Dims(2, 2), st.Shape())
}

func TestBinaryKinds(t *testing.T) {
	a := input([]float64{7, -7, 2, 5}, shape.NewKnown(4))
	b := input([]float64{3, 3, 4, 5}, shape.NewKnown(4))

	tests := []struct {
		o    *Binary
		want []float64
	}{
		{Add(), []float64{10, -4, 6, 10}},
		{Mul(), []float64{21, -21, 8, 25}},
		{Mod(), []float64{1, -1, 2, 0}},
		{LessThan(), []float64{0, 1, 1, 0}},
		{Max(), []float64{7, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.o.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, run1(t, tt.o, Env{}, a, b).AsFloat64())
		})
	}
}

func TestBinaryInvalidReadIsZero(t *testing.T) {
	padded := must.M1(shape.NewKnown(3).Pad([][2]int{{1, 0}}))
	a := input([]float32{1, 2, 3}, padded)
	b := input([]float32{10, 10, 10, 10}, shape.NewKnown(4))
	assert.Equal(t, []float32{10, 11, 12, 13}, run1(t, Add(), Env{}, a, b).AsFloat32())
}

func TestBinaryScalarBroadcastSymbolic(t *testing.T) {
	a := input([]float32{1, 2, 3}, shape.New(shape.Sym("n")))
	b := input([]float32{1}, shape.New())
	out := run1(t, Add(), Env{Dims: shape.Bindings{"n": 3}}, a, b)
	assert.Equal(t, []float32{2, 3, 4}, out.AsFloat32())
}

func TestBinarySymbolicMismatch(t *testing.T) {
	a := input([]float32{1, 2, 3, 4}, shape.New(shape.Sym("n")))
	b := input([]float32{1, 2, 3}, shape.NewKnown(3))
	_, err := Add().Process([]Input{a, b}, Env{Dims: shape.Bindings{"n": 4}})
	require.ErrorIs(t, err, shape.ErrBroadcast)
}

func TestBinaryDTypeMismatch(t *testing.T) {
	a := input([]float32{1}, shape.NewKnown(1))
	b := input([]float64{1}, shape.NewKnown(1))
	_, err := Mul().Process([]Input{a, b}, Env{})
	require.ErrorIs(t, err, ErrUnsupportedDType)
}

func TestArity(t *testing.T) {
	a := input([]float32{1}, shape.NewKnown(1))
	_, err := Add().Process([]Input{a}, Env{})
	require.ErrorIs(t, err, ErrArity)

	_, err = Sqrt().OutputShape(nil)
	require.ErrorIs(t, err, ErrArity)

	_, err = Sqrt().Process([]Input{{Shape: shape.NewKnown(1)}}, Env{})
	require.ErrorIs(t, err, ErrMissingInput)
}

func TestKindConstructors(t *testing.T) {
	b := must.M1(NewBinary(KindMax))
	assert.Equal(t, KindMax, b.Kind())
	_, err := NewBinary(KindSqrt)
	require.Error(t, err)

	r := must.M1(NewReduce(KindMaxReduce, 1))
	assert.Equal(t, KindMaxReduce, r.Kind())
	assert.Equal(t, 1, r.Axis)
	_, err = NewReduce(KindAdd, 0)
	require.Error(t, err)
}

func TestReduce(t *testing.T) {
	x := input([]float32{1, 2, 3, 1, 2, 3}, shape.NewKnown(2, 3))

	assert.Equal(t, []float32{2, 4, 6}, run1(t, SumReduce(0), Env{}, x).AsFloat32())
	assert.Equal(t, []float32{3, 3}, run1(t, MaxReduce(1), Env{}, x).AsFloat32())
	assert.Equal(t, []float32{6, 6}, run1(t, SumReduce(1), Env{}, x).AsFloat32())

	st, err := SumReduce(0).OutputShape([]shape.Tracker{x.Shape})
	require.NoError(t, err)
	assert.Equal(t, shape.Dims(3), st.Shape())
}

func TestReduceThroughPermutedView(t *testing.T) {
	st := must.M1(shape.NewKnown(2, 3).Permute([]int{1, 0}))
	x := input([]float64{1, 2, 3, 4, 5, 6}, st)
	// Logical [[1 4] [2 5] [3 6]].
	assert.Equal(t, []float64{5, 7, 9}, run1(t, SumReduce(1), Env{}, x).AsFloat64())
	assert.Equal(t, []float64{3, 6}, run1(t, MaxReduce(0), Env{}, x).AsFloat64())
}

func TestReduceSkipsInvalid(t *testing.T) {
	padded := must.M1(shape.NewKnown(2).Pad([][2]int{{0, 2}}))
	x := input([]float32{-1, -2}, padded)
	assert.Equal(t, []float32{-1}, run1(t, MaxReduce(0), Env{}, x).AsFloat32())
	assert.Equal(t, []float32{-3}, run1(t, SumReduce(0), Env{}, x).AsFloat32())
}

func TestReduceEmptyLane(t *testing.T) {
	x := input([]float64{}, shape.NewKnown(2, 0))
	assert.Equal(t, []float64{math.Inf(-1), math.Inf(-1)}, run1(t, MaxReduce(1), Env{}, x).AsFloat64())
	assert.Equal(t, []float64{0, 0}, run1(t, SumReduce(1), Env{}, x).AsFloat64())
}

func TestReduceAxisOutOfRange(t *testing.T) {
	x := input([]float32{1, 2}, shape.NewKnown(2))
	_, err := SumReduce(1).OutputShape([]shape.Tracker{x.Shape})
	require.ErrorIs(t, err, shape.ErrAxisOutOfRange)
	_, err = SumReduce(1).Process([]Input{x}, Env{})
	require.ErrorIs(t, err, shape.ErrAxisOutOfRange)
}

func TestReduceSymbolicUnbound(t *testing.T) {
	x := input([]float32{1, 2}, shape.New(shape.Sym("n")))
	_, err := SumReduce(0).Process([]Input{x}, Env{})
	require.ErrorIs(t, err, shape.ErrUnboundDim)
}

func TestUnaryHonorsView(t *testing.T) {
	st := must.M1(shape.NewKnown(2, 2).Permute([]int{1, 0}))
	x := input([]float32{1, 4, 9, 16}, st)
	assert.Equal(t, []float32{1, 3, 2, 4}, run1(t, Sqrt(), Env{}, x).AsFloat32())

	padded := must.M1(shape.NewKnown(1).Pad([][2]int{{1, 0}}))
	y := input([]float64{1}, padded)
	assert.Equal(t, []float64{0, 2}, run1(t, Exp2(), Env{}, y).AsFloat64())
}

func TestUnaryKinds(t *testing.T) {
	x := input([]float64{4}, shape.NewKnown(1))
	assert.InDelta(t, 2.0, run1(t, Log2(), Env{}, x).AsFloat64()[0], 1e-12)
	assert.InDelta(t, 16.0, run1(t, Exp2(), Env{}, x).AsFloat64()[0], 1e-12)
	assert.InDelta(t, math.Sin(4), run1(t, Sin(), Env{}, x).AsFloat64()[0], 1e-12)
	assert.InDelta(t, 0.25, run1(t, Recip(), Env{}, x).AsFloat64()[0], 1e-12)

	_, err := NewUnary(KindAdd)
	require.Error(t, err)
}

func TestUnaryParallel(t *testing.T) {
	n := 1000
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 16}
	out := run1(t, Recip(), Env{Parallel: cfg}, input(data, shape.NewKnown(n))).AsFloat32()
	for i := 1; i < n; i++ {
		require.InDelta(t, 1/float32(i), out[i], 1e-6)
	}
}

func TestMovementIsZeroCopy(t *testing.T) {
	x := input([]float32{1, 2, 3, 4, 5, 6}, shape.NewKnown(2, 3))
	movers := []Operator{
		&Permute{Perm: []int{1, 0}},
		&Reshape{Dims: shape.Dims(3, 2)},
		&Expand{Axis: 0, Size: shape.Known(4)},
		&Slice{Ranges: []shape.Range{{Start: 1, End: 2}}},
		&Pad{Padding: [][2]int{{1, 1}}},
	}
	for _, m := range movers {
		t.Run(m.String(), func(t *testing.T) {
			assert.True(t, m.Kind().IsMovement())
			out := run1(t, m, Env{}, x)
			assert.True(t, out.SameBuffer(x.Tensor))
			out.Release()
			assert.False(t, x.Tensor.Released())
		})
	}
}

func TestMovementOutputShape(t *testing.T) {
	st := shape.NewKnown(2, 3)
	out, err := (&Permute{Perm: []int{1, 0}}).OutputShape([]shape.Tracker{st})
	require.NoError(t, err)
	assert.Equal(t, shape.Dims(3, 2), out.Shape())

	_, err = (&Reshape{Dims: shape.Dims(5)}).OutputShape([]shape.Tracker{st})
	require.ErrorIs(t, err, shape.ErrReshapeMismatch)

	_, err = (&Permute{Perm: []int{0, 0}}).OutputShape([]shape.Tracker{st})
	require.ErrorIs(t, err, shape.ErrInvalidPermutation)
}

func TestContiguousIdempotent(t *testing.T) {
	st := must.M1(shape.NewKnown(2, 3).Permute([]int{1, 0}))
	st = must.M1(st.Pad([][2]int{{0, 1}, {0, 0}}))
	x := input([]float32{1, 2, 3, 4, 5, 6}, st)

	once := run1(t, &Contiguous{}, Env{}, x)
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6, 0, 0}, once.AsFloat32())

	next := must.M1((&Contiguous{}).OutputShape([]shape.Tracker{st}))
	twice := run1(t, &Contiguous{}, Env{}, Input{Tensor: once, Shape: next})
	assert.Equal(t, once.AsFloat32(), twice.AsFloat32())
	assert.False(t, once.SameBuffer(twice))
}

func TestConstant(t *testing.T) {
	out := run1(t, Scalar(2.5, tensor.Float32), Env{})
	assert.Equal(t, []float32{2.5}, out.AsFloat32())

	c := DimValue(shape.Sym("n"), tensor.Float64)
	out = run1(t, c, Env{Dims: shape.Bindings{"n": 7}})
	assert.Equal(t, []float64{7}, out.AsFloat64())

	_, err := c.Process(nil, Env{})
	require.ErrorIs(t, err, shape.ErrUnboundDim)

	st := must.M1(c.OutputShape(nil))
	assert.Equal(t, 0, st.Rank())
}

func TestLoadWithoutTensor(t *testing.T) {
	l := &Load{Name: "x", Dims: shape.Dims(2), DType: tensor.Float32}
	_, err := l.Process(nil, Env{})
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Equal(t, shape.Dims(2), must.M1(l.OutputShape(nil)).Shape())
}

func TestFunction(t *testing.T) {
	double := &Function{
		Name:      "double",
		NumInputs: 1,
		Dims:      shape.Dims(2),
		Fn: func(in []Input, env Env) ([]*tensor.Tensor, error) {
			vals, err := Values(in[0], env.Dims)
			if err != nil {
				return nil, err
			}
			out := make([]float32, len(vals))
			for i, v := range vals {
				out[i] = float32(2 * v)
			}
			return []*tensor.Tensor{tensor.FromSlice(out)}, nil
		},
	}
	x := input([]float32{1, 2}, shape.NewKnown(2))
	assert.Equal(t, []float32{2, 4}, run1(t, double, Env{}, x).AsFloat32())
}

func TestFunctionPanicIsAnError(t *testing.T) {
	boom := &Function{
		Name:      "boom",
		NumInputs: Variadic,
		Fn: func([]Input, Env) ([]*tensor.Tensor, error) {
			panic("boom")
		},
	}
	_, err := boom.Process(nil, Env{})
	require.ErrorIs(t, err, ErrFunctionPanicked)
}

func TestPrintHasNoOutputs(t *testing.T) {
	x := input([]float32{1, 2}, shape.NewKnown(2))
	out, err := (&Print{Message: "x"}).Process([]Input{x}, Env{})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, (&Print{}).Outputs())
}

func TestFused(t *testing.T) {
	f, err := NewFused(KindSqrt, KindRecip)
	require.NoError(t, err)
	x := input([]float32{4, 16}, shape.NewKnown(2))
	assert.Equal(t, []float32{0.5, 0.25}, run1(t, f, Env{}, x).AsFloat32())
	assert.Equal(t, "Fused(Sqrt→Recip)", f.String())

	_, err = NewFused(KindSqrt, KindAdd)
	require.Error(t, err)
	_, err = NewFused()
	require.Error(t, err)
}

func TestFusedPaddedMatchesChain(t *testing.T) {
	padded := must.M1(shape.NewKnown(2).Pad([][2]int{{1, 0}}))
	x := input([]float32{1, 4}, padded)

	step := run1(t, Sqrt(), Env{}, x)
	want := run1(t, Exp2(), Env{}, Input{Tensor: step, Shape: shape.NewKnown(3)}).AsFloat32()

	f := must.M1(NewFused(KindSqrt, KindExp2))
	got := run1(t, f, Env{}, x).AsFloat32()
	assert.InDeltaSlice(t, want, got, 1e-6)
	assert.Equal(t, float32(1), got[0])
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, KindSin.IsUnary())
	assert.True(t, KindMod.IsBinary())
	assert.True(t, KindMaxReduce.IsReduce())
	assert.True(t, KindPad.IsMovement())
	assert.False(t, KindContiguous.IsMovement())
	assert.Equal(t, "LessThan", KindLessThan.String())
	assert.Equal(t, "Unknown", Kind(999).String())
}

type fakeCustom struct{ *Contiguous }

func (fakeCustom) Kind() Kind         { return KindCustom }
func (fakeCustom) Capability() string { return "fake" }

func TestHasCapability(t *testing.T) {
	c := fakeCustom{&Contiguous{}}
	assert.True(t, HasCapability(c, "fake"))
	assert.False(t, HasCapability(c, "other"))
	assert.False(t, HasCapability(&Contiguous{}, "fake"))
}
