package engine

import (
	"bytes"
	"flag"
	"math"
	"os"
	"sync/atomic"
	"testing"

	"github.com/born-ml/lumen/internal/graph"
	"github.com/born-ml/lumen/internal/op"
	"github.com/born-ml/lumen/internal/parallel"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
)

var modes = map[string]Options{
	"sequential": DefaultOptions(),
	"parallel":   {Parallel: parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 2}},
}

func input(g *graph.Graph, name string, data []float32, dims ...int) graph.Tensor {
	return g.NewInput(name, tensor.Float32, shape.Dims(dims...)...).Set(tensor.FromSlice(data))
}

func TestBroadcastAdd(t *testing.T) {
	for name, opts := range modes {
		t.Run(name, func(t *testing.T) {
			g := graph.New()
			a := input(g, "a", []float32{1, 2, 3, 4}, 2, 2)
			b := input(g, "b", []float32{10, 20}, 2, 1)
			c := a.Add(b).Retrieve()
			require.NoError(t, g.Err())

			require.NoError(t, Run(g, opts))
			assert.Equal(t, []float64{11, 12, 23, 24}, must.M1(c.Data()))
		})
	}
}

func TestReductions(t *testing.T) {
	g := graph.New()
	x := input(g, "x", []float32{1, 2, 3, 1, 2, 3}, 2, 3)
	sum := x.SumReduce(0).Keep()
	mx := x.MaxReduce(1).Keep()
	all := x.SumReduce(0, 1).Keep()
	require.NoError(t, g.Err())

	require.NoError(t, Run(g, DefaultOptions()))
	assert.Equal(t, []float64{2, 4, 6}, must.M1(sum.Data()))
	assert.Equal(t, []float64{3, 3}, must.M1(mx.Data()))
	assert.Equal(t, []float64{12}, must.M1(all.Data()))
}

func TestEveryNodeRunsOnce(t *testing.T) {
	for name, opts := range modes {
		t.Run(name, func(t *testing.T) {
			g := graph.New()
			var calls atomic.Int32
			counting := func() *op.Function {
				return &op.Function{
					Name:      "count",
					NumInputs: op.Variadic,
					Dims:      shape.Dims(2),
					Fn: func(in []op.Input, env op.Env) ([]*tensor.Tensor, error) {
						calls.Add(1)
						return []*tensor.Tensor{tensor.FromSlice([]float32{1, 2})}, nil
					},
				}
			}
			x := input(g, "x", []float32{1, 2}, 2)
			id1 := must.M1(g.AddOp(counting()).Input(x.ID, 0, x.Shape).Finish())
			id2 := must.M1(g.AddOp(counting()).Input(x.ID, 0, x.Shape).Finish())
			id3 := must.M1(g.AddOp(counting()).
				Input(id1, 0, g.Shape(id1)).
				Input(id2, 0, g.Shape(id2)).
				Input(x.ID, 0, x.Shape).Finish())
			require.NoError(t, g.Keep(id3))

			require.NoError(t, Run(g, opts))
			assert.Equal(t, int32(3), calls.Load())
		})
	}
}

func TestIntermediatesAreFreed(t *testing.T) {
	var produced *tensor.Tensor
	build := func() (*graph.Graph, graph.NodeID) {
		g := graph.New()
		src := &op.Function{
			Name: "source",
			Dims: shape.Dims(2),
			Fn: func([]op.Input, op.Env) ([]*tensor.Tensor, error) {
				produced = tensor.FromSlice([]float32{4, 9})
				return []*tensor.Tensor{produced}, nil
			},
		}
		id := must.M1(g.AddOp(src).Finish())
		h := must.M1(g.AddOp(op.Sqrt()).Input(id, 0, g.Shape(id)).Finish())
		require.NoError(t, g.Keep(h))
		return g, id
	}

	g, _ := build()
	require.NoError(t, Run(g, DefaultOptions()))
	assert.True(t, produced.Released())

	g, id := build()
	require.NoError(t, g.Keep(id))
	require.NoError(t, Run(g, DefaultOptions()))
	assert.False(t, produced.Released())
	assert.Equal(t, []float32{4, 9}, must.M1(g.Result(id)).AsFloat32())
}

func TestLeafTensorsSurviveRuns(t *testing.T) {
	g := graph.New()
	data := tensor.FromSlice([]float32{1, 4})
	x := g.NewInput("x", tensor.Float32, shape.Dims(2)...).Set(data)
	y := x.Sqrt().Keep()
	require.NoError(t, g.Err())

	for range 2 {
		require.NoError(t, Run(g, DefaultOptions()))
		assert.Equal(t, []float64{1, 2}, must.M1(y.Data()))
	}
	assert.False(t, data.Released())
}

func TestRetainedMovementView(t *testing.T) {
	g := graph.New()
	x := input(g, "x", []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	p := x.Permute(1, 0).Keep()
	s := x.Slice(shape.All(), shape.Range{Start: 1, End: 3}).Keep()
	require.NoError(t, g.Err())

	require.NoError(t, Run(g, DefaultOptions()))
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, must.M1(p.Data()))
	assert.Equal(t, []float64{2, 3, 5, 6}, must.M1(s.Data()))
}

func TestSymbolicDims(t *testing.T) {
	g := graph.New()
	x := g.NewInput("x", tensor.Float32, shape.Sym("n"), shape.Known(2)).
		Set(tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}))
	m := x.Mean(0).Keep()
	require.NoError(t, g.Err())

	err := Run(g, DefaultOptions())
	require.ErrorIs(t, err, shape.ErrUnboundDim)

	g.SetDim("n", 3)
	require.NoError(t, Run(g, DefaultOptions()))
	got := must.M1(m.Data())
	assert.InDelta(t, 3.0, got[0], 1e-6)
	assert.InDelta(t, 4.0, got[1], 1e-6)
}

func TestCompositeOps(t *testing.T) {
	g := graph.New()
	x := input(g, "x", []float32{1, 2}, 2)
	y := input(g, "y", []float32{4, 8}, 2)
	outs := map[string]graph.Tensor{
		"sub": x.Sub(y).Keep(),
		"div": x.Div(y).Keep(),
		"exp": x.Exp().Keep(),
		"log": y.Log().Keep(),
		"cos": x.Cos().Keep(),
		"neg": x.Neg().Keep(),
	}
	want := map[string][]float64{
		"sub": {-3, -6},
		"div": {0.25, 0.25},
		"exp": {math.E, math.Exp(2)},
		"log": {math.Log(4), math.Log(8)},
		"cos": {math.Cos(1), math.Cos(2)},
		"neg": {-1, -2},
	}
	require.NoError(t, g.Err())
	require.NoError(t, Run(g, DefaultOptions()))
	for name, h := range outs {
		got := must.M1(h.Data())
		require.Len(t, got, 2, name)
		for i := range got {
			assert.InDelta(t, want[name][i], got[i], 1e-4, name)
		}
	}
}

func TestMissingLoad(t *testing.T) {
	g := graph.New()
	x := g.NewInput("x", tensor.Float32, shape.Dims(2)...)
	x.Sqrt().Keep()
	require.NoError(t, g.Err())
	require.ErrorIs(t, Run(g, DefaultOptions()), op.ErrMissingInput)
}

func TestBufferSizeChecked(t *testing.T) {
	g := graph.New()
	x := g.NewInput("x", tensor.Float32, shape.Sym("n")).Set(tensor.FromSlice([]float32{1, 2}))
	x.Add(x).Keep()
	require.NoError(t, g.Err())
	g.SetDim("n", 4)

	for name, opts := range modes {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, Run(g, opts), graph.ErrBufferSize)
		})
	}

	g.SetDim("n", 2)
	require.NoError(t, Run(g, DefaultOptions()))
}

func TestRunLogsNodeCount(t *testing.T) {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	require.NoError(t, fs.Set("v", "1"))
	require.NoError(t, fs.Set("logtostderr", "false"))
	var buf bytes.Buffer
	klog.SetOutput(&buf)
	defer func() {
		_ = fs.Set("v", "0")
		_ = fs.Set("logtostderr", "true")
		klog.SetOutput(os.Stderr)
	}()

	for name, opts := range modes {
		buf.Reset()
		g := graph.New()
		x := input(g, "x", []float32{1, 2}, 2)
		x.Add(x).Keep()
		require.NoError(t, g.Err())
		require.NoError(t, Run(g, opts), name)
		klog.Flush()
		assert.Contains(t, buf.String(), "engine: ran 2 nodes", name)
	}
}

// silent claims one output but produces none.
type silent struct{ *op.Contiguous }

func (silent) Arity() int { return 0 }
func (silent) OutputShape([]shape.Tracker) (shape.Tracker, error) {
	return shape.NewKnown(1), nil
}
func (silent) Process([]op.Input, op.Env) ([]*tensor.Tensor, error) { return nil, nil }

func TestMissingTensor(t *testing.T) {
	g := graph.New()
	id := must.M1(g.AddOp(silent{&op.Contiguous{}}).Finish())
	out := must.M1(g.AddOp(op.Sqrt()).Input(id, 0, g.Shape(id)).Finish())
	require.NoError(t, g.Keep(out))

	for name, opts := range modes {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, Run(g, opts), ErrMissingTensor)
		})
	}
}

func TestPrintDoesNotDisturb(t *testing.T) {
	g := graph.New()
	x := input(g, "x", []float32{1, 2}, 2)
	y := x.Print("x").Mul(x).Keep()
	require.NoError(t, g.Err())
	require.NoError(t, Run(g, DefaultOptions()))
	assert.Equal(t, []float64{1, 4}, must.M1(y.Data()))
}
