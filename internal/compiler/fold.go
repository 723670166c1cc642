package compiler

import (
	"fmt"
	"slices"

	"github.com/born-ml/lumen/internal/graph"
	"github.com/born-ml/lumen/internal/op"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// FoldConstants evaluates every subgraph that depends only on Constant nodes
// and replaces each computed node with a materialized Load. Constants holding
// a dimension extent and anything with a symbolic shape stay dynamic, as do
// caller inputs, opaque functions and backend operators.
type FoldConstants struct{}

// Name returns the pass name.
func (FoldConstants) Name() string { return "FoldConstants" }

func foldable(g *graph.Graph, id graph.NodeID) bool {
	o := g.Op(id)
	switch k := o.Kind(); {
	case k == op.KindConstant:
		return o.(*op.Constant).Dim == nil
	case k.IsUnary(), k.IsBinary(), k.IsReduce(), k.IsMovement(),
		k == op.KindContiguous, k == op.KindFused:
	default:
		return false
	}
	for _, d := range g.Shape(id).Shape() {
		if !d.IsKnown() {
			return false
		}
	}
	return true
}

// Run folds constant subgraphs of g.
func (FoldConstants) Run(g *graph.Graph, remap graph.Remap) error {
	order, err := g.TopoSort()
	if err != nil {
		return err
	}
	env := op.Env{Dims: g.Dims()}
	values := map[graph.NodeID]*tensor.Tensor{}
	installed := map[graph.NodeID]bool{}
	defer func() {
		for id, t := range values {
			if !installed[id] {
				t.Release()
			}
		}
	}()
	for _, id := range order {
		if !foldable(g, id) {
			continue
		}
		srcs := g.Sources(id)
		in := make([]op.Input, len(srcs))
		ready := true
		for i, s := range srcs {
			t := values[s.Node]
			if t == nil || s.Slot != 0 {
				ready = false
				break
			}
			in[i] = op.Input{Tensor: t, Shape: s.Shape}
		}
		if !ready {
			continue
		}
		outs, err := g.Op(id).Process(in, env)
		if errors.Is(err, shape.ErrUnboundDim) {
			continue
		}
		if err != nil {
			return errors.WithMessagef(err, "folding node %d", id)
		}
		values[id] = outs[0]
	}

	folded := 0
	var created []graph.NodeID
	for _, id := range order {
		t := values[id]
		if t == nil || g.Op(id).Kind().IsMovement() {
			continue
		}
		load := &op.Load{Name: fmt.Sprintf("folded%d", id), Dims: g.Shape(id).Shape(), DType: t.DType()}
		next, err := g.AddOp(load).Finish()
		if err != nil {
			return err
		}
		if err := g.SetTensor(next, t); err != nil {
			return err
		}
		installed[id] = true
		if err := g.Replace(id, next, remap); err != nil {
			return err
		}
		created = append(created, next)
		folded++
	}

	// Folded nodes that only fed other folded nodes are now unused. Walk
	// consumers before producers so whole chains go.
	dead := slices.Clone(order)
	slices.Reverse(dead)
	for _, id := range append(dead, created...) {
		if !g.Has(id) || values[id] == nil && !slices.Contains(created, id) {
			continue
		}
		if g.Consumers(id) == 0 && !g.IsKept(id) {
			t := g.Tensor(id, 0)
			if err := g.RemoveNode(id); err != nil {
				return err
			}
			if t != nil {
				t.Release()
			}
		}
	}
	klog.V(1).Infof("compiler: folded %d constant nodes", folded)
	return nil
}
