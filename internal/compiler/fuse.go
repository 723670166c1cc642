package compiler

import (
	"slices"

	"github.com/born-ml/lumen/internal/graph"
	"github.com/born-ml/lumen/internal/op"
	"k8s.io/klog/v2"
)

// FuseElementwise collapses chains of unary operators into one Fused node.
// A link is fused only when the producer is not retained, feeds exactly one
// consumer, and that consumer reads it through a contiguous view.
type FuseElementwise struct{}

// Name returns the pass name.
func (FuseElementwise) Name() string { return "FuseElementwise" }

func unaryChain(o op.Operator) []op.Kind {
	switch o.Kind() {
	case op.KindFused:
		return o.(*op.Fused).Chain
	case op.KindLog2, op.KindExp2, op.KindSin, op.KindSqrt, op.KindRecip:
		return []op.Kind{o.Kind()}
	}
	return nil
}

// next returns the node fused after id, or -1.
func fuseNext(g *graph.Graph, id graph.NodeID) graph.NodeID {
	if g.IsKept(id) {
		return -1
	}
	out := g.Edges(id, graph.Outgoing)
	if len(out) != 1 || out[0].SrcSlot != 0 || !out[0].Shape.IsContiguous() {
		return -1
	}
	if unaryChain(g.Op(out[0].Dst)) == nil {
		return -1
	}
	return out[0].Dst
}

// Run fuses every maximal unary chain of g.
func (FuseElementwise) Run(g *graph.Graph, remap graph.Remap) error {
	order, err := g.TopoSort()
	if err != nil {
		return err
	}
	done := map[graph.NodeID]bool{}
	fused := 0
	for _, head := range order {
		if done[head] || unaryChain(g.Op(head)) == nil {
			continue
		}
		chain := []graph.NodeID{head}
		for n := fuseNext(g, head); n >= 0; n = fuseNext(g, n) {
			chain = append(chain, n)
		}
		for _, id := range chain {
			done[id] = true
		}
		if len(chain) < 2 {
			continue
		}

		var kinds []op.Kind
		for _, id := range chain {
			kinds = append(kinds, unaryChain(g.Op(id))...)
		}
		fop, err := op.NewFused(kinds...)
		if err != nil {
			return err
		}
		next, err := g.CopyInputs(head, g.AddOp(fop)).Finish()
		if err != nil {
			return err
		}
		tail := chain[len(chain)-1]
		if err := g.Replace(tail, next, remap); err != nil {
			return err
		}
		// The interior now has no consumers; remove it back to front.
		interior := slices.Clone(chain[:len(chain)-1])
		slices.Reverse(interior)
		for _, id := range interior {
			if err := g.RemoveNode(id); err != nil {
				return err
			}
		}
		fused++
		klog.V(2).Infof("compiler: fused nodes %v into node %d %s", chain, next, fop)
	}
	klog.V(1).Infof("compiler: fused %d chains", fused)
	return nil
}
