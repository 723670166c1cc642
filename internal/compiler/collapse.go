package compiler

import (
	"github.com/born-ml/lumen/internal/graph"
	"github.com/born-ml/lumen/internal/op"
)

// CollapseContiguous removes Contiguous nodes whose input view is already
// dense and in order, such as a Contiguous applied to another one. Their
// consumers read the source directly.
type CollapseContiguous struct{}

// Name returns the pass name.
func (CollapseContiguous) Name() string { return "CollapseContiguous" }

// Run collapses redundant Contiguous nodes of g.
func (CollapseContiguous) Run(g *graph.Graph, remap graph.Remap) error {
	for _, id := range g.Nodes() {
		if g.Op(id).Kind() != op.KindContiguous {
			continue
		}
		srcs := g.Sources(id)
		if len(srcs) != 1 || srcs[0].Slot != 0 || !srcs[0].Shape.IsContiguous() {
			continue
		}
		if err := g.Replace(id, srcs[0].Node, remap); err != nil {
			return err
		}
	}
	return nil
}
