package graph

import (
	"github.com/born-ml/lumen/internal/op"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Builder collects the ordered inputs of a node before it is added.
type Builder struct {
	g      *Graph
	op     op.Operator
	inputs []Source
}

// AddOp starts building a node running o.
func (g *Graph) AddOp(o op.Operator) *Builder {
	return &Builder{g: g, op: o}
}

// Input appends the next input: output slot of src, read through st.
func (b *Builder) Input(src NodeID, slot int, st shape.Tracker) *Builder {
	b.inputs = append(b.inputs, Source{Node: src, Slot: slot, Shape: st})
	return b
}

// Finish validates the inputs and adds the node. It checks arity, that every
// source exists and has the slot, and that the operator accepts the input
// views (axis ranges, reshape sizes and the like).
func (b *Builder) Finish() (NodeID, error) {
	if err := op.CheckArity(b.op, len(b.inputs)); err != nil {
		return -1, err
	}
	views := make([]shape.Tracker, len(b.inputs))
	for i, src := range b.inputs {
		if err := b.g.checkSlot(src.Node, src.Slot); err != nil {
			return -1, errors.WithMessagef(err, "input %d of %s", i, b.op)
		}
		views[i] = src.Shape
	}
	st, err := b.op.OutputShape(views)
	if err != nil {
		return -1, errors.WithMessagef(err, "adding %s", b.op)
	}
	id := b.g.addNode(b.op, st)
	for i, src := range b.inputs {
		b.g.linkEdge(src.Node, src.Slot, id, i, src.Shape)
	}
	if klog.V(3).Enabled() {
		klog.Infof("graph: added node %d %s%s", id, b.op, shape.FormatDims(st.Shape()))
	}
	return id, nil
}
