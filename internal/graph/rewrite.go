package graph

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Remap records which node took over from a removed one. It is threaded
// through every pass so ids held outside the graph can be brought up to date.
type Remap map[NodeID]NodeID

// Record notes that old was replaced by next.
func (r Remap) Record(old, next NodeID) {
	r[old] = next
}

// Resolve follows replacements from id to the node that currently stands for
// it. Ids that were never replaced resolve to themselves.
func (r Remap) Resolve(id NodeID) NodeID {
	for range len(r) {
		next, ok := r[id]
		if !ok {
			break
		}
		id = next
	}
	return id
}

// CopyInputs adds every input of from, in slot order, to b. It is step one of
// the rewrite protocol: the replacement reads exactly what the old node read.
func (g *Graph) CopyInputs(from NodeID, b *Builder) *Builder {
	for _, src := range g.Sources(from) {
		b.Input(src.Node, src.Slot, src.Shape)
	}
	return b
}

// MoveOutgoing rewires every outgoing edge of from to leave to instead, with
// the same slots and views. from is left without consumers.
func (g *Graph) MoveOutgoing(from, to NodeID) error {
	src, err := g.node(from)
	if err != nil {
		return err
	}
	dst, err := g.node(to)
	if err != nil {
		return err
	}
	for _, eid := range src.out {
		e := g.edges[eid]
		if e.SrcSlot >= dst.op.Outputs() {
			return errors.Wrapf(ErrSlotOutOfRange, "moving slot %d of node %d to %s", e.SrcSlot, from, dst.op)
		}
		if e.Dst == to || g.reaches(e.Dst, to) {
			return errors.Wrapf(ErrCycle, "moving edge %d from node %d to node %d", eid, from, to)
		}
	}
	for _, eid := range src.out {
		g.edges[eid].Src = to
		dst.out = append(dst.out, eid)
	}
	src.out = nil
	return nil
}

// Retarget performs step three of the rewrite protocol: it records old → next
// in remap and moves the retention flag.
func (g *Graph) Retarget(old, next NodeID, remap Remap) {
	if remap != nil {
		remap.Record(old, next)
	}
	if g.IsKept(old) {
		g.Unkeep(old)
		g.kept[next] = true
	}
	for i, id := range g.outputs {
		if id == old {
			g.outputs[i] = next
		}
	}
}

// Replace hands old's consumers and external references over to next and
// removes old: steps two to four of the rewrite protocol. next must already
// be wired to its inputs.
func (g *Graph) Replace(old, next NodeID, remap Remap) error {
	if old == next {
		return nil
	}
	if err := g.MoveOutgoing(old, next); err != nil {
		return err
	}
	g.Retarget(old, next, remap)
	if err := g.RemoveNode(old); err != nil {
		return err
	}
	klog.V(2).Infof("graph: replaced node %d with node %d (%s)", old, next, g.nodes[next].op)
	return nil
}
