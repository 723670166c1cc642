package graph

import (
	"maps"
	"slices"

	"github.com/born-ml/lumen/internal/op"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
)

// SetDim binds symbolic dimension name to v for subsequent executions.
func (g *Graph) SetDim(name string, v int) {
	g.dims[name] = v
}

// Dims returns a copy of the dimension bindings.
func (g *Graph) Dims() shape.Bindings {
	return maps.Clone(g.dims)
}

// Keep marks id as retained: its outputs survive execution.
func (g *Graph) Keep(id NodeID) error {
	if _, err := g.node(id); err != nil {
		return err
	}
	g.kept[id] = true
	return nil
}

// Unkeep clears the retention flag of id.
func (g *Graph) Unkeep(id NodeID) {
	delete(g.kept, id)
}

// IsKept reports whether id is retained.
func (g *Graph) IsKept(id NodeID) bool {
	return g.kept[id]
}

// Kept returns the retained ids in ascending order.
func (g *Graph) Kept() []NodeID {
	ids := slices.Collect(maps.Keys(g.kept))
	slices.Sort(ids)
	return ids
}

// SetTensor materializes output slot 0 of id, typically the caller's data
// for a Load node. The graph takes ownership of t.
func (g *Graph) SetTensor(id NodeID, t *tensor.Tensor) error {
	return g.SetTensorAt(id, 0, t)
}

// SetTensorAt materializes output slot of id. A Load whose shape needs no
// bindings rejects a buffer of the wrong length with ErrBufferSize.
func (g *Graph) SetTensorAt(id NodeID, slot int, t *tensor.Tensor) error {
	if err := g.checkSlot(id, slot); err != nil {
		return err
	}
	n := g.nodes[id]
	if n.shape.IsStatic() {
		if err := checkBuffer(id, n, t, nil); err != nil {
			return err
		}
	}
	n.tensors[slot] = t
	return nil
}

// CheckBuffers verifies the materialized buffers of a Load against its shape
// under the current bindings. Shapes that do not resolve yet are skipped; the
// consumers report the unbound dimension.
func (g *Graph) CheckBuffers(id NodeID) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}
	for _, t := range n.tensors {
		if err := checkBuffer(id, n, t, g.dims); err != nil {
			return err
		}
	}
	return nil
}

func checkBuffer(id NodeID, n *node, t *tensor.Tensor, b shape.Bindings) error {
	if t == nil || n.op.Kind() != op.KindLoad {
		return nil
	}
	want, err := n.shape.NumElements(b)
	if err == nil && t.Len() != want {
		return errors.Wrapf(ErrBufferSize, "node %d (%s): %d elements for shape %s",
			id, n.op, t.Len(), shape.FormatDims(n.shape.Shape()))
	}
	return nil
}

// Tensor returns the materialized tensor of (id, slot), or nil.
func (g *Graph) Tensor(id NodeID, slot int) *tensor.Tensor {
	n, err := g.node(id)
	if err != nil || slot < 0 || slot >= len(n.tensors) {
		return nil
	}
	return n.tensors[slot]
}

// IsMaterialized reports whether every output slot of id holds a tensor.
func (g *Graph) IsMaterialized(id NodeID) bool {
	n, err := g.node(id)
	if err != nil || len(n.tensors) == 0 {
		return false
	}
	for _, t := range n.tensors {
		if t == nil {
			return false
		}
	}
	return true
}

// StoreResult records the output of a retained node after execution.
func (g *Graph) StoreResult(id NodeID, slot int, t *tensor.Tensor) {
	ts := g.results[id]
	if len(ts) <= slot {
		ts = append(ts, make([]*tensor.Tensor, slot+1-len(ts))...)
	}
	if old := ts[slot]; old != nil && old != t {
		old.Release()
	}
	ts[slot] = t
	g.results[id] = ts
}

// ClearResults drops every stored execution result.
func (g *Graph) ClearResults() {
	for _, ts := range g.results {
		for _, t := range ts {
			if t != nil {
				t.Release()
			}
		}
	}
	clear(g.results)
}

// Result returns the output tensor of node id from the last execution, or
// its materialized tensor for leaves.
func (g *Graph) Result(id NodeID) (*tensor.Tensor, error) {
	return g.ResultAt(id, 0)
}

// ResultAt is Result for any output slot.
func (g *Graph) ResultAt(id NodeID, slot int) (*tensor.Tensor, error) {
	if ts := g.results[id]; slot < len(ts) && ts[slot] != nil {
		return ts[slot], nil
	}
	if t := g.Tensor(id, slot); t != nil {
		return t, nil
	}
	if !g.Has(id) {
		return nil, errors.Wrapf(ErrNodeNotFound, "node %d", id)
	}
	return nil, errors.Errorf("node %d slot %d has no result: is it kept and has the graph run?", id, slot)
}
