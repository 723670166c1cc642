// Package engine executes lumen graphs.
//
// Nodes run in topological order. Each output is kept only until its last
// consumer has run, unless the node is retained, in which case the graph's
// result store holds on to it for the caller.
package engine

import (
	"github.com/born-ml/lumen/internal/graph"
	"github.com/born-ml/lumen/internal/op"
	"github.com/born-ml/lumen/internal/parallel"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// ErrMissingTensor is returned when a node's input was never produced.
var ErrMissingTensor = errors.New("missing upstream tensor")

// Options configures a run.
type Options struct {
	// Parallel enables kernel loop splitting and running the nodes of one
	// dependency level concurrently. Disabled by default.
	Parallel parallel.Config
}

// DefaultOptions returns single-threaded execution.
func DefaultOptions() Options {
	return Options{Parallel: parallel.Sequential()}
}

type slotKey struct {
	node graph.NodeID
	slot int
}

type run struct {
	g       *graph.Graph
	env     op.Env
	results map[slotKey]*tensor.Tensor
	pending map[graph.NodeID]int
}

// Run executes every live node of g exactly once. Results of a previous run
// are discarded first. On error the run stops and every transient buffer is
// released.
func Run(g *graph.Graph, opts Options) error {
	g.ClearResults()
	r := &run{
		g:       g,
		env:     op.Env{Dims: g.Dims(), Parallel: opts.Parallel},
		results: map[slotKey]*tensor.Tensor{},
		pending: map[graph.NodeID]int{},
	}
	defer r.releaseAll()

	if opts.Parallel.Enabled {
		levels, err := g.Levels()
		if err != nil {
			return err
		}
		for _, id := range g.Nodes() {
			r.pending[id] = g.Consumers(id)
		}
		n := 0
		for _, level := range levels {
			if err := r.runLevel(level, opts.Parallel.NumWorkers); err != nil {
				return err
			}
			n += len(level)
		}
		klog.V(1).Infof("engine: ran %d nodes in %d levels", n, len(levels))
		return nil
	}

	order, err := g.TopoSort()
	if err != nil {
		return err
	}
	for _, id := range order {
		r.pending[id] = g.Consumers(id)
	}
	for _, id := range order {
		outs, err := r.compute(id)
		if err != nil {
			return err
		}
		r.commit(id, outs)
	}
	klog.V(1).Infof("engine: ran %d nodes", len(order))
	return nil
}

// runLevel computes independent nodes concurrently, then commits them in
// order. compute only reads shared state, so no locking is needed.
func (r *run) runLevel(level []graph.NodeID, workers int) error {
	outs := make([][]*tensor.Tensor, len(level))
	var eg errgroup.Group
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i, id := range level {
		eg.Go(func() error {
			var err error
			outs[i], err = r.compute(id)
			return err
		})
	}
	err := eg.Wait()
	for i, id := range level {
		if err != nil {
			releaseOwned(r.g, id, outs[i])
			continue
		}
		r.commit(id, outs[i])
	}
	return err
}

// compute returns the outputs of id: its materialized tensors, checked against
// the bindings of this run, or the result of running its operator on the
// upstream buffers.
func (r *run) compute(id graph.NodeID) ([]*tensor.Tensor, error) {
	o := r.g.Op(id)
	if r.g.IsMaterialized(id) {
		if err := r.g.CheckBuffers(id); err != nil {
			return nil, err
		}
		outs := make([]*tensor.Tensor, o.Outputs())
		for slot := range outs {
			outs[slot] = r.g.Tensor(id, slot)
		}
		return outs, nil
	}
	srcs := r.g.Sources(id)
	in := make([]op.Input, len(srcs))
	for i, src := range srcs {
		t := r.lookup(src.Node, src.Slot)
		if t == nil {
			return nil, errors.Wrapf(ErrMissingTensor, "node %d (%s) input %d from node %d slot %d",
				id, o, i, src.Node, src.Slot)
		}
		in[i] = op.Input{Tensor: t, Shape: src.Shape}
	}
	if klog.V(2).Enabled() {
		klog.Infof("engine: node %d %s", id, o)
	}
	outs, err := o.Process(in, r.env)
	if err != nil {
		return nil, errors.WithMessagef(err, "node %d", id)
	}
	return outs, nil
}

func (r *run) lookup(id graph.NodeID, slot int) *tensor.Tensor {
	if t := r.g.Tensor(id, slot); t != nil {
		return t
	}
	return r.results[slotKey{id, slot}]
}

// commit stores the outputs of id, hands retained ones to the graph, and
// frees upstream buffers that have no consumer left.
func (r *run) commit(id graph.NodeID, outs []*tensor.Tensor) {
	owned := !r.g.IsMaterialized(id)
	for slot, t := range outs {
		if t == nil {
			continue
		}
		if owned && r.g.IsKept(id) {
			r.g.StoreResult(id, slot, t.Share())
		}
		if owned {
			r.results[slotKey{id, slot}] = t
		}
	}
	if r.pending[id] == 0 {
		r.free(id)
	}
	for _, src := range r.g.Sources(id) {
		r.pending[src.Node]--
		if r.pending[src.Node] == 0 {
			r.free(src.Node)
		}
	}
}

// free releases the transient outputs of id.
func (r *run) free(id graph.NodeID) {
	for slot := range r.g.Op(id).Outputs() {
		key := slotKey{id, slot}
		if t, ok := r.results[key]; ok {
			t.Release()
			delete(r.results, key)
		}
	}
}

func (r *run) releaseAll() {
	for key, t := range r.results {
		t.Release()
		delete(r.results, key)
	}
}

func releaseOwned(g *graph.Graph, id graph.NodeID, outs []*tensor.Tensor) {
	if g.IsMaterialized(id) {
		return
	}
	for _, t := range outs {
		if t != nil {
			t.Release()
		}
	}
}
