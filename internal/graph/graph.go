package graph

import (
	"maps"
	"slices"

	"github.com/born-ml/lumen/internal/op"
	"github.com/born-ml/lumen/internal/shape"
	"github.com/born-ml/lumen/internal/tensor"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// NodeID identifies a node. Ids are never reused within a Graph.
type NodeID int

// EdgeID identifies an edge. Ids are never reused within a Graph.
type EdgeID int

// Direction selects incoming or outgoing edges.
type Direction int

const (
	Incoming Direction = iota
	Outgoing
)

// Edge connects output slot SrcSlot of Src to input slot DstSlot of Dst.
// Shape is the view Dst reads the buffer through.
type Edge struct {
	ID      EdgeID
	Src     NodeID
	SrcSlot int
	Dst     NodeID
	DstSlot int
	Shape   shape.Tracker
}

// Source is one input of a node, in slot order.
type Source struct {
	Node  NodeID
	Slot  int
	Shape shape.Tracker
}

type node struct {
	op      op.Operator
	shape   shape.Tracker
	in      []EdgeID
	out     []EdgeID
	tensors []*tensor.Tensor
}

// Graph owns every node and edge. Removed nodes and edges leave nil
// tombstones so ids stay stable for the graph's lifetime.
//
// A Graph must not be used from more than one goroutine at a time.
type Graph struct {
	nodes   []*node
	edges   []*Edge
	dims    shape.Bindings
	kept    map[NodeID]bool
	results map[NodeID][]*tensor.Tensor
	outputs []NodeID
	err     error
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		dims:    shape.Bindings{},
		kept:    map[NodeID]bool{},
		results: map[NodeID][]*tensor.Tensor{},
	}
}

func (g *Graph) node(id NodeID) (*node, error) {
	if id < 0 || int(id) >= len(g.nodes) || g.nodes[id] == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "node %d", id)
	}
	return g.nodes[id], nil
}

func (g *Graph) mustNode(id NodeID) *node {
	n, err := g.node(id)
	if err != nil {
		exceptions.Panicf("graph: %v", err)
	}
	return n
}

// Has reports whether id names a live node.
func (g *Graph) Has(id NodeID) bool {
	_, err := g.node(id)
	return err == nil
}

// Op returns the operator of node id, or nil if it does not exist.
func (g *Graph) Op(id NodeID) op.Operator {
	n, err := g.node(id)
	if err != nil {
		return nil
	}
	return n.op
}

// Shape returns the view new consumers of node id read its outputs through.
func (g *Graph) Shape(id NodeID) shape.Tracker {
	n, err := g.node(id)
	if err != nil {
		return shape.Tracker{}
	}
	return n.shape
}

// Nodes returns every live node id in ascending order.
func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes))
	for i, n := range g.nodes {
		if n != nil {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	n := 0
	for _, nd := range g.nodes {
		if nd != nil {
			n++
		}
	}
	return n
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id EdgeID) (Edge, bool) {
	if id < 0 || int(id) >= len(g.edges) || g.edges[id] == nil {
		return Edge{}, false
	}
	return *g.edges[id], true
}

// Edges returns the incoming edges of id sorted by DstSlot, or its outgoing
// edges in insertion order.
func (g *Graph) Edges(id NodeID, dir Direction) []Edge {
	n, err := g.node(id)
	if err != nil {
		return nil
	}
	ids := n.out
	if dir == Incoming {
		ids = n.in
	}
	out := make([]Edge, len(ids))
	for i, eid := range ids {
		out[i] = *g.edges[eid]
	}
	if dir == Incoming {
		slices.SortStableFunc(out, func(a, b Edge) int { return a.DstSlot - b.DstSlot })
	}
	return out
}

// Sources returns the inputs of id in slot order.
func (g *Graph) Sources(id NodeID) []Source {
	in := g.Edges(id, Incoming)
	out := make([]Source, len(in))
	for i, e := range in {
		out[i] = Source{Node: e.Src, Slot: e.SrcSlot, Shape: e.Shape}
	}
	return out
}

// Consumers returns the number of outgoing edges of id.
func (g *Graph) Consumers(id NodeID) int {
	n, err := g.node(id)
	if err != nil {
		return 0
	}
	return len(n.out)
}

func (g *Graph) addNode(o op.Operator, st shape.Tracker) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &node{
		op:      o,
		shape:   st,
		tensors: make([]*tensor.Tensor, o.Outputs()),
	})
	return id
}

func (g *Graph) checkSlot(src NodeID, slot int) error {
	n, err := g.node(src)
	if err != nil {
		return err
	}
	if slot < 0 || slot >= n.op.Outputs() {
		return errors.Wrapf(ErrSlotOutOfRange, "%s (node %d) has %d outputs, slot %d", n.op, src, n.op.Outputs(), slot)
	}
	return nil
}

// linkEdge appends an edge without validation.
func (g *Graph) linkEdge(src NodeID, srcSlot int, dst NodeID, dstSlot int, st shape.Tracker) EdgeID {
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, &Edge{ID: id, Src: src, SrcSlot: srcSlot, Dst: dst, DstSlot: dstSlot, Shape: st})
	g.nodes[src].out = append(g.nodes[src].out, id)
	g.nodes[dst].in = append(g.nodes[dst].in, id)
	return id
}

// AddEdge connects (src, srcSlot) to (dst, dstSlot). It fails with ErrCycle
// when dst already reaches src.
func (g *Graph) AddEdge(src NodeID, srcSlot int, dst NodeID, dstSlot int, st shape.Tracker) (EdgeID, error) {
	if err := g.checkSlot(src, srcSlot); err != nil {
		return -1, err
	}
	if _, err := g.node(dst); err != nil {
		return -1, err
	}
	if g.reaches(dst, src) {
		return -1, errors.Wrapf(ErrCycle, "%d -> %d", src, dst)
	}
	return g.linkEdge(src, srcSlot, dst, dstSlot, st), nil
}

// RemoveEdge deletes an edge.
func (g *Graph) RemoveEdge(id EdgeID) error {
	e, ok := g.Edge(id)
	if !ok {
		return errors.Wrapf(ErrEdgeNotFound, "edge %d", id)
	}
	src, dst := g.mustNode(e.Src), g.mustNode(e.Dst)
	src.out = slices.DeleteFunc(src.out, func(x EdgeID) bool { return x == id })
	dst.in = slices.DeleteFunc(dst.in, func(x EdgeID) bool { return x == id })
	g.edges[id] = nil
	return nil
}

// RemoveNode deletes a node and its incoming edges. A node that still feeds
// another one cannot be removed: move or delete its outgoing edges first.
func (g *Graph) RemoveNode(id NodeID) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}
	if len(n.out) > 0 {
		return errors.Wrapf(ErrLiveEdges, "node %d (%s) has %d consumers", id, n.op, len(n.out))
	}
	for _, eid := range slices.Clone(n.in) {
		if err := g.RemoveEdge(eid); err != nil {
			return err
		}
	}
	g.nodes[id] = nil
	g.Unkeep(id)
	delete(g.results, id)
	g.outputs = slices.DeleteFunc(g.outputs, func(x NodeID) bool { return x == id })
	return nil
}

// Clone returns an independent copy of the graph structure. Tensors are
// shared by reference: neither copy releases them on its own.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:   make([]*node, len(g.nodes)),
		edges:   make([]*Edge, len(g.edges)),
		dims:    maps.Clone(g.dims),
		kept:    maps.Clone(g.kept),
		results: make(map[NodeID][]*tensor.Tensor, len(g.results)),
		outputs: slices.Clone(g.outputs),
		err:     g.err,
	}
	for i, n := range g.nodes {
		if n == nil {
			continue
		}
		c.nodes[i] = &node{
			op:      n.op,
			shape:   n.shape,
			in:      slices.Clone(n.in),
			out:     slices.Clone(n.out),
			tensors: slices.Clone(n.tensors),
		}
	}
	for i, e := range g.edges {
		if e != nil {
			ec := *e
			c.edges[i] = &ec
		}
	}
	for id, ts := range g.results {
		c.results[id] = slices.Clone(ts)
	}
	return c
}

// Assign replaces the contents of g with those of other. other must not be
// used afterwards.
func (g *Graph) Assign(other *Graph) {
	*g = *other
}

// Validate checks that every edge joins two live nodes and is listed on both
// of them. A failure means a rewrite broke the graph.
func (g *Graph) Validate() error {
	for i, e := range g.edges {
		if e == nil {
			continue
		}
		src, err := g.node(e.Src)
		if err != nil {
			return errors.Wrapf(err, "dangling edge %d", i)
		}
		dst, err := g.node(e.Dst)
		if err != nil {
			return errors.Wrapf(err, "dangling edge %d", i)
		}
		if !slices.Contains(src.out, e.ID) || !slices.Contains(dst.in, e.ID) {
			return errors.Errorf("edge %d is not linked on both ends", i)
		}
	}
	return nil
}
