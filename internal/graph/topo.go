package graph

import (
	"container/heap"

	"github.com/pkg/errors"
)

// reaches reports whether to is reachable from from along edges.
func (g *Graph) reaches(from, to NodeID) bool {
	if from == to {
		return true
	}
	seen := map[NodeID]bool{from: true}
	stack := []NodeID{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, eid := range g.nodes[id].out {
			next := g.edges[eid].Dst
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

type idHeap []NodeID

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(NodeID)) }
func (h *idHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

// TopoSort orders every live node after all of its sources. Among ready
// nodes the lowest id goes first, so the order is deterministic.
func (g *Graph) TopoSort() ([]NodeID, error) {
	indeg := make(map[NodeID]int, len(g.nodes))
	ready := &idHeap{}
	for _, id := range g.Nodes() {
		indeg[id] = len(g.nodes[id].in)
		if indeg[id] == 0 {
			heap.Push(ready, id)
		}
	}
	order := make([]NodeID, 0, len(indeg))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(NodeID)
		order = append(order, id)
		for _, eid := range g.nodes[id].out {
			dst := g.edges[eid].Dst
			indeg[dst]--
			if indeg[dst] == 0 {
				heap.Push(ready, dst)
			}
		}
	}
	if len(order) != len(indeg) {
		return nil, errors.Wrapf(ErrCycle, "%d nodes unreachable in topological order", len(indeg)-len(order))
	}
	return order, nil
}

// Levels groups the topological order into dependency levels: every node
// sits one level above its deepest source, so nodes of one level are
// independent of each other.
func (g *Graph) Levels() ([][]NodeID, error) {
	order, err := g.TopoSort()
	if err != nil {
		return nil, err
	}
	depth := make(map[NodeID]int, len(order))
	var levels [][]NodeID
	for _, id := range order {
		d := 0
		for _, eid := range g.nodes[id].in {
			d = max(d, depth[g.edges[eid].Src]+1)
		}
		depth[id] = d
		if d == len(levels) {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], id)
	}
	return levels, nil
}
