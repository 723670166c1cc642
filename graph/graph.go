// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the dataflow graph of a tensor program, its rewrite
// protocol and the handles used to build it.
//
// # Basic Usage
//
//	g := graph.New()
//	x := g.NewInput("x", tensor.Float32, shape.Known(2), shape.Known(3))
//	y := x.Exp().SumReduce(1).Keep()
//	x.Set(tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}))
//	if err := g.Err(); err != nil {
//	    return err
//	}
//
// # Rewriting
//
// Passes replace a node in four steps: wire the replacement to the old
// node's inputs (CopyInputs), move its consumers (MoveOutgoing), record the
// replacement and move its retention (Retarget), remove it (RemoveNode).
// Replace bundles the last three. Callers holding ids bring them up to date
// with Remap.Resolve or Tensor.Remap.
package graph

import "github.com/born-ml/lumen/internal/graph"

type (
	// Graph is the arena of nodes and edges of one tensor program.
	Graph = graph.Graph
	// NodeID identifies a node. Ids are never reused.
	NodeID = graph.NodeID
	// EdgeID identifies an edge.
	EdgeID = graph.EdgeID
	// Edge connects an output slot to an input slot through a view.
	Edge = graph.Edge
	// Source is one input of a node.
	Source = graph.Source
	// Direction selects incoming or outgoing edges.
	Direction = graph.Direction
	// Builder adds one node with its inputs.
	Builder = graph.Builder
	// Remap records replaced nodes.
	Remap = graph.Remap
	// Tensor is a handle to one node output.
	Tensor = graph.Tensor
)

// Edge directions.
const (
	Incoming = graph.Incoming
	Outgoing = graph.Outgoing
)

// Errors reported by graph mutations.
var (
	ErrCycle          = graph.ErrCycle
	ErrLiveEdges      = graph.ErrLiveEdges
	ErrNodeNotFound   = graph.ErrNodeNotFound
	ErrEdgeNotFound   = graph.ErrEdgeNotFound
	ErrSlotOutOfRange = graph.ErrSlotOutOfRange
	ErrBufferSize     = graph.ErrBufferSize
)

// New creates an empty graph.
func New() *Graph { return graph.New() }
