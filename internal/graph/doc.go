// Package graph holds lumen's dataflow graph: an arena of operator nodes
// joined by edges that each carry the shape.Tracker the consumer reads the
// producer's buffer through.
//
// Passes rewrite the graph with a fixed four-step protocol:
//
//  1. build the replacement wired to the old node's inputs (CopyInputs)
//  2. move the old node's outgoing edges onto it (MoveOutgoing)
//  3. record old → new in the Remap and move the retention flag
//  4. remove the old node (RemoveNode)
//
// Replace bundles steps 2 to 4. Node ids are never reused, so a Remap entry
// can always be followed to the live node that took over.
//
// Example:
//
//	g := graph.New()
//	a := g.NewInput("a", tensor.Float32, shape.Dims(2, 2)...)
//	b := g.NewInput("b", tensor.Float32, shape.Dims(2, 1)...)
//	c := a.Add(b).Retrieve()
//	if err := g.Err(); err != nil {
//		return err
//	}
package graph
