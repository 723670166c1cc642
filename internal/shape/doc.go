// Package shape implements the zero-copy shape tracker.
//
// A Tracker is a stack of Views. Each View maps its logical coordinates onto
// the row-major linear space of its Base: permute reorders axes, slice and pad
// shift the per-axis start, expand inserts axes that read nothing, and reshape
// pushes a new View whose base is the new shape. Indexer composes the stack
// into one function from logical index to (physical index, valid):
//
//	st := shape.NewKnown(2, 3)
//	st, _ = st.Permute([]int{1, 0})
//	ix, _ := st.Indexer(nil)
//	phys, ok := ix.Index(1) // reads element (row 1, col 0): phys == 3
//
// Dims may be symbolic (shape.Sym("batch")); they are substituted from the
// Bindings passed to Indexer.
package shape
