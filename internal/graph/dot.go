package graph

import (
	"bufio"
	"fmt"
	"io"

	"github.com/born-ml/lumen/internal/shape"
)

// Dot writes the graph in Graphviz format. Retained nodes are drawn with a
// double border; edges are labeled with the shape they carry.
func (g *Graph) Dot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph lumen {")
	fmt.Fprintln(bw, "\trankdir=TB;")
	fmt.Fprintln(bw, "\tnode [shape=box];")
	for _, id := range g.Nodes() {
		n := g.nodes[id]
		attrs := ""
		if g.kept[id] {
			attrs = ", peripheries=2"
		}
		fmt.Fprintf(bw, "\tn%d [label=%q%s];\n", id, fmt.Sprintf("%d: %s", id, n.op), attrs)
	}
	for _, e := range g.edges {
		if e == nil {
			continue
		}
		label := shape.FormatDims(e.Shape.Shape())
		if e.SrcSlot != 0 {
			label = fmt.Sprintf("%d:%s", e.SrcSlot, label)
		}
		fmt.Fprintf(bw, "\tn%d -> n%d [label=%q];\n", e.Src, e.Dst, label)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
