package matnet

import (
	gograph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
)

// TopologyView exposes the bond graph as a gonum weighted directed
// multigraph, with bond lengths as line weights, so dataset tooling can run
// standard graph algorithms (connectivity, traversal) on it. Periodic
// self-bonds (an atom bonded to its own image) are omitted: gonum graphs do
// not represent self loops, and connectivity-style queries do not need
// them. The view is a copy; it does not track later use of the Graph.
func (g *Graph) TopologyView() *multi.WeightedDirectedGraph {
	w := multi.NewWeightedDirectedGraph()
	for i := 0; i < g.NAtoms; i++ {
		w.AddNode(multi.Node(i))
	}
	for k := 0; k < g.NBonds(); k++ {
		if g.Src[k] == g.Dst[k] {
			continue
		}
		w.SetWeightedLine(w.NewWeightedLine(multi.Node(g.Src[k]), multi.Node(g.Dst[k]), g.Dist[k]))
	}
	return w
}

// Degree returns the number of outgoing bonds of atom i, the coordination
// number within the graph cutoff.
func (g *Graph) Degree(i int) int {
	if i < 0 || i >= g.NAtoms {
		panic(ErrAtomOutOfRange)
	}
	n := 0
	for k := 0; k < g.NBonds(); k++ {
		if g.Src[k] == i {
			n++
		}
	}
	return n
}

var _ gograph.Directed = (*multi.WeightedDirectedGraph)(nil)
