package scene

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/vanderheijden86/orrery/pkg/debug"
	"github.com/vanderheijden86/orrery/pkg/metrics"
)

// Part is one isolated graph: a maximal connected component of the scene
// under the undirected closure of inputs and outputs. Nodes are sorted by
// ID.
type Part []*Node

// IDs returns the part's node IDs in order.
func (p Part) IDs() []int64 {
	ids := make([]int64, len(p))
	for i, n := range p {
		ids[i] = n.id
	}
	return ids
}

// Contains reports whether n is a member of the part.
func (p Part) Contains(n *Node) bool {
	for _, m := range p {
		if m == n {
			return true
		}
	}
	return false
}

// Volume returns the bounding volume of the part's current positions.
func (p Part) Volume() Volume {
	v := NewVolume()
	for _, n := range p {
		v.Add(n.Pos)
	}
	return v
}

// Parts splits the scene into its isolated graphs. Inputs and outputs both
// count as connectivity, so a node with only incoming edges still belongs
// with its sources. Every node lands in exactly one part; nodes with no
// edges form singletons; an empty scene yields nil. Parts are ordered by
// their lowest node ID, which keeps grouping stable within a call.
func (s *Scene) Parts() []Part {
	defer metrics.Timer(metrics.Partition)()
	comps := topo.ConnectedComponents(s.undirected())
	parts := make([]Part, 0, len(comps))
	for _, comp := range comps {
		part := make(Part, 0, len(comp))
		for _, n := range comp {
			part = append(part, s.Node(n.ID()))
		}
		sort.Slice(part, func(i, j int) bool { return part[i].id < part[j].id })
		parts = append(parts, part)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i][0].id < parts[j][0].id })
	debug.Log("partitioned %d nodes into %d parts", s.Len(), len(parts))
	if len(parts) == 0 {
		return nil
	}
	return parts
}

// PartOf returns the single component containing n, walking both adjacency
// directions from it. The editor uses this to recompute just the affected
// component after a mutation instead of repartitioning the whole scene.
// Returns nil if n is not in the arena.
func (s *Scene) PartOf(n *Node) Part {
	if !s.Contains(n) {
		return nil
	}
	var part Part
	bfs := traverse.BreadthFirst{
		Visit: func(v graph.Node) { part = append(part, v.(*Node)) },
	}
	bfs.Walk(graph.Undirect{G: s.g}, n, nil)
	sort.Slice(part, func(i, j int) bool { return part[i].id < part[j].id })
	return part
}

// undirected builds an undirected copy of the adjacency for component
// detection.
func (s *Scene) undirected() *simple.UndirectedGraph {
	u := simple.NewUndirectedGraph()
	nodes := s.g.Nodes()
	for nodes.Next() {
		u.AddNode(simple.Node(nodes.Node().ID()))
	}
	edges := s.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		u.SetEdge(u.NewEdge(u.Node(e.From().ID()), u.Node(e.To().ID())))
	}
	return u
}
