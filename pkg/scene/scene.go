// Package scene owns the node arena of a 3D node-graph editor: node
// identity, directed adjacency, connected-component partitioning, and the
// bounding volume used to frame a view.
//
// Adjacency is index-based: nodes are keyed by stable int64 IDs inside a
// gonum directed graph instead of holding references to their neighbors.
// The input and output views read the same edge set, so the inverse
// invariant (A is an input of B exactly when B is an output of A) holds by
// construction and cannot drift under mutation.
package scene

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/vanderheijden86/orrery/pkg/debug"
	"github.com/vanderheijden86/orrery/pkg/metrics"
)

// Scene is the node arena. It is not safe for concurrent mutation; the
// editor serializes mutations and keeps relaxation tasks off the adjacency.
type Scene struct {
	g *simple.DirectedGraph

	// nextID is the scene's own allocator. gonum recycles the IDs of
	// removed nodes, which would break the never-reused contract inserts
	// rely on for seed slots.
	nextID int64
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{g: simple.NewDirectedGraph()}
}

// Insert creates a node carrying the caller's text payload and adds it to
// the arena. IDs are assigned monotonically and never reused.
func (s *Scene) Insert(text string) *Node {
	n := &Node{id: s.nextID, Text: text}
	s.nextID++
	s.g.AddNode(n)
	debug.Log("inserted %v (%q)", n, text)
	return n
}

// Node returns the arena node with the given ID, or nil if there is none.
func (s *Scene) Node(id int64) *Node {
	n := s.g.Node(id)
	if n == nil {
		return nil
	}
	return n.(*Node)
}

// Contains reports whether n is currently in the arena.
func (s *Scene) Contains(n *Node) bool {
	if n == nil {
		return false
	}
	got, ok := s.g.Node(n.id).(*Node)
	return ok && got == n
}

// Len returns the number of nodes in the arena.
func (s *Scene) Len() int {
	return s.g.Nodes().Len()
}

// Nodes returns every node in the arena, sorted by ID.
func (s *Scene) Nodes() []*Node {
	return collect(s.g.Nodes())
}

// Inputs returns the nodes with an edge into n, sorted by ID.
func (s *Scene) Inputs(n *Node) []*Node {
	return collect(s.g.To(n.id))
}

// Outputs returns the nodes n points to, sorted by ID.
func (s *Scene) Outputs(n *Node) []*Node {
	return collect(s.g.From(n.id))
}

// Degree returns the total number of relationships n participates in,
// inputs plus outputs.
func (s *Scene) Degree(n *Node) int {
	return s.g.To(n.id).Len() + s.g.From(n.id).Len()
}

// CanLink reports whether Link(src, target, dir) would be accepted, with
// the error it would fail with. The editor pre-validates with this before
// disturbing in-flight relaxations.
func (s *Scene) CanLink(src, target *Node) error {
	if !s.Contains(src) {
		return fmt.Errorf("link source %v: %w", src, ErrUnknownNode)
	}
	if !s.Contains(target) {
		return fmt.Errorf("link target %v: %w", target, ErrUnknownNode)
	}
	if src.id == target.id {
		return fmt.Errorf("link %v: %w", src, ErrSelfLink)
	}
	return nil
}

// Link records a relationship between src and target. Direction Out makes
// target an output of src (edge src -> target); In makes target an input
// provider of src (edge target -> src). Linking an already-linked pair is
// a no-op. On error nothing is mutated.
func (s *Scene) Link(src, target *Node, dir Direction) error {
	defer metrics.Timer(metrics.LinkOp)()
	if err := s.CanLink(src, target); err != nil {
		return err
	}
	from, to := src, target
	if dir == In {
		from, to = target, src
	}
	if s.g.HasEdgeFromTo(from.id, to.id) {
		return nil
	}
	s.g.SetEdge(s.g.NewEdge(from, to))
	debug.Log("linked %v -> %v", from, to)
	return nil
}

// Linked reports whether the edge from -> to exists.
func (s *Scene) Linked(from, to *Node) bool {
	return s.Contains(from) && s.Contains(to) && s.g.HasEdgeFromTo(from.id, to.id)
}

// CanRemove reports whether Remove(n) would be accepted. Only leaf nodes
// are removable: more than one relationship in total is rejected. The rule
// is strict by intent, so a node with two inputs and no outputs is already
// not removable.
func (s *Scene) CanRemove(n *Node) error {
	if !s.Contains(n) {
		return fmt.Errorf("remove %v: %w", n, ErrUnknownNode)
	}
	if deg := s.Degree(n); deg > 1 {
		return fmt.Errorf("remove %v with %d relationships: %w", n, deg, ErrInvalidRemoval)
	}
	return nil
}

// Remove deletes n from the arena and clears the edge referencing it, so
// no neighbor keeps a dangling reference. Rejected removals leave the
// topology untouched.
func (s *Scene) Remove(n *Node) error {
	defer metrics.Timer(metrics.RemoveOp)()
	if err := s.CanRemove(n); err != nil {
		return err
	}
	s.g.RemoveNode(n.id)
	debug.Log("removed %v", n)
	return nil
}

// CheckIntegrity verifies that parts tile the arena exactly: every arena
// node appears in exactly one part, no part holds a stale node, and no
// edge references a node missing from the parts. A failure means some
// caller is holding on to removed nodes or outdated parts.
func (s *Scene) CheckIntegrity(parts []Part) error {
	seen := make(map[int64]int, s.Len())
	for _, p := range parts {
		for _, n := range p {
			if !s.Contains(n) {
				return fmt.Errorf("part references %v which is not in the arena", n)
			}
			seen[n.id]++
		}
	}
	it := s.g.Nodes()
	for it.Next() {
		id := it.Node().ID()
		switch seen[id] {
		case 0:
			return fmt.Errorf("n%d is in no part", id)
		case 1:
		default:
			return fmt.Errorf("n%d is in %d parts", id, seen[id])
		}
	}
	edges := s.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		if seen[e.From().ID()] != 1 || seen[e.To().ID()] != 1 {
			return fmt.Errorf("edge n%d -> n%d references a node not present in any part",
				e.From().ID(), e.To().ID())
		}
	}
	return nil
}

// collect drains a gonum node iterator into a sorted slice of arena nodes.
func collect(it graph.Nodes) []*Node {
	var out []*Node
	if l := it.Len(); l > 0 {
		out = make([]*Node, 0, l)
	}
	for it.Next() {
		out = append(out, it.Node().(*Node))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
