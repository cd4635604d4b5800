// Package testutil provides deterministic scene builders for common
// graph topologies plus assertions over arenas and partitions.
package testutil

import (
	"fmt"
	"testing"

	"github.com/vanderheijden86/orrery/pkg/scene"
)

// Chain builds a linear chain n0 -> n1 -> ... -> n{size-1} and returns
// the nodes in chain order.
func Chain(t testing.TB, s *scene.Scene, size int) []*scene.Node {
	t.Helper()
	nodes := make([]*scene.Node, size)
	for i := range nodes {
		nodes[i] = s.Insert(fmt.Sprintf("n%d", i))
		if i > 0 {
			mustLink(t, s, nodes[i-1], nodes[i], scene.Out)
		}
	}
	return nodes
}

// Star builds a hub with the given number of spokes, hub -> spoke, and
// returns the hub followed by the spokes.
func Star(t testing.TB, s *scene.Scene, spokes int) []*scene.Node {
	t.Helper()
	nodes := make([]*scene.Node, spokes+1)
	nodes[0] = s.Insert("hub")
	for i := 1; i <= spokes; i++ {
		nodes[i] = s.Insert(fmt.Sprintf("spoke%d", i))
		mustLink(t, s, nodes[0], nodes[i], scene.Out)
	}
	return nodes
}

// Diamond builds top -> left, top -> right, left -> bottom,
// right -> bottom and returns [top, left, right, bottom]. Left and right
// sit at the same depth, which exercises rank grouping.
func Diamond(t testing.TB, s *scene.Scene) []*scene.Node {
	t.Helper()
	top := s.Insert("top")
	left := s.Insert("left")
	right := s.Insert("right")
	bottom := s.Insert("bottom")
	mustLink(t, s, top, left, scene.Out)
	mustLink(t, s, top, right, scene.Out)
	mustLink(t, s, left, bottom, scene.Out)
	mustLink(t, s, right, bottom, scene.Out)
	return []*scene.Node{top, left, right, bottom}
}

// Isolated inserts the given number of unconnected nodes.
func Isolated(t testing.TB, s *scene.Scene, count int) []*scene.Node {
	t.Helper()
	nodes := make([]*scene.Node, count)
	for i := range nodes {
		nodes[i] = s.Insert(fmt.Sprintf("iso%d", i))
	}
	return nodes
}

func mustLink(t testing.TB, s *scene.Scene, src, target *scene.Node, dir scene.Direction) {
	t.Helper()
	if err := s.Link(src, target, dir); err != nil {
		t.Fatalf("link %s -> %s: %v", src, target, err)
	}
}
