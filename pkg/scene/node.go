package scene

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// Direction selects which way a relationship points when linking two nodes.
type Direction int

const (
	// Out records the edge source -> target: target becomes an output
	// of source.
	Out Direction = iota
	// In records the edge target -> source: target becomes an input
	// of source.
	In
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case Out:
		return "out"
	case In:
		return "in"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Node is a graph vertex placed in 3D space.
//
// Identity and adjacency live in the scene arena; a Node never references
// its neighbors directly. Text is owned by the caller and never
// interpreted. Pos is written by seed placement and by the relaxation
// engine, and must not be written by anything else while a relaxation for
// the node's part is in flight.
type Node struct {
	id int64

	// Text is the caller-owned payload shown beside the node.
	Text string

	// Pos is the node's position in scene space.
	Pos math32.Vector3
}

// ID implements gonum's graph.Node so nodes live directly in the scene's
// directed graph.
func (n *Node) ID() int64 {
	return n.id
}

// String returns a short identifier for logs and error messages.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("n%d", n.id)
}
