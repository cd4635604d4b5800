// Package export builds render-collaborator views of a scene: a JSON
// snapshot for programmatic hosts and a Graphviz DOT rendering of the
// partition for layout debugging. The editor owns when to export; this
// package only reads.
package export

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/orrery/pkg/metrics"
	"github.com/vanderheijden86/orrery/pkg/scene"
)

// Snapshot is the JSON document handed to rendering collaborators. It
// carries everything needed to draw the scene without touching the arena
// again: positions, text, adjacency in both directions, and the grouping
// into isolated graphs.
type Snapshot struct {
	Nodes []SnapshotNode `json:"nodes"`
	Parts []SnapshotPart `json:"parts"`
}

// SnapshotNode flattens one node. Inputs and outputs list neighbor IDs;
// both directions are present so collaborators never have to invert
// adjacency themselves.
type SnapshotNode struct {
	ID       int64      `json:"id"`
	Text     string     `json:"text,omitempty"`
	Position [3]float32 `json:"position"`
	Inputs   []int64    `json:"inputs,omitempty"`
	Outputs  []int64    `json:"outputs,omitempty"`
}

// SnapshotPart groups the node IDs of one isolated graph with its
// bounding volume, ready for camera framing.
type SnapshotPart struct {
	Nodes  []int64    `json:"nodes"`
	Center [3]float32 `json:"center"`
	Radius float32    `json:"radius"`
}

// BuildSnapshot captures the scene under the given partition. Nodes come
// out sorted by ID and parts in partition order, so equal scenes produce
// byte-equal documents.
func BuildSnapshot(s *scene.Scene, parts []scene.Part) *Snapshot {
	defer metrics.Timer(metrics.SnapshotBuild)()

	snap := &Snapshot{
		Nodes: make([]SnapshotNode, 0, s.Len()),
		Parts: make([]SnapshotPart, 0, len(parts)),
	}

	for _, n := range s.Nodes() {
		snap.Nodes = append(snap.Nodes, SnapshotNode{
			ID:       n.ID(),
			Text:     n.Text,
			Position: [3]float32{n.Pos.X, n.Pos.Y, n.Pos.Z},
			Inputs:   ids(s.Inputs(n)),
			Outputs:  ids(s.Outputs(n)),
		})
	}

	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		v := p.Volume()
		c := v.Center()
		snap.Parts = append(snap.Parts, SnapshotPart{
			Nodes:  p.IDs(),
			Center: [3]float32{c.X, c.Y, c.Z},
			Radius: v.Radius(),
		})
	}
	return snap
}

// JSON returns the snapshot as indented JSON bytes.
func (s *Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// WriteJSON writes the snapshot to w as indented JSON.
func WriteJSON(w io.Writer, snap *Snapshot) error {
	data, err := snap.JSON()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func ids(nodes []*scene.Node) []int64 {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}
