package layout

import (
	"math"
	"sort"

	"cogentcore.org/core/math32"

	"github.com/vanderheijden86/orrery/pkg/metrics"
	"github.com/vanderheijden86/orrery/pkg/scene"
)

// Seed assigns initial positions to a part before relaxation, so the
// simulation never starts from the degenerate everyone-at-origin state.
// The pattern is picked by cfg.SeedMode; both patterns are deterministic
// and guarantee that no two nodes of the part share a position.
func Seed(s *scene.Scene, part scene.Part, cfg Config, origin math32.Vector3) {
	switch cfg.SeedMode {
	case SeedLayersMode:
		SeedLayers(s, part, cfg.Spacing, origin)
	default:
		SeedGrid(part, cfg.Spacing, origin)
	}
}

// SeedGrid places nodes on a cube grid centered on origin, one slot per
// sequence index. The cube side is ceil(cbrt(n)), so distinct indices
// always land on distinct slots.
func SeedGrid(nodes []*scene.Node, spacing float32, origin math32.Vector3) {
	defer metrics.Timer(metrics.SeedPlacement)()
	n := len(nodes)
	if n == 0 {
		return
	}
	side := int(math.Ceil(math.Cbrt(float64(n))))
	if side < 1 {
		side = 1
	}
	half := float32(side-1) * spacing / 2
	for i, node := range nodes {
		node.Pos = origin.Add(math32.Vec3(
			float32(i%side)*spacing-half,
			float32((i/side)%side)*spacing-half,
			float32(i/(side*side))*spacing-half,
		))
	}
}

// Levels assigns a depth to every node of a part, walking from the
// part's lowest-ID node: following an output edge goes one level deeper,
// an input edge one level up. The root is level 0, so levels can be
// negative. Exports group rank rows with the same rule.
//
// The part must be one connected component of s, which the partitioner
// guarantees.
func Levels(s *scene.Scene, part scene.Part) map[int64]int {
	if len(part) == 0 {
		return nil
	}
	level := map[int64]int{part[0].ID(): 0}
	queue := []*scene.Node{part[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		l := level[cur.ID()]
		for _, m := range s.Outputs(cur) {
			if _, ok := level[m.ID()]; !ok {
				level[m.ID()] = l + 1
				queue = append(queue, m)
			}
		}
		for _, m := range s.Inputs(cur) {
			if _, ok := level[m.ID()]; !ok {
				level[m.ID()] = l - 1
				queue = append(queue, m)
			}
		}
	}
	return level
}

// SeedLayers places nodes in rows by graph depth (see Levels). Levels
// become rows descending along -Y; nodes within a level spread along X.
// The layout is planar; relaxation keeps it so.
func SeedLayers(s *scene.Scene, part scene.Part, spacing float32, origin math32.Vector3) {
	defer metrics.Timer(metrics.SeedPlacement)()
	if len(part) == 0 {
		return
	}

	level := Levels(s, part)
	rows := make(map[int][]*scene.Node)
	for _, n := range part {
		rows[level[n.ID()]] = append(rows[level[n.ID()]], n)
	}
	depths := make([]int, 0, len(rows))
	for d := range rows {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	for r, d := range depths {
		row := rows[d]
		half := float32(len(row)-1) * spacing / 2
		y := -float32(r) * spacing
		for i, n := range row {
			n.Pos = origin.Add(math32.Vec3(float32(i)*spacing-half, y, 0))
		}
	}
}
