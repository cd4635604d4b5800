package layout_test

import (
	"fmt"
	"testing"

	"cogentcore.org/core/math32"

	"github.com/vanderheijden86/orrery/pkg/layout"
	"github.com/vanderheijden86/orrery/pkg/scene"
	"github.com/vanderheijden86/orrery/pkg/testutil"
)

func TestSeedGridDistinctSlots(t *testing.T) {
	s := scene.New()
	nodes := make([]*scene.Node, 20)
	for i := range nodes {
		nodes[i] = s.Insert(fmt.Sprintf("n%d", i))
	}

	layout.SeedGrid(nodes, 4, math32.Vec3(0, 0, 0))

	seen := make(map[math32.Vector3]*scene.Node, len(nodes))
	for _, n := range nodes {
		if prev, ok := seen[n.Pos]; ok {
			t.Fatalf("%s and %s share slot %v", prev, n, n.Pos)
		}
		seen[n.Pos] = n
	}
}

func TestSeedGridStaysWithinExtent(t *testing.T) {
	s := scene.New()
	nodes := make([]*scene.Node, 27)
	for i := range nodes {
		nodes[i] = s.Insert(fmt.Sprintf("n%d", i))
	}

	origin := math32.Vec3(10, -5, 3)
	spacing := float32(4)
	layout.SeedGrid(nodes, spacing, origin)

	// 27 nodes fill a 3x3x3 cube, so every coordinate sits within one
	// spacing of the origin.
	half := spacing
	for _, n := range nodes {
		d := n.Pos.Sub(origin)
		if math32.Abs(d.X) > half || math32.Abs(d.Y) > half || math32.Abs(d.Z) > half {
			t.Errorf("%s at %v is outside the %v half-extent", n, n.Pos, half)
		}
	}
}

func TestSeedGridCenteredOnOrigin(t *testing.T) {
	s := scene.New()
	nodes := make([]*scene.Node, 8)
	for i := range nodes {
		nodes[i] = s.Insert(fmt.Sprintf("n%d", i))
	}

	origin := math32.Vec3(10, 5, -2)
	layout.SeedGrid(nodes, 4, origin)

	// Eight nodes fill a 2x2x2 cube exactly, so the slot mean is the origin.
	var sum math32.Vector3
	for _, n := range nodes {
		sum = sum.Add(n.Pos)
	}
	mean := sum.DivScalar(float32(len(nodes)))
	if mean.Sub(origin).Length() > 1e-4 {
		t.Errorf("expected mean %v, got %v", origin, mean)
	}
}

func TestSeedGridEmpty(t *testing.T) {
	layout.SeedGrid(nil, 4, math32.Vec3(0, 0, 0)) // must not panic
}

func TestLevelsChain(t *testing.T) {
	s := scene.New()
	nodes := testutil.Chain(t, s, 3)

	levels := layout.Levels(s, s.Parts()[0])

	for i, n := range nodes {
		if levels[n.ID()] != i {
			t.Errorf("expected %s at level %d, got %d", n, i, levels[n.ID()])
		}
	}
}

func TestLevelsInputsGoNegative(t *testing.T) {
	s := scene.New()
	b := s.Insert("b")
	a := s.Insert("a")
	if err := s.Link(a, b, scene.Out); err != nil {
		t.Fatal(err)
	}

	// The walk starts at the lowest ID, which is b; a feeds it, so a sits
	// one level up.
	levels := layout.Levels(s, s.Parts()[0])
	if levels[b.ID()] != 0 {
		t.Errorf("expected root level 0, got %d", levels[b.ID()])
	}
	if levels[a.ID()] != -1 {
		t.Errorf("expected input at level -1, got %d", levels[a.ID()])
	}
}

func TestLevelsDiamond(t *testing.T) {
	s := scene.New()
	d := testutil.Diamond(t, s)
	top, left, right, bottom := d[0], d[1], d[2], d[3]

	levels := layout.Levels(s, s.Parts()[0])

	want := map[int64]int{top.ID(): 0, left.ID(): 1, right.ID(): 1, bottom.ID(): 2}
	for id, lv := range want {
		if levels[id] != lv {
			t.Errorf("expected node %d at level %d, got %d", id, lv, levels[id])
		}
	}
}

func TestLevelsEmpty(t *testing.T) {
	s := scene.New()
	if levels := layout.Levels(s, nil); levels != nil {
		t.Errorf("expected nil for empty part, got %v", levels)
	}
}

func TestSeedLayersRows(t *testing.T) {
	s := scene.New()
	d := testutil.Diamond(t, s)
	top, left, right, bottom := d[0], d[1], d[2], d[3]

	layout.SeedLayers(s, s.Parts()[0], 4, math32.Vec3(0, 0, 0))

	if left.Pos.Y != right.Pos.Y {
		t.Errorf("same-level nodes on different rows: %v vs %v", left.Pos.Y, right.Pos.Y)
	}
	if !(top.Pos.Y > left.Pos.Y && left.Pos.Y > bottom.Pos.Y) {
		t.Errorf("rows should descend with depth: top %v, middle %v, bottom %v",
			top.Pos.Y, left.Pos.Y, bottom.Pos.Y)
	}
	if left.Pos.X == right.Pos.X {
		t.Error("nodes within a row should spread along X")
	}
	for _, n := range []*scene.Node{top, left, right, bottom} {
		if n.Pos.Z != 0 {
			t.Errorf("%s left the plane: z = %v", n, n.Pos.Z)
		}
	}
}

func TestSeedLayersChainPositions(t *testing.T) {
	s := scene.New()
	nodes := testutil.Chain(t, s, 3)

	layout.SeedLayers(s, s.Parts()[0], 4, math32.Vec3(0, 0, 0))

	// One node per row: x stays at the origin, rows step down by spacing.
	for i, n := range nodes {
		want := math32.Vec3(0, -float32(i)*4, 0)
		if n.Pos != want {
			t.Errorf("expected %s at %v, got %v", n, want, n.Pos)
		}
	}
}

func TestSeedDispatchesOnMode(t *testing.T) {
	cfg := layout.DefaultConfig()

	s := scene.New()
	nodes := testutil.Chain(t, s, 3)

	cfg.SeedMode = layout.SeedLayersMode
	layout.Seed(s, s.Parts()[0], cfg, math32.Vec3(0, 0, 0))
	if nodes[1].Pos.Y != -cfg.Spacing {
		t.Errorf("expected layered row at %v, got %v", -cfg.Spacing, nodes[1].Pos.Y)
	}

	cfg.SeedMode = layout.SeedGridMode
	layout.Seed(s, s.Parts()[0], cfg, math32.Vec3(0, 0, 0))
	// Three nodes use a side-2 grid; the first two share a row.
	if nodes[0].Pos.Y != nodes[1].Pos.Y {
		t.Errorf("expected grid row sharing, got %v and %v", nodes[0].Pos.Y, nodes[1].Pos.Y)
	}
}
