package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/orrery/pkg/scene"
)

// AssertNodeCount verifies the arena holds the expected number of nodes.
func AssertNodeCount(t *testing.T, s *scene.Scene, expected int) {
	t.Helper()
	if s.Len() != expected {
		t.Errorf("expected %d nodes, got %d", expected, s.Len())
	}
}

// AssertLinked verifies a relationship from one node to another exists.
func AssertLinked(t *testing.T, s *scene.Scene, from, to *scene.Node) {
	t.Helper()
	if !s.Linked(from, to) {
		t.Errorf("expected link %s -> %s not found", from, to)
	}
}

// AssertNotLinked verifies no relationship from one node to another.
func AssertNotLinked(t *testing.T, s *scene.Scene, from, to *scene.Node) {
	t.Helper()
	if s.Linked(from, to) {
		t.Errorf("unexpected link %s -> %s", from, to)
	}
}

// AssertAdjacencyInverse sweeps every node and verifies the two adjacency
// directions mirror each other: m lists n as an input exactly when n
// lists m as an output.
func AssertAdjacencyInverse(t *testing.T, s *scene.Scene) {
	t.Helper()
	for _, n := range s.Nodes() {
		for _, m := range s.Outputs(n) {
			if !contains(s.Inputs(m), n) {
				t.Errorf("%s -> %s recorded as output but not as input", n, m)
			}
		}
		for _, m := range s.Inputs(n) {
			if !contains(s.Outputs(m), n) {
				t.Errorf("%s -> %s recorded as input but not as output", m, n)
			}
		}
	}
}

// AssertPartition verifies the scene partitions into exactly the given
// groups, compared as ID sets regardless of part or member order.
func AssertPartition(t *testing.T, s *scene.Scene, expected ...[]*scene.Node) {
	t.Helper()

	parts := s.Parts()
	got := make([]string, 0, len(parts))
	for _, p := range parts {
		got = append(got, idSetKey(p.IDs()))
	}
	want := make([]string, 0, len(expected))
	for _, grp := range expected {
		ids := make([]int64, len(grp))
		for i, n := range grp {
			ids[i] = n.ID()
		}
		want = append(want, idSetKey(ids))
	}
	sort.Strings(got)
	sort.Strings(want)

	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("partition mismatch:\nexpected: %v\nactual:   %v", want, got)
	}
}

// AssertSamePart verifies all given nodes share one isolated graph.
func AssertSamePart(t *testing.T, s *scene.Scene, nodes ...*scene.Node) {
	t.Helper()
	if len(nodes) < 2 {
		return
	}
	part := s.PartOf(nodes[0])
	for _, n := range nodes[1:] {
		if !part.Contains(n) {
			t.Errorf("expected %s and %s in the same part", nodes[0], n)
		}
	}
}

// AssertDistinctParts verifies no two of the given nodes share a part.
func AssertDistinctParts(t *testing.T, s *scene.Scene, nodes ...*scene.Node) {
	t.Helper()
	for i, a := range nodes {
		part := s.PartOf(a)
		for _, b := range nodes[i+1:] {
			if part.Contains(b) {
				t.Errorf("expected %s and %s in distinct parts", a, b)
			}
		}
	}
}

// AssertDistinctPositions verifies no two nodes of the group share a
// position, the seed placement guarantee.
func AssertDistinctPositions(t *testing.T, nodes []*scene.Node) {
	t.Helper()
	seen := make(map[[3]float32]*scene.Node, len(nodes))
	for _, n := range nodes {
		key := [3]float32{n.Pos.X, n.Pos.Y, n.Pos.Z}
		if prev, ok := seen[key]; ok {
			t.Errorf("%s and %s share position %v", prev, n, n.Pos)
		}
		seen[key] = n
	}
}

// TopologySnapshot renders the arena's structure (not positions) as a
// deterministic string, for exact before/after comparison around
// operations that must not change anything.
func TopologySnapshot(s *scene.Scene) string {
	var sb strings.Builder
	for _, n := range s.Nodes() {
		fmt.Fprintf(&sb, "%s %q ->", n, n.Text)
		for _, m := range s.Outputs(n) {
			fmt.Fprintf(&sb, " %s", m)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func contains(nodes []*scene.Node, n *scene.Node) bool {
	for _, m := range nodes {
		if m == n {
			return true
		}
	}
	return false
}

func idSetKey(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper. If the GENERATE_GOLDEN env
// var is set, golden files are rewritten instead of compared.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file, or rewrites it
// when GENERATE_GOLDEN is set.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()
	if g.update {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0o644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")
		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, expLine, actLine)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}
	g.Assert(string(data))
}
