package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vanderheijden86/orrery/pkg/debug"
	"github.com/vanderheijden86/orrery/pkg/layout"
	"github.com/vanderheijden86/orrery/pkg/scene"
)

// WriteDOT writes the scene as a Graphviz digraph: one cluster per part,
// rank rows grouping nodes of equal depth (the layered-seed rule), and
// every relationship as a directed edge. Output is fully sorted, so equal
// scenes produce byte-equal documents; render with `dot -Tsvg`.
//
// Edges or nodes that fall outside the given parts are skipped; in debug
// runs they trip an assert first, since they mean the partition is stale.
func WriteDOT(w io.Writer, s *scene.Scene, parts []scene.Part) error {
	var sb strings.Builder

	sb.WriteString("digraph scene {\n")
	sb.WriteString("\tnewrank=true;\n")
	sb.WriteString("\tnode [shape=box, fontname=\"Helvetica\", fontsize=10];\n")

	known := make(map[int64]bool, s.Len())
	for pi, part := range parts {
		sb.WriteString(fmt.Sprintf("\tsubgraph cluster_%d {\n", pi))
		sb.WriteString(fmt.Sprintf("\t\tlabel=\"part %d\";\n", pi))
		for _, n := range part {
			known[n.ID()] = true
			sb.WriteString(fmt.Sprintf("\t\t%s [label=\"%s\"];\n", n, escapeDOT(nodeLabel(n))))
		}
		writeRanks(&sb, s, part)
		sb.WriteString("\t}\n")
	}

	for _, n := range s.Nodes() {
		if !known[n.ID()] {
			debug.Assert(false, fmt.Sprintf("node %s missing from every part", n))
			continue
		}
		for _, m := range s.Outputs(n) {
			if !known[m.ID()] {
				debug.Assert(false, fmt.Sprintf("edge %s -> %s leaves the partition", n, m))
				continue
			}
			sb.WriteString(fmt.Sprintf("\t%s -> %s;\n", n, m))
		}
	}

	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// writeRanks pins nodes of equal depth to one row, matching the layered
// seed. Single-node rows need no pin.
func writeRanks(sb *strings.Builder, s *scene.Scene, part scene.Part) {
	level := layout.Levels(s, part)
	rows := make(map[int][]*scene.Node)
	for _, n := range part {
		rows[level[n.ID()]] = append(rows[level[n.ID()]], n)
	}
	depths := make([]int, 0, len(rows))
	for d := range rows {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	for _, d := range depths {
		row := rows[d]
		if len(row) < 2 {
			continue
		}
		names := make([]string, len(row))
		for i, n := range row {
			names[i] = n.String()
		}
		sb.WriteString(fmt.Sprintf("\t\t{rank=same %s}\n", strings.Join(names, " ")))
	}
}

func nodeLabel(n *scene.Node) string {
	if n.Text != "" {
		return n.Text
	}
	return n.String()
}

func escapeDOT(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"\"", "\\\"",
		"\n", " ",
		"\r", " ",
	)
	return replacer.Replace(s)
}
