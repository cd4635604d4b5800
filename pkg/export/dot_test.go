package export_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/vanderheijden86/orrery/pkg/debug"
	"github.com/vanderheijden86/orrery/pkg/export"
	"github.com/vanderheijden86/orrery/pkg/scene"
	"github.com/vanderheijden86/orrery/pkg/testutil"
)

func TestWriteDOTGolden(t *testing.T) {
	s := scene.New()
	testutil.Diamond(t, s)
	s.Insert("solo")

	var buf bytes.Buffer
	if err := export.WriteDOT(&buf, s, s.Parts()); err != nil {
		t.Fatalf("WriteDOT failed: %v", err)
	}

	golden := testutil.NewGoldenFile(t, "testdata", "diamond.dot")
	golden.Assert(buf.String())
}

func TestWriteDOTEmptyScene(t *testing.T) {
	s := scene.New()

	var buf bytes.Buffer
	if err := export.WriteDOT(&buf, s, s.Parts()); err != nil {
		t.Fatalf("WriteDOT failed: %v", err)
	}

	want := "digraph scene {\n" +
		"\tnewrank=true;\n" +
		"\tnode [shape=box, fontname=\"Helvetica\", fontsize=10];\n" +
		"}\n"
	if buf.String() != want {
		t.Errorf("expected the bare header, got:\n%s", buf.String())
	}
}

func TestWriteDOTEscapesLabels(t *testing.T) {
	s := scene.New()
	s.Insert(`he said "hi"`)
	s.Insert(`back\slash`)
	s.Insert("two\nlines")

	var buf bytes.Buffer
	if err := export.WriteDOT(&buf, s, s.Parts()); err != nil {
		t.Fatalf("WriteDOT failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`n0 [label="he said \"hi\""];`,
		`n1 [label="back\\slash"];`,
		`n2 [label="two lines"];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output:\n%s", want, out)
		}
	}
}

func TestWriteDOTSkipsNodesOutsideParts(t *testing.T) {
	prev := debug.Enabled()
	debug.SetEnabled(false)
	defer debug.SetEnabled(prev)

	s := scene.New()
	nodes := testutil.Chain(t, s, 2)

	// A stale partition that lost the second node: its node line and the
	// edge into it must both be dropped rather than emitted dangling.
	var buf bytes.Buffer
	if err := export.WriteDOT(&buf, s, []scene.Part{{nodes[0]}}); err != nil {
		t.Fatalf("WriteDOT failed: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "n1") {
		t.Errorf("expected every mention of the missing node dropped, got:\n%s", out)
	}
	if !strings.Contains(out, `n0 [label="n0"];`) {
		t.Errorf("expected the tracked node kept, got:\n%s", out)
	}
}

func TestWriteDOTAssertsOnStalePartition(t *testing.T) {
	s := scene.New()
	nodes := testutil.Chain(t, s, 2)

	prev := debug.Enabled()
	debug.SetEnabled(true)
	defer debug.SetEnabled(prev)

	defer func() {
		if recover() == nil {
			t.Error("expected a debug assert for a stale partition")
		}
	}()
	_ = export.WriteDOT(io.Discard, s, []scene.Part{{nodes[0]}})
}
