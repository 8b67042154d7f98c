// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/rg/backend/record"
	"github.com/gogpu/rg/device"
)

func dumpGraph(t *testing.T) *Graph {
	t.Helper()
	g, _, _ := newTestGraph(WithName("dump"))
	bb := g.ImportTexture("Backbuffer", record.NewTexture("swapchain", rgba(32, 32)), device.StatePresent)
	color := g.CreateTexture(`Scene "main"`, rgba(32, 32))
	dead := g.CreateTexture("Dead", rgba(32, 32))

	g.AddPass("Draw", PassRaster).RenderTarget(color, device.AccessClearStore)
	g.AddPass("Unused", PassCompute).Read(color).Write(dead)
	g.AddPass("Blit", PassRaster|PassNeverCull).Read(color).RenderTarget(bb, device.AccessDontCareStore)
	mustCompile(t, g)
	return g
}

func TestStringPlan(t *testing.T) {
	g := dumpGraph(t)
	want := `graph "dump" (build ` // build number varies
	got := g.String()
	if !strings.HasPrefix(got, want) {
		t.Fatalf("String() = %q", got)
	}
	for _, line := range []string{
		"3 passes, 1 culled, 3 resources",
		"  #0 Draw [Raster]\n",
		`      Scene "main": Undefined -> RenderTarget`,
		"  #1 Unused [Compute] culled\n",
		"  #2 Blit [Raster|NeverCull]\n",
		`      Scene "main": RenderTarget -> SRV`,
		"      swapchain: Present -> RenderTarget",
	} {
		if !strings.Contains(got, line) {
			t.Errorf("String() missing %q:\n%s", line, got)
		}
	}

	g.Discard()
	if got := g.String(); !strings.Contains(got, "executed") {
		t.Errorf("String() after Discard = %q", got)
	}
}

func TestLifetimes(t *testing.T) {
	g := dumpGraph(t)
	lts := g.Lifetimes()
	if len(lts) != 3 {
		t.Fatalf("len(Lifetimes) = %d, want 3", len(lts))
	}
	bb, color, dead := lts[0], lts[1], lts[2]
	if !bb.Imported || bb.First != 2 || bb.Last != 2 || bb.Physical != "swapchain" || bb.FinalState != device.StateRenderTarget {
		t.Errorf("Backbuffer = %+v", bb)
	}
	if color.First != 0 || color.Last != 2 || color.Versions != 2 || color.FinalState != device.StateShaderResource {
		t.Errorf("Scene = %+v", color)
	}
	if dead.First != -1 || dead.Physical != "" {
		t.Errorf("Dead = %+v", dead)
	}
	g.Discard()
}

func TestWriteMermaid(t *testing.T) {
	g := dumpGraph(t)
	defer g.Discard()

	var b strings.Builder
	if err := g.WriteMermaid(&b); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{
		"graph TD;",
		`Pass1["Unused"<br/>Flags: Compute<br/>Index: 1<br/>Culled: Yes]:::unreferenced`,
		`Pass2["Blit"<br/>Flags: Raster|NeverCull<br/>Index: 2<br/>Culled: No]:::neverCullPass`,
		"Scene #quot;main#quot;",
		"Resource0_1[(",
		"Pass0 -- RenderTarget --> Resource1_1",
		"Resource1_1 -- SRV --> Pass2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("mermaid output missing %q:\n%s", want, out)
		}
	}
}

func TestDumpHTML(t *testing.T) {
	g := dumpGraph(t)
	defer g.Discard()

	dir := filepath.Join(t.TempDir(), "dumps")
	if err := g.DumpHTML(dir, "frame"); err != nil {
		t.Fatalf("DumpHTML: %v", err)
	}
	mermaid, err := os.ReadFile(filepath.Join(dir, "frame.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(mermaid), `<div class="mermaid">`) || !strings.Contains(string(mermaid), "<title>dump</title>") {
		t.Errorf("frame.html:\n%s", mermaid)
	}
	dot, err := os.ReadFile(filepath.Join(dir, "frame_graphviz.html"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"digraph {", `Pass1 [ label = "Unused`, `shape=cylinder`, `Scene \"main\"`} {
		if !strings.Contains(string(dot), want) {
			t.Errorf("frame_graphviz.html missing %q", want)
		}
	}
}
