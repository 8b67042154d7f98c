// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/rg/device"
)

// Dump colors.
const (
	colorNeverCullPass    = "FF5E00"
	colorReferencedPass   = "FFAA00"
	colorUnreferencedPass = "FFEEEE"
	colorResource         = "BBEEFF"
	colorImportedResource = "99BBDD"
)

// Lifetime describes how one logical resource was used by the last
// Compile.
type Lifetime struct {
	Name     string
	Kind     device.Kind
	Imported bool
	Exported bool

	// MovedInto names the resource this one was moved into, if any.
	MovedInto string

	// First and Last are the IDs of the first and last live passes using
	// the resource, or -1 when no live pass does.
	First, Last int

	// Versions is the number of versions the resource has.
	Versions int

	// Physical is the label of the physical resource, empty when none.
	Physical string

	// FinalState is the state the resource is left in.
	FinalState device.State
}

// Lifetimes returns one row per logical resource, in declaration order.
func (g *Graph) Lifetimes() []Lifetime {
	g.checkOpen()
	rows := make([]Lifetime, 0, len(g.resources))
	for _, r := range g.resources {
		root := g.resources[g.rootIndex(r.id)]
		lt := Lifetime{
			Name:     r.name,
			Kind:     r.kind,
			Imported: r.imported,
			Exported: root.exported,
			First:    root.first,
			Last:     root.last,
			Versions: g.nodes[root.current].version + 1,
		}
		if root != r {
			lt.MovedInto = root.name
		}
		if root.physical != nil {
			lt.Physical = root.physical.Label()
			lt.FinalState = g.physStates[root.physical]
		}
		rows = append(rows, lt)
	}
	return rows
}

// String returns the execution plan of the last Compile: every pass in
// order with its barriers, culled passes marked.
func (g *Graph) String() string {
	if g.executed {
		return fmt.Sprintf("graph %q (build %d, executed)", g.opts.name, g.build)
	}
	culled := 0
	for _, p := range g.passes {
		if p.culled {
			culled++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "graph %q (build %d): %d passes, %d culled, %d resources\n",
		g.opts.name, g.build, len(g.passes), culled, len(g.resources))
	for _, p := range g.passes {
		fmt.Fprintf(&b, "  #%d %s [%v]", p.id, p.name, p.flags)
		if p.culled {
			b.WriteString(" culled\n")
			continue
		}
		b.WriteByte('\n')
		for _, br := range p.barriers {
			fmt.Fprintf(&b, "      %s: %v -> %v\n", br.Resource.Label(), br.Before, br.After)
		}
	}
	return b.String()
}

// WriteMermaid writes the graph as a Mermaid flowchart.
func (g *Graph) WriteMermaid(w io.Writer) error {
	g.checkOpen()
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "graph TD;")
	fmt.Fprintf(bw, "classDef neverCullPass fill:#%s,stroke:#333,stroke-width:4px;\n", colorNeverCullPass)
	fmt.Fprintf(bw, "classDef referencedPass fill:#%s,stroke:#333,stroke-width:4px;\n", colorReferencedPass)
	fmt.Fprintf(bw, "classDef unreferenced fill:#%s,stroke:#fee,stroke-width:1px;\n", colorUnreferencedPass)
	fmt.Fprintf(bw, "classDef referencedResource fill:#%s,stroke:#333,stroke-width:2px;\n", colorResource)
	fmt.Fprintf(bw, "classDef importedResource fill:#%s,stroke:#333,stroke-width:2px;\n", colorImportedResource)

	const (
		writeLink = "stroke:#f82,stroke-width:2px;"
		readLink  = "stroke:#9c9,stroke-width:2px;"
	)
	link := 0
	printed := make(map[int]bool)
	printNode := func(n int) {
		if printed[n] {
			return
		}
		printed[n] = true
		r := g.resources[g.nodes[n].res]
		open, end, class := "([", "])", "referencedResource"
		if r.imported {
			open, end, class = "[(", ")]", "importedResource"
		}
		fmt.Fprintf(bw, "Resource%d_%d%s\"%s\"<br/>%s<br/>Version: %d%s:::%s\n",
			r.id, g.nodes[n].version, open, mermaidEscape(r.name),
			mermaidEscape(r.descString()), g.nodes[n].version, end, class)
	}

	for _, p := range g.passes {
		class := "referencedPass"
		switch {
		case p.flags&PassNeverCull != 0:
			class = "neverCullPass"
		case p.culled:
			class = "unreferenced"
		}
		fmt.Fprintf(bw, "Pass%d[\"%s\"<br/>Flags: %v<br/>Index: %d<br/>Culled: %s]:::%s\n",
			p.id, mermaidEscape(p.name), p.flags, p.id, yesNo(p.culled), class)

		for _, a := range p.reads {
			printNode(a.node)
			r := g.nodes[a.node]
			fmt.Fprintf(bw, "Resource%d_%d -- %v --> Pass%d\n", r.res, r.version, a.state, p.id)
			fmt.Fprintf(bw, "linkStyle %d %s\n", link, readLink)
			link++
		}
		for _, a := range p.writes {
			printNode(a.node)
			r := g.nodes[a.node]
			fmt.Fprintf(bw, "Pass%d -- %v --> Resource%d_%d\n", p.id, a.state, r.res, r.version)
			fmt.Fprintf(bw, "linkStyle %d %s\n", link, writeLink)
			link++
		}
	}
	return bw.Flush()
}

// WriteGraphViz writes the graph in the DOT language.
func (g *Graph) WriteGraphViz(w io.Writer) error {
	g.checkOpen()
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "digraph {")
	fmt.Fprintln(bw, "splines=ortho;")

	printed := make(map[int]bool)
	printNode := func(n int) {
		if printed[n] {
			return
		}
		printed[n] = true
		r := g.resources[g.nodes[n].res]
		color, shape := colorResource, "oval"
		if r.imported {
			color, shape = colorImportedResource, "cylinder"
		}
		fmt.Fprintf(bw, "Resource%d_%d [ label = \"%s\\n%s\\nVersion: %d\" penwidth=2 shape=%s style=filled fillcolor=\"#%s\" ];\n",
			r.id, g.nodes[n].version, dotEscape(r.name), dotEscape(r.descString()), g.nodes[n].version, shape, color)
	}

	for _, p := range g.passes {
		color := colorReferencedPass
		switch {
		case p.flags&PassNeverCull != 0:
			color = colorNeverCullPass
		case p.culled:
			color = colorUnreferencedPass
		}
		fmt.Fprintf(bw, "Pass%d [ label = \"%s\\nFlags: %v\\nIndex: %d\\nCulled: %s\" penwidth=4 shape=rectangle style=filled fillcolor=\"#%s\" ];\n",
			p.id, dotEscape(p.name), p.flags, p.id, yesNo(p.culled), color)

		for _, a := range p.reads {
			printNode(a.node)
			n := g.nodes[a.node]
			fmt.Fprintf(bw, "Resource%d_%d -> Pass%d [ label = \"%v\" color=\"#99cc99\" ];\n", n.res, n.version, p.id, a.state)
		}
		for _, a := range p.writes {
			printNode(a.node)
			n := g.nodes[a.node]
			fmt.Fprintf(bw, "Pass%d -> Resource%d_%d [ label = \"%v\" color=\"#ff8822\" ];\n", p.id, n.res, n.version, a.state)
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

const mermaidHTML = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<title>%s</title>
</head>
<body>
	<script src="https://cdn.jsdelivr.net/npm/mermaid/dist/mermaid.min.js"></script>
	<script>
		mermaid.initialize({ startOnLoad: true, maxTextSize: 90000, flowchart: { useMaxWidth: false, htmlLabels: true }});
	</script>
	<div class="mermaid">
%s
	</div>
</body>
</html>
`

const graphVizHTML = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<title>%s</title>
</head>
<body>
	<div id="graph"></div>
	<script src="https://cdn.jsdelivr.net/npm/@viz-js/viz@3.4.0/lib/viz-standalone.js"></script>
	<script>
		Viz.instance().then(function(viz) {
			var svg = viz.renderSVGElement(` + "`%s`" + `);
			document.getElementById("graph").appendChild(svg);
		});
	</script>
</body>
</html>
`

// DumpHTML writes <base>.html with a Mermaid rendering and
// <base>_graphviz.html with a GraphViz rendering of the graph into dir.
func (g *Graph) DumpHTML(dir, base string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("rg: dump %q: %w", g.opts.name, err)
	}

	var mermaid, dot strings.Builder
	if err := g.WriteMermaid(&mermaid); err != nil {
		return fmt.Errorf("rg: dump %q: %w", g.opts.name, err)
	}
	if err := g.WriteGraphViz(&dot); err != nil {
		return fmt.Errorf("rg: dump %q: %w", g.opts.name, err)
	}

	files := []struct {
		name, content string
	}{
		{base + ".html", fmt.Sprintf(mermaidHTML, g.opts.name, mermaid.String())},
		{base + "_graphviz.html", fmt.Sprintf(graphVizHTML, g.opts.name, strings.ReplaceAll(dot.String(), "`", "'"))},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("rg: dump %q: %w", g.opts.name, err)
		}
		Logger().Debug("rg: wrote graph dump", "path", path)
	}
	return nil
}

func mermaidEscape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

func dotEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
