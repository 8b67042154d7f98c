// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rgfile

import (
	"fmt"
	"os"
	"slices"

	"github.com/gogpu/rg"
	"github.com/gogpu/rg/device"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Vars are the variables a description can reference.
type Vars struct {
	Width  uint32
	Height uint32
}

func (v Vars) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"width":  cty.NumberIntVal(int64(v.Width)),
			"height": cty.NumberIntVal(int64(v.Height)),
		},
	}
}

// ParseFile reads and parses the description at path.
func ParseFile(path string, vars Vars) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rgfile: %w", err)
	}
	return Parse(src, path, vars)
}

// Parse parses a description. The returned error is an hcl.Diagnostics
// when the description is invalid.
func Parse(src []byte, filename string, vars Vars) (*File, error) {
	hf, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	body, ok := hf.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("rgfile: %s: unexpected body type %T", filename, hf.Body)
	}

	p := &parser{
		file:  &File{Filename: filename},
		ctx:   vars.evalContext(),
		kinds: make(map[string]device.Kind),
	}
	exports := p.attributes(body.Attributes)
	p.file.Items = p.blocks(body.Blocks, nil, true)
	if exports != nil {
		p.exports(exports)
	}
	if p.diags.HasErrors() {
		return nil, p.diags
	}
	return p.file, nil
}

type parser struct {
	file  *File
	ctx   *hcl.EvalContext
	kinds map[string]device.Kind
	diags hcl.Diagnostics
}

func (p *parser) errorf(rng hcl.Range, summary, format string, args ...any) {
	p.diags = append(p.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, args...),
		Subject:  rng.Ptr(),
	})
}

// attributes decodes the top-level attributes and returns the export
// attribute, which is resolved after all blocks.
func (p *parser) attributes(attrs hclsyntax.Attributes) *hclsyntax.Attribute {
	sorted := make([]*hclsyntax.Attribute, 0, len(attrs))
	for _, a := range attrs {
		sorted = append(sorted, a)
	}
	slices.SortFunc(sorted, func(a, b *hclsyntax.Attribute) int {
		return a.SrcRange.Start.Byte - b.SrcRange.Start.Byte
	})

	var exports *hclsyntax.Attribute
	for _, a := range sorted {
		switch a.Name {
		case "name":
			p.diags = append(p.diags, gohcl.DecodeExpression(a.Expr, p.ctx, &p.file.Name)...)
		case "export":
			exports = a
		default:
			p.errorf(a.NameRange, "Unsupported argument",
				"An argument named %q is not expected here.", a.Name)
		}
	}
	return exports
}

func (p *parser) exports(a *hclsyntax.Attribute) {
	var names []string
	diags := gohcl.DecodeExpression(a.Expr, p.ctx, &names)
	p.diags = append(p.diags, diags...)
	if diags.HasErrors() {
		return
	}
	for _, n := range names {
		if _, ok := p.kinds[n]; !ok {
			p.errorf(a.Expr.Range(), "Unknown resource", "Export of undeclared resource %q.", n)
			continue
		}
		p.file.Exports = append(p.file.Exports, n)
	}
}

// blocks parses blocks in source order. Resource declarations and moves are
// only allowed at the top level.
func (p *parser) blocks(blocks hclsyntax.Blocks, scopes []string, top bool) []Item {
	var items []Item
	for _, b := range blocks {
		var it Item
		switch b.Type {
		case "texture", "buffer", "import", "move":
			if !top {
				p.errorf(b.DefRange(), "Misplaced block",
					"A %s block is only allowed at the top level, not inside a scope.", b.Type)
				continue
			}
		case "pass", "copy", "scope":
		default:
			p.errorf(b.TypeRange, "Unsupported block type",
				"Blocks of type %q are not expected here.", b.Type)
			continue
		}
		if !p.labels(b) {
			continue
		}

		switch b.Type {
		case "texture":
			it = p.texture(b)
		case "buffer":
			it = p.buffer(b)
		case "import":
			it = p.importBlock(b)
		case "move":
			it = p.move(b)
		case "pass":
			it = p.pass(b, scopes)
		case "copy":
			it = p.copyBlock(b)
		case "scope":
			s := &Scope{Name: b.Labels[0], rng: b.DefRange()}
			s.Items = p.blocks(b.Body.Blocks, append(slices.Clip(scopes), s.Name), false)
			if len(b.Body.Attributes) > 0 {
				p.errorf(b.DefRange(), "Unsupported argument", "Scope %q takes only blocks.", s.Name)
			}
			it = s
		}
		if it != nil {
			items = append(items, it)
		}
	}
	return items
}

func (p *parser) labels(b *hclsyntax.Block) bool {
	want := 1
	if b.Type == "move" {
		want = 0
	}
	if len(b.Labels) != want {
		p.errorf(b.DefRange(), "Wrong number of labels",
			"A %s block takes %d label(s), got %d.", b.Type, want, len(b.Labels))
		return false
	}
	return true
}

func (p *parser) decode(b *hclsyntax.Block, v any) bool {
	diags := gohcl.DecodeBody(b.Body, p.ctx, v)
	p.diags = append(p.diags, diags...)
	return !diags.HasErrors()
}

func (p *parser) declare(name string, kind device.Kind, rng hcl.Range) bool {
	if _, ok := p.kinds[name]; ok {
		p.errorf(rng, "Duplicate resource", "A resource named %q was already declared.", name)
		return false
	}
	p.kinds[name] = kind
	return true
}

// ref returns the kind of the declared resource name.
func (p *parser) ref(name string, rng hcl.Range, what string) (device.Kind, bool) {
	k, ok := p.kinds[name]
	if !ok {
		p.errorf(rng, "Unknown resource", "%s refers to undeclared resource %q.", what, name)
	}
	return k, ok
}

func (p *parser) texture(b *hclsyntax.Block) Item {
	t := &Texture{Name: b.Labels[0], rng: b.DefRange()}
	if !p.decode(b, t) {
		return nil
	}
	format, ok := formatNames[t.Format]
	if !ok {
		p.errorf(t.rng, "Unknown format", "Texture %q: format %q is not one of %s.", t.Name, t.Format, choices(formatNames))
		return nil
	}
	if t.Width == 0 || t.Height == 0 {
		p.errorf(t.rng, "Invalid size", "Texture %q has size %dx%d.", t.Name, t.Width, t.Height)
		return nil
	}
	if t.Depth > 1 {
		t.desc = device.Texture3D(t.Width, t.Height, t.Depth, format, 0)
	} else {
		t.desc = device.Texture2D(t.Width, t.Height, format, 0)
	}
	if t.Mips > 0 {
		t.desc.MipLevelCount = t.Mips
	}
	if !p.declare(t.Name, device.KindTexture, t.rng) {
		return nil
	}
	return t
}

func (p *parser) buffer(b *hclsyntax.Block) Item {
	buf := &Buffer{Name: b.Labels[0], rng: b.DefRange()}
	if !p.decode(b, buf) {
		return nil
	}
	if buf.Desc().Size == 0 {
		p.errorf(buf.rng, "Invalid size", "Buffer %q needs size, or count and stride.", buf.Name)
		return nil
	}
	if !p.declare(buf.Name, device.KindBuffer, buf.rng) {
		return nil
	}
	return buf
}

func (p *parser) importBlock(b *hclsyntax.Block) Item {
	imp := &Import{Name: b.Labels[0], rng: b.DefRange()}
	if !p.decode(b, imp) {
		return nil
	}
	switch imp.Kind {
	case "", "texture":
		imp.kind = device.KindTexture
		if _, ok := formatNames[imp.Format]; !ok {
			p.errorf(imp.rng, "Unknown format", "Import %q: format %q is not one of %s.", imp.Name, imp.Format, choices(formatNames))
			return nil
		}
		if imp.Width == 0 || imp.Height == 0 {
			p.errorf(imp.rng, "Invalid size", "Import %q has size %dx%d.", imp.Name, imp.Width, imp.Height)
			return nil
		}
	case "buffer":
		imp.kind = device.KindBuffer
		if imp.Size == 0 {
			p.errorf(imp.rng, "Invalid size", "Import %q needs a size.", imp.Name)
			return nil
		}
	default:
		p.errorf(imp.rng, "Unknown kind", `Import %q: kind %q is not "texture" or "buffer".`, imp.Name, imp.Kind)
		return nil
	}
	if imp.State != "" {
		s, ok := stateNames[imp.State]
		if !ok {
			p.errorf(imp.rng, "Unknown state", "Import %q: state %q is not one of %s.", imp.Name, imp.State, choices(stateNames))
			return nil
		}
		imp.state = s
	}
	if !p.declare(imp.Name, imp.kind, imp.rng) {
		return nil
	}
	return imp
}

func (p *parser) access(name string, rng hcl.Range, def device.RenderPassAccess) device.RenderPassAccess {
	if name == "" {
		return def
	}
	a, ok := accessNames[name]
	if !ok {
		p.errorf(rng, "Unknown access", "Access %q is not one of %s.", name, choices(accessNames))
	}
	return a
}

func (p *parser) pass(b *hclsyntax.Block, scopes []string) Item {
	ps := &Pass{Name: b.Labels[0], Scopes: slices.Clone(scopes), rng: b.DefRange()}
	if !p.decode(b, ps) {
		return nil
	}
	n := len(p.diags)

	for _, f := range ps.Flags {
		flag, ok := flagNames[f]
		if !ok {
			p.errorf(ps.rng, "Unknown flag", "Pass %q: flag %q is not one of %s.", ps.Name, f, choices(flagNames))
			continue
		}
		ps.flags |= flag
	}
	for _, list := range [][]string{ps.Reads, ps.Writes, ps.ReadWrites} {
		for _, name := range list {
			p.ref(name, ps.rng, fmt.Sprintf("Pass %q", ps.Name))
		}
	}

	hasAttachments := len(ps.RenderTargets) > 0 || ps.DepthStencil != nil
	if hasAttachments && ps.flags&rg.PassRaster == 0 {
		p.errorf(ps.rng, "Attachment outside raster pass",
			"Pass %q declares attachments but lacks the \"raster\" flag.", ps.Name)
	}
	for _, rt := range ps.RenderTargets {
		if k, ok := p.ref(rt.Resource, ps.rng, fmt.Sprintf("Pass %q render_target", ps.Name)); ok && k != device.KindTexture {
			p.errorf(ps.rng, "Not a texture", "Pass %q: render target %q is a buffer.", ps.Name, rt.Resource)
		}
		rt.access = p.access(rt.Access, ps.rng, device.AccessLoadStore)
	}
	if ds := ps.DepthStencil; ds != nil {
		if k, ok := p.ref(ds.Resource, ps.rng, fmt.Sprintf("Pass %q depth_stencil", ps.Name)); ok && k != device.KindTexture {
			p.errorf(ps.rng, "Not a texture", "Pass %q: depth-stencil %q is a buffer.", ps.Name, ds.Resource)
		}
		ds.access = p.access(ds.Access, ps.rng, device.AccessLoadStore)
		ds.stencilAccess = p.access(ds.StencilAccess, ps.rng, device.AccessNone)
	}
	if len(ps.ClearColor) != 0 && len(ps.ClearColor) != 4 {
		p.errorf(ps.rng, "Invalid clear color", "Pass %q: clear_color needs 4 components, got %d.", ps.Name, len(ps.ClearColor))
	}

	if p.diags[n:].HasErrors() {
		return nil
	}
	return ps
}

func (p *parser) copyBlock(b *hclsyntax.Block) Item {
	c := &Copy{Name: b.Labels[0], rng: b.DefRange()}
	if !p.decode(b, c) {
		return nil
	}
	what := fmt.Sprintf("Copy %q", c.Name)
	src, ok := p.ref(c.From, c.rng, what)
	if !ok {
		return nil
	}
	c.kind = src
	if c.To == "" {
		if !p.declare(c.Name, src, c.rng) {
			return nil
		}
		return c
	}
	dst, ok := p.ref(c.To, c.rng, what)
	if !ok {
		return nil
	}
	if dst != src {
		p.errorf(c.rng, "Kind mismatch", "Copy %q: %q is a %v, %q is a %v.", c.Name, c.From, src, c.To, dst)
		return nil
	}
	return c
}

func (p *parser) move(b *hclsyntax.Block) Item {
	m := &Move{rng: b.DefRange()}
	if !p.decode(b, m) {
		return nil
	}
	from, ok1 := p.ref(m.From, m.rng, "Move")
	to, ok2 := p.ref(m.To, m.rng, "Move")
	if !ok1 || !ok2 {
		return nil
	}
	if from != to {
		p.errorf(m.rng, "Kind mismatch", "Move: %q is a %v, %q is a %v.", m.From, from, m.To, to)
		return nil
	}
	return m
}
