// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rgfile

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rg"
	"github.com/gogpu/rg/device"
)

// ErrNoImporter is returned by Build when a description imports resources
// and Options.Import is nil.
var ErrNoImporter = errors.New("rgfile: import without an importer")

// Options control how a description is built into a graph.
type Options struct {
	// Import returns the physical resource of an import block. Its kind
	// must match the block.
	Import func(*Import) (device.Resource, error)

	// Bind returns the callback of a pass. When nil or when it returns nil,
	// the pass is left without a callback.
	Bind func(*Pass) rg.ExecuteFunc
}

// Built maps the names of a description to the graph it was built into.
type Built struct {
	handles map[string]rg.Handle
	passes  map[string]*rg.Pass

	exportNames []string
	exportTex   map[string]*device.Texture
	exportBuf   map[string]*device.Buffer
}

// Handle returns the handle of the resource name.
func (b *Built) Handle(name string) (rg.Handle, bool) {
	h, ok := b.handles[name]
	return h, ok
}

// Pass returns the pass declared as name, or nil. Copy blocks are passes
// too.
func (b *Built) Pass(name string) *rg.Pass { return b.passes[name] }

// Exports returns the exported resources by name. It is populated once the
// graph has executed.
func (b *Built) Exports() map[string]device.Resource {
	out := make(map[string]device.Resource, len(b.exportNames))
	for _, n := range b.exportNames {
		switch {
		case b.exportTex[n] != nil && *b.exportTex[n] != nil:
			out[n] = *b.exportTex[n]
		case b.exportBuf[n] != nil && *b.exportBuf[n] != nil:
			out[n] = *b.exportBuf[n]
		}
	}
	return out
}

// Build adds the declarations of f to g in source order.
//
// Contract violations raised by g are returned as errors; g must then be
// discarded.
func (f *File) Build(g *rg.Graph, opts Options) (built *Built, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok || !errors.Is(e, rg.ErrContract) {
				panic(r)
			}
			built, err = nil, fmt.Errorf("rgfile: %s: %w", f.Filename, e)
		}
	}()

	b := &Built{
		handles:   make(map[string]rg.Handle),
		passes:    make(map[string]*rg.Pass),
		exportTex: make(map[string]*device.Texture),
		exportBuf: make(map[string]*device.Buffer),
	}
	if err := b.items(g, f.Items, opts); err != nil {
		return nil, fmt.Errorf("rgfile: %s: %w", f.Filename, err)
	}
	for _, n := range f.Exports {
		h := b.handles[n]
		b.exportNames = append(b.exportNames, n)
		if g.Kind(h) == device.KindTexture {
			dst := new(device.Texture)
			b.exportTex[n] = dst
			g.ExportTexture(h, dst)
		} else {
			dst := new(device.Buffer)
			b.exportBuf[n] = dst
			g.ExportBuffer(h, dst)
		}
	}
	return b, nil
}

func (b *Built) items(g *rg.Graph, items []Item, opts Options) error {
	for _, it := range items {
		switch it := it.(type) {
		case *Texture:
			b.handles[it.Name] = g.CreateTexture(it.Name, it.desc)
		case *Buffer:
			b.handles[it.Name] = g.CreateBuffer(it.Name, it.Desc())
		case *Import:
			if err := b.importResource(g, it, opts); err != nil {
				return err
			}
		case *Move:
			g.MoveResource(b.handles[it.From], b.handles[it.To])
		case *Copy:
			b.copyPass(g, it)
		case *Pass:
			b.pass(g, it, opts)
		case *Scope:
			g.PushEvent(it.Name)
			if err := b.items(g, it.Items, opts); err != nil {
				return err
			}
			g.PopEvent()
		}
	}
	return nil
}

func (b *Built) importResource(g *rg.Graph, it *Import, opts Options) error {
	if opts.Import == nil {
		return fmt.Errorf("%w: %q", ErrNoImporter, it.Name)
	}
	r, err := opts.Import(it)
	if err != nil {
		return fmt.Errorf("import %q: %w", it.Name, err)
	}
	switch r := r.(type) {
	case device.Texture:
		if it.kind != device.KindTexture {
			return fmt.Errorf("import %q: got a texture for a %v", it.Name, it.kind)
		}
		b.handles[it.Name] = g.ImportTexture(it.Name, r, it.state)
	case device.Buffer:
		if it.kind != device.KindBuffer {
			return fmt.Errorf("import %q: got a buffer for a %v", it.Name, it.kind)
		}
		b.handles[it.Name] = g.ImportBuffer(it.Name, r, it.state)
	default:
		return fmt.Errorf("import %q: unsupported resource %T", it.Name, r)
	}
	return nil
}

func (b *Built) copyPass(g *rg.Graph, c *Copy) {
	var dst rg.Handle
	if c.To != "" {
		dst = b.handles[c.To]
	}
	var h rg.Handle
	if c.kind == device.KindTexture {
		h = g.AddCopyTexturePass(c.Name, b.handles[c.From], dst)
	} else {
		h = g.AddCopyBufferPass(c.Name, b.handles[c.From], dst)
	}
	if c.To == "" {
		b.handles[c.Name] = h
	}
	passes := g.Passes()
	b.passes[c.Name] = passes[len(passes)-1]
}

func (b *Built) pass(g *rg.Graph, d *Pass, opts Options) {
	p := g.AddPass(d.Name, d.flags)
	for _, n := range d.Reads {
		p.Read(b.handles[n])
	}
	for _, n := range d.Writes {
		p.Write(b.handles[n])
	}
	for _, n := range d.ReadWrites {
		p.ReadWrite(b.handles[n])
	}
	for _, rt := range d.RenderTargets {
		p.RenderTarget(b.handles[rt.Resource], rt.access)
	}
	if ds := d.DepthStencil; ds != nil {
		p.DepthStencil(b.handles[ds.Resource], ds.access, ds.Write, ds.stencilAccess)
		if ds.ClearDepth != nil || ds.ClearStencil != 0 {
			depth := float32(1)
			if ds.ClearDepth != nil {
				depth = float32(*ds.ClearDepth)
			}
			p.ClearDepth(depth, ds.ClearStencil)
		}
	}
	if c := d.ClearColor; len(c) == 4 {
		p.ClearColor(gputypes.Color{R: c[0], G: c[1], B: c[2], A: c[3]})
	}
	if opts.Bind != nil {
		if fn := opts.Bind(d); fn != nil {
			p.Bind(fn)
		}
	}
	b.passes[d.Name] = p
}
