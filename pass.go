// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rg/device"
)

// PassFlags describe what kind of work a pass records.
type PassFlags uint8

// Pass flags.
const (
	// PassRaster passes may bind render targets and depth-stencil.
	PassRaster PassFlags = 1 << iota

	// PassCompute passes dispatch compute work.
	PassCompute

	// PassCopy passes only copy. Reads are copy sources and writes are copy
	// destinations.
	PassCopy

	// PassInvisible passes get no debug group of their own.
	PassInvisible

	// PassNeverCull passes execute even when nothing reads their output.
	PassNeverCull

	// PassNone is a pass without flags.
	PassNone PassFlags = 0
)

var passFlagNames = []struct {
	f    PassFlags
	name string
}{
	{PassRaster, "Raster"},
	{PassCompute, "Compute"},
	{PassCopy, "Copy"},
	{PassInvisible, "Invisible"},
	{PassNeverCull, "NeverCull"},
}

// String returns the flag names joined with '|'.
func (f PassFlags) String() string {
	if f == PassNone {
		return "None"
	}
	var parts []string
	for _, n := range passFlagNames {
		if f&n.f != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ExecuteFunc records the commands of a pass. It runs once, during
// Execute, after the graph has transitioned every resource the pass
// declared and opened its render pass if it has attachments.
//
// Capture what the callback needs when the pass is declared. Returning an
// error aborts Execute and discards everything recorded so far.
type ExecuteFunc func(ctx device.Context, res *Resources) error

// access is one declared use of a resource version.
type access struct {
	node  int
	state device.State
}

type colorTarget struct {
	node   int
	access device.RenderPassAccess
}

type depthTarget struct {
	node          int
	depthAccess   device.RenderPassAccess
	stencilAccess device.RenderPassAccess
	write         bool
}

// use is the merged access of one pass to one physical-facing resource.
type use struct {
	res   int
	state device.State
}

// Pass is a unit of work in a graph.
//
// Declarations chain:
//
//	g.AddPass("Tonemap", rg.PassCompute).
//		Read(hdr).
//		Write(ldr).
//		Bind(func(ctx device.Context, res *rg.Resources) error {
//			...
//		})
type Pass struct {
	g     *Graph
	name  string
	id    int
	flags PassFlags

	reads  []access
	writes []access

	// order holds reads and writes in declaration order.
	order []access

	colors       []colorTarget
	depth        *depthTarget
	clearColor   gputypes.Color
	clearDepth   float32
	clearStencil uint32

	exec ExecuteFunc

	eventsToStart []string
	eventsToEnd   int

	// Compile state.
	refs     int
	culled   bool
	uses     []use
	barriers []device.Barrier
}

// AddPass declares a pass. Passes execute in declaration order.
func (g *Graph) AddPass(name string, flags PassFlags) *Pass {
	g.checkOpen()
	if len(g.passes) >= g.opts.maxPasses {
		violation(ErrArenaOverflow, "pass %q exceeds the budget of %d", name, g.opts.maxPasses)
	}
	p := &Pass{
		g:             g,
		name:          name,
		id:            len(g.passes),
		flags:         flags,
		eventsToStart: g.pendingEvents,
		clearDepth:    1,
	}
	g.pendingEvents = nil
	g.passes = append(g.passes, p)
	g.compiled = false
	return p
}

// Name returns the pass name.
func (p *Pass) Name() string { return p.name }

// ID returns the declaration index of the pass.
func (p *Pass) ID() int { return p.id }

// Flags returns the pass flags.
func (p *Pass) Flags() PassFlags { return p.flags }

// Culled reports whether the last Compile culled the pass.
func (p *Pass) Culled() bool { return p.culled }

// Reads returns the versions the pass reads, in declaration order.
func (p *Pass) Reads() []Handle {
	return p.handles(p.reads)
}

// Writes returns the versions the pass produces, in declaration order.
func (p *Pass) Writes() []Handle {
	return p.handles(p.writes)
}

func (p *Pass) handles(as []access) []Handle {
	hs := make([]Handle, len(as))
	for i, a := range as {
		hs[i] = p.g.handle(a.node)
	}
	return hs
}

func (p *Pass) readState() device.State {
	if p.flags&PassCopy != 0 {
		return device.StateCopySrc
	}
	return device.StateShaderResource
}

func (p *Pass) writeState() device.State {
	if p.flags&PassCopy != 0 {
		return device.StateCopyDst
	}
	return device.StateUnorderedAccess
}

// Read declares reads of the current version of each resource.
func (p *Pass) Read(hs ...Handle) *Pass {
	for _, h := range hs {
		p.read(h, p.readState())
	}
	return p
}

// Write declares writes to each resource. Every write creates a new
// version; later declarations see it.
//
// A pass may read and write the same resource. The two accesses are not
// treated as a hazard: synchronizing them inside the callback is up to the
// pass.
func (p *Pass) Write(hs ...Handle) *Pass {
	for _, h := range hs {
		p.write(h, p.writeState())
	}
	return p
}

// ReadWrite declares a read of the current version followed by a write of
// each resource, so the producer of the previous contents stays alive.
func (p *Pass) ReadWrite(hs ...Handle) *Pass {
	for _, h := range hs {
		p.read(h, p.readState())
		p.write(h, p.writeState())
	}
	return p
}

// RenderTarget binds h as a color attachment. Accesses that load the
// previous contents also read the current version. AccessNone binds the
// attachment read-only.
func (p *Pass) RenderTarget(h Handle, a device.RenderPassAccess) *Pass {
	p.attachment(h, "RenderTarget")
	var n int
	if a == device.AccessNone {
		n = p.read(h, device.StateRenderTarget)
	} else {
		if a.Load() == device.LoadLoad {
			p.read(h, device.StateRenderTarget)
		}
		n = p.write(h, device.StateRenderTarget)
	}
	p.colors = append(p.colors, colorTarget{node: n, access: a})
	return p
}

// DepthStencil binds h as the depth-stencil attachment. With write false
// the attachment is read-only and the pass only reads h.
func (p *Pass) DepthStencil(h Handle, depthAccess device.RenderPassAccess, write bool, stencilAccess device.RenderPassAccess) *Pass {
	r := p.attachment(h, "DepthStencil")
	if p.depth != nil {
		violation(ErrContract, "pass %q: second depth-stencil attachment %q", p.name, r.name)
	}
	if !device.IsDepthFormat(r.texDesc.Format) {
		violation(ErrDescMismatch, "pass %q: %q has no depth format", p.name, r.name)
	}
	var n int
	if write {
		if depthAccess.Load() == device.LoadLoad || stencilAccess.Load() == device.LoadLoad {
			p.read(h, device.StateDepthWrite)
		}
		n = p.write(h, device.StateDepthWrite)
	} else {
		n = p.read(h, device.StateDepthRead)
	}
	p.depth = &depthTarget{node: n, depthAccess: depthAccess, stencilAccess: stencilAccess, write: write}
	return p
}

// ClearColor sets the clear value of color attachments that clear.
func (p *Pass) ClearColor(c gputypes.Color) *Pass {
	p.clearColor = c
	return p
}

// ClearDepth sets the clear values of a depth-stencil attachment that
// clears. The default depth clear value is 1.
func (p *Pass) ClearDepth(depth float32, stencil uint32) *Pass {
	p.clearDepth = depth
	p.clearStencil = stencil
	return p
}

// Bind attaches the callback that records the pass. A pass is bound once.
func (p *Pass) Bind(fn ExecuteFunc) *Pass {
	p.g.checkOpen()
	if fn == nil {
		violation(ErrContract, "pass %q: nil callback", p.name)
	}
	if p.exec != nil {
		violation(ErrAlreadyBound, "pass %q", p.name)
	}
	p.exec = fn
	return p
}

// attachment validates h as a render pass attachment of p.
func (p *Pass) attachment(h Handle, what string) *resource {
	if p.flags&PassRaster == 0 || p.flags&PassCopy != 0 {
		violation(ErrContract, "pass %q (%v): %s needs a raster pass", p.name, p.flags, what)
	}
	r := p.g.rootResource(h)
	if r.kind != device.KindTexture {
		violation(ErrContract, "pass %q: %s %q is a %v", p.name, what, r.name, r.kind)
	}
	return r
}

// read declares a read of the current version of h and returns its node.
func (p *Pass) read(h Handle, state device.State) int {
	g := p.g
	r := g.rootResource(h)
	n := r.current
	// Reading back what the pass itself wrote must not keep it alive.
	if g.nodes[n].writer != p.id {
		g.nodes[n].readers++
	}
	g.nodes[n].access |= state
	a := access{node: n, state: state}
	p.reads = append(p.reads, a)
	p.order = append(p.order, a)
	r.accessed = true
	g.resources[g.node(h).res].accessed = true
	g.compiled = false
	return n
}

// write creates a new version of h written by p and returns its node.
func (p *Pass) write(h Handle, state device.State) int {
	g := p.g
	r := g.rootResource(h)
	prev := g.nodes[r.current].version
	n := g.addNode(r.id, prev+1, p.id)
	g.nodes[n].access = state
	r.current = n
	a := access{node: n, state: state}
	p.writes = append(p.writes, a)
	p.order = append(p.order, a)
	r.accessed = true
	g.resources[g.node(h).res].accessed = true
	g.compiled = false
	return n
}
