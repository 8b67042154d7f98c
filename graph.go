// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"reflect"
	"sync/atomic"

	"github.com/gogpu/rg/device"
)

// Allocator provides physical resources to a graph. *pool.Pool implements
// it.
type Allocator interface {
	// Device returns the device passes are recorded and submitted on.
	Device() device.Device

	// AllocateTexture and AllocateBuffer hand out a resource with one
	// reference held by the caller.
	AllocateTexture(name string, desc device.TextureDesc) (device.Texture, error)
	AllocateBuffer(name string, desc device.BufferDesc) (device.Buffer, error)

	// Release drops a reference taken by an allocation.
	Release(r device.Resource) error

	// State and SetState carry the device state of pooled resources from
	// one build to the next.
	State(r device.Resource) device.State
	SetState(r device.Resource, s device.State)
}

// buildSeq numbers graph builds so handles can be checked for ownership.
var buildSeq atomic.Uint64

// Graph is a render graph for one frame.
//
// Declare resources and passes, call Compile, then Execute. A Graph is
// single-use: Execute tears the build down and every handle it produced
// becomes stale. Graph is NOT safe for concurrent use; only the Allocator
// is shared between builds.
type Graph struct {
	opts  options
	build uint64
	alloc Allocator
	dev   device.Device

	passes    []*Pass
	resources []*resource
	nodes     []node

	// Event scopes not yet attached to a pass, and the open scope depth.
	pendingEvents []string
	eventDepth    int

	blackboard map[reflect.Type]any

	compiled bool
	executed bool

	// Compile results.
	held       []device.Resource
	physStates map[device.Resource]device.State
}

// New creates a graph that allocates physical resources from alloc.
func New(alloc Allocator, opts ...Option) *Graph {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph{
		opts:  o,
		build: buildSeq.Add(1),
		alloc: alloc,
		dev:   alloc.Device(),
	}
}

// Name returns the graph name.
func (g *Graph) Name() string {
	return g.opts.name
}

// Passes returns the declared passes in declaration order.
func (g *Graph) Passes() []*Pass {
	return g.passes
}

// CreateTexture declares a transient texture. The returned handle refers to
// version 0; no physical texture exists until Compile.
func (g *Graph) CreateTexture(name string, desc device.TextureDesc) Handle {
	r := g.addResource(name, device.KindTexture)
	r.texDesc = desc.Normalized()
	return g.handle(r.current)
}

// CreateBuffer declares a transient buffer.
func (g *Graph) CreateBuffer(name string, desc device.BufferDesc) Handle {
	r := g.addResource(name, device.KindBuffer)
	r.bufDesc = desc
	return g.handle(r.current)
}

// ImportTexture declares a texture owned by the caller. The graph
// transitions it from state and never returns it to the pool.
func (g *Graph) ImportTexture(name string, tex device.Texture, state device.State) Handle {
	if tex == nil {
		violation(ErrContract, "import texture %q: nil texture", name)
	}
	r := g.addResource(name, device.KindTexture)
	r.texDesc = tex.Desc().Normalized()
	r.imported = true
	r.external = tex
	r.initialState = state
	return g.handle(r.current)
}

// ImportBuffer declares a buffer owned by the caller.
func (g *Graph) ImportBuffer(name string, buf device.Buffer, state device.State) Handle {
	if buf == nil {
		violation(ErrContract, "import buffer %q: nil buffer", name)
	}
	r := g.addResource(name, device.KindBuffer)
	r.bufDesc = buf.Desc()
	r.imported = true
	r.external = buf
	r.initialState = state
	return g.handle(r.current)
}

// TryImportTexture imports tex, or fallback when tex is nil. Passes use it
// for optional inputs such as last frame's history texture.
func (g *Graph) TryImportTexture(name string, tex, fallback device.Texture, state device.State) Handle {
	if tex == nil {
		return g.ImportTexture(name, fallback, state)
	}
	return g.ImportTexture(name, tex, state)
}

// ExportTexture asks for the physical texture of h after Execute. Execute
// stores it in *dst. For pooled textures the caller then owns one pool
// reference and must release it once the texture is no longer needed.
// Exporting keeps the passes producing h alive.
func (g *Graph) ExportTexture(h Handle, dst *device.Texture) {
	r := g.rootResource(h)
	if r.kind != device.KindTexture {
		violation(ErrContract, "export texture: %q is a %v", r.name, r.kind)
	}
	if dst == nil {
		violation(ErrContract, "export texture %q: nil destination", r.name)
	}
	r.exported = true
	r.exportTex = append(r.exportTex, dst)
	g.compiled = false
}

// ExportBuffer asks for the physical buffer of h after Execute.
func (g *Graph) ExportBuffer(h Handle, dst *device.Buffer) {
	r := g.rootResource(h)
	if r.kind != device.KindBuffer {
		violation(ErrContract, "export buffer: %q is a %v", r.name, r.kind)
	}
	if dst == nil {
		violation(ErrContract, "export buffer %q: nil destination", r.name)
	}
	r.exported = true
	r.exportBuf = append(r.exportBuf, dst)
	g.compiled = false
}

// MoveResource redirects every later access of to onto from: to continues
// from's version chain and shares its physical resource. It returns the
// handle of from's current version.
//
// to must be a transient resource no pass has accessed yet. Its descriptor
// must match from's; a mismatch is reported by Compile.
func (g *Graph) MoveResource(from, to Handle) Handle {
	src := g.rootIndex(g.node(from).res)
	dst := g.node(to).res
	rt := g.resources[dst]
	switch {
	case rt.alias >= 0:
		violation(ErrContract, "move %q: already moved", rt.name)
	case rt.imported:
		violation(ErrContract, "move into imported resource %q", rt.name)
	case rt.accessed:
		violation(ErrContract, "move into %q after it was accessed", rt.name)
	case src == dst:
		violation(ErrContract, "move %q onto itself", rt.name)
	case g.resources[src].kind != rt.kind:
		violation(ErrDescMismatch, "move %q (%v) into %q (%v)",
			g.resources[src].name, g.resources[src].kind, rt.name, rt.kind)
	}
	rt.alias = src
	if rt.exported {
		g.inheritExport(g.resources[src], rt)
	}
	g.compiled = false
	return g.handle(g.resources[src].current)
}

// Current returns the handle of the latest version of the resource h
// refers to, following moves.
func (g *Graph) Current(h Handle) Handle {
	return g.handle(g.rootResource(h).current)
}

// Version returns the version number of h. Version 0 is the initial
// version; each write adds one.
func (g *Graph) Version(h Handle) int {
	return g.node(h).version
}

// ResourceName returns the name of the logical resource of h.
func (g *Graph) ResourceName(h Handle) string {
	return g.resources[g.node(h).res].name
}

// Kind returns whether h refers to a texture or a buffer.
func (g *Graph) Kind(h Handle) device.Kind {
	return g.resources[g.node(h).res].kind
}

// TextureDesc returns the descriptor of the texture h refers to.
func (g *Graph) TextureDesc(h Handle) device.TextureDesc {
	r := g.resources[g.node(h).res]
	if r.kind != device.KindTexture {
		violation(ErrContract, "TextureDesc: %q is a %v", r.name, r.kind)
	}
	return r.texDesc
}

// BufferDesc returns the descriptor of the buffer h refers to.
func (g *Graph) BufferDesc(h Handle) device.BufferDesc {
	r := g.resources[g.node(h).res]
	if r.kind != device.KindBuffer {
		violation(ErrContract, "BufferDesc: %q is a %v", r.name, r.kind)
	}
	return r.bufDesc
}

// FindResource returns the current version of the first resource named
// name.
func (g *Graph) FindResource(name string) (Handle, bool) {
	g.checkOpen()
	for _, r := range g.resources {
		if r.name == name {
			return g.handle(g.resources[g.rootIndex(r.id)].current), true
		}
	}
	return Handle{}, false
}

func (g *Graph) addResource(name string, kind device.Kind) *resource {
	g.checkOpen()
	if len(g.resources) >= g.opts.maxResources {
		violation(ErrArenaOverflow, "resource %q exceeds the budget of %d", name, g.opts.maxResources)
	}
	r := &resource{
		name:  name,
		id:    len(g.resources),
		kind:  kind,
		alias: -1,
		first: -1,
		last:  -1,
	}
	g.resources = append(g.resources, r)
	r.current = g.addNode(r.id, 0, -1)
	g.compiled = false
	return r
}

func (g *Graph) addNode(res, version, writer int) int {
	g.nodes = append(g.nodes, node{res: res, version: version, writer: writer})
	return len(g.nodes) - 1
}

func (g *Graph) handle(n int) Handle {
	return Handle{build: g.build, index: uint32(n) + 1}
}

// checkOpen panics when the build has been torn down.
func (g *Graph) checkOpen() {
	if g.executed {
		violation(ErrStaleHandle, "graph %q (build %d) already executed", g.opts.name, g.build)
	}
}

// node validates h and returns its node.
func (g *Graph) node(h Handle) *node {
	g.checkOpen()
	if !h.IsValid() {
		violation(ErrStaleHandle, "invalid handle")
	}
	if h.build != g.build {
		violation(ErrStaleHandle, "%v belongs to build %d, graph %q is build %d", h, h.build, g.opts.name, g.build)
	}
	i := int(h.index - 1)
	if i >= len(g.nodes) {
		violation(ErrStaleHandle, "%v out of range (%d nodes)", h, len(g.nodes))
	}
	return &g.nodes[i]
}

// rootIndex follows moves from resource i.
func (g *Graph) rootIndex(i int) int {
	for g.resources[i].alias >= 0 {
		i = g.resources[i].alias
	}
	return i
}

func (g *Graph) rootResource(h Handle) *resource {
	return g.resources[g.rootIndex(g.node(h).res)]
}

// inheritExport moves the export request of a moved resource onto the
// resource it was moved into.
func (g *Graph) inheritExport(root, moved *resource) {
	root.exported = true
	root.exportTex = append(root.exportTex, moved.exportTex...)
	root.exportBuf = append(root.exportBuf, moved.exportBuf...)
	moved.exportTex, moved.exportBuf = nil, nil
}
