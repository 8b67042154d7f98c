// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rgfile

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rg"
	"github.com/gogpu/rg/device"
	"github.com/hashicorp/hcl/v2"
)

// File is a parsed graph description.
type File struct {
	// Filename is the name the description was parsed under.
	Filename string

	// Name is the graph name, or empty.
	Name string

	// Items are the top-level declarations in source order.
	Items []Item

	// Exports names the resources exported after execution.
	Exports []string
}

// Item is one declaration of a description: *Texture, *Buffer, *Import,
// *Pass, *Copy, *Move or *Scope.
type Item interface {
	Range() hcl.Range
}

// Texture declares a transient texture.
type Texture struct {
	Name   string
	Width  uint32 `hcl:"width"`
	Height uint32 `hcl:"height"`
	Depth  uint32 `hcl:"depth,optional"`
	Mips   uint32 `hcl:"mips,optional"`
	Format string `hcl:"format"`

	desc device.TextureDesc
	rng  hcl.Range
}

func (t *Texture) Range() hcl.Range { return t.rng }

// Desc returns the texture descriptor. Usage is left to the graph.
func (t *Texture) Desc() device.TextureDesc { return t.desc }

// Buffer declares a transient buffer of Size bytes, or of Count elements of
// Stride bytes.
type Buffer struct {
	Name   string
	Size   uint64 `hcl:"size,optional"`
	Count  uint32 `hcl:"count,optional"`
	Stride uint32 `hcl:"stride,optional"`

	rng hcl.Range
}

func (b *Buffer) Range() hcl.Range { return b.rng }

// Desc returns the buffer descriptor.
func (b *Buffer) Desc() device.BufferDesc {
	if b.Count > 0 {
		return device.StructuredBuffer(b.Count, b.Stride)
	}
	return device.BufferDesc{Size: b.Size, Stride: b.Stride}
}

// Import declares a resource owned outside the graph.
type Import struct {
	Name   string
	Kind   string `hcl:"kind,optional"`
	Width  uint32 `hcl:"width,optional"`
	Height uint32 `hcl:"height,optional"`
	Format string `hcl:"format,optional"`
	Size   uint64 `hcl:"size,optional"`
	State  string `hcl:"state,optional"`

	kind  device.Kind
	state device.State
	rng   hcl.Range
}

func (i *Import) Range() hcl.Range { return i.rng }

// ResourceKind returns whether the import is a texture or a buffer.
func (i *Import) ResourceKind() device.Kind { return i.kind }

// InitialState returns the declared state of the resource.
func (i *Import) InitialState() device.State { return i.state }

// TextureDesc returns a descriptor usable to create the imported texture.
func (i *Import) TextureDesc() device.TextureDesc {
	return device.Texture2D(i.Width, i.Height, formatNames[i.Format],
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding|
			gputypes.TextureUsageCopySrc|gputypes.TextureUsageCopyDst)
}

// BufferDesc returns a descriptor usable to create the imported buffer.
func (i *Import) BufferDesc() device.BufferDesc {
	return device.BufferDesc{
		Size:  i.Size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	}
}

// Pass declares a pass.
type Pass struct {
	Name          string
	Flags         []string        `hcl:"flags,optional"`
	Reads         []string        `hcl:"reads,optional"`
	Writes        []string        `hcl:"writes,optional"`
	ReadWrites    []string        `hcl:"read_writes,optional"`
	RenderTargets []*RenderTarget `hcl:"render_target,block"`
	DepthStencil  *DepthStencil   `hcl:"depth_stencil,block"`
	ClearColor    []float64       `hcl:"clear_color,optional"`
	Shader        string          `hcl:"shader,optional"`

	// Scopes are the enclosing event scopes, outermost first.
	Scopes []string

	flags rg.PassFlags
	rng   hcl.Range
}

func (p *Pass) Range() hcl.Range { return p.rng }

// PassFlags returns the parsed flags.
func (p *Pass) PassFlags() rg.PassFlags { return p.flags }

// RenderTarget is a color attachment of a pass.
type RenderTarget struct {
	Resource string `hcl:"resource"`
	Access   string `hcl:"access,optional"`

	access device.RenderPassAccess
}

// DepthStencil is the depth-stencil attachment of a pass.
type DepthStencil struct {
	Resource      string   `hcl:"resource"`
	Access        string   `hcl:"access,optional"`
	Write         bool     `hcl:"write,optional"`
	StencilAccess string   `hcl:"stencil_access,optional"`
	ClearDepth    *float64 `hcl:"clear_depth,optional"`
	ClearStencil  uint32   `hcl:"clear_stencil,optional"`

	access, stencilAccess device.RenderPassAccess
}

// Copy declares a copy pass from From into To. Without To, the copy
// creates a resource named after the pass.
type Copy struct {
	Name string
	From string `hcl:"from"`
	To   string `hcl:"to,optional"`

	kind device.Kind
	rng  hcl.Range
}

func (c *Copy) Range() hcl.Range { return c.rng }

// Move continues From's version chain under To.
type Move struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`

	rng hcl.Range
}

func (m *Move) Range() hcl.Range { return m.rng }

// Scope groups passes under an event scope.
type Scope struct {
	Name  string
	Items []Item

	rng hcl.Range
}

func (s *Scope) Range() hcl.Range { return s.rng }

// Passes returns every pass of f in source order, including passes nested
// in scopes.
func (f *File) Passes() []*Pass {
	var out []*Pass
	var walk func(items []Item)
	walk = func(items []Item) {
		for _, it := range items {
			switch it := it.(type) {
			case *Pass:
				out = append(out, it)
			case *Scope:
				walk(it.Items)
			}
		}
	}
	walk(f.Items)
	return out
}
