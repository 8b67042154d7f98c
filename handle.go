// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"fmt"

	"github.com/gogpu/rg/device"
)

// Handle refers to one version of a logical resource in one graph build.
//
// Handles are plain values. They stay valid until the graph that created
// them is executed or discarded; using them afterwards, or with another
// graph, panics with ErrStaleHandle. The zero Handle is invalid.
type Handle struct {
	build uint64
	index uint32 // node index + 1
}

// IsValid reports whether h was returned by a graph.
func (h Handle) IsValid() bool {
	return h.index != 0
}

// String returns a short description of h for logs.
func (h Handle) String() string {
	if !h.IsValid() {
		return "Handle(invalid)"
	}
	return fmt.Sprintf("Handle(%d:%d)", h.build, h.index-1)
}

// resource is a logical resource.
type resource struct {
	name string
	id   int
	kind device.Kind

	texDesc device.TextureDesc
	bufDesc device.BufferDesc

	imported     bool
	external     device.Resource
	initialState device.State

	exported  bool
	exportTex []*device.Texture
	exportBuf []*device.Buffer

	// current is the node of the latest version.
	current int

	// alias is the resource all accesses are redirected to after
	// MoveResource, or -1.
	alias int

	accessed bool

	// Compile state.
	physical device.Resource
	usage    device.State
	first    int
	last     int
}

func (r *resource) descString() string {
	if r.kind == device.KindBuffer {
		return fmt.Sprintf("%d bytes, stride %d", r.bufDesc.Size, r.bufDesc.Stride)
	}
	d := r.texDesc
	return fmt.Sprintf("%dx%dx%d %v, %d mips", d.Width, d.Height, d.DepthOrArrayLayers, d.Format, d.MipLevelCount)
}

// node is one version of a logical resource.
type node struct {
	res     int
	version int
	writer  int // pass id, -1 for the initial version
	readers int

	// access accumulates the states passes requested on this version.
	access device.State

	// refs is the compile-time reference count.
	refs int
}
