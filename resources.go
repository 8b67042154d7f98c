// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"fmt"

	"github.com/gogpu/rg/device"
)

// Resources resolves handles to physical resources inside a pass callback.
// It only resolves resources the pass declared; anything else panics with
// ErrUndeclaredHandle.
type Resources struct {
	g          *Graph
	pass       *Pass
	views      map[viewKey]device.View
	renderPass *device.RenderPassDesc
}

type viewKey struct {
	res  int
	kind device.ViewKind
}

// Pass returns the pass being executed.
func (r *Resources) Pass() *Pass {
	return r.pass
}

// Get returns the physical resource of h.
func (r *Resources) Get(h Handle) device.Resource {
	return r.resolve(h).physical
}

// Texture returns the physical texture of h.
func (r *Resources) Texture(h Handle) device.Texture {
	res := r.resolve(h)
	if res.kind != device.KindTexture {
		violation(ErrContract, "pass %q: %q is a %v, not a texture", r.pass.name, res.name, res.kind)
	}
	return res.physical.(device.Texture)
}

// Buffer returns the physical buffer of h.
func (r *Resources) Buffer(h Handle) device.Buffer {
	res := r.resolve(h)
	if res.kind != device.KindBuffer {
		violation(ErrContract, "pass %q: %q is a %v, not a buffer", r.pass.name, res.name, res.kind)
	}
	return res.physical.(device.Buffer)
}

// SRV returns a shader resource view of h. Views are created on first use
// and reused for the rest of the pass.
func (r *Resources) SRV(h Handle) (device.View, error) {
	return r.view(r.resolve(h), device.ViewSRV)
}

// UAV returns an unordered access view of h.
func (r *Resources) UAV(h Handle) (device.View, error) {
	return r.view(r.resolve(h), device.ViewUAV)
}

// RenderPass returns the render pass the graph opened for the pass, or nil
// when the pass has no attachments.
func (r *Resources) RenderPass() *device.RenderPassDesc {
	return r.renderPass
}

func (r *Resources) resolve(h Handle) *resource {
	res := r.g.rootResource(h)
	for _, u := range r.pass.uses {
		if u.res == res.id {
			return res
		}
	}
	violation(ErrUndeclaredHandle, "pass %q resolved %q", r.pass.name, res.name)
	return nil
}

func (r *Resources) view(res *resource, kind device.ViewKind) (device.View, error) {
	key := viewKey{res: res.id, kind: kind}
	if v, ok := r.views[key]; ok {
		return v, nil
	}
	v, err := r.g.dev.CreateView(res.physical, kind)
	if err != nil {
		return nil, fmt.Errorf("%v view of %q: %w", kind, res.name, err)
	}
	if r.views == nil {
		r.views = make(map[viewKey]device.View)
	}
	r.views[key] = v
	return v, nil
}
