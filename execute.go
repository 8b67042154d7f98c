// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"fmt"

	"github.com/gogpu/rg/device"
)

// Execute records every live pass in declaration order and submits the
// recording. It returns the token of the submission; resources handed out
// through ExportTexture and ExportBuffer may be read once the token has
// completed.
//
// Execute requires a successful Compile and tears the build down, whether
// it succeeds or not: afterwards every handle of the graph is stale. A pass
// callback error or a device error discards the recording and is returned.
func (g *Graph) Execute() (device.Token, error) {
	g.checkOpen()
	if !g.compiled {
		violation(ErrNotCompiled, "graph %q", g.opts.name)
	}
	defer g.teardown()

	ctx, err := g.dev.BeginCommands(g.opts.name)
	if err != nil {
		g.releaseHeld()
		return 0, fmt.Errorf("rg: execute %q: %w", g.opts.name, err)
	}
	if err := g.record(ctx); err != nil {
		g.dev.Discard(ctx)
		g.releaseHeld()
		return 0, fmt.Errorf("rg: execute %q: %w", g.opts.name, err)
	}
	token, err := g.dev.Submit(ctx)
	if err != nil {
		g.releaseHeld()
		return 0, fmt.Errorf("rg: execute %q: %w", g.opts.name, err)
	}

	for phys, s := range g.physStates {
		g.alloc.SetState(phys, s)
	}
	g.deliverExports()
	return token, nil
}

// Discard abandons the build without executing it and returns the pool
// references it holds. Handles of the graph become stale.
func (g *Graph) Discard() {
	if g.executed {
		return
	}
	g.releaseHeld()
	g.teardown()
}

// record walks the passes. Event scopes open lazily before the first live
// pass inside them, so scopes containing only culled passes are never
// emitted.
func (g *Graph) record(ctx device.Context) error {
	type scope struct {
		name string
		open bool
	}
	var stack []scope

	for _, p := range g.passes {
		for _, name := range p.eventsToStart {
			stack = append(stack, scope{name: name})
		}
		if !p.culled {
			for i := range stack {
				if !stack[i].open {
					ctx.PushDebugGroup(stack[i].name)
					stack[i].open = true
				}
			}
			if err := g.executePass(ctx, p); err != nil {
				return err
			}
		}
		for range p.eventsToEnd {
			s := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if s.open {
				ctx.PopDebugGroup()
			}
		}
	}
	return nil
}

func (g *Graph) executePass(ctx device.Context, p *Pass) error {
	if len(p.barriers) > 0 {
		ctx.Transition(p.barriers...)
	}

	res := &Resources{g: g, pass: p}
	var rp *device.RenderPassDesc
	if len(p.colors) > 0 || p.depth != nil {
		var err error
		if rp, err = g.renderPassDesc(p, res); err != nil {
			return fmt.Errorf("pass %q: %w", p.name, err)
		}
		res.renderPass = rp
	}

	visible := p.flags&PassInvisible == 0
	if visible {
		ctx.PushDebugGroup(p.name)
	}
	if rp != nil {
		ctx.BeginRenderPass(rp)
	}

	var err error
	if p.exec != nil {
		err = p.exec(ctx, res)
	}

	if rp != nil {
		ctx.EndRenderPass()
	}
	if visible {
		ctx.PopDebugGroup()
	}
	if err != nil {
		return fmt.Errorf("pass %q: %w", p.name, err)
	}
	return nil
}

// renderPassDesc builds the attachments of p from its declared render
// targets and depth-stencil.
func (g *Graph) renderPassDesc(p *Pass, res *Resources) (*device.RenderPassDesc, error) {
	desc := &device.RenderPassDesc{Label: p.name}
	for _, c := range p.colors {
		r := g.resources[g.rootIndex(g.nodes[c.node].res)]
		view, err := res.view(r, device.ViewRenderTarget)
		if err != nil {
			return nil, err
		}
		desc.ColorAttachments = append(desc.ColorAttachments, device.ColorAttachment{
			Texture:    r.physical.(device.Texture),
			View:       view,
			Access:     c.access,
			ClearValue: p.clearColor,
		})
	}
	if d := p.depth; d != nil {
		r := g.resources[g.rootIndex(g.nodes[d.node].res)]
		view, err := res.view(r, device.ViewDepthStencil)
		if err != nil {
			return nil, err
		}
		desc.DepthStencil = &device.DepthStencilAttachment{
			Texture:           r.physical.(device.Texture),
			View:              view,
			DepthAccess:       d.depthAccess,
			StencilAccess:     d.stencilAccess,
			ReadOnly:          !d.write,
			DepthClearValue:   p.clearDepth,
			StencilClearValue: p.clearStencil,
		}
	}
	return desc, nil
}

// deliverExports stores exported resources in their destinations and
// returns every other pool reference. The reference of an exported pooled
// resource moves to the caller.
func (g *Graph) deliverExports() {
	keep := make(map[device.Resource]bool)
	for _, r := range g.resources {
		if r.alias >= 0 || !r.exported {
			continue
		}
		phys := r.physical
		if phys == nil && r.imported {
			phys = r.external
		}
		if phys == nil {
			Logger().Warn("rg: exported resource never used", "graph", g.opts.name, "resource", r.name)
			continue
		}
		for _, dst := range r.exportTex {
			*dst = phys.(device.Texture)
		}
		for _, dst := range r.exportBuf {
			*dst = phys.(device.Buffer)
		}
		keep[phys] = true
	}

	held := g.held
	g.held = nil
	for _, h := range held {
		if keep[h] {
			continue
		}
		g.held = append(g.held, h)
	}
	g.releaseHeld()
}

// teardown frees the build. Every handle of the graph becomes stale.
func (g *Graph) teardown() {
	g.executed = true
	g.compiled = false
	g.passes = nil
	g.resources = nil
	g.nodes = nil
	g.pendingEvents = nil
	g.blackboard = nil
	g.held = nil
	g.physStates = nil
}
