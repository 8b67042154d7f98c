// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gogpu/rg/device"
)

// Compile culls passes nothing depends on, assigns physical resources and
// plans the barriers of every remaining pass.
//
// Compile can be called again on an unexecuted graph; each call starts from
// scratch and, given the same declarations and pool contents, produces the
// same result. Pool allocation failures are returned. Open event scopes
// and descriptor mismatches between moved resources panic.
func (g *Graph) Compile() error {
	g.checkOpen()
	if g.eventDepth != 0 {
		violation(ErrContract, "graph %q: %d event scopes still open", g.opts.name, g.eventDepth)
	}
	g.checkMoves()

	g.resetCompile()
	culled := g.cull()
	if err := g.assign(); err != nil {
		g.releaseHeld()
		return fmt.Errorf("rg: compile %q: %w", g.opts.name, err)
	}
	g.compiled = true

	if l := Logger(); l.Enabled(context.Background(), slog.LevelDebug) {
		barriers := 0
		for _, p := range g.passes {
			barriers += len(p.barriers)
		}
		l.Debug("rg: compiled",
			"graph", g.opts.name,
			"passes", len(g.passes),
			"culled", culled,
			"resources", len(g.resources),
			"physical", len(g.physStates),
			"barriers", barriers)
	}
	return nil
}

// checkMoves panics when a moved resource cannot share its target's
// physical resource.
func (g *Graph) checkMoves() {
	for _, r := range g.resources {
		if r.alias < 0 {
			continue
		}
		root := g.resources[g.rootIndex(r.id)]
		var ok bool
		if r.kind == device.KindTexture {
			a, b := root.texDesc, r.texDesc
			a.Usage, b.Usage = 0, 0
			ok = a.Compatible(b)
		} else {
			ok = root.bufDesc.Size == r.bufDesc.Size && root.bufDesc.Stride == r.bufDesc.Stride
		}
		if !ok {
			violation(ErrDescMismatch, "%q (%s) moved into %q (%s)",
				root.name, root.descString(), r.name, r.descString())
		}
	}
}

// resetCompile drops everything a previous Compile produced.
func (g *Graph) resetCompile() {
	g.releaseHeld()
	g.compiled = false
	g.physStates = make(map[device.Resource]device.State)
	for _, p := range g.passes {
		p.refs = 0
		p.culled = false
		p.uses = nil
		p.barriers = nil
	}
	for _, r := range g.resources {
		r.physical = nil
		r.usage = device.StateUndefined
		r.first, r.last = -1, -1
	}
	for i := range g.nodes {
		g.nodes[i].refs = 0
	}
}

// releaseHeld returns every pool reference the build holds.
func (g *Graph) releaseHeld() {
	for _, r := range g.held {
		if err := g.alloc.Release(r); err != nil {
			Logger().Warn("rg: release failed", "graph", g.opts.name, "resource", r.Label(), "err", err)
		}
	}
	g.held = nil
}

// cull marks passes whose output is never consumed and returns how many
// were culled.
//
// A version is referenced by each pass reading it, plus once when its
// resource is exported. A pass is referenced by the references of the
// versions it writes, plus once for PassNeverCull. Culling a pass drops
// its references on the versions it read and on their writers, which may
// cull those writers in turn.
func (g *Graph) cull() int {
	for i := range g.nodes {
		g.nodes[i].refs = g.nodes[i].readers
	}
	for _, r := range g.resources {
		if r.exported && r.alias < 0 {
			g.nodes[r.current].refs++
		}
	}

	var work []*Pass
	for _, p := range g.passes {
		for _, w := range p.writes {
			p.refs += g.nodes[w.node].refs
		}
		if p.flags&PassNeverCull != 0 {
			p.refs++
		}
		if p.refs == 0 {
			p.culled = true
			work = append(work, p)
		}
	}

	culled := len(work)
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]
		for _, rd := range p.reads {
			n := &g.nodes[rd.node]
			if n.writer == p.id {
				continue
			}
			n.refs--
			if n.writer < 0 {
				continue
			}
			w := g.passes[n.writer]
			if w.culled {
				continue
			}
			w.refs--
			if w.refs == 0 {
				w.culled = true
				culled++
				work = append(work, w)
			}
		}
	}
	return culled
}

// assign walks live passes in declaration order, allocating physical
// resources at their first use and planning state transitions. A transient
// resource's physical backing becomes available to later passes of the
// same build right after its last use.
func (g *Graph) assign() error {
	for _, p := range g.passes {
		if p.culled {
			continue
		}
		p.uses = g.mergeUses(p)
		for _, u := range p.uses {
			r := g.resources[u.res]
			r.usage |= u.state
			if r.first < 0 {
				r.first = p.id
			}
			r.last = p.id
		}
	}

	var free []device.Resource
	for _, p := range g.passes {
		if p.culled {
			continue
		}
		for _, u := range p.uses {
			r := g.resources[u.res]
			if r.physical == nil {
				phys, err := g.acquire(r, &free)
				if err != nil {
					return fmt.Errorf("pass %q: %w", p.name, err)
				}
				r.physical = phys
			}
			before, ok := g.physStates[r.physical]
			if !ok {
				before = g.initialState(r)
			}
			if before != u.state || u.state == device.StateUnorderedAccess {
				p.barriers = append(p.barriers, device.Barrier{
					Resource: r.physical,
					Before:   before,
					After:    u.state,
				})
			}
			g.physStates[r.physical] = u.state
		}
		for _, u := range p.uses {
			r := g.resources[u.res]
			if r.last == p.id && !r.imported && !r.exported {
				free = append(free, r.physical)
			}
		}
	}
	return nil
}

// mergeUses combines the accesses of p per resource, in order of first
// declaration, and resolves each to a single state.
func (g *Graph) mergeUses(p *Pass) []use {
	var uses []use
	for _, a := range p.order {
		res := g.rootIndex(g.nodes[a.node].res)
		found := false
		for i := range uses {
			if uses[i].res == res {
				uses[i].state |= a.state
				found = true
				break
			}
		}
		if !found {
			uses = append(uses, use{res: res, state: a.state})
		}
	}
	for i := range uses {
		uses[i].state = uses[i].state.Resolve()
	}
	return uses
}

func (g *Graph) initialState(r *resource) device.State {
	if r.imported {
		return r.initialState
	}
	return g.alloc.State(r.physical)
}

// acquire returns a physical resource for r: the external one for imports,
// a compatible resource released earlier in this build, or a new pool
// allocation.
func (g *Graph) acquire(r *resource, free *[]device.Resource) (device.Resource, error) {
	if r.imported {
		return r.external, nil
	}

	if r.kind == device.KindTexture {
		desc := r.texDesc
		desc.Usage |= r.usage.TextureUsage()
		for i, f := range *free {
			if t, ok := f.(device.Texture); ok && t.Desc().Compatible(desc) {
				*free = append((*free)[:i], (*free)[i+1:]...)
				return t, nil
			}
		}
		t, err := g.alloc.AllocateTexture(r.name, desc)
		if err != nil {
			return nil, err
		}
		g.held = append(g.held, t)
		return t, nil
	}

	desc := r.bufDesc
	desc.Usage |= r.usage.BufferUsage()
	for i, f := range *free {
		if b, ok := f.(device.Buffer); ok && b.Desc().Compatible(desc) {
			*free = append((*free)[:i], (*free)[i+1:]...)
			return b, nil
		}
	}
	b, err := g.alloc.AllocateBuffer(r.name, desc)
	if err != nil {
		return nil, err
	}
	g.held = append(g.held, b)
	return b, nil
}
