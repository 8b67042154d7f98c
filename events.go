// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

// PushEvent opens a named debug scope around the passes declared until the
// matching PopEvent. Scopes nest. Execute emits a scope as a debug group
// only when at least one pass inside it survives culling.
func (g *Graph) PushEvent(name string) {
	g.checkOpen()
	g.pendingEvents = append(g.pendingEvents, name)
	g.eventDepth++
}

// PopEvent closes the innermost scope.
func (g *Graph) PopEvent() {
	g.checkOpen()
	if g.eventDepth == 0 {
		violation(ErrContract, "graph %q: PopEvent without PushEvent", g.opts.name)
	}
	g.eventDepth--
	if n := len(g.pendingEvents); n > 0 {
		// The scope has no pass yet.
		g.pendingEvents = g.pendingEvents[:n-1]
		return
	}
	g.passes[len(g.passes)-1].eventsToEnd++
}

// Scope opens a debug scope and returns the function closing it:
//
//	defer g.Scope("Shadows")()
func (g *Graph) Scope(name string) func() {
	g.PushEvent(name)
	return g.PopEvent
}
