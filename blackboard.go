// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import "reflect"

// Put stores v on the blackboard of g, replacing any earlier value of type
// T. Techniques use the blackboard to hand handles to later techniques
// without threading them through every call.
//
// Example:
//
//	type SceneTextures struct{ Color, Depth rg.Handle }
//
//	rg.Put(g, SceneTextures{Color: color, Depth: depth})
//	...
//	scene := rg.MustLookup[SceneTextures](g)
func Put[T any](g *Graph, v T) {
	g.checkOpen()
	if g.blackboard == nil {
		g.blackboard = make(map[reflect.Type]any)
	}
	g.blackboard[reflect.TypeFor[T]()] = v
}

// Lookup returns the value of type T stored on the blackboard of g.
func Lookup[T any](g *Graph) (T, bool) {
	g.checkOpen()
	v, ok := g.blackboard[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// MustLookup is like Lookup but panics when no value of type T is stored.
func MustLookup[T any](g *Graph) T {
	v, ok := Lookup[T](g)
	if !ok {
		violation(ErrContract, "graph %q: no %v on the blackboard", g.opts.name, reflect.TypeFor[T]())
	}
	return v
}
