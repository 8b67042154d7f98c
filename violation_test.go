// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"errors"
	"testing"

	"github.com/gogpu/rg/backend/record"
	"github.com/gogpu/rg/device"
)

// mustPanic runs fn and checks that it panics with an error wrapping
// ErrContract and kind.
func mustPanic(t *testing.T, kind error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		v := recover()
		if v == nil {
			t.Fatalf("no panic, want %v", kind)
		}
		err, ok := v.(error)
		if !ok {
			t.Fatalf("panic value %T(%v) is not an error", v, v)
		}
		if !errors.Is(err, ErrContract) || !errors.Is(err, kind) {
			t.Fatalf("panic %v, want %v", err, kind)
		}
	}()
	fn()
}

func TestContractViolations(t *testing.T) {
	tests := []struct {
		name string
		kind error
		fn   func(g *Graph)
	}{
		{"zero handle", ErrStaleHandle, func(g *Graph) {
			g.AddPass("P", PassCompute).Read(Handle{})
		}},
		{"foreign handle", ErrStaleHandle, func(g *Graph) {
			other, _, _ := newTestGraph()
			h := other.CreateTexture("T", rgba(4, 4))
			g.AddPass("P", PassCompute).Read(h)
		}},
		{"handle after execute", ErrStaleHandle, func(g *Graph) {
			h := g.CreateTexture("T", rgba(4, 4))
			g.AddPass("P", PassCompute|PassNeverCull).Write(h)
			if err := g.Compile(); err != nil {
				panic(err)
			}
			if _, err := g.Execute(); err != nil {
				panic(err)
			}
			g.Version(h)
		}},
		{"declare after execute", ErrStaleHandle, func(g *Graph) {
			if err := g.Compile(); err != nil {
				panic(err)
			}
			if _, err := g.Execute(); err != nil {
				panic(err)
			}
			g.AddPass("Late", PassCompute)
		}},
		{"execute without compile", ErrNotCompiled, func(g *Graph) {
			_, _ = g.Execute()
		}},
		{"execute after new declaration", ErrNotCompiled, func(g *Graph) {
			if err := g.Compile(); err != nil {
				panic(err)
			}
			g.AddPass("Late", PassCompute)
			_, _ = g.Execute()
		}},
		{"bind twice", ErrAlreadyBound, func(g *Graph) {
			fn := func(device.Context, *Resources) error { return nil }
			g.AddPass("P", PassCompute).Bind(fn).Bind(fn)
		}},
		{"nil callback", ErrContract, func(g *Graph) {
			g.AddPass("P", PassCompute).Bind(nil)
		}},
		{"undeclared handle in callback", ErrUndeclaredHandle, func(g *Graph) {
			a := g.CreateTexture("A", rgba(4, 4))
			b := g.CreateTexture("B", rgba(4, 4))
			g.AddPass("P", PassCompute|PassNeverCull).Write(a).
				Bind(func(_ device.Context, res *Resources) error {
					res.Texture(b)
					return nil
				})
			if err := g.Compile(); err != nil {
				panic(err)
			}
			_, _ = g.Execute()
		}},
		{"buffer as texture in callback", ErrContract, func(g *Graph) {
			b := g.CreateBuffer("B", device.BufferDesc{Size: 16})
			g.AddPass("P", PassCompute|PassNeverCull).Write(b).
				Bind(func(_ device.Context, res *Resources) error {
					res.Texture(b)
					return nil
				})
			if err := g.Compile(); err != nil {
				panic(err)
			}
			_, _ = g.Execute()
		}},
		{"render target on compute pass", ErrContract, func(g *Graph) {
			c := g.CreateTexture("C", rgba(4, 4))
			g.AddPass("P", PassCompute).RenderTarget(c, device.AccessClearStore)
		}},
		{"buffer as render target", ErrContract, func(g *Graph) {
			b := g.CreateBuffer("B", device.BufferDesc{Size: 16})
			g.AddPass("P", PassRaster).RenderTarget(b, device.AccessClearStore)
		}},
		{"color format as depth", ErrDescMismatch, func(g *Graph) {
			c := g.CreateTexture("C", rgba(4, 4))
			g.AddPass("P", PassRaster).DepthStencil(c, device.AccessClearStore, true, device.AccessNone)
		}},
		{"second depth attachment", ErrContract, func(g *Graph) {
			d1 := g.CreateTexture("D1", depthDesc(4, 4))
			d2 := g.CreateTexture("D2", depthDesc(4, 4))
			g.AddPass("P", PassRaster).
				DepthStencil(d1, device.AccessClearStore, true, device.AccessNone).
				DepthStencil(d2, device.AccessClearStore, true, device.AccessNone)
		}},
		{"move into accessed", ErrContract, func(g *Graph) {
			a := g.CreateTexture("A", rgba(4, 4))
			b := g.CreateTexture("B", rgba(4, 4))
			g.AddPass("P", PassCompute).Write(b)
			g.MoveResource(a, b)
		}},
		{"move into imported", ErrContract, func(g *Graph) {
			a := g.CreateTexture("A", rgba(4, 4))
			b := g.ImportTexture("B", record.NewTexture("b", rgba(4, 4)), device.StateShaderResource)
			g.MoveResource(a, b)
		}},
		{"move twice", ErrContract, func(g *Graph) {
			a := g.CreateTexture("A", rgba(4, 4))
			b := g.CreateTexture("B", rgba(4, 4))
			c := g.CreateTexture("C", rgba(4, 4))
			g.MoveResource(a, c)
			g.MoveResource(b, c)
		}},
		{"move onto itself", ErrContract, func(g *Graph) {
			a := g.CreateTexture("A", rgba(4, 4))
			b := g.CreateTexture("B", rgba(4, 4))
			g.MoveResource(a, b)
			g.MoveResource(b, a)
		}},
		{"move buffer into texture", ErrDescMismatch, func(g *Graph) {
			a := g.CreateBuffer("A", device.BufferDesc{Size: 16})
			b := g.CreateTexture("B", rgba(4, 4))
			g.MoveResource(a, b)
		}},
		{"move between sizes", ErrDescMismatch, func(g *Graph) {
			a := g.CreateTexture("A", rgba(4, 4))
			b := g.CreateTexture("B", rgba(8, 8))
			g.MoveResource(a, b)
			_ = g.Compile()
		}},
		{"export buffer as texture", ErrContract, func(g *Graph) {
			b := g.CreateBuffer("B", device.BufferDesc{Size: 16})
			var out device.Texture
			g.ExportTexture(b, &out)
		}},
		{"export to nil", ErrContract, func(g *Graph) {
			a := g.CreateTexture("A", rgba(4, 4))
			g.ExportTexture(a, nil)
		}},
		{"import nil", ErrContract, func(g *Graph) {
			g.ImportTexture("Nil", nil, device.StateUndefined)
		}},
		{"texture desc of buffer", ErrContract, func(g *Graph) {
			b := g.CreateBuffer("B", device.BufferDesc{Size: 16})
			g.TextureDesc(b)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, _ := newTestGraph()
			mustPanic(t, tt.kind, func() { tt.fn(g) })
		})
	}
}
