// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"github.com/gogpu/rg/device"
)

// AddCopyTexturePass declares a copy pass from src into dst and returns the
// new version of dst. When dst is the zero Handle, a texture named name
// with src's descriptor is created as the destination.
//
// src and dst must have the same size and format.
func (g *Graph) AddCopyTexturePass(name string, src, dst Handle) Handle {
	srcDesc := g.TextureDesc(src)
	if !dst.IsValid() {
		dst = g.CreateTexture(name, srcDesc)
	}
	dstDesc := g.TextureDesc(dst)
	if srcDesc.Width != dstDesc.Width || srcDesc.Height != dstDesc.Height ||
		srcDesc.DepthOrArrayLayers != dstDesc.DepthOrArrayLayers || srcDesc.Format != dstDesc.Format {
		violation(ErrDescMismatch, "copy pass %q: %s into %s",
			name, g.rootResource(src).descString(), g.rootResource(dst).descString())
	}

	g.AddPass(name, PassCopy).
		Read(src).
		Write(dst).
		Bind(func(ctx device.Context, res *Resources) error {
			return ctx.CopyTexture(res.Texture(src), res.Texture(dst))
		})
	return g.Current(dst)
}

// AddCopyBufferPass declares a copy of src's contents into dst and returns
// the new version of dst. dst must be at least as large as src.
func (g *Graph) AddCopyBufferPass(name string, src, dst Handle) Handle {
	srcDesc := g.BufferDesc(src)
	if !dst.IsValid() {
		dst = g.CreateBuffer(name, srcDesc)
	}
	if dstDesc := g.BufferDesc(dst); dstDesc.Size < srcDesc.Size {
		violation(ErrDescMismatch, "copy pass %q: %d bytes into %d bytes", name, srcDesc.Size, dstDesc.Size)
	}

	g.AddPass(name, PassCopy).
		Read(src).
		Write(dst).
		Bind(func(ctx device.Context, res *Resources) error {
			return ctx.CopyBuffer(res.Buffer(src), res.Buffer(dst), srcDesc.Size)
		})
	return g.Current(dst)
}
