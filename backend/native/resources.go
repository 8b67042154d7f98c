// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"github.com/gogpu/rg/device"
	"github.com/gogpu/wgpu/hal"
)

// Texture is a hal texture created by a Device.
type Texture struct {
	dev   *Device
	raw   hal.Texture
	label string
	desc  device.TextureDesc
}

// Raw returns the hal texture.
func (t *Texture) Raw() hal.Texture { return t.raw }

func (t *Texture) Label() string            { return t.label }
func (t *Texture) Kind() device.Kind        { return device.KindTexture }
func (t *Texture) Desc() device.TextureDesc { return t.desc }

// Destroy destroys the texture and its cached views immediately.
func (t *Texture) Destroy() { t.dev.destroy(t) }

// Buffer is a hal buffer created by a Device.
type Buffer struct {
	dev   *Device
	raw   hal.Buffer
	label string
	desc  device.BufferDesc
}

// Raw returns the hal buffer.
func (b *Buffer) Raw() hal.Buffer { return b.raw }

func (b *Buffer) Label() string           { return b.label }
func (b *Buffer) Kind() device.Kind       { return device.KindBuffer }
func (b *Buffer) Desc() device.BufferDesc { return b.desc }

// Destroy destroys the buffer immediately.
func (b *Buffer) Destroy() { b.dev.destroy(b) }

// View is a texture view, or a whole-buffer binding for buffers. WebGPU
// has no buffer views; shaders bind the buffer itself.
type View struct {
	res  device.Resource
	kind device.ViewKind
	raw  hal.TextureView
}

func (v *View) Resource() device.Resource { return v.res }
func (v *View) Kind() device.ViewKind     { return v.kind }

// Raw returns the hal texture view, or nil for buffer views.
func (v *View) Raw() hal.TextureView { return v.raw }

type viewKey struct {
	tex  *Texture
	kind device.ViewKind
}
