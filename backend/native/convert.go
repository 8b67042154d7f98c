// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rg/device"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the row alignment WebGPU and DX12 require for
// buffer-texture copies.
const copyPitchAlignment = 256

func textureDescriptor(label string, d device.TextureDesc) *hal.TextureDescriptor {
	d = d.Normalized()
	return &hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              d.Width,
			Height:             d.Height,
			DepthOrArrayLayers: d.DepthOrArrayLayers,
		},
		MipLevelCount: d.MipLevelCount,
		SampleCount:   d.SampleCount,
		Dimension:     d.Dimension,
		Format:        d.Format,
		Usage:         d.Usage,
	}
}

func bufferDescriptor(label string, d device.BufferDesc) *hal.BufferDescriptor {
	return &hal.BufferDescriptor{
		Label: label,
		Size:  d.Size,
		Usage: d.Usage,
	}
}

func viewDescriptor(label string, d device.TextureDesc, kind device.ViewKind) *hal.TextureViewDescriptor {
	d = d.Normalized()
	dim := gputypes.TextureViewDimension2D
	if d.Dimension == gputypes.TextureDimension3D {
		dim = gputypes.TextureViewDimension3D
	}
	mips := d.MipLevelCount
	if kind == device.ViewRenderTarget || kind == device.ViewDepthStencil || kind == device.ViewUAV {
		// Attachments and storage bindings see a single mip level.
		mips = 1
	}
	return &hal.TextureViewDescriptor{
		Label:         label + "_" + kind.String(),
		Format:        d.Format,
		Dimension:     dim,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: mips,
	}
}

// textureUsage maps a graph state to the hal usage the texture is in.
// StateUndefined maps to no usage, which lets the backend discard contents.
func textureUsage(s device.State) gputypes.TextureUsage {
	return s.TextureUsage()
}

// textureTransition returns the hal transition of one texture barrier.
func textureTransition(tex hal.Texture, b device.Barrier) hal.TextureBarrier {
	return hal.TextureBarrier{
		Texture: tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: textureUsage(b.Before),
			NewUsage: textureUsage(b.After),
		},
	}
}

func loadOp(a device.RenderPassAccess) gputypes.LoadOp {
	if a.Load() == device.LoadLoad || a == device.AccessNone {
		return gputypes.LoadOpLoad
	}
	// WebGPU has no don't-care load.
	return gputypes.LoadOpClear
}

func storeOp(a device.RenderPassAccess) gputypes.StoreOp {
	if a.Store() == device.StoreStore || a == device.AccessNone {
		return gputypes.StoreOpStore
	}
	return gputypes.StoreOpDiscard
}

// stagingLayout returns the aligned row pitch and total size of a buffer
// holding one copy of the top mip of d.
func stagingLayout(d device.TextureDesc) (bytesPerRow uint32, size uint64) {
	d = d.Normalized()
	row := d.Width * device.BytesPerTexel(d.Format)
	bytesPerRow = (row + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size = uint64(bytesPerRow) * uint64(d.Height) * uint64(d.DepthOrArrayLayers)
	return bytesPerRow, size
}
