// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// Kind identifies the type of a physical or logical resource.
type Kind uint8

// Resource kinds.
const (
	// KindTexture is a texture resource.
	KindTexture Kind = iota

	// KindBuffer is a buffer resource.
	KindBuffer
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// TextureDesc describes a texture. It mirrors the WebGPU GPUTextureDescriptor.
type TextureDesc struct {
	// Width is the texture width in texels.
	Width uint32

	// Height is the texture height in texels.
	Height uint32

	// DepthOrArrayLayers is the depth of 3D textures or the layer count of
	// array textures. Zero is treated as 1.
	DepthOrArrayLayers uint32

	// MipLevelCount is the number of mip levels. Zero is treated as 1.
	MipLevelCount uint32

	// SampleCount is the number of samples per texel. Zero is treated as 1.
	SampleCount uint32

	// Dimension is the texture dimension.
	Dimension gputypes.TextureDimension

	// Format is the texel format.
	Format gputypes.TextureFormat

	// Usage is the set of usages the texture is created with. The render
	// graph adds the usages implied by the accesses declared on it.
	Usage gputypes.TextureUsage
}

// Texture2D returns a single-sampled 2D texture descriptor without mips.
func Texture2D(width, height uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) TextureDesc {
	return TextureDesc{
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: 1,
		MipLevelCount:      1,
		SampleCount:        1,
		Dimension:          gputypes.TextureDimension2D,
		Format:             format,
		Usage:              usage,
	}
}

// Texture3D returns a 3D texture descriptor without mips.
func Texture3D(width, height, depth uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) TextureDesc {
	return TextureDesc{
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: depth,
		MipLevelCount:      1,
		SampleCount:        1,
		Dimension:          gputypes.TextureDimension3D,
		Format:             format,
		Usage:              usage,
	}
}

// Normalized returns a copy of d with zero counts replaced by 1.
func (d TextureDesc) Normalized() TextureDesc {
	if d.DepthOrArrayLayers == 0 {
		d.DepthOrArrayLayers = 1
	}
	if d.MipLevelCount == 0 {
		d.MipLevelCount = 1
	}
	if d.SampleCount == 0 {
		d.SampleCount = 1
	}
	return d
}

// Compatible reports whether a texture created with d can serve a request
// for req: the shape and format must match exactly and d must carry every
// usage flag req asks for.
func (d TextureDesc) Compatible(req TextureDesc) bool {
	a, b := d.Normalized(), req.Normalized()
	return a.Width == b.Width &&
		a.Height == b.Height &&
		a.DepthOrArrayLayers == b.DepthOrArrayLayers &&
		a.MipLevelCount == b.MipLevelCount &&
		a.SampleCount == b.SampleCount &&
		a.Dimension == b.Dimension &&
		a.Format == b.Format &&
		a.Usage&b.Usage == b.Usage
}

// ByteSize estimates the memory footprint of the texture including its mip
// chain. Unknown formats are counted as 4 bytes per texel.
func (d TextureDesc) ByteSize() uint64 {
	n := d.Normalized()
	bpp := uint64(BytesPerTexel(n.Format))
	var total uint64
	w, h := uint64(n.Width), uint64(n.Height)
	depth := uint64(n.DepthOrArrayLayers)
	for level := uint32(0); level < n.MipLevelCount; level++ {
		total += w * h * depth * bpp
		w = max(w/2, 1)
		h = max(h/2, 1)
		if n.Dimension == gputypes.TextureDimension3D {
			depth = max(depth/2, 1)
		}
	}
	return total * uint64(n.SampleCount)
}

// BytesPerTexel returns the size of one texel of format in bytes.
func BytesPerTexel(format gputypes.TextureFormat) uint32 {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatDepth24PlusStencil8, gputypes.TextureFormatDepth32Float,
		gputypes.TextureFormatR32Float:
		return 4
	case gputypes.TextureFormatRGBA16Float:
		return 8
	case gputypes.TextureFormatRGBA32Float:
		return 16
	default:
		return 4
	}
}

// IsDepthFormat reports whether format has a depth aspect.
func IsDepthFormat(format gputypes.TextureFormat) bool {
	switch format {
	case gputypes.TextureFormatDepth24PlusStencil8, gputypes.TextureFormatDepth32Float:
		return true
	default:
		return false
	}
}

// BufferDesc describes a buffer.
type BufferDesc struct {
	// Size is the buffer size in bytes.
	Size uint64

	// Stride is the element size of structured buffers, or 0 for raw buffers.
	Stride uint32

	// Usage is the set of usages the buffer is created with.
	Usage gputypes.BufferUsage
}

// StructuredBuffer returns a descriptor for count elements of stride bytes.
func StructuredBuffer(count, stride uint32) BufferDesc {
	return BufferDesc{
		Size:   uint64(count) * uint64(stride),
		Stride: stride,
		Usage:  gputypes.BufferUsageStorage,
	}
}

// NumElements returns the number of elements of a structured buffer, or the
// size in bytes when the buffer has no stride.
func (d BufferDesc) NumElements() uint64 {
	if d.Stride == 0 {
		return d.Size
	}
	return d.Size / uint64(d.Stride)
}

// Compatible reports whether a buffer created with d can serve req.
func (d BufferDesc) Compatible(req BufferDesc) bool {
	return d.Size == req.Size && d.Stride == req.Stride && d.Usage&req.Usage == req.Usage
}

// State is a bitmask describing how a resource is used by the GPU.
type State uint32

// Resource states. StateUndefined is the state of freshly created resources.
const (
	StateUndefined State = 0

	// StateShaderResource is read-only shader access (SRV).
	StateShaderResource State = 1 << (iota - 1)

	// StateUnorderedAccess is read/write shader access (UAV).
	StateUnorderedAccess

	// StateRenderTarget is color attachment access.
	StateRenderTarget

	// StateDepthWrite is writable depth-stencil attachment access.
	StateDepthWrite

	// StateDepthRead is read-only depth-stencil attachment access.
	StateDepthRead

	// StateCopySrc is copy source access.
	StateCopySrc

	// StateCopyDst is copy destination access.
	StateCopyDst

	// StatePresent is the state of a swapchain image handed to presentation.
	StatePresent
)

const writeStates = StateUnorderedAccess | StateRenderTarget | StateDepthWrite | StateCopyDst

// IsWrite reports whether s includes a writable state.
func (s State) IsWrite() bool {
	return s&writeStates != 0
}

// Resolve reduces a combination of states requested by one pass to the
// single state the resource is transitioned to. Writable states win over
// read-only ones, which lets a pass read and write a resource through UAV.
func (s State) Resolve() State {
	if w := s & writeStates; w != 0 {
		switch {
		case w&StateUnorderedAccess != 0:
			return StateUnorderedAccess
		case w&StateDepthWrite != 0:
			return StateDepthWrite
		case w&StateRenderTarget != 0:
			return StateRenderTarget
		default:
			return StateCopyDst
		}
	}
	return s
}

var stateNames = []struct {
	s    State
	name string
}{
	{StateShaderResource, "SRV"},
	{StateUnorderedAccess, "UAV"},
	{StateRenderTarget, "RenderTarget"},
	{StateDepthWrite, "DepthWrite"},
	{StateDepthRead, "DepthRead"},
	{StateCopySrc, "CopySrc"},
	{StateCopyDst, "CopyDst"},
	{StatePresent, "Present"},
}

// String returns the state names joined with '/'.
func (s State) String() string {
	if s == StateUndefined {
		return "Undefined"
	}
	var parts []string
	for _, n := range stateNames {
		if s&n.s != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "/")
}

// TextureUsage returns the texture usage flags a texture needs to be put
// into state s.
func (s State) TextureUsage() gputypes.TextureUsage {
	var u gputypes.TextureUsage
	if s&StateShaderResource != 0 {
		u |= gputypes.TextureUsageTextureBinding
	}
	if s&StateUnorderedAccess != 0 {
		u |= gputypes.TextureUsageStorageBinding
	}
	if s&(StateRenderTarget|StateDepthWrite|StateDepthRead|StatePresent) != 0 {
		u |= gputypes.TextureUsageRenderAttachment
	}
	if s&StateCopySrc != 0 {
		u |= gputypes.TextureUsageCopySrc
	}
	if s&StateCopyDst != 0 {
		u |= gputypes.TextureUsageCopyDst
	}
	return u
}

// BufferUsage returns the buffer usage flags a buffer needs to be put into
// state s.
func (s State) BufferUsage() gputypes.BufferUsage {
	var u gputypes.BufferUsage
	if s&(StateShaderResource|StateUnorderedAccess) != 0 {
		u |= gputypes.BufferUsageStorage
	}
	if s&StateCopySrc != 0 {
		u |= gputypes.BufferUsageCopySrc
	}
	if s&StateCopyDst != 0 {
		u |= gputypes.BufferUsageCopyDst
	}
	return u
}

// Barrier is a state transition of one resource.
// A barrier with Before and After both StateUnorderedAccess orders two
// consecutive UAV accesses.
type Barrier struct {
	Resource Resource
	Before   State
	After    State
}

// Token identifies a submission. Zero is never returned by a device.
type Token uint64

// ViewKind identifies how a view exposes its resource.
type ViewKind uint8

// View kinds.
const (
	ViewSRV ViewKind = iota
	ViewUAV
	ViewRenderTarget
	ViewDepthStencil
)

// String returns the view kind name.
func (k ViewKind) String() string {
	switch k {
	case ViewSRV:
		return "SRV"
	case ViewUAV:
		return "UAV"
	case ViewRenderTarget:
		return "RTV"
	case ViewDepthStencil:
		return "DSV"
	default:
		return "unknown"
	}
}
