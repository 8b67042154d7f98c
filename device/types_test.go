// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestTextureDescCompatible(t *testing.T) {
	base := Texture2D(256, 128, gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageRenderAttachment)

	tests := []struct {
		name string
		req  TextureDesc
		want bool
	}{
		{"identical", base, true},
		{"usage subset", Texture2D(256, 128, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureUsageTextureBinding), true},
		{"usage superset", Texture2D(256, 128, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureUsageCopySrc), false},
		{"width", Texture2D(255, 128, gputypes.TextureFormatRGBA8Unorm, 0), false},
		{"format", Texture2D(256, 128, gputypes.TextureFormatBGRA8Unorm, 0), false},
		{"zero counts", TextureDesc{Width: 256, Height: 128, Dimension: gputypes.TextureDimension2D, Format: gputypes.TextureFormatRGBA8Unorm}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Compatible(tt.req); got != tt.want {
				t.Errorf("Compatible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTextureDescByteSize(t *testing.T) {
	d := Texture2D(4, 4, gputypes.TextureFormatRGBA8Unorm, 0)
	if got := d.ByteSize(); got != 64 {
		t.Errorf("ByteSize = %d, want 64", got)
	}

	d.MipLevelCount = 3 // 4x4 + 2x2 + 1x1
	if got := d.ByteSize(); got != (16+4+1)*4 {
		t.Errorf("ByteSize with mips = %d, want %d", got, (16+4+1)*4)
	}
}

func TestBufferDesc(t *testing.T) {
	d := StructuredBuffer(100, 16)
	if d.Size != 1600 {
		t.Errorf("Size = %d, want 1600", d.Size)
	}
	if d.NumElements() != 100 {
		t.Errorf("NumElements = %d, want 100", d.NumElements())
	}
	if !d.Compatible(BufferDesc{Size: 1600, Stride: 16}) {
		t.Error("Compatible(no usage) = false, want true")
	}
	if d.Compatible(BufferDesc{Size: 1600, Stride: 8}) {
		t.Error("Compatible(other stride) = true, want false")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateUndefined, "Undefined"},
		{StateShaderResource, "SRV"},
		{StateShaderResource | StateDepthRead, "SRV/DepthRead"},
		{StateCopyDst, "CopyDst"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestStateResolve(t *testing.T) {
	tests := []struct {
		s    State
		want State
	}{
		{StateShaderResource, StateShaderResource},
		{StateShaderResource | StateUnorderedAccess, StateUnorderedAccess},
		{StateShaderResource | StateDepthRead, StateShaderResource | StateDepthRead},
		{StateDepthWrite | StateShaderResource, StateDepthWrite},
		{StateCopyDst, StateCopyDst},
	}
	for _, tt := range tests {
		if got := tt.s.Resolve(); got != tt.want {
			t.Errorf("%v.Resolve() = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestStateUsage(t *testing.T) {
	if got := StateRenderTarget.TextureUsage(); got != gputypes.TextureUsageRenderAttachment {
		t.Errorf("RenderTarget usage = %v, want RenderAttachment", got)
	}
	if got := (StateShaderResource | StateCopySrc).TextureUsage(); got != gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopySrc {
		t.Errorf("SRV|CopySrc usage = %v", got)
	}
	if got := StateUnorderedAccess.BufferUsage(); got != gputypes.BufferUsageStorage {
		t.Errorf("UAV buffer usage = %v, want Storage", got)
	}
}

func TestRenderPassAccess(t *testing.T) {
	tests := []struct {
		a     RenderPassAccess
		load  LoadAction
		store StoreAction
	}{
		{AccessNone, LoadDontCare, StoreDontCare},
		{AccessClearStore, LoadClear, StoreStore},
		{AccessLoadStore, LoadLoad, StoreStore},
		{AccessClearDontCare, LoadClear, StoreDontCare},
		{AccessDontCareStore, LoadDontCare, StoreStore},
	}
	for _, tt := range tests {
		if tt.a.Load() != tt.load || tt.a.Store() != tt.store {
			t.Errorf("%v = (%v, %v), want (%v, %v)", tt.a, tt.a.Load(), tt.a.Store(), tt.load, tt.store)
		}
	}
}
