// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pool

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rg/backend/record"
	"github.com/gogpu/rg/device"
)

func rgba(w, h uint32) device.TextureDesc {
	return device.Texture2D(w, h, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureUsageRenderAttachment)
}

func TestReuseAfterRelease(t *testing.T) {
	dev := record.New()
	p := New(dev, Config{})

	a, err := p.AllocateTexture("A", rgba(64, 64))
	if err != nil {
		t.Fatalf("AllocateTexture: %v", err)
	}
	if err := p.Release(a); err != nil {
		t.Fatalf("Release: %v", err)
	}
	p.Tick()

	b, err := p.AllocateTexture("B", rgba(64, 64))
	if err != nil {
		t.Fatalf("AllocateTexture: %v", err)
	}
	if a != b {
		t.Error("compatible request after release did not reuse the texture")
	}
	if got := dev.Stats().Textures; got != 1 {
		t.Errorf("device textures = %d, want 1", got)
	}
	s := p.Stats()
	if s.Allocations != 1 || s.Reuses != 1 {
		t.Errorf("Stats = %+v, want 1 allocation and 1 reuse", s)
	}
}

func TestHeldEntryNotReused(t *testing.T) {
	p := New(record.New(), Config{})

	a, _ := p.AllocateTexture("A", rgba(32, 32))
	b, _ := p.AllocateTexture("B", rgba(32, 32))
	if a == b {
		t.Fatal("held texture handed out twice")
	}

	// An exported resource has a second holder.
	if err := p.Retain(a); err != nil {
		t.Fatalf("Retain: %v", err)
	}
	if err := p.Release(a); err != nil {
		t.Fatalf("Release: %v", err)
	}
	c, _ := p.AllocateTexture("C", rgba(32, 32))
	if c == a {
		t.Error("texture with a remaining holder was reused")
	}
}

func TestIncompatibleNotReused(t *testing.T) {
	p := New(record.New(), Config{})

	a, _ := p.AllocateTexture("A", rgba(32, 32))
	_ = p.Release(a)

	tests := []struct {
		name string
		desc device.TextureDesc
	}{
		{"size", rgba(16, 32)},
		{"format", device.Texture2D(32, 32, gputypes.TextureFormatBGRA8Unorm, gputypes.TextureUsageRenderAttachment)},
		{"usage", device.Texture2D(32, 32, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureUsageStorageBinding)},
	}
	for _, tt := range tests {
		got, err := p.AllocateTexture(tt.name, tt.desc)
		if err != nil {
			t.Fatalf("%s: AllocateTexture: %v", tt.name, err)
		}
		if got == a {
			t.Errorf("%s: incompatible request reused texture", tt.name)
		}
	}
}

func TestFirstFitDeterministic(t *testing.T) {
	p := New(record.New(), Config{})

	a, _ := p.AllocateTexture("A", rgba(8, 8))
	b, _ := p.AllocateTexture("B", rgba(8, 8))
	_ = p.Release(b)
	_ = p.Release(a)

	got, _ := p.AllocateTexture("C", rgba(8, 8))
	if got != a {
		t.Errorf("reused %q, want first created %q", got.Label(), a.Label())
	}
}

func TestTickRetention(t *testing.T) {
	dev := record.New()
	p := New(dev, Config{RetentionFrames: 2})

	tex, _ := p.AllocateTexture("A", rgba(16, 16))
	_ = p.Release(tex)

	p.Tick()
	p.Tick()
	if !p.Contains(tex) {
		t.Fatal("texture expired inside the retention window")
	}
	p.Tick()
	if p.Contains(tex) {
		t.Fatal("texture survived past the retention window")
	}
	if !tex.(*record.Texture).Destroyed() {
		t.Error("expired texture not released to the device")
	}
	if got := p.Stats().Expirations; got != 1 {
		t.Errorf("Expirations = %d, want 1", got)
	}
}

func TestTickKeepsHeld(t *testing.T) {
	p := New(record.New(), Config{RetentionFrames: 1})
	tex, _ := p.AllocateBuffer("B", device.BufferDesc{Size: 256})
	for range 5 {
		p.Tick()
	}
	if !p.Contains(tex) {
		t.Error("held buffer expired")
	}
}

func TestBufferReuse(t *testing.T) {
	p := New(record.New(), Config{})
	a, _ := p.AllocateBuffer("A", device.StructuredBuffer(64, 16))
	_ = p.Release(a)

	b, _ := p.AllocateBuffer("B", device.BufferDesc{Size: 1024, Stride: 16})
	if a != b {
		t.Error("compatible buffer not reused")
	}
	c, _ := p.AllocateBuffer("C", device.BufferDesc{Size: 1024, Stride: 16})
	if c == a {
		t.Error("held buffer reused")
	}
}

func TestBudgetEviction(t *testing.T) {
	dev := record.New()
	p := New(dev, Config{MaxMemoryMB: 1})

	// 256x256 RGBA8 = 256 KiB, four fit into 1 MiB.
	var texs []device.Texture
	for range 4 {
		tex, err := p.AllocateTexture("T", rgba(256, 256))
		if err != nil {
			t.Fatalf("AllocateTexture: %v", err)
		}
		texs = append(texs, tex)
	}

	if _, err := p.AllocateTexture("X", rgba(128, 256)); !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("allocation over budget error = %v, want ErrBudgetExceeded", err)
	}

	_ = p.Release(texs[1])
	_ = p.Release(texs[2])

	if _, err := p.AllocateTexture("X", rgba(128, 256)); err != nil {
		t.Fatalf("AllocateTexture after release: %v", err)
	}
	if p.Contains(texs[1]) {
		t.Error("least recently released entry not evicted")
	}
	if !p.Contains(texs[2]) {
		t.Error("more recently released entry evicted")
	}
	if got := p.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestBudgetSingleAllocationTooLarge(t *testing.T) {
	p := New(record.New(), Config{MaxMemoryMB: 1})
	if _, err := p.AllocateBuffer("huge", device.BufferDesc{Size: 2 << 20}); !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("error = %v, want ErrBudgetExceeded", err)
	}
}

func TestDeviceErrorPropagates(t *testing.T) {
	dev := record.New()
	dev.FailCreate(device.ErrOutOfMemory)
	p := New(dev, Config{})
	if _, err := p.AllocateTexture("A", rgba(4, 4)); !errors.Is(err, device.ErrOutOfMemory) {
		t.Errorf("error = %v, want ErrOutOfMemory", err)
	}
	if got := p.Stats().Entries; got != 0 {
		t.Errorf("Entries = %d, want 0", got)
	}
}

func TestStateTracking(t *testing.T) {
	p := New(record.New(), Config{})
	tex, _ := p.AllocateTexture("A", rgba(4, 4))
	if got := p.State(tex); got != device.StateUndefined {
		t.Errorf("initial State = %v, want Undefined", got)
	}
	p.SetState(tex, device.StateShaderResource)
	_ = p.Release(tex)
	again, _ := p.AllocateTexture("B", rgba(4, 4))
	if got := p.State(again); got != device.StateShaderResource {
		t.Errorf("State after reuse = %v, want SRV", got)
	}

	foreign := record.NewTexture("F", rgba(4, 4))
	if got := p.State(foreign); got != device.StateUndefined {
		t.Errorf("foreign State = %v, want Undefined", got)
	}
}

func TestReleaseErrors(t *testing.T) {
	p := New(record.New(), Config{})
	foreign := record.NewTexture("F", rgba(4, 4))
	if err := p.Release(foreign); !errors.Is(err, ErrNotPooled) {
		t.Errorf("Release(foreign) = %v, want ErrNotPooled", err)
	}
	tex, _ := p.AllocateTexture("A", rgba(4, 4))
	_ = p.Release(tex)
	if err := p.Release(tex); !errors.Is(err, ErrNotPooled) {
		t.Errorf("double Release = %v, want ErrNotPooled", err)
	}
}

func TestClose(t *testing.T) {
	p := New(record.New(), Config{})
	tex, _ := p.AllocateTexture("A", rgba(4, 4))
	p.Close()
	if !tex.(*record.Texture).Destroyed() {
		t.Error("Close did not release pooled texture")
	}
	if _, err := p.AllocateTexture("B", rgba(4, 4)); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("AllocateTexture after Close = %v, want ErrPoolClosed", err)
	}
	p.Close()
}

func TestStatsString(t *testing.T) {
	p := New(record.New(), Config{MaxMemoryMB: 64})
	_, _ = p.AllocateTexture("A", rgba(4, 4))
	s := p.Stats().String()
	for _, want := range []string{"1 entries", "1 in use", "64 MB", "1 allocs"} {
		if !strings.Contains(s, want) {
			t.Errorf("Stats().String() = %q, missing %q", s, want)
		}
	}
}

func TestConcurrentAllocate(t *testing.T) {
	p := New(record.New(), Config{})
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				tex, err := p.AllocateTexture("T", rgba(16, 16))
				if err != nil {
					t.Errorf("AllocateTexture: %v", err)
					return
				}
				_ = p.Release(tex)
				p.Tick()
			}
		}()
	}
	wg.Wait()
	if s := p.Stats(); s.InUse != 0 {
		t.Errorf("InUse = %d, want 0", s.InUse)
	}
}
