// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rg/device"
)

func TestSubmitTokens(t *testing.T) {
	d := New()
	for want := device.Token(1); want <= 3; want++ {
		c, err := d.BeginCommands("frame")
		if err != nil {
			t.Fatalf("BeginCommands: %v", err)
		}
		tok, err := d.Submit(c)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if tok != want {
			t.Errorf("token = %d, want %d", tok, want)
		}
	}
	if d.IsComplete(1) {
		t.Error("IsComplete(1) = true before Complete")
	}
	d.Complete(2)
	if !d.IsComplete(2) || d.IsComplete(3) {
		t.Errorf("IsComplete after Complete(2) = (%v, %v), want (true, false)", d.IsComplete(2), d.IsComplete(3))
	}
	if err := d.Wait(context.Background(), 3); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !d.IsComplete(3) {
		t.Error("IsComplete(3) = false after Wait")
	}
}

func TestSubmitTwice(t *testing.T) {
	d := New()
	c, _ := d.BeginCommands("x")
	if _, err := d.Submit(c); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := d.Submit(c); !errors.Is(err, ErrFinished) {
		t.Errorf("second Submit error = %v, want ErrFinished", err)
	}
}

func TestSubmitUnbalanced(t *testing.T) {
	tests := []struct {
		name   string
		record func(c *Recording)
	}{
		{"open group", func(c *Recording) { c.PushDebugGroup("g") }},
		{"extra pop", func(c *Recording) { c.PopDebugGroup() }},
		{"open pass", func(c *Recording) { c.BeginRenderPass(&device.RenderPassDesc{Label: "p"}) }},
		{"nested pass", func(c *Recording) {
			c.BeginRenderPass(&device.RenderPassDesc{Label: "a"})
			c.BeginRenderPass(&device.RenderPassDesc{Label: "b"})
			c.EndRenderPass()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New()
			c, _ := d.BeginCommands("x")
			tt.record(c.(*Recording))
			_, err := d.Submit(c)
			if !errors.Is(err, ErrUnbalanced) || !errors.Is(err, device.ErrSubmitFailed) {
				t.Errorf("Submit error = %v, want ErrUnbalanced and ErrSubmitFailed", err)
			}
		})
	}
}

func TestDeferRelease(t *testing.T) {
	d := New()
	tex, err := d.CreateTexture("t", device.Texture2D(8, 8, gputypes.TextureFormatRGBA8Unorm, 0))
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}

	// Nothing in flight: released immediately.
	d.DeferRelease(tex)
	if !tex.(*Texture).Destroyed() {
		t.Fatal("texture not destroyed with no work in flight")
	}

	buf, _ := d.CreateBuffer("b", device.BufferDesc{Size: 64})
	c, _ := d.BeginCommands("x")
	tok, _ := d.Submit(c)
	d.DeferRelease(buf)
	if buf.(*Buffer).Destroyed() {
		t.Fatal("buffer destroyed while submission in flight")
	}
	if got := d.Stats().PendingRelease; got != 1 {
		t.Errorf("PendingRelease = %d, want 1", got)
	}
	d.Complete(tok)
	if !buf.(*Buffer).Destroyed() {
		t.Error("buffer not destroyed after completion")
	}
	if got := d.Stats().Destroyed; got != 2 {
		t.Errorf("Destroyed = %d, want 2", got)
	}
}

func TestFailureInjection(t *testing.T) {
	d := New()
	d.FailCreate(device.ErrOutOfMemory)
	if _, err := d.CreateTexture("t", device.Texture2D(1, 1, gputypes.TextureFormatR8Unorm, 0)); !errors.Is(err, device.ErrOutOfMemory) {
		t.Errorf("CreateTexture error = %v, want ErrOutOfMemory", err)
	}
	d.FailCreate(nil)
	if _, err := d.CreateBuffer("b", device.BufferDesc{Size: 4}); err != nil {
		t.Errorf("CreateBuffer after reset: %v", err)
	}

	d.FailSubmit(device.ErrDeviceLost)
	c, _ := d.BeginCommands("x")
	if _, err := d.Submit(c); !errors.Is(err, device.ErrDeviceLost) {
		t.Errorf("Submit error = %v, want ErrDeviceLost", err)
	}
}

func TestCommandLog(t *testing.T) {
	d := New()
	a := NewTexture("A", device.Texture2D(4, 4, gputypes.TextureFormatRGBA8Unorm, 0))
	b := NewTexture("B", device.Texture2D(4, 4, gputypes.TextureFormatRGBA8Unorm, 0))

	c, _ := d.BeginCommands("frame")
	c.PushDebugGroup("Copy")
	c.Transition(device.Barrier{Resource: a, Before: device.StateUndefined, After: device.StateCopySrc})
	if err := c.CopyTexture(a, b); err != nil {
		t.Fatalf("CopyTexture: %v", err)
	}
	c.PopDebugGroup()
	if _, err := d.Submit(c); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s := d.LastSubmission()
	want := []Op{OpPushDebugGroup, OpTransition, OpCopyTexture, OpPopDebugGroup}
	if len(s.Commands) != len(want) {
		t.Fatalf("len(Commands) = %d, want %d", len(s.Commands), len(want))
	}
	for i, op := range want {
		if s.Commands[i].Op != op {
			t.Errorf("Commands[%d].Op = %v, want %v", i, s.Commands[i].Op, op)
		}
	}
	if got := s.Commands[1].String(); got != "Transition A:Undefined->CopySrc" {
		t.Errorf("transition = %q", got)
	}
	if !strings.Contains(s.String(), "CopyTexture A->B") {
		t.Errorf("submission dump missing copy:\n%s", s)
	}
}
