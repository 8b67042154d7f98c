// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/rg/device"
	"github.com/gogpu/wgpu/hal"
)

var (
	errInRenderPass   = errors.New("native: command inside render pass")
	errNoRenderPass   = errors.New("native: EndRenderPass without BeginRenderPass")
	errUnbalancedPops = errors.New("native: PopDebugGroup without PushDebugGroup")
)

// Context records commands into one hal command encoder.
//
// Misordered commands are recorded as the first error of the context and
// make Submit fail.
type Context struct {
	dev   *Device
	enc   hal.CommandEncoder
	label string

	rp      hal.RenderPassEncoder
	groups  []string
	staging []hal.Buffer
	err     error
	done    bool
}

var _ device.Context = (*Context)(nil)

// Encoder returns the hal command encoder.
func (c *Context) Encoder() hal.CommandEncoder { return c.enc }

// RenderPass returns the open render pass encoder, or nil outside a render
// pass.
func (c *Context) RenderPass() hal.RenderPassEncoder { return c.rp }

// DebugGroup returns the open debug groups joined with '/'.
func (c *Context) DebugGroup() string { return strings.Join(c.groups, "/") }

func (c *Context) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Transition applies texture barriers. Buffer barriers carry no layout
// change and are left to the hal backend.
func (c *Context) Transition(barriers ...device.Barrier) {
	if c.rp != nil {
		c.fail(fmt.Errorf("%w: transition", errInRenderPass))
		return
	}
	var tb []hal.TextureBarrier
	for _, b := range barriers {
		t, ok := b.Resource.(*Texture)
		if !ok {
			continue
		}
		tb = append(tb, textureTransition(t.raw, b))
	}
	if len(tb) > 0 {
		c.enc.TransitionTextures(tb)
	}
}

func (c *Context) BeginRenderPass(desc *device.RenderPassDesc) {
	if c.rp != nil {
		c.fail(fmt.Errorf("%w: nested render pass %q", errInRenderPass, desc.Label))
		return
	}
	hd, err := renderPassDescriptor(desc)
	if err != nil {
		c.fail(err)
		return
	}
	c.rp = c.enc.BeginRenderPass(hd)
}

func (c *Context) EndRenderPass() {
	if c.rp == nil {
		c.fail(errNoRenderPass)
		return
	}
	c.rp.End()
	c.rp = nil
}

func (c *Context) PushDebugGroup(label string) {
	c.groups = append(c.groups, label)
}

func (c *Context) PopDebugGroup() {
	if len(c.groups) == 0 {
		c.fail(errUnbalancedPops)
		return
	}
	c.groups = c.groups[:len(c.groups)-1]
}

// CopyTexture copies the top mip of src into dst through a staging buffer.
// Both textures must have the same size and format.
func (c *Context) CopyTexture(src, dst device.Texture) error {
	if c.rp != nil {
		return fmt.Errorf("%w: copy", errInRenderPass)
	}
	s, sok := src.(*Texture)
	t, tok := dst.(*Texture)
	if !sok || !tok || s.dev != c.dev || t.dev != c.dev {
		return ErrForeignResource
	}
	sd, td := s.desc, t.desc
	if sd.Width != td.Width || sd.Height != td.Height || sd.Format != td.Format {
		return fmt.Errorf("native: copy %s->%s: %w", s.label, t.label, device.ErrUnsupported)
	}

	bytesPerRow, size := stagingLayout(sd)
	staging, err := c.dev.stagingBuffer(s.label+"_staging", size)
	if err != nil {
		return fmt.Errorf("native: copy %s->%s: %w", s.label, t.label, err)
	}
	c.staging = append(c.staging, staging)

	layout := hal.ImageDataLayout{BytesPerRow: bytesPerRow, RowsPerImage: sd.Height}
	extent := hal.Extent3D{Width: sd.Width, Height: sd.Height, DepthOrArrayLayers: sd.DepthOrArrayLayers}
	c.enc.CopyTextureToBuffer(s.raw, staging, []hal.BufferTextureCopy{{
		BufferLayout: layout,
		TextureBase:  hal.ImageCopyTexture{Texture: s.raw, MipLevel: 0},
		Size:         extent,
	}})
	c.enc.CopyBufferToTexture(staging, t.raw, []hal.BufferTextureCopy{{
		BufferLayout: layout,
		TextureBase:  hal.ImageCopyTexture{Texture: t.raw, MipLevel: 0},
		Size:         extent,
	}})
	return nil
}

func (c *Context) CopyBuffer(src, dst device.Buffer, size uint64) error {
	if c.rp != nil {
		return fmt.Errorf("%w: copy", errInRenderPass)
	}
	s, sok := src.(*Buffer)
	t, tok := dst.(*Buffer)
	if !sok || !tok || s.dev != c.dev || t.dev != c.dev {
		return ErrForeignResource
	}
	if size > s.desc.Size || size > t.desc.Size {
		return fmt.Errorf("native: copy %s->%s: %d bytes out of range", s.label, t.label, size)
	}
	c.enc.CopyBufferToBuffer(s.raw, t.raw, []hal.BufferCopy{{Size: size}})
	return nil
}

// finish checks that the recording is complete.
func (c *Context) finish() error {
	if c.done {
		return errors.New("native: context already submitted or discarded")
	}
	if c.err != nil {
		return c.err
	}
	if c.rp != nil {
		return fmt.Errorf("%w: render pass left open", errInRenderPass)
	}
	if len(c.groups) > 0 {
		return fmt.Errorf("native: %d debug groups left open (%s)", len(c.groups), c.DebugGroup())
	}
	c.done = true
	return nil
}

// renderPassDescriptor converts the attachments of desc.
func renderPassDescriptor(desc *device.RenderPassDesc) (*hal.RenderPassDescriptor, error) {
	hd := &hal.RenderPassDescriptor{Label: desc.Label}
	for _, ca := range desc.ColorAttachments {
		v, ok := ca.View.(*View)
		if !ok || v.raw == nil {
			return nil, fmt.Errorf("%w: color attachment of %q", ErrForeignResource, desc.Label)
		}
		hd.ColorAttachments = append(hd.ColorAttachments, hal.RenderPassColorAttachment{
			View:       v.raw,
			LoadOp:     loadOp(ca.Access),
			StoreOp:    storeOp(ca.Access),
			ClearValue: ca.ClearValue,
		})
	}
	if ds := desc.DepthStencil; ds != nil {
		v, ok := ds.View.(*View)
		if !ok || v.raw == nil {
			return nil, fmt.Errorf("%w: depth-stencil attachment of %q", ErrForeignResource, desc.Label)
		}
		da := &hal.RenderPassDepthStencilAttachment{
			View:              v.raw,
			DepthLoadOp:       loadOp(ds.DepthAccess),
			DepthStoreOp:      storeOp(ds.DepthAccess),
			DepthClearValue:   ds.DepthClearValue,
			StencilLoadOp:     loadOp(ds.StencilAccess),
			StencilStoreOp:    storeOp(ds.StencilAccess),
			StencilClearValue: ds.StencilClearValue,
		}
		if ds.ReadOnly {
			da.DepthLoadOp, da.DepthStoreOp = loadOp(device.AccessLoadStore), storeOp(device.AccessLoadStore)
		}
		hd.DepthStencilAttachment = da
	}
	return hd, nil
}
