// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"context"
	"errors"

	"github.com/gogpu/gputypes"
)

// Device errors.
var (
	// ErrOutOfMemory is returned when the device cannot allocate a resource.
	ErrOutOfMemory = errors.New("device: out of memory")

	// ErrDeviceLost is returned when the device was removed or reset.
	ErrDeviceLost = errors.New("device: device lost")

	// ErrSubmitFailed is returned when recorded commands could not be submitted.
	ErrSubmitFailed = errors.New("device: submit failed")

	// ErrUnsupported is returned for operations a backend cannot perform.
	ErrUnsupported = errors.New("device: operation not supported")
)

// Resource is a physical GPU resource.
type Resource interface {
	// Label returns the debug label the resource was created with.
	Label() string

	// Kind returns whether the resource is a texture or a buffer.
	Kind() Kind

	// Destroy releases the resource immediately. Resources that may still be
	// referenced by in-flight work must go through Device.DeferRelease.
	Destroy()
}

// Texture is a physical texture.
type Texture interface {
	Resource
	Desc() TextureDesc
}

// Buffer is a physical buffer.
type Buffer interface {
	Resource
	Desc() BufferDesc
}

// View exposes a resource to shaders or attachments.
type View interface {
	Resource() Resource
	Kind() ViewKind
}

// Device creates resources and submits recorded work.
//
// Implementations must be safe for concurrent use; a Context returned by
// BeginCommands is used by a single goroutine.
type Device interface {
	CreateTexture(label string, desc TextureDesc) (Texture, error)
	CreateBuffer(label string, desc BufferDesc) (Buffer, error)
	CreateView(r Resource, kind ViewKind) (View, error)

	// DeferRelease destroys r once all work submitted before the call has
	// completed.
	DeferRelease(r Resource)

	// BeginCommands starts recording a new command context.
	BeginCommands(label string) (Context, error)

	// Submit ends recording of c and queues it for execution.
	Submit(c Context) (Token, error)

	// Discard abandons the recording of c without submitting it.
	Discard(c Context)

	IsComplete(t Token) bool

	// Wait blocks until t has completed or ctx is done.
	Wait(ctx context.Context, t Token) error
}

// Context records commands for one submission.
type Context interface {
	Transition(barriers ...Barrier)
	BeginRenderPass(desc *RenderPassDesc)
	EndRenderPass()
	PushDebugGroup(label string)
	PopDebugGroup()
	CopyTexture(src, dst Texture) error
	CopyBuffer(src, dst Buffer, size uint64) error
}

// LoadAction is what happens to attachment contents when a render pass begins.
type LoadAction uint8

// Load actions.
const (
	LoadDontCare LoadAction = iota
	LoadLoad
	LoadClear
)

// StoreAction is what happens to attachment contents when a render pass ends.
type StoreAction uint8

// Store actions.
const (
	StoreDontCare StoreAction = iota
	StoreStore
)

// RenderPassAccess combines the load and store behaviour of an attachment.
type RenderPassAccess uint8

// Render pass accesses. AccessNone marks an attachment aspect the pass does
// not touch.
const (
	AccessNone RenderPassAccess = iota
	AccessDontCareStore
	AccessClearStore
	AccessLoadStore
	AccessClearDontCare
	AccessLoadDontCare
	AccessDontCareDontCare
)

// Load returns the load action of a.
func (a RenderPassAccess) Load() LoadAction {
	switch a {
	case AccessClearStore, AccessClearDontCare:
		return LoadClear
	case AccessLoadStore, AccessLoadDontCare:
		return LoadLoad
	default:
		return LoadDontCare
	}
}

// Store returns the store action of a.
func (a RenderPassAccess) Store() StoreAction {
	switch a {
	case AccessDontCareStore, AccessClearStore, AccessLoadStore:
		return StoreStore
	default:
		return StoreDontCare
	}
}

// String returns the access name, e.g. "Clear_Store".
func (a RenderPassAccess) String() string {
	switch a {
	case AccessNone:
		return "NoAccess"
	case AccessDontCareStore:
		return "DontCare_Store"
	case AccessClearStore:
		return "Clear_Store"
	case AccessLoadStore:
		return "Load_Store"
	case AccessClearDontCare:
		return "Clear_DontCare"
	case AccessLoadDontCare:
		return "Load_DontCare"
	case AccessDontCareDontCare:
		return "DontCare_DontCare"
	default:
		return "unknown"
	}
}

// RenderPassDesc describes the attachments of a hardware render pass.
type RenderPassDesc struct {
	Label            string
	ColorAttachments []ColorAttachment
	DepthStencil     *DepthStencilAttachment
}

// ColorAttachment is a color target of a render pass.
type ColorAttachment struct {
	Texture    Texture
	View       View
	Access     RenderPassAccess
	ClearValue gputypes.Color
}

// DepthStencilAttachment is the depth-stencil target of a render pass.
type DepthStencilAttachment struct {
	Texture       Texture
	View          View
	DepthAccess   RenderPassAccess
	StencilAccess RenderPassAccess

	// ReadOnly is set when the pass only tests against depth.
	ReadOnly bool

	DepthClearValue   float32
	StencilClearValue uint32
}
