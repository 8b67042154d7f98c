// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/rg/device"
	"github.com/gogpu/rg/internal/cache"
	"github.com/gogpu/wgpu/hal"
)

// Defaults of Config.
const (
	DefaultMaxCachedViews = 1024
	DefaultPollInterval   = 2 * time.Millisecond
	closeTimeout          = 5 * time.Second
)

// Config tunes a Device. Zero values select the defaults.
type Config struct {
	// MaxCachedViews bounds the texture view cache. Least recently used
	// views are destroyed once all work using them has completed.
	MaxCachedViews int

	// PollInterval is the fence wait slice Wait uses between checks of its
	// context.
	PollInterval time.Duration
}

// Device implements device.Device over a hal device and queue.
//
// Submissions signal increasing values of one fence; a token is the fence
// value of its submission. Device is safe for concurrent use.
type Device struct {
	raw   hal.Device
	queue hal.Queue
	fence hal.Fence
	cfg   Config

	views *cache.Cache[viewKey, *View]

	mu        sync.Mutex
	last      device.Token
	completed device.Token
	inflight  []inflight
	pending   []pendingRelease
	closed    bool
}

type inflight struct {
	token device.Token
	cmd   hal.CommandBuffer
}

// pendingRelease is a resource, view or staging buffer waiting for token.
type pendingRelease struct {
	token   device.Token
	res     device.Resource
	view    hal.TextureView
	staging hal.Buffer
}

var _ device.Device = (*Device)(nil)

// New creates a device over raw and queue. The caller keeps ownership of
// raw and queue; Close releases only what the Device created.
func New(raw hal.Device, queue hal.Queue, cfg Config) (*Device, error) {
	if cfg.MaxCachedViews <= 0 {
		cfg.MaxCachedViews = DefaultMaxCachedViews
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	fence, err := raw.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("native: create fence: %w", err)
	}
	d := &Device{raw: raw, queue: queue, fence: fence, cfg: cfg}
	d.views = cache.New[viewKey, *View](cfg.MaxCachedViews, d.retireView)
	return d, nil
}

// NewFromProvider creates a device sharing the hal device and queue of a
// gpucontext.DeviceProvider. The provider must implement
// HalDevice() any and HalQueue() any.
func NewFromProvider(provider gpucontext.DeviceProvider, cfg Config) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := any(provider).(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	raw, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	return New(raw, queue, cfg)
}

// Raw returns the hal device.
func (d *Device) Raw() hal.Device { return d.raw }

// Queue returns the hal queue.
func (d *Device) Queue() hal.Queue { return d.queue }

func (d *Device) CreateTexture(label string, desc device.TextureDesc) (device.Texture, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	desc = desc.Normalized()
	raw, err := d.raw.CreateTexture(textureDescriptor(label, desc))
	if err != nil {
		return nil, fmt.Errorf("native: create texture %q: %w", label, err)
	}
	slogger().Debug("native: texture created", "label", label,
		"width", desc.Width, "height", desc.Height, "format", desc.Format)
	return &Texture{dev: d, raw: raw, label: label, desc: desc}, nil
}

func (d *Device) CreateBuffer(label string, desc device.BufferDesc) (device.Buffer, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	raw, err := d.raw.CreateBuffer(bufferDescriptor(label, desc))
	if err != nil {
		return nil, fmt.Errorf("native: create buffer %q: %w", label, err)
	}
	slogger().Debug("native: buffer created", "label", label, "size", desc.Size)
	return &Buffer{dev: d, raw: raw, label: label, desc: desc}, nil
}

// CreateView returns the cached view of kind for r, creating it on first
// use. Buffer views wrap the buffer itself.
func (d *Device) CreateView(r device.Resource, kind device.ViewKind) (device.View, error) {
	switch r := r.(type) {
	case *Texture:
		if r.dev != d {
			return nil, ErrForeignResource
		}
		v, err := d.views.GetOrCreate(viewKey{tex: r, kind: kind}, func() (*View, error) {
			raw, err := d.raw.CreateTextureView(r.raw, viewDescriptor(r.label, r.desc, kind))
			if err != nil {
				return nil, fmt.Errorf("native: %v view of %q: %w", kind, r.label, err)
			}
			return &View{res: r, kind: kind, raw: raw}, nil
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	case *Buffer:
		if r.dev != d {
			return nil, ErrForeignResource
		}
		return &View{res: r, kind: kind}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrForeignResource, r)
	}
}

// DeferRelease destroys r once every submission made so far has completed.
func (d *Device) DeferRelease(r device.Resource) {
	d.reclaim()
	d.mu.Lock()
	if d.completed >= d.last {
		d.mu.Unlock()
		r.Destroy()
		return
	}
	d.pending = append(d.pending, pendingRelease{token: d.last, res: r})
	d.mu.Unlock()
}

func (d *Device) BeginCommands(label string) (device.Context, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	d.reclaim()
	enc, err := d.raw.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("native: begin encoding %q: %w", label, err)
	}
	return &Context{dev: d, enc: enc, label: label}, nil
}

// Submit ends the encoding of c and submits it, signalling the next fence
// value.
func (d *Device) Submit(c device.Context) (device.Token, error) {
	ctx, ok := c.(*Context)
	if !ok || ctx.dev != d {
		return 0, ErrForeignContext
	}
	if err := ctx.finish(); err != nil {
		d.Discard(ctx)
		return 0, fmt.Errorf("%w: %q: %w", device.ErrSubmitFailed, ctx.label, err)
	}
	cmd, err := ctx.enc.EndEncoding()
	if err != nil {
		d.dropStaging(ctx)
		return 0, fmt.Errorf("%w: end encoding %q: %w", device.ErrSubmitFailed, ctx.label, err)
	}

	d.mu.Lock()
	token := d.last + 1
	if err := d.queue.Submit([]hal.CommandBuffer{cmd}, d.fence, uint64(token)); err != nil {
		d.mu.Unlock()
		d.raw.FreeCommandBuffer(cmd)
		d.dropStaging(ctx)
		return 0, fmt.Errorf("%w: %q: %w", device.ErrSubmitFailed, ctx.label, err)
	}
	d.last = token
	d.inflight = append(d.inflight, inflight{token: token, cmd: cmd})
	for _, b := range ctx.staging {
		d.pending = append(d.pending, pendingRelease{token: token, staging: b})
	}
	d.mu.Unlock()

	slogger().Debug("native: submitted", "label", ctx.label, "token", token, "staging", len(ctx.staging))
	return token, nil
}

// Discard abandons the encoding of c.
func (d *Device) Discard(c device.Context) {
	ctx, ok := c.(*Context)
	if !ok || ctx.dev != d || ctx.done {
		return
	}
	ctx.done = true
	ctx.enc.DiscardEncoding()
	d.dropStaging(ctx)
}

// IsComplete reports whether the submission of t has finished.
func (d *Device) IsComplete(t device.Token) bool {
	d.reclaim()
	d.mu.Lock()
	defer d.mu.Unlock()
	return t <= d.completed
}

// Wait blocks until the submission of t has finished or ctx is done.
func (d *Device) Wait(ctx context.Context, t device.Token) error {
	for !d.IsComplete(t) {
		ok, err := d.raw.Wait(d.fence, uint64(t), d.cfg.PollInterval)
		if err != nil {
			return fmt.Errorf("%w: wait for %d: %w", device.ErrDeviceLost, t, err)
		}
		if ok {
			d.complete(t)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for outstanding work, destroys pending releases and cached
// views, and releases the fence.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	last := d.last
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	err := d.Wait(ctx, last)
	if err != nil {
		slogger().Warn("native: close without idle GPU", "err", err)
	}
	d.views.Clear()
	d.raw.DestroyFence(d.fence)
	return err
}

func (d *Device) checkOpen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return nil
}

// reclaim polls the fence for finished submissions.
func (d *Device) reclaim() {
	d.mu.Lock()
	var done device.Token
	for _, f := range d.inflight {
		ok, err := d.raw.Wait(d.fence, uint64(f.token), 0)
		if err != nil || !ok {
			break
		}
		done = f.token
	}
	d.mu.Unlock()
	if done > 0 {
		d.complete(done)
	}
}

// complete records that every submission up to t has finished and frees
// what was waiting for them.
func (d *Device) complete(t device.Token) {
	d.mu.Lock()
	if t <= d.completed {
		d.mu.Unlock()
		return
	}
	d.completed = t

	var cmds []hal.CommandBuffer
	keep := d.inflight[:0]
	for _, f := range d.inflight {
		if f.token <= t {
			cmds = append(cmds, f.cmd)
			continue
		}
		keep = append(keep, f)
	}
	d.inflight = keep

	var due []pendingRelease
	kept := d.pending[:0]
	for _, p := range d.pending {
		if p.token <= t {
			due = append(due, p)
			continue
		}
		kept = append(kept, p)
	}
	d.pending = kept
	d.mu.Unlock()

	for _, c := range cmds {
		d.raw.FreeCommandBuffer(c)
	}
	for _, p := range due {
		switch {
		case p.res != nil:
			p.res.Destroy()
		case p.view != nil:
			d.raw.DestroyTextureView(p.view)
		case p.staging != nil:
			d.raw.DestroyBuffer(p.staging)
		}
	}
}

// retireView destroys an evicted view once no submission can use it.
func (d *Device) retireView(_ viewKey, v *View) {
	d.mu.Lock()
	if d.completed < d.last {
		d.pending = append(d.pending, pendingRelease{token: d.last, view: v.raw})
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.raw.DestroyTextureView(v.raw)
}

// destroy destroys a resource of d immediately.
func (d *Device) destroy(r device.Resource) {
	switch r := r.(type) {
	case *Texture:
		d.views.DeleteFunc(func(k viewKey, _ *View) bool { return k.tex == r })
		d.raw.DestroyTexture(r.raw)
	case *Buffer:
		d.raw.DestroyBuffer(r.raw)
	}
}

func (d *Device) dropStaging(ctx *Context) {
	for _, b := range ctx.staging {
		d.raw.DestroyBuffer(b)
	}
	ctx.staging = nil
}

// stagingBuffer creates a buffer for texture copies through memory.
func (d *Device) stagingBuffer(label string, size uint64) (hal.Buffer, error) {
	return d.raw.CreateBuffer(bufferDescriptor(label, device.BufferDesc{
		Size:  size,
		Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	}))
}
