// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package record provides an in-memory device that records commands instead
// of executing them.
//
// The recording device backs dry runs (cmd/rgdump) and tests. Every submitted
// command context is kept as a [Submission] with its command log, resources
// are plain Go values, and completion tokens complete only when asked to:
// through [Device.Complete], [Device.CompleteAll], or [Device.Wait].
//
// Recordings follow the encoder state machine used by the native backend:
//
//	Recording -> BeginRenderPass -> Locked
//	Locked    -> EndRenderPass   -> Recording
//	Recording -> Submit/Discard  -> Finished
//
// Commands recorded out of order are kept and reported as errors by Submit.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gogpu/rg/device"
)

// Recording errors.
var (
	// ErrUnbalanced is returned by Submit when debug groups or render passes
	// were left open.
	ErrUnbalanced = errors.New("record: unbalanced commands")

	// ErrFinished is returned when a recording is submitted twice.
	ErrFinished = errors.New("record: recording already finished")

	// ErrForeignContext is returned for contexts created by another device.
	ErrForeignContext = errors.New("record: context not created by this device")
)

// Op is the kind of a recorded command.
type Op uint8

// Recorded operations.
const (
	OpTransition Op = iota
	OpBeginRenderPass
	OpEndRenderPass
	OpPushDebugGroup
	OpPopDebugGroup
	OpCopyTexture
	OpCopyBuffer
	OpMarker
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpTransition:
		return "Transition"
	case OpBeginRenderPass:
		return "BeginRenderPass"
	case OpEndRenderPass:
		return "EndRenderPass"
	case OpPushDebugGroup:
		return "PushDebugGroup"
	case OpPopDebugGroup:
		return "PopDebugGroup"
	case OpCopyTexture:
		return "CopyTexture"
	case OpCopyBuffer:
		return "CopyBuffer"
	case OpMarker:
		return "Marker"
	default:
		return "unknown"
	}
}

// Command is one recorded command.
type Command struct {
	Op       Op
	Label    string
	Barriers []device.Barrier
	Pass     *device.RenderPassDesc
	Src, Dst device.Resource
	Size     uint64
}

// String formats c on one line.
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Op.String())
	switch c.Op {
	case OpTransition:
		for _, br := range c.Barriers {
			fmt.Fprintf(&b, " %s:%v->%v", br.Resource.Label(), br.Before, br.After)
		}
	case OpBeginRenderPass:
		fmt.Fprintf(&b, " %q", c.Pass.Label)
		for _, ca := range c.Pass.ColorAttachments {
			fmt.Fprintf(&b, " color=%s(%v)", ca.Texture.Label(), ca.Access)
		}
		if ds := c.Pass.DepthStencil; ds != nil {
			fmt.Fprintf(&b, " depth=%s(%v", ds.Texture.Label(), ds.DepthAccess)
			if ds.ReadOnly {
				b.WriteString(",readonly")
			}
			b.WriteString(")")
		}
	case OpPushDebugGroup, OpMarker:
		fmt.Fprintf(&b, " %q", c.Label)
	case OpCopyTexture, OpCopyBuffer:
		fmt.Fprintf(&b, " %s->%s", c.Src.Label(), c.Dst.Label())
		if c.Size > 0 {
			fmt.Fprintf(&b, " (%d bytes)", c.Size)
		}
	}
	return b.String()
}

// Texture is an in-memory texture.
type Texture struct {
	label     string
	desc      device.TextureDesc
	destroyed bool
}

// NewTexture returns a texture that does not belong to any device, for use
// as an imported resource.
func NewTexture(label string, desc device.TextureDesc) *Texture {
	return &Texture{label: label, desc: desc.Normalized()}
}

func (t *Texture) Label() string            { return t.label }
func (t *Texture) Kind() device.Kind        { return device.KindTexture }
func (t *Texture) Desc() device.TextureDesc { return t.desc }
func (t *Texture) Destroy()                 { t.destroyed = true }

// Destroyed reports whether the texture has been destroyed.
func (t *Texture) Destroyed() bool { return t.destroyed }

// Buffer is an in-memory buffer.
type Buffer struct {
	label     string
	desc      device.BufferDesc
	destroyed bool
}

// NewBuffer returns a buffer that does not belong to any device.
func NewBuffer(label string, desc device.BufferDesc) *Buffer {
	return &Buffer{label: label, desc: desc}
}

func (b *Buffer) Label() string           { return b.label }
func (b *Buffer) Kind() device.Kind       { return device.KindBuffer }
func (b *Buffer) Desc() device.BufferDesc { return b.desc }
func (b *Buffer) Destroy()                { b.destroyed = true }

// Destroyed reports whether the buffer has been destroyed.
func (b *Buffer) Destroyed() bool { return b.destroyed }

// View is an in-memory view.
type View struct {
	res  device.Resource
	kind device.ViewKind
}

func (v *View) Resource() device.Resource { return v.res }
func (v *View) Kind() device.ViewKind     { return v.kind }

// Recording is a command context of the recording device.
//
// Recording is NOT safe for concurrent use.
type Recording struct {
	dev      *Device
	label    string
	commands []Command
	depth    int
	inPass   bool
	err      error
	finished bool
}

// Label returns the label passed to BeginCommands.
func (r *Recording) Label() string { return r.label }

// Commands returns the commands recorded so far.
func (r *Recording) Commands() []Command { return r.commands }

func (r *Recording) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Recording) Transition(barriers ...device.Barrier) {
	if len(barriers) == 0 {
		return
	}
	if r.inPass {
		r.fail(fmt.Errorf("%w: transition inside render pass", ErrUnbalanced))
	}
	r.commands = append(r.commands, Command{Op: OpTransition, Barriers: append([]device.Barrier(nil), barriers...)})
}

func (r *Recording) BeginRenderPass(desc *device.RenderPassDesc) {
	if r.inPass {
		r.fail(fmt.Errorf("%w: nested render pass %q", ErrUnbalanced, desc.Label))
	}
	r.inPass = true
	d := *desc
	r.commands = append(r.commands, Command{Op: OpBeginRenderPass, Label: desc.Label, Pass: &d})
}

func (r *Recording) EndRenderPass() {
	if !r.inPass {
		r.fail(fmt.Errorf("%w: EndRenderPass without BeginRenderPass", ErrUnbalanced))
	}
	r.inPass = false
	r.commands = append(r.commands, Command{Op: OpEndRenderPass})
}

func (r *Recording) PushDebugGroup(label string) {
	r.depth++
	r.commands = append(r.commands, Command{Op: OpPushDebugGroup, Label: label})
}

func (r *Recording) PopDebugGroup() {
	if r.depth == 0 {
		r.fail(fmt.Errorf("%w: PopDebugGroup without PushDebugGroup", ErrUnbalanced))
	} else {
		r.depth--
	}
	r.commands = append(r.commands, Command{Op: OpPopDebugGroup})
}

// Marker records a debug marker. Pass callbacks use it to leave traces in
// the command log.
func (r *Recording) Marker(label string) {
	r.commands = append(r.commands, Command{Op: OpMarker, Label: label})
}

func (r *Recording) CopyTexture(src, dst device.Texture) error {
	if r.inPass {
		return fmt.Errorf("%w: copy inside render pass", ErrUnbalanced)
	}
	s, t := src.Desc(), dst.Desc()
	if s.Width != t.Width || s.Height != t.Height || s.Format != t.Format {
		return fmt.Errorf("record: copy %s->%s: %w", src.Label(), dst.Label(), device.ErrUnsupported)
	}
	r.commands = append(r.commands, Command{Op: OpCopyTexture, Src: src, Dst: dst})
	return nil
}

func (r *Recording) CopyBuffer(src, dst device.Buffer, size uint64) error {
	if r.inPass {
		return fmt.Errorf("%w: copy inside render pass", ErrUnbalanced)
	}
	if size > src.Desc().Size || size > dst.Desc().Size {
		return fmt.Errorf("record: copy %s->%s: %d bytes out of range", src.Label(), dst.Label(), size)
	}
	r.commands = append(r.commands, Command{Op: OpCopyBuffer, Src: src, Dst: dst, Size: size})
	return nil
}

// Submission is a submitted recording.
type Submission struct {
	Token    device.Token
	Label    string
	Commands []Command
}

// String formats the submission as one command per line.
func (s *Submission) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "submission %d %q\n", s.Token, s.Label)
	for _, c := range s.Commands {
		b.WriteString("  ")
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}

type pendingRelease struct {
	res   device.Resource
	token device.Token
}

// Device is an in-memory device.
//
// Device is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	submissions []*Submission
	lastToken   device.Token
	completed   device.Token
	pending     []pendingRelease

	textures  int
	buffers   int
	views     int
	destroyed int

	createErr error
	submitErr error
}

// New returns an empty recording device.
func New() *Device {
	return &Device{}
}

// FailCreate makes every following resource creation fail with err.
// Pass nil to stop failing.
func (d *Device) FailCreate(err error) {
	d.mu.Lock()
	d.createErr = err
	d.mu.Unlock()
}

// FailSubmit makes every following Submit fail with err.
func (d *Device) FailSubmit(err error) {
	d.mu.Lock()
	d.submitErr = err
	d.mu.Unlock()
}

func (d *Device) CreateTexture(label string, desc device.TextureDesc) (device.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		return nil, fmt.Errorf("record: create texture %q: %w", label, d.createErr)
	}
	d.textures++
	return NewTexture(label, desc), nil
}

func (d *Device) CreateBuffer(label string, desc device.BufferDesc) (device.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		return nil, fmt.Errorf("record: create buffer %q: %w", label, d.createErr)
	}
	d.buffers++
	return NewBuffer(label, desc), nil
}

func (d *Device) CreateView(r device.Resource, kind device.ViewKind) (device.View, error) {
	if r == nil {
		return nil, fmt.Errorf("record: create %v view of nil resource: %w", kind, device.ErrUnsupported)
	}
	d.mu.Lock()
	d.views++
	d.mu.Unlock()
	return &View{res: r, kind: kind}, nil
}

// DeferRelease destroys r once the last submission has completed.
func (d *Device) DeferRelease(r device.Resource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastToken <= d.completed {
		r.Destroy()
		d.destroyed++
		return
	}
	d.pending = append(d.pending, pendingRelease{res: r, token: d.lastToken})
}

func (d *Device) BeginCommands(label string) (device.Context, error) {
	return &Recording{dev: d, label: label}, nil
}

// Submit finishes c and returns its token.
func (d *Device) Submit(c device.Context) (device.Token, error) {
	r, ok := c.(*Recording)
	if !ok || r.dev != d {
		return 0, ErrForeignContext
	}
	if r.finished {
		return 0, ErrFinished
	}
	r.finished = true
	if r.err != nil {
		return 0, fmt.Errorf("%w: %w", device.ErrSubmitFailed, r.err)
	}
	if r.depth != 0 || r.inPass {
		return 0, fmt.Errorf("%w: %w: %d debug groups open", device.ErrSubmitFailed, ErrUnbalanced, r.depth)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitErr != nil {
		return 0, fmt.Errorf("%w: %w", device.ErrSubmitFailed, d.submitErr)
	}
	d.lastToken++
	d.submissions = append(d.submissions, &Submission{
		Token:    d.lastToken,
		Label:    r.label,
		Commands: r.commands,
	})
	return d.lastToken, nil
}

func (d *Device) Discard(c device.Context) {
	if r, ok := c.(*Recording); ok {
		r.finished = true
	}
}

func (d *Device) IsComplete(t device.Token) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return t <= d.completed
}

// Wait completes every submission up to t.
func (d *Device) Wait(ctx context.Context, t device.Token) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.Complete(t)
	return nil
}

// Complete marks every submission up to t as finished and destroys the
// resources whose deferred release was waiting for them.
func (d *Device) Complete(t device.Token) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completeLocked(t)
}

// CompleteAll marks every submission as finished.
func (d *Device) CompleteAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.completeLocked(d.lastToken)
}

func (d *Device) completeLocked(t device.Token) {
	if t > d.lastToken {
		t = d.lastToken
	}
	if t <= d.completed {
		return
	}
	d.completed = t
	kept := d.pending[:0]
	for _, p := range d.pending {
		if p.token <= t {
			p.res.Destroy()
			d.destroyed++
			continue
		}
		kept = append(kept, p)
	}
	d.pending = kept
}

// Submissions returns all submissions in order.
func (d *Device) Submissions() []*Submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Submission(nil), d.submissions...)
}

// LastSubmission returns the most recent submission, or nil.
func (d *Device) LastSubmission() *Submission {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.submissions) == 0 {
		return nil
	}
	return d.submissions[len(d.submissions)-1]
}

// Stats reports resource counters of the device.
type Stats struct {
	Textures       int
	Buffers        int
	Views          int
	Destroyed      int
	PendingRelease int
}

// Stats returns the device counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Textures:       d.textures,
		Buffers:        d.buffers,
		Views:          d.views,
		Destroyed:      d.destroyed,
		PendingRelease: len(d.pending),
	}
}
