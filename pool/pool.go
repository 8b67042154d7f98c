// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pool

import (
	"container/list"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/rg/device"
)

// Pool errors.
var (
	// ErrBudgetExceeded is returned when an allocation does not fit into the
	// memory budget even after evicting every idle entry.
	ErrBudgetExceeded = errors.New("pool: memory budget exceeded")

	// ErrPoolClosed is returned when operating on a closed pool.
	ErrPoolClosed = errors.New("pool: pool closed")

	// ErrNotPooled is returned for resources the pool does not own.
	ErrNotPooled = errors.New("pool: resource not owned by pool")
)

// Defaults.
const (
	// DefaultRetentionFrames is the number of frames an idle entry survives.
	DefaultRetentionFrames = 3
)

// Config holds configuration for creating a Pool.
type Config struct {
	// RetentionFrames is how many Tick calls an idle entry survives before it
	// is released to the device. Defaults to DefaultRetentionFrames if <= 0.
	RetentionFrames int

	// MaxMemoryMB is the memory budget in megabytes. Zero or negative means
	// unlimited.
	MaxMemoryMB int
}

// Stats contains pool usage statistics.
type Stats struct {
	// Frame is the current frame counter.
	Frame uint64

	// Entries is the number of resources owned by the pool.
	Entries int

	// InUse is the number of entries with at least one holder.
	InUse int

	// Bytes is the estimated memory of all entries.
	Bytes uint64

	// BudgetBytes is the memory budget, or 0 when unlimited.
	BudgetBytes uint64

	// Allocations counts resources created through the device.
	Allocations uint64

	// Reuses counts requests served by an idle entry.
	Reuses uint64

	// Evictions counts idle entries dropped to make room for an allocation.
	Evictions uint64

	// Expirations counts idle entries dropped by Tick.
	Expirations uint64
}

// String returns a human-readable summary of s.
func (s Stats) String() string {
	budget := "unlimited"
	if s.BudgetBytes > 0 {
		budget = fmt.Sprintf("%d MB", s.BudgetBytes/(1024*1024))
	}
	return fmt.Sprintf("Pool[frame %d, %d entries (%d in use), %.1f/%s, %d allocs, %d reuses, %d evictions, %d expired]",
		s.Frame, s.Entries, s.InUse,
		float64(s.Bytes)/(1024*1024), budget,
		s.Allocations, s.Reuses, s.Evictions, s.Expirations)
}

// entry is a pooled resource.
type entry struct {
	res   device.Resource
	tex   device.Texture
	buf   device.Buffer
	size  uint64
	refs  int
	state device.State

	// lastUsed is the frame the entry was last released in.
	lastUsed uint64

	// idle is the entry's position in the idle list, nil while held.
	idle *list.Element
}

// Pool is a transient resource pool shared across graph builds.
//
// Pool is safe for concurrent use.
type Pool struct {
	mu  sync.Mutex
	dev device.Device

	retention uint64
	budget    uint64

	// entries keeps insertion order so that reuse is deterministic.
	entries []*entry
	byRes   map[device.Resource]*entry

	// idleList holds idle entries, front = most recently released.
	idleList *list.List

	frame     uint64
	usedBytes uint64

	allocations uint64
	reuses      uint64
	evictions   uint64
	expirations uint64

	closed bool
}

// New creates a pool that allocates resources from dev.
func New(dev device.Device, config Config) *Pool {
	retention := config.RetentionFrames
	if retention <= 0 {
		retention = DefaultRetentionFrames
	}
	var budget uint64
	if config.MaxMemoryMB > 0 {
		budget = uint64(config.MaxMemoryMB) * 1024 * 1024
	}
	return &Pool{
		dev:       dev,
		retention: uint64(retention),
		budget:    budget,
		byRes:     make(map[device.Resource]*entry),
		idleList:  list.New(),
	}
}

// Device returns the device the pool allocates from.
func (p *Pool) Device() device.Device {
	return p.dev
}

// AllocateTexture returns a texture compatible with desc. The first idle
// compatible entry in creation order is reused; otherwise a new texture is
// created. The caller holds one reference to the result.
func (p *Pool) AllocateTexture(name string, desc device.TextureDesc) (device.Texture, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	desc = desc.Normalized()
	for _, e := range p.entries {
		if e.refs == 0 && e.tex != nil && e.tex.Desc().Compatible(desc) {
			p.acquireLocked(e)
			p.reuses++
			slogger().Debug("pool: reuse texture", "name", name, "label", e.res.Label())
			return e.tex, nil
		}
	}

	size := desc.ByteSize()
	if err := p.makeRoomLocked(size); err != nil {
		return nil, fmt.Errorf("allocate texture %q: %w", name, err)
	}
	tex, err := p.dev.CreateTexture(name, desc)
	if err != nil {
		return nil, fmt.Errorf("allocate texture %q: %w", name, err)
	}
	p.registerLocked(&entry{res: tex, tex: tex, size: size})
	slogger().Debug("pool: new texture", "name", name,
		"width", desc.Width, "height", desc.Height, "bytes", size)
	return tex, nil
}

// AllocateBuffer returns a buffer compatible with desc. See AllocateTexture.
func (p *Pool) AllocateBuffer(name string, desc device.BufferDesc) (device.Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	for _, e := range p.entries {
		if e.refs == 0 && e.buf != nil && e.buf.Desc().Compatible(desc) {
			p.acquireLocked(e)
			p.reuses++
			slogger().Debug("pool: reuse buffer", "name", name, "label", e.res.Label())
			return e.buf, nil
		}
	}

	if err := p.makeRoomLocked(desc.Size); err != nil {
		return nil, fmt.Errorf("allocate buffer %q: %w", name, err)
	}
	buf, err := p.dev.CreateBuffer(name, desc)
	if err != nil {
		return nil, fmt.Errorf("allocate buffer %q: %w", name, err)
	}
	p.registerLocked(&entry{res: buf, buf: buf, size: desc.Size})
	slogger().Debug("pool: new buffer", "name", name, "bytes", desc.Size)
	return buf, nil
}

// Retain adds a holder to r.
func (p *Pool) Retain(r device.Resource) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, err := p.lookupLocked(r)
	if err != nil {
		return err
	}
	if e.refs == 0 {
		p.acquireLocked(e)
		return nil
	}
	e.refs++
	return nil
}

// Release drops one holder of r. When the last holder is gone the entry
// becomes idle and may be handed out again.
func (p *Pool) Release(r device.Resource) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, err := p.lookupLocked(r)
	if err != nil {
		return err
	}
	if e.refs == 0 {
		return fmt.Errorf("release %q: %w", r.Label(), ErrNotPooled)
	}
	e.refs--
	if e.refs == 0 {
		e.lastUsed = p.frame
		e.idle = p.idleList.PushFront(e)
	}
	return nil
}

// State returns the last known device state of r, or StateUndefined for
// resources the pool does not own.
func (p *Pool) State(r device.Resource) device.State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.byRes[r]; ok {
		return e.state
	}
	return device.StateUndefined
}

// SetState records the device state r was left in.
func (p *Pool) SetState(r device.Resource, s device.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.byRes[r]; ok {
		e.state = s
	}
}

// Contains reports whether r is owned by the pool.
func (p *Pool) Contains(r device.Resource) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.byRes[r]
	return ok
}

// Tick advances the frame counter and releases idle entries that have not
// been used for more than the retention window.
func (p *Pool) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.frame++

	var next *list.Element
	for el := p.idleList.Back(); el != nil; el = next {
		next = el.Prev()
		e := el.Value.(*entry)
		if p.frame-e.lastUsed <= p.retention {
			continue
		}
		p.removeLocked(e)
		p.dev.DeferRelease(e.res)
		p.expirations++
		slogger().Debug("pool: expired", "label", e.res.Label(), "idle_frames", p.frame-e.lastUsed)
	}
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	inUse := 0
	for _, e := range p.entries {
		if e.refs > 0 {
			inUse++
		}
	}
	return Stats{
		Frame:       p.frame,
		Entries:     len(p.entries),
		InUse:       inUse,
		Bytes:       p.usedBytes,
		BudgetBytes: p.budget,
		Allocations: p.allocations,
		Reuses:      p.reuses,
		Evictions:   p.evictions,
		Expirations: p.expirations,
	}
}

// Close releases every pooled resource through the device's deferred
// deletion path. The pool must not be used after Close.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	for _, e := range p.entries {
		if e.refs > 0 {
			slogger().Warn("pool: closing with held resource", "label", e.res.Label(), "refs", e.refs)
		}
		p.dev.DeferRelease(e.res)
	}
	p.entries = nil
	p.byRes = nil
	p.idleList.Init()
	p.usedBytes = 0
	p.closed = true
}

func (p *Pool) lookupLocked(r device.Resource) (*entry, error) {
	if p.closed {
		return nil, ErrPoolClosed
	}
	e, ok := p.byRes[r]
	if !ok {
		label := "<nil>"
		if r != nil {
			label = r.Label()
		}
		return nil, fmt.Errorf("%q: %w", label, ErrNotPooled)
	}
	return e, nil
}

// acquireLocked takes the first reference of an idle entry.
func (p *Pool) acquireLocked(e *entry) {
	if e.idle != nil {
		p.idleList.Remove(e.idle)
		e.idle = nil
	}
	e.refs = 1
}

func (p *Pool) registerLocked(e *entry) {
	e.refs = 1
	p.entries = append(p.entries, e)
	p.byRes[e.res] = e
	p.usedBytes += e.size
	p.allocations++
}

func (p *Pool) removeLocked(e *entry) {
	if e.idle != nil {
		p.idleList.Remove(e.idle)
		e.idle = nil
	}
	for i, x := range p.entries {
		if x == e {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
	delete(p.byRes, e.res)
	p.usedBytes -= e.size
}

// makeRoomLocked evicts idle entries, least recently released first, until
// size more bytes fit into the budget.
func (p *Pool) makeRoomLocked(size uint64) error {
	if p.budget == 0 {
		return nil
	}
	if size > p.budget {
		return fmt.Errorf("%w: %d MB requested, budget %d MB",
			ErrBudgetExceeded, size/(1024*1024), p.budget/(1024*1024))
	}
	for p.usedBytes+size > p.budget {
		el := p.idleList.Back()
		if el == nil {
			return fmt.Errorf("%w: need %d bytes, have %d bytes available",
				ErrBudgetExceeded, size, p.budget-p.usedBytes)
		}
		e := el.Value.(*entry)
		p.removeLocked(e)
		p.dev.DeferRelease(e.res)
		p.evictions++
		slogger().Warn("pool: evicted idle resource for budget", "label", e.res.Label(), "bytes", e.size)
	}
	return nil
}
