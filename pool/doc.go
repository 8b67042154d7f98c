// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pool caches physical textures and buffers across render graph
// builds.
//
// A [Pool] hands out resources matching a descriptor, reusing an idle entry
// when one is compatible and creating a new one through the device otherwise.
// Every hand-out holds one reference. The render graph drops its reference
// after the last pass that touches a transient resource, and a caller that
// received an exported resource drops its own with [Pool.Release]. An entry
// with no holders is idle: it can be handed out again immediately, and it is
// released to the device by [Pool.Tick] once it has been idle for more than
// [Config.RetentionFrames] frames.
//
// Idle entries are never destroyed synchronously. Retention expiry, budget
// eviction and [Pool.Close] all go through [device.Device.DeferRelease], so
// a resource still referenced by in-flight work outlives it.
//
// Pool is safe for concurrent use. All methods are serialised by a single
// mutex, which lets consecutive frames in flight share one pool.
package pool
