// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rg provides a render graph (frame graph) for the GoGPU ecosystem.
//
// # Overview
//
// Rendering code declares the passes of a frame and the textures and buffers
// they read and write. The graph derives the dependencies between passes,
// culls work nobody consumes, assigns physical resources from a shared
// transient pool, plans state transitions, and records the surviving passes
// in declaration order.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/rg"
//		"github.com/gogpu/rg/backend/record"
//		"github.com/gogpu/rg/device"
//		"github.com/gogpu/rg/pool"
//	)
//
//	p := pool.New(record.New(), pool.Config{})
//	g := rg.New(p, rg.WithName("frame"))
//
//	color := g.CreateTexture("Color", device.Texture2D(1920, 1080, gputypes.TextureFormatRGBA8Unorm, 0))
//	g.AddPass("Clear", rg.PassRaster).
//		RenderTarget(color, device.AccessClearStore).
//		Bind(func(ctx device.Context, res *rg.Resources) error { return nil })
//
//	var out device.Texture
//	g.ExportTexture(color, &out)
//
//	if err := g.Compile(); err != nil { ... }
//	token, err := g.Execute()
//	p.Tick()
//
// # Versions
//
// Every write to a resource creates a new version. A read always refers to
// the version that is current when the read is declared, so declaration
// order alone defines the dependencies and is a valid execution order.
// [Graph.MoveResource] lets one resource continue another's version chain
// and share its physical resource.
//
// # Culling
//
// A pass survives when a version it writes is read by a surviving pass, is
// the final version of an exported resource, or when the pass carries
// [PassNeverCull]. Everything else is dead work and never executes.
//
// # Physical Resources
//
// Compile allocates a physical resource at the first live use of a logical
// resource. After its last use, the physical resource of a transient,
// non-exported resource can back a later resource of the same build.
// Imported resources are only transitioned. Execute returns everything
// else to the pool after submission.
//
// # Contract Violations
//
// Misuse of the API is a bug in the calling code, not a runtime condition.
// Stale handles, binding a pass twice, executing without compiling,
// resolving undeclared handles and exceeding the build budgets panic with
// an error wrapping [ErrContract]. Device and pool failures are returned
// as errors.
//
// # Diagnostics
//
// [Graph.String] prints the execution plan, [Graph.Lifetimes] the resource
// usage, and [Graph.DumpHTML] writes Mermaid and GraphViz renderings of the
// dependency graph.
package rg
