// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device defines the contracts between the render graph and the GPU
// device that executes its work.
//
// The render graph never talks to a graphics API directly. It allocates
// physical resources, records state transitions and render passes, and
// submits work through the [Device] and [Context] interfaces declared here.
// Backends are thin adapters that translate these calls to a concrete API.
//
// # Architecture
//
//	               +-----------------+
//	               |       rg        |
//	               |  (Graph, Pass)  |
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               |     device      |
//	               | (Device/Context)|
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/native  |          | backend/record  |
//	|  (hal.Device)   |          |   (in memory)   |
//	+--------+--------+          +-----------------+
//	         |
//	+--------v--------+
//	|   gogpu/wgpu    |
//	+-----------------+
//
// # Resource States
//
// A [State] describes how a physical resource is about to be used. The graph
// plans a [Barrier] whenever the state of a resource changes between passes
// and hands the barriers to [Context.Transition] before the pass runs.
//
// # Completion Tokens
//
// [Device.Submit] returns a [Token]. Tokens increase monotonically; once
// [Device.IsComplete] reports true for a token, every resource used by the
// submission may be read back, reused, or destroyed.
package device
