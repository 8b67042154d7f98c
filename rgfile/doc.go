// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rgfile loads render graph descriptions written in HCL and builds
// them into an [rg.Graph].
//
// A description declares resources and passes in the order they are added
// to the graph:
//
//	name = "deferred"
//
//	texture "Depth" {
//	  width  = width
//	  height = height
//	  format = "depth24plus-stencil8"
//	}
//
//	import "Backbuffer" {
//	  width  = width
//	  height = height
//	  format = "bgra8unorm"
//	  state  = "present"
//	}
//
//	scope "Opaque" {
//	  pass "Depth Prepass" {
//	    flags = ["raster"]
//	    depth_stencil {
//	      resource = "Depth"
//	      access   = "clear_store"
//	      write    = true
//	    }
//	  }
//	}
//
//	pass "Forward" {
//	  flags  = ["raster"]
//	  reads  = ["Depth"]
//	  shader = "forward.wgsl"
//	  render_target {
//	    resource = "Backbuffer"
//	    access   = "load_store"
//	  }
//	}
//
//	export = ["Backbuffer"]
//
// The variables width and height are supplied by the caller through [Vars].
// Problems in a description are reported as [hcl.Diagnostics] with source
// ranges.
package rgfile
