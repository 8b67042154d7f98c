// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native implements device.Device over the wgpu HAL.
//
// The device records one hal.CommandEncoder per graph execution, maps graph
// states to hal texture usage transitions, and tracks submissions with a
// single timeline fence. Pass callbacks reach the raw encoder through
// [Context.Encoder] and the open render pass through [Context.RenderPass]:
//
//	g.AddPass("Tonemap", rg.PassRaster).
//		RenderTarget(ldr, device.AccessDontCareStore).
//		Bind(func(ctx device.Context, res *rg.Resources) error {
//			rp := ctx.(*native.Context).RenderPass()
//			rp.SetPipeline(tonemap)
//			rp.Draw(3, 1, 0, 0)
//			return nil
//		})
//
// Use [New] with a hal device and queue, or [NewFromProvider] with a
// gpucontext.DeviceProvider shared with the windowing layer.
package native
