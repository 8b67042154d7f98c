// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rgfile

import (
	"slices"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/rg"
	"github.com/gogpu/rg/device"
)

var formatNames = map[string]gputypes.TextureFormat{
	"r8unorm":              gputypes.TextureFormatR8Unorm,
	"r32float":             gputypes.TextureFormatR32Float,
	"rgba8unorm":           gputypes.TextureFormatRGBA8Unorm,
	"bgra8unorm":           gputypes.TextureFormatBGRA8Unorm,
	"rgba16float":          gputypes.TextureFormatRGBA16Float,
	"rgba32float":          gputypes.TextureFormatRGBA32Float,
	"depth32float":         gputypes.TextureFormatDepth32Float,
	"depth24plus-stencil8": gputypes.TextureFormatDepth24PlusStencil8,
}

var stateNames = map[string]device.State{
	"undefined":       device.StateUndefined,
	"shader_resource": device.StateShaderResource,
	"srv":             device.StateShaderResource,
	"uav":             device.StateUnorderedAccess,
	"render_target":   device.StateRenderTarget,
	"depth_write":     device.StateDepthWrite,
	"depth_read":      device.StateDepthRead,
	"copy_src":        device.StateCopySrc,
	"copy_dst":        device.StateCopyDst,
	"present":         device.StatePresent,
}

var accessNames = map[string]device.RenderPassAccess{
	"none":                device.AccessNone,
	"dont_care_store":     device.AccessDontCareStore,
	"clear_store":         device.AccessClearStore,
	"load_store":          device.AccessLoadStore,
	"clear_dont_care":     device.AccessClearDontCare,
	"load_dont_care":      device.AccessLoadDontCare,
	"dont_care_dont_care": device.AccessDontCareDontCare,
}

var flagNames = map[string]rg.PassFlags{
	"raster":     rg.PassRaster,
	"compute":    rg.PassCompute,
	"copy":       rg.PassCopy,
	"invisible":  rg.PassInvisible,
	"never_cull": rg.PassNeverCull,
}

// choices lists the keys of m for diagnostics.
func choices[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, `"`+k+`"`)
	}
	slices.Sort(keys)
	return strings.Join(keys, ", ")
}
