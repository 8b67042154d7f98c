// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a generic LRU cache with an eviction callback.
//
// The native backend caches texture and buffer views with it and destroys
// a view when its entry is evicted:
//
//	views := cache.New[viewKey, hal.TextureView](256, func(_ viewKey, v hal.TextureView) {
//		device.DestroyTextureView(v)
//	})
//	view, err := views.GetOrCreate(key, createView)
//
// Cache is safe for concurrent use. It must not be copied after creation.
package cache
