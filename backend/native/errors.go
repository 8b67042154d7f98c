// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "errors"

var (
	// ErrNoHAL is returned by NewFromProvider when the provider does not
	// expose a hal device and queue.
	ErrNoHAL = errors.New("native: provider does not expose hal.Device and hal.Queue")

	// ErrForeignResource is returned for resources not created by this
	// device.
	ErrForeignResource = errors.New("native: resource not created by this device")

	// ErrForeignContext is returned for contexts not created by this device.
	ErrForeignContext = errors.New("native: context not created by this device")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("native: device closed")
)
