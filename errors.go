// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"errors"
	"fmt"
)

// Contract violations. Graph methods panic with an error wrapping
// ErrContract and one of the more specific values below when they are used
// incorrectly. Recover and test with errors.Is.
var (
	// ErrContract is wrapped by every contract violation.
	ErrContract = errors.New("rg: contract violation")

	// ErrStaleHandle reports a handle from another or an already executed
	// graph build, or an out-of-range handle.
	ErrStaleHandle = errors.New("rg: stale or foreign handle")

	// ErrNotCompiled reports Execute without a successful Compile.
	ErrNotCompiled = errors.New("rg: graph not compiled")

	// ErrAlreadyBound reports a second Bind on the same pass.
	ErrAlreadyBound = errors.New("rg: pass already bound")

	// ErrUndeclaredHandle reports a callback resolving a handle its pass
	// never declared.
	ErrUndeclaredHandle = errors.New("rg: handle not declared by pass")

	// ErrArenaOverflow reports more passes or resources than the graph
	// budget allows.
	ErrArenaOverflow = errors.New("rg: arena overflow")

	// ErrDescMismatch reports descriptors that cannot share a resource.
	ErrDescMismatch = errors.New("rg: descriptor mismatch")
)

// violation panics with an error wrapping ErrContract and kind.
func violation(kind error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if kind == ErrContract {
		panic(fmt.Errorf("%w: %s", ErrContract, msg))
	}
	panic(fmt.Errorf("%w: %w: %s", ErrContract, kind, msg))
}
