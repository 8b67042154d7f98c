// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

// Default per-build budgets.
const (
	// DefaultMaxPasses is the default pass budget of one graph build.
	DefaultMaxPasses = 1024

	// DefaultMaxResources is the default logical resource budget of one
	// graph build.
	DefaultMaxResources = 4096
)

// Option configures a Graph during creation.
//
// Example:
//
//	g := rg.New(p, rg.WithName("frame"), rg.WithMaxPasses(256))
type Option func(*options)

// options holds optional configuration for Graph creation.
type options struct {
	name         string
	maxPasses    int
	maxResources int
}

func defaultOptions() options {
	return options{
		name:         "RenderGraph",
		maxPasses:    DefaultMaxPasses,
		maxResources: DefaultMaxResources,
	}
}

// WithName sets the graph name. It labels the command context and the
// diagnostics dumps.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithMaxPasses sets how many passes one build may declare. Declaring more
// panics with ErrArenaOverflow. Values <= 0 keep the default.
func WithMaxPasses(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPasses = n
		}
	}
}

// WithMaxResources sets how many logical resources one build may declare.
// Values <= 0 keep the default.
func WithMaxResources(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxResources = n
		}
	}
}
