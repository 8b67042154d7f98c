// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rg

import (
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	g, _, _ := newTestGraph()
	if g.Name() != "RenderGraph" {
		t.Errorf("Name() = %q, want RenderGraph", g.Name())
	}
	if g.opts.maxPasses != DefaultMaxPasses || g.opts.maxResources != DefaultMaxResources {
		t.Errorf("budgets = (%d, %d), want defaults", g.opts.maxPasses, g.opts.maxResources)
	}
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	g, _, _ := newTestGraph(WithName(""), WithMaxPasses(0), WithMaxResources(-1))
	if g.Name() != "RenderGraph" {
		t.Errorf("Name() = %q, want RenderGraph", g.Name())
	}
	if g.opts.maxPasses != DefaultMaxPasses || g.opts.maxResources != DefaultMaxResources {
		t.Errorf("budgets = (%d, %d), want defaults", g.opts.maxPasses, g.opts.maxResources)
	}
}

func TestPassBudget(t *testing.T) {
	g, _, _ := newTestGraph(WithMaxPasses(2))
	g.AddPass("A", PassCompute)
	g.AddPass("B", PassCompute)
	mustPanic(t, ErrArenaOverflow, func() { g.AddPass("C", PassCompute) })
}

func TestResourceBudget(t *testing.T) {
	g, _, _ := newTestGraph(WithMaxResources(1))
	g.CreateTexture("A", rgba(4, 4))
	mustPanic(t, ErrArenaOverflow, func() { g.CreateTexture("B", rgba(4, 4)) })
}
