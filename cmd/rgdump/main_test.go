// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testGraph = "../../rgfile/testdata/deferred.hcl"

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func TestRunDeferred(t *testing.T) {
	out := t.TempDir()
	var stdout, stderr bytes.Buffer
	err := run(&stdout, &stderr, []string{"-width", "64", "-height", "32", "-frames", "2", "-out", out, testGraph})
	if err != nil {
		t.Fatalf("run: %v\nstderr:\n%s", err, stderr.String())
	}

	got := stdout.String()
	for _, want := range []string{
		`graph "deferred"`,
		"Debug Overlay [Compute] culled",
		"RESOURCE",
		"frame 0: token 1",
		"frame 1: token 2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	for _, name := range []string{"deferred.html", "deferred_graphviz.html"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("dump %s: %v", name, err)
		}
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no graph", nil},
		{"unknown flag", []string{"-nope", testGraph}},
		{"zero frames", []string{"-frames", "0", testGraph}},
		{"zero width", []string{"-width", "0", testGraph}},
		{"bad log level", []string{"-log-level", "loud", testGraph}},
		{"extra args", []string{testGraph, "more"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := exitCode(run(&stdout, &stderr, tt.args)); code != 2 {
				t.Errorf("exit code = %d, want 2", code)
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(&stdout, &stderr, []string{"-h"}); err != nil {
		t.Errorf("run -h: %v", err)
	}
	if !strings.Contains(stderr.String(), "-graph") {
		t.Errorf("usage lacks -graph:\n%s", stderr.String())
	}
}

func TestRunRuntimeErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.hcl")
	if err := os.WriteFile(bad, []byte("pass \"P\" {\n  reads = [\"Missing\"]\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{bad, filepath.Join(dir, "missing.hcl")} {
		var stdout, stderr bytes.Buffer
		if code := exitCode(run(&stdout, &stderr, []string{path})); code != 1 {
			t.Errorf("%s: exit code = %d, want 1", filepath.Base(path), code)
		}
	}
}

func TestRunBudgetExceeded(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(&stdout, &stderr, []string{"-width", "4096", "-height", "4096", "-budget-mb", "1", testGraph})
	if code := exitCode(err); code != 1 {
		t.Errorf("exit code = %d (%v), want 1", code, err)
	}
}
