// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rgfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/naga"
)

// Shader is the result of compiling the WGSL source of one pass.
type Shader struct {
	Pass string
	Path string

	// SPIRV is the compiled module, in little-endian 32-bit words.
	SPIRV []uint32
}

// CompileShaders compiles the shader of every pass that names one. Relative
// shader paths are resolved against dir. It returns the shaders that
// compiled and every failure joined into one error.
func (f *File) CompileShaders(dir string) ([]Shader, error) {
	var (
		out  []Shader
		errs []error
	)
	for _, p := range f.Passes() {
		if p.Shader == "" {
			continue
		}
		path := p.Shader
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		words, err := compileWGSL(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("pass %q: %w", p.Name, err))
			continue
		}
		out = append(out, Shader{Pass: p.Name, Path: path, SPIRV: words})
	}
	return out, errors.Join(errs...)
}

func compileWGSL(path string) ([]uint32, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	spirv, err := naga.Compile(string(src))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", filepath.Base(path), err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("compile %s: SPIR-V size %d is not a multiple of 4", filepath.Base(path), len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return words, nil
}
