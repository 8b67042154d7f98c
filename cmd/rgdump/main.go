// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command rgdump loads an HCL render graph description, runs it for a few
// frames on the recording device and prints the execution plan, resource
// lifetimes and pool statistics.
//
// Usage:
//
//	rgdump [flags] [GRAPH.hcl]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/gogpu/rg"
	"github.com/gogpu/rg/backend/record"
	"github.com/gogpu/rg/device"
	"github.com/gogpu/rg/pool"
	"github.com/gogpu/rg/rgfile"
)

// exitError carries the process exit code of a failure.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		code := 1
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		fmt.Fprintln(os.Stderr, "rgdump:", err)
		os.Exit(code)
	}
}

type config struct {
	graph     string
	width     uint
	height    uint
	frames    int
	out       string
	shaders   bool
	retention int
	budgetMB  int
	level     slog.Level
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("rgdump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: rgdump [flags] [GRAPH.hcl]")
		fs.PrintDefaults()
	}

	cfg := &config{}
	fs.StringVar(&cfg.graph, "graph", "", "graph description (.hcl)")
	fs.UintVar(&cfg.width, "width", 1280, "value of the width variable")
	fs.UintVar(&cfg.height, "height", 720, "value of the height variable")
	fs.IntVar(&cfg.frames, "frames", 3, "number of frames to build and execute")
	fs.StringVar(&cfg.out, "out", "", "directory for Mermaid and GraphViz HTML dumps")
	fs.BoolVar(&cfg.shaders, "shaders", false, "compile pass shaders with naga")
	fs.IntVar(&cfg.retention, "retention", pool.DefaultRetentionFrames, "pool retention in frames")
	fs.IntVar(&cfg.budgetMB, "budget-mb", 0, "pool memory budget in MB, 0 for unlimited")
	level := fs.String("log-level", "warn", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil
		}
		return nil, usageError("%v", err)
	}
	if cfg.graph == "" && fs.NArg() > 0 {
		cfg.graph = fs.Arg(0)
	}
	switch {
	case cfg.graph == "":
		fs.Usage()
		return nil, usageError("no graph description given")
	case fs.NArg() > 1:
		return nil, usageError("unexpected arguments: %s", strings.Join(fs.Args()[1:], " "))
	case cfg.frames < 1:
		return nil, usageError("-frames must be at least 1")
	case cfg.width == 0 || cfg.height == 0:
		return nil, usageError("-width and -height must be positive")
	}
	if err := cfg.level.UnmarshalText([]byte(*level)); err != nil {
		return nil, usageError("-log-level: %v", err)
	}
	return cfg, nil
}

func run(stdout, stderr io.Writer, args []string) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil || cfg == nil {
		return err
	}
	rg.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.level})))

	f, err := rgfile.ParseFile(cfg.graph, rgfile.Vars{Width: uint32(cfg.width), Height: uint32(cfg.height)})
	if err != nil {
		return err
	}
	name := f.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(cfg.graph), filepath.Ext(cfg.graph))
	}

	if cfg.shaders {
		shaders, err := f.CompileShaders(filepath.Dir(cfg.graph))
		for _, s := range shaders {
			fmt.Fprintf(stdout, "shader %s (%s): %d SPIR-V words\n", s.Pass, filepath.Base(s.Path), len(s.SPIRV))
		}
		if err != nil {
			return err
		}
	}

	dev := record.New()
	p := pool.New(dev, pool.Config{RetentionFrames: cfg.retention, MaxMemoryMB: cfg.budgetMB})
	defer p.Close()
	imports := newImporter(dev)
	defer imports.destroy()

	for frame := range cfg.frames {
		if err := runFrame(stdout, cfg, f, name, frame, dev, p, imports); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	fmt.Fprintln(stdout, p.Stats())
	return nil
}

func runFrame(w io.Writer, cfg *config, f *rgfile.File, name string, frame int,
	dev *record.Device, p *pool.Pool, imports *importer) error {
	g := rg.New(p, rg.WithName(name))
	built, err := f.Build(g, rgfile.Options{Import: imports.get, Bind: bindMarker})
	if err != nil {
		g.Discard()
		return err
	}
	if err := g.Compile(); err != nil {
		g.Discard()
		return err
	}

	if frame == 0 {
		fmt.Fprint(w, g.String())
		writeLifetimes(w, g.Lifetimes())
		if cfg.out != "" {
			if err := g.DumpHTML(cfg.out, name); err != nil {
				g.Discard()
				return err
			}
		}
	}

	tok, err := g.Execute()
	if err != nil {
		return err
	}
	if err := dev.Wait(context.Background(), tok); err != nil {
		return err
	}
	fmt.Fprintf(w, "frame %d: token %d, %d commands\n", frame, tok, len(dev.LastSubmission().Commands))

	for n, r := range built.Exports() {
		if !p.Contains(r) {
			continue
		}
		if err := p.Release(r); err != nil {
			return fmt.Errorf("release export %q: %w", n, err)
		}
	}
	p.Tick()
	return nil
}

// bindMarker records a marker naming the pass shader, if any.
func bindMarker(d *rgfile.Pass) rg.ExecuteFunc {
	label := d.Name
	if d.Shader != "" {
		label += " (" + d.Shader + ")"
	}
	return func(ctx device.Context, _ *rg.Resources) error {
		if rec, ok := ctx.(*record.Recording); ok {
			rec.Marker(label)
		}
		return nil
	}
}

func writeLifetimes(w io.Writer, rows []rg.Lifetime) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tKIND\tFIRST\tLAST\tVERSIONS\tIMPORTED\tEXPORTED\tPHYSICAL\tFINAL STATE")
	for _, lt := range rows {
		physical := lt.Physical
		if lt.MovedInto != "" {
			physical = "-> " + lt.MovedInto
		}
		fmt.Fprintf(tw, "%s\t%v\t%s\t%s\t%d\t%v\t%v\t%s\t%v\n",
			lt.Name, lt.Kind, passID(lt.First), passID(lt.Last), lt.Versions,
			lt.Imported, lt.Exported, physical, lt.FinalState)
	}
	_ = tw.Flush()
}

func passID(id int) string {
	if id < 0 {
		return "-"
	}
	return fmt.Sprintf("#%d", id)
}

// importer creates imported resources once and reuses them every frame.
type importer struct {
	dev       device.Device
	resources map[string]device.Resource
}

func newImporter(dev device.Device) *importer {
	return &importer{dev: dev, resources: make(map[string]device.Resource)}
}

func (im *importer) get(imp *rgfile.Import) (device.Resource, error) {
	if r, ok := im.resources[imp.Name]; ok {
		return r, nil
	}
	var (
		r   device.Resource
		err error
	)
	if imp.ResourceKind() == device.KindBuffer {
		r, err = im.dev.CreateBuffer(imp.Name, imp.BufferDesc())
	} else {
		r, err = im.dev.CreateTexture(imp.Name, imp.TextureDesc())
	}
	if err != nil {
		return nil, err
	}
	im.resources[imp.Name] = r
	return r, nil
}

func (im *importer) destroy() {
	for _, r := range im.resources {
		r.Destroy()
	}
}
