package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/assemble"
	"github.com/gkjohnson/source-engine-model-loader/internal/config"
	"github.com/gkjohnson/source-engine-model-loader/internal/loader"
	"github.com/gkjohnson/source-engine-model-loader/internal/logging"
	"github.com/gkjohnson/source-engine-model-loader/internal/material"
	"github.com/gkjohnson/source-engine-model-loader/internal/mathutil"
)

type meshInfo struct {
	Name     string
	Material string
	Default  bool
	Topology string
	Indices  int
}

type summary struct {
	Name        string
	Version     int32
	Checksum    int32
	Bones       []string
	Textures    []string
	Dirs        []string
	Skins       [][]uint16
	Layout      [][]int
	Vertices    int
	BoundsMin   [3]float32
	BoundsMax   [3]float32
	Meshes      []meshInfo
	Diagnostics []string
}

func summarize(m *assemble.AssembledModel) summary {
	h := m.Header
	s := summary{
		Name:     h.Name,
		Version:  h.Version,
		Checksum: h.Checksum,
		Textures: h.Textures,
		Dirs:     h.TextureDirectories,
		Skins:    h.SkinTable,
		Layout:   h.Layout(),
		Vertices: m.Vertices.Len(),
	}
	for _, b := range h.Bones {
		s.Bones = append(s.Bones, b.Name)
	}
	s.BoundsMin, s.BoundsMax = mathutil.Bounds(m.Vertices.Positions())
	for _, mesh := range m.Meshes {
		info := meshInfo{Name: mesh.Name, Topology: "triangles", Indices: len(mesh.Indices)}
		if mesh.Topology == assemble.TriangleStrip {
			info.Topology = "strip"
		}
		if mesh.Material != nil {
			info.Material = mesh.Material.Name
			info.Default = mesh.Material.Default
		}
		s.Meshes = append(s.Meshes, info)
	}
	for _, d := range m.Diagnostics() {
		s.Diagnostics = append(s.Diagnostics, d.String())
	}
	return s
}

func main() {
	configFile := flag.String("config", "", "Path to a .yaml or .toml config file")
	materialsDir := flag.String("materials", "", "Materials directory")
	full := flag.Bool("header", false, "Dump the whole decoded header")
	watch := flag.Bool("watch", false, "Reload whenever one of the model files changes")
	logLevel := flag.String("log", "", "Log level")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: inspect [flags] path/to/model.mdl")
		os.Exit(2)
	}

	var cfg config.Config
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{MaterialsDir: *materialsDir, LogLevel: *logLevel, SkinFamily: -1})

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	enc, err := cfg.Encoding()
	if err != nil {
		logger.Fatal("bad string encoding", "err", err)
	}

	opts := loader.Options{Encoding: enc, SkinFamily: cfg.SkinFamily, Logger: logger}
	if cfg.MaterialsDir != "" {
		if opts.Resolver, err = material.OpenDir(cfg.MaterialsDir); err != nil {
			logger.Fatal("materials unavailable", "err", err)
		}
	}

	dumper := spew.NewDefaultConfig()
	dumper.DisableCapacities = true
	dumper.DisablePointerAddresses = true

	modelPath := flag.Arg(0)
	dir := filepath.Dir(modelPath)
	base := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
	l := loader.New(opts)

	load := func(ctx context.Context) {
		src, err := loader.ReadSource(os.DirFS(dir), base, cfg.Suffixes)
		if err != nil {
			logger.Error("read failed", "err", err)
			return
		}
		m, err := l.Load(ctx, src)
		if errors.Is(err, loader.ErrSuperseded) {
			return
		}
		if err != nil {
			logger.Error("load failed", "err", err)
			return
		}
		if *full {
			dumper.Dump(m.Header)
		}
		dumper.Dump(summarize(m))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	load(ctx)
	if !*watch {
		return
	}
	if err := watchModel(ctx, logger, dir, base, func() { go load(ctx) }); err != nil {
		logger.Fatal("watch failed", "err", err)
	}
}

// watchModel calls reload after writes to any file named base.*, coalescing
// bursts of events.
func watchModel(ctx context.Context, logger *log.Logger, dir, base string, reload func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watching", "dir", dir, "model", base)

	const settle = 200 * time.Millisecond
	timer := time.NewTimer(settle)
	timer.Stop()
	prefix := strings.ToLower(base) + "."
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasPrefix(strings.ToLower(filepath.Base(e.Name)), prefix) {
				continue
			}
			logger.Debug("changed", "file", e.Name)
			timer.Reset(settle)
		case <-timer.C:
			reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}
