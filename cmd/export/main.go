package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gkjohnson/source-engine-model-loader/internal/config"
	"github.com/gkjohnson/source-engine-model-loader/internal/gltfexport"
	"github.com/gkjohnson/source-engine-model-loader/internal/loader"
	"github.com/gkjohnson/source-engine-model-loader/internal/logging"
	"github.com/gkjohnson/source-engine-model-loader/internal/material"
)

func main() {
	configFile := flag.String("config", "", "Path to a .yaml or .toml config file")
	materialsDir := flag.String("materials", "", "Materials directory")
	out := flag.String("o", "", "Output file; .glb writes binary glTF (default: <model>.glb)")
	skin := flag.Int("skin", -1, "Skin family to bind")
	strips := flag.Bool("strips", false, "Keep triangle strips instead of expanding to lists")
	logLevel := flag.String("log", "", "Log level")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: export [flags] path/to/model.mdl\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
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
	cfg.Resolve(config.Flags{MaterialsDir: *materialsDir, LogLevel: *logLevel, SkinFamily: *skin})

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	enc, err := cfg.Encoding()
	if err != nil {
		logger.Fatal("bad string encoding", "err", err)
	}

	modelPath := flag.Arg(0)
	base := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
	src, err := loader.ReadSource(os.DirFS(filepath.Dir(modelPath)), base, cfg.Suffixes)
	if err != nil {
		logger.Fatal("read failed", "err", err)
	}

	opts := loader.Options{Encoding: enc, SkinFamily: cfg.SkinFamily, Logger: logger}
	if cfg.MaterialsDir != "" {
		if opts.Resolver, err = material.OpenDir(cfg.MaterialsDir); err != nil {
			logger.Fatal("materials unavailable", "err", err)
		}
	}

	m, err := loader.New(opts).Load(context.Background(), src)
	if err != nil {
		logger.Fatal("load failed", "err", err)
	}

	doc, err := gltfexport.Export(m, gltfexport.Options{
		YUp:           cfg.YUp,
		Meters:        cfg.Meters,
		KeepStrips:    *strips,
		EmbedTextures: cfg.EmbedTextures,
	})
	if err != nil {
		logger.Fatal("export failed", "err", err)
	}

	dst := *out
	if dst == "" {
		dst = strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".glb"
	}
	f, err := os.Create(dst)
	if err != nil {
		logger.Fatal("create failed", "err", err)
	}
	if err := gltfexport.Write(f, doc, strings.EqualFold(filepath.Ext(dst), ".glb")); err != nil {
		f.Close()
		logger.Fatal("write failed", "err", err)
	}
	if err := f.Close(); err != nil {
		logger.Fatal("write failed", "err", err)
	}
	logger.Info("exported", "model", m.Name, "id", m.ID, "meshes", len(m.Meshes), "diagnostics", len(m.Diagnostics()), "out", dst)
}
