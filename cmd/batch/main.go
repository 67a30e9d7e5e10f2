package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gkjohnson/source-engine-model-loader/internal/batch"
	"github.com/gkjohnson/source-engine-model-loader/internal/config"
	"github.com/gkjohnson/source-engine-model-loader/internal/gltfexport"
	"github.com/gkjohnson/source-engine-model-loader/internal/loader"
	"github.com/gkjohnson/source-engine-model-loader/internal/logging"
	"github.com/gkjohnson/source-engine-model-loader/internal/material"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a .yaml or .toml config file")
	testN := flag.Int("test", 0, "Convert only the first N models for testing")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	baseDir := flag.String("base", "", "Game content root holding models/ and materials/")
	modelsDir := flag.String("models", "", "Models directory (default: <base>/models)")
	materialsDir := flag.String("materials", "", "Materials directory (default: <base>/materials)")
	outputDir := flag.String("output", "", "Output directory (default: <base>/gltf)")
	skin := flag.Int("skin", -1, "Skin family to bind (default: 0)")
	logLevel := flag.String("log", "", "Log level: debug, info, warn, error")

	flag.Parse()

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		BaseDir:      *baseDir,
		ModelsDir:    *modelsDir,
		MaterialsDir: *materialsDir,
		OutputDir:    *outputDir,
		Workers:      *workers,
		LogLevel:     *logLevel,
		SkinFamily:   *skin,
	})

	if cfg.ModelsDir == "" || cfg.OutputDir == "" {
		fmt.Fprintln(os.Stderr, "Error: no models or output directory. Use -base or a config file.")
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	enc, err := cfg.Encoding()
	if err != nil {
		logger.Fatal("bad string encoding", "err", err, "known", config.ListEncodings())
	}

	models := os.DirFS(cfg.ModelsDir)
	names, err := batch.Discover(models, cfg.Suffixes)
	if err != nil {
		logger.Fatal("cannot list models", "err", err)
	}

	// Limit for testing
	if *testN > 0 && *testN < len(names) {
		names = names[:*testN]
	}

	if len(names) == 0 {
		fmt.Println("No models to convert.")
		os.Exit(0)
	}

	opts := loader.Options{Encoding: enc, SkinFamily: cfg.SkinFamily}
	if cfg.MaterialsDir != "" {
		r, err := material.OpenDir(cfg.MaterialsDir)
		if err != nil {
			logger.Warn("materials unavailable, using defaults", "err", err)
		} else {
			opts.Resolver = r
		}
	}

	logger.Info("starting", "models", len(names), "workers", cfg.Workers, "output", cfg.OutputDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()

	results := batch.Run(ctx, batch.Config{
		Models:    models,
		OutputDir: cfg.OutputDir,
		Suffixes:  cfg.Suffixes,
		Loader:    opts,
		Export: gltfexport.Options{
			YUp:           cfg.YUp,
			Meters:        cfg.Meters,
			EmbedTextures: cfg.EmbedTextures,
		},
		Binary:  cfg.Binary,
		Workers: cfg.Workers,
		Logger:  logger,
	}, names)

	// Count results
	var failed []batch.Result
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}

	logger.Info("done", "converted", len(results)-len(failed), "total", len(names), "elapsed", time.Since(start).Round(time.Millisecond))

	limit := min(len(failed), 20)
	for _, r := range failed[:limit] {
		logger.Error("failed", "model", r.Name, "err", r.Error)
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		logger.Warn("manifest write failed", "err", err)
	} else {
		logger.Info("manifest written", "path", manifestPath)
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}
