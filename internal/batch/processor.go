// Package batch converts every model under a directory tree to glTF using
// a pool of workers.
package batch

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/gkjohnson/source-engine-model-loader/internal/assemble"
	"github.com/gkjohnson/source-engine-model-loader/internal/gltfexport"
	"github.com/gkjohnson/source-engine-model-loader/internal/loader"
	"github.com/gkjohnson/source-engine-model-loader/internal/logging"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Models    fs.FS
	OutputDir string
	Suffixes  loader.Suffixes
	Loader    loader.Options
	Export    gltfexport.Options
	Binary    bool
	Workers   int
	Logger    *log.Logger

	// Progress is the interval between progress log lines.
	Progress time.Duration
}

// Result holds the outcome of processing one model.
type Result struct {
	Name        string
	Output      string
	ID          string
	Diagnostics int
	Success     bool
	Error       string
}

// Discover lists the model base names under fsys, i.e. every file ending in
// the header suffix, without that suffix. The suffix matches regardless of
// case and may span several dots. Names are sorted.
func Discover(fsys fs.FS, sfx loader.Suffixes) ([]string, error) {
	if sfx.Header == "" {
		return nil, errors.New("batch: discover: empty header suffix")
	}
	suffix := strings.ToLower(sfx.Header)
	var names []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || len(path.Base(p)) <= len(suffix) || !strings.HasSuffix(strings.ToLower(p), suffix) {
			return nil
		}
		names = append(names, p[:len(p)-len(suffix)])
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "batch: discover")
	}
	sort.Strings(names)
	return names, nil
}

// Run processes all models using a worker pool.
func Run(ctx context.Context, cfg Config, names []string) []Result {
	logger := logging.OrDiscard(cfg.Logger)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	interval := cfg.Progress
	if interval <= 0 {
		interval = 2 * time.Second
	}

	total := len(names)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					logger.Info("progress", "done", p, "total", total, "rate", rate)
				}
			}
		}
	}()

	// Worker pool
	work := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = processModel(ctx, cfg, logger, names[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range names {
		work <- i
	}
	close(work)

	wg.Wait()
	close(done)

	return results
}

func processModel(ctx context.Context, cfg Config, logger *log.Logger, name string) Result {
	res := Result{Name: name}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	src, err := loader.ReadSource(cfg.Models, name, cfg.Suffixes)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	// Loads on one Loader supersede each other, so every model gets its own.
	opts := cfg.Loader
	opts.Logger = logger.With("model", name)
	m, err := loader.New(opts).Load(ctx, src)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.ID = m.ID.String()
	res.Diagnostics = len(m.Diagnostics())
	if n := assemble.Count(m.Diagnostics(), assemble.ChecksumMismatch); n > 0 {
		logger.Warn("checksum mismatch, output may be garbled", "model", name)
	}

	doc, err := gltfexport.Export(m, cfg.Export)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	ext := ".gltf"
	if cfg.Binary {
		ext = ".glb"
	}
	res.Output = filepath.FromSlash(name) + ext
	outPath := filepath.Join(cfg.OutputDir, res.Output)
	if err := writeFile(outPath, func(f *os.File) error {
		return gltfexport.Write(f, doc, cfg.Binary)
	}); err != nil {
		res.Error = err.Error()
		return res
	}

	res.Success = true
	return res
}

func writeFile(p string, fn func(*os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
