// Command texdump writes materials-relative texture names out as WebP, e.g.
//
//	texdump -materials hl2/materials -o out models/props/crate01
package main

import (
	"flag"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/gkjohnson/source-engine-model-loader/internal/logging"
	"github.com/gkjohnson/source-engine-model-loader/internal/texture"
)

func main() {
	materials := flag.String("materials", ".", "Materials directory")
	outDir := flag.String("o", ".", "Output directory")
	logLevel := flag.String("log", "", "Log level")
	flag.Parse()

	logger, err := logging.New(os.Stderr, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	idx, err := texture.BuildIndex(os.DirFS(*materials))
	if err != nil {
		logger.Fatal("index failed", "dir", *materials, "err", err)
	}
	logger.Info("textures indexed", "files", idx.Len())
	codec := texture.NewImageCodec(idx)

	failed := 0
	for _, name := range flag.Args() {
		if err := dump(codec, name, *outDir); err != nil {
			logger.Error("dump failed", "texture", name, "err", err)
			failed++
			continue
		}
		logger.Info("ok", "texture", name)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func dump(codec texture.Codec, name, outDir string) error {
	img, err := codec.Load(texture.Normalize(name))
	if err != nil {
		return err
	}
	dst := filepath.Join(outDir, path.Base(texture.Normalize(name))+".webp")
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := texture.EncodeWebP(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
