//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Run mg.Namespace

// Converts every model under $MODELS_BASE to glTF, using config.yaml when present.
func (Run) Batch() error {
	base := os.Getenv("MODELS_BASE")
	if base == "" {
		return fmt.Errorf("MODELS_BASE is not set")
	}
	args := []string{"run", "./cmd/batch", "-base", base}
	if _, err := os.Stat("config.yaml"); err == nil {
		args = append(args, "-config", "config.yaml")
	}
	return sh.RunV("go", args...)
}

// Inspects one model, reloading on change: mage run:watch path/to/model.mdl
func (Run) Watch(model string) error {
	mg.Deps(Build.Tidy)
	return sh.RunV("go", "run", "./cmd/inspect", "-watch", model)
}
