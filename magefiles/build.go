//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Build mg.Namespace

var commands = []string{"batch", "export", "inspect", "texdump"}

// Builds every command into bin/.
func (Build) All() error {
	mg.Deps(Test.Unit)
	for _, c := range commands {
		out := filepath.Join("bin", c)
		if err := sh.RunV("go", "build", "-o", out, "./cmd/"+c); err != nil {
			return fmt.Errorf("build %s: %w", c, err)
		}
	}
	return nil
}

// Tidies go.mod and go.sum.
func (Build) Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}
