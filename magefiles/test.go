//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type Test mg.Namespace

// Runs vet and the unit tests.
func (Test) Unit() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	args := []string{"test", "./..."}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	return sh.RunV("go", args...)
}

// Runs the tests with the race detector, which covers the loader's
// superseding and the batch worker pool.
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./internal/...")
}
