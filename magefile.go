//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified.
var Default = Build

// Build compiles blfdump into bin/.
func Build() error {
	mg.Deps(Vet)
	return sh.RunV("go", "build", "-o", "bin/blfdump", "./cmd/blfdump")
}

// Test runs the unit and integration tests.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm("bin")
}
