//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var (
	binDir  = "bin"
	appName = "learnport-web"
)

var Default = Run

// Run: start the API server with go run.
func Run() error {
	mg.Deps(Tidy)
	fmt.Println("Running (go run) ...")
	return sh.RunV("go", "run", "./cmd/web")
}

// Build: compile the server binary into bin/.
func Build() error {
	mg.Deps(Tidy)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	out := filepath.Join(binDir, appName)
	if runtime.GOOS == "windows" {
		out += ".exe"
	}
	fmt.Printf("Building %s ...\n", out)
	return sh.RunV("go", "build", "-o", out, "./cmd/web")
}

// Test: run all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Lint: vet plus golangci-lint when available.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	if _, err := sh.Output("golangci-lint", "--version"); err != nil {
		fmt.Println("golangci-lint not found, skipping")
		return nil
	}
	return sh.RunV("golangci-lint", "run")
}

// Tidy: go mod tidy.
func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}

// Clean: remove build artifacts.
func Clean() error {
	return os.RemoveAll(binDir)
}
