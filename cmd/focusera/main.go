// Package main is the single-binary entrypoint for focusera.
// It serves the progression API and drives it from the terminal.
package main

import "github.com/tutu-network/focusera/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
