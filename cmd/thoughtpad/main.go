package main

import (
	"fmt"
	"os"

	"github.com/petems/thoughtpad/internal/cli"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	if err := cli.Execute(fmt.Sprintf("%s (%s)", Version, Commit)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
